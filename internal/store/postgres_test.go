package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
	"github.com/mangekyou-labs/kamui-vrf/internal/subscription"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "postgres")
	return NewPostgresStore(db), mock
}

func TestPostgresStorePutSubscriptionUpserts(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	var id, owner [32]byte
	id[0] = 1
	owner[0] = 2
	sub, err := subscription.Create(id, owner, 0, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vrf_subscriptions")).
		WithArgs(id[:], EncodeSubscription(sub)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.PutSubscription(context.Background(), sub); err != nil {
		t.Fatalf("PutSubscription: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreGetSubscriptionReturnsDecodedRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	var id, owner [32]byte
	id[0] = 3
	owner[0] = 4
	sub, err := subscription.Create(id, owner, 1000, 2, 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows := sqlmock.NewRows([]string{"data"}).AddRow(EncodeSubscription(sub))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM vrf_subscriptions WHERE id = $1")).
		WithArgs(id[:]).
		WillReturnRows(rows)

	got, err := s.GetSubscription(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.ID != sub.ID || got.MinBalance != sub.MinBalance {
		t.Fatalf("round trip through mock mismatch: got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreGetSubscriptionMissingIsNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	var id [32]byte
	id[0] = 9

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM vrf_subscriptions WHERE id = $1")).
		WithArgs(id[:]).
		WillReturnError(sqlErrNoRows{})

	_, err := s.GetSubscription(context.Background(), id)
	if !errs.Is(err, errs.RequestNotFound) {
		t.Fatalf("got %v, want RequestNotFound", err)
	}
}

// sqlErrNoRows stands in for sql.ErrNoRows so the test doesn't need to import
// database/sql solely for this sentinel.
type sqlErrNoRows struct{}

func (sqlErrNoRows) Error() string { return "sql: no rows in result set" }
