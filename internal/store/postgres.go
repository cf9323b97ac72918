package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
	"github.com/mangekyou-labs/kamui-vrf/internal/pool"
	"github.com/mangekyou-labs/kamui-vrf/internal/subscription"
)

// PostgresStore persists coordinator records as discriminated binary blobs
// in Postgres, so the same record codec backs both the in-memory store used
// in tests and the durable deployment path.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an already-open *sqlx.DB. Callers should run
// Migrate against the underlying *sql.DB before first use.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func notFound(err error, op string) error {
	return errs.E(errs.RequestNotFound, op, err)
}

func (s *PostgresStore) PutSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vrf_subscriptions (id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, sub.ID[:], EncodeSubscription(sub))
	return err
}

func (s *PostgresStore) GetSubscription(ctx context.Context, id [32]byte) (*subscription.Subscription, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM vrf_subscriptions WHERE id = $1`, id[:])
	if err != nil {
		return nil, notFound(err, "store.GetSubscription")
	}
	return DecodeSubscription(data)
}

func (s *PostgresStore) ListSubscriptions(ctx context.Context) ([]*subscription.Subscription, error) {
	var blobs [][]byte
	if err := s.db.SelectContext(ctx, &blobs, `SELECT data FROM vrf_subscriptions ORDER BY updated_at`); err != nil {
		return nil, err
	}
	out := make([]*subscription.Subscription, 0, len(blobs))
	for _, b := range blobs {
		sub, err := DecodeSubscription(b)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *PostgresStore) PutPool(ctx context.Context, p *pool.RequestPool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vrf_pools (subscription_id, pool_id, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (subscription_id, pool_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, p.SubscriptionID[:], int16(p.PoolID), EncodePool(p))
	return err
}

func (s *PostgresStore) GetPool(ctx context.Context, subscriptionID [32]byte, poolID uint8) (*pool.RequestPool, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `
		SELECT data FROM vrf_pools WHERE subscription_id = $1 AND pool_id = $2
	`, subscriptionID[:], int16(poolID))
	if err != nil {
		return nil, notFound(err, "store.GetPool")
	}
	return DecodePool(data)
}

func (s *PostgresStore) PutRequest(ctx context.Context, req *coordinator.RandomnessRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vrf_requests (request_id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (request_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, req.RequestID[:], EncodeRequest(req))
	return err
}

func (s *PostgresStore) GetRequest(ctx context.Context, requestID [32]byte) (*coordinator.RandomnessRequest, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM vrf_requests WHERE request_id = $1`, requestID[:])
	if err != nil {
		return nil, notFound(err, "store.GetRequest")
	}
	return DecodeRequest(data)
}

func (s *PostgresStore) PutResult(ctx context.Context, res *coordinator.VrfResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vrf_results (request_id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (request_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, res.RequestID[:], EncodeResult(res))
	return err
}

func (s *PostgresStore) GetResult(ctx context.Context, requestID [32]byte) (*coordinator.VrfResult, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM vrf_results WHERE request_id = $1`, requestID[:])
	if err != nil {
		return nil, notFound(err, "store.GetResult")
	}
	return DecodeResult(data)
}

func (s *PostgresStore) PutRegistry(ctx context.Context, r *oracle.Registry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vrf_oracle_registry (id, data, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, EncodeRegistry(r))
	return err
}

func (s *PostgresStore) GetRegistry(ctx context.Context) (*oracle.Registry, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM vrf_oracle_registry WHERE id = 1`)
	if err != nil {
		return nil, notFound(err, "store.GetRegistry")
	}
	return DecodeRegistry(data)
}
