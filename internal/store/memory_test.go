package store

import (
	"context"
	"testing"

	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
	"github.com/mangekyou-labs/kamui-vrf/internal/pool"
	"github.com/mangekyou-labs/kamui-vrf/internal/subscription"
)

func TestMemoryStoreSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var id, owner [32]byte
	id[0] = 1
	owner[0] = 2
	sub, err := subscription.Create(id, owner, 0, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.PutSubscription(ctx, sub); err != nil {
		t.Fatalf("PutSubscription: %v", err)
	}
	got, err := s.GetSubscription(ctx, id)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.ID != sub.ID {
		t.Fatalf("got id %x, want %x", got.ID, sub.ID)
	}

	all, err := s.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d subscriptions, want 1", len(all))
	}
}

func TestMemoryStoreGetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var id [32]byte
	if _, err := s.GetSubscription(ctx, id); !errs.Is(err, errs.RequestNotFound) {
		t.Fatalf("got %v, want RequestNotFound", err)
	}
	if _, err := s.GetPool(ctx, id, 0); !errs.Is(err, errs.RequestNotFound) {
		t.Fatalf("got %v, want RequestNotFound", err)
	}
	if _, err := s.GetRequest(ctx, id); !errs.Is(err, errs.RequestNotFound) {
		t.Fatalf("got %v, want RequestNotFound", err)
	}
	if _, err := s.GetResult(ctx, id); !errs.Is(err, errs.RequestNotFound) {
		t.Fatalf("got %v, want RequestNotFound", err)
	}
	if _, err := s.GetRegistry(ctx); !errs.Is(err, errs.RequestNotFound) {
		t.Fatalf("got %v, want RequestNotFound", err)
	}
}

func TestMemoryStorePoolAndRegistry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var subID [32]byte
	subID[0] = 5
	p, err := pool.New(subID, 1, 4)
	if err != nil {
		t.Fatalf("pool.New: %v", err)
	}
	if err := s.PutPool(ctx, p); err != nil {
		t.Fatalf("PutPool: %v", err)
	}
	got, err := s.GetPool(ctx, subID, 1)
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if got.MaxSize != p.MaxSize {
		t.Fatalf("max size mismatch: got %d want %d", got.MaxSize, p.MaxSize)
	}

	var admin [32]byte
	admin[0] = 9
	reg := oracle.Initialize(admin, 100, 10, 0, nil)
	if err := s.PutRegistry(ctx, reg); err != nil {
		t.Fatalf("PutRegistry: %v", err)
	}
	gotReg, err := s.GetRegistry(ctx)
	if err != nil {
		t.Fatalf("GetRegistry: %v", err)
	}
	if gotReg.Admin != admin {
		t.Fatalf("admin mismatch: got %x want %x", gotReg.Admin, admin)
	}
}
