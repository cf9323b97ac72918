package store

import (
	"context"
	"sync"

	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
	"github.com/mangekyou-labs/kamui-vrf/internal/pool"
	"github.com/mangekyou-labs/kamui-vrf/internal/subscription"
)

// Store persists the coordinator's durable entities across restarts.
// Implementations must be safe for concurrent use.
type Store interface {
	PutSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, id [32]byte) (*subscription.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]*subscription.Subscription, error)

	PutPool(ctx context.Context, p *pool.RequestPool) error
	GetPool(ctx context.Context, subscriptionID [32]byte, poolID uint8) (*pool.RequestPool, error)

	PutRequest(ctx context.Context, req *coordinator.RandomnessRequest) error
	GetRequest(ctx context.Context, requestID [32]byte) (*coordinator.RandomnessRequest, error)

	PutResult(ctx context.Context, res *coordinator.VrfResult) error
	GetResult(ctx context.Context, requestID [32]byte) (*coordinator.VrfResult, error)

	PutRegistry(ctx context.Context, r *oracle.Registry) error
	GetRegistry(ctx context.Context) (*oracle.Registry, error)
}

// MemoryStore is an in-process Store backed by maps, used by tests and by
// standalone deployments that don't need durability across restarts.
type MemoryStore struct {
	mu            sync.RWMutex
	subscriptions map[[32]byte][]byte
	pools         map[poolKey][]byte
	requests      map[[32]byte][]byte
	results       map[[32]byte][]byte
	registry      []byte
}

type poolKey struct {
	subscription [32]byte
	poolID       uint8
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscriptions: make(map[[32]byte][]byte),
		pools:         make(map[poolKey][]byte),
		requests:      make(map[[32]byte][]byte),
		results:       make(map[[32]byte][]byte),
	}
}

func (m *MemoryStore) PutSubscription(ctx context.Context, s *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[s.ID] = EncodeSubscription(s)
	return nil
}

func (m *MemoryStore) GetSubscription(ctx context.Context, id [32]byte) (*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.subscriptions[id]
	if !ok {
		return nil, errs.E(errs.RequestNotFound, "store.GetSubscription", nil)
	}
	return DecodeSubscription(data)
}

func (m *MemoryStore) ListSubscriptions(ctx context.Context) ([]*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*subscription.Subscription, 0, len(m.subscriptions))
	for _, data := range m.subscriptions {
		s, err := DecodeSubscription(data)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *MemoryStore) PutPool(ctx context.Context, p *pool.RequestPool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[poolKey{p.SubscriptionID, p.PoolID}] = EncodePool(p)
	return nil
}

func (m *MemoryStore) GetPool(ctx context.Context, subscriptionID [32]byte, poolID uint8) (*pool.RequestPool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.pools[poolKey{subscriptionID, poolID}]
	if !ok {
		return nil, errs.E(errs.RequestNotFound, "store.GetPool", nil)
	}
	return DecodePool(data)
}

func (m *MemoryStore) PutRequest(ctx context.Context, req *coordinator.RandomnessRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.RequestID] = EncodeRequest(req)
	return nil
}

func (m *MemoryStore) GetRequest(ctx context.Context, requestID [32]byte) (*coordinator.RandomnessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.requests[requestID]
	if !ok {
		return nil, errs.E(errs.RequestNotFound, "store.GetRequest", nil)
	}
	return DecodeRequest(data)
}

func (m *MemoryStore) PutResult(ctx context.Context, res *coordinator.VrfResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[res.RequestID] = EncodeResult(res)
	return nil
}

func (m *MemoryStore) GetResult(ctx context.Context, requestID [32]byte) (*coordinator.VrfResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.results[requestID]
	if !ok {
		return nil, errs.E(errs.RequestNotFound, "store.GetResult", nil)
	}
	return DecodeResult(data)
}

func (m *MemoryStore) PutRegistry(ctx context.Context, r *oracle.Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry = EncodeRegistry(r)
	return nil
}

func (m *MemoryStore) GetRegistry(ctx context.Context) (*oracle.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.registry == nil {
		return nil, errs.E(errs.RequestNotFound, "store.GetRegistry", nil)
	}
	return DecodeRegistry(m.registry)
}
