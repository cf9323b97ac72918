// Package pool implements the bounded, ordered collection of request
// summaries owned by one subscription.
package pool

import (
	"sort"

	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
)

// Status mirrors the lifecycle shared by RequestSummary and
// RandomnessRequest: Pending -> Fulfilled | Cancelled | Expired.
type Status uint8

const (
	Pending Status = iota
	Fulfilled
	Cancelled
	Expired
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Cancelled:
		return "cancelled"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// DefaultExpirySlots is 3*60*60 slots, the default staleness window for
// a pool's periodic expiry sweep.
const DefaultExpirySlots = 3 * 60 * 60

// RequestSummary is the compact per-request record kept in the pool for
// iteration.
type RequestSummary struct {
	Requester        [32]byte
	SeedHash         [32]byte
	Timestamp        int64
	Status           Status
	RequestSlot      uint64
	CallbackGasLimit uint32
}

// RequestPool is a bounded ordered collection of request summaries.
// Indices never repeat within the pool's lifetime.
type RequestPool struct {
	SubscriptionID    [32]byte
	PoolID            uint8
	MaxSize           uint32
	LastProcessedSlot uint64

	requestCount uint32
	summaries    map[uint32]*RequestSummary
	maxIndexSeen int64 // -1 if none yet
}

// New creates a RequestPool with the given capacity (max_size > 0).
func New(subscriptionID [32]byte, poolID uint8, maxSize uint32) (*RequestPool, error) {
	if maxSize == 0 {
		return nil, errs.E(errs.InvalidPoolSize, "pool.New", nil)
	}
	return &RequestPool{
		SubscriptionID: subscriptionID,
		PoolID:         poolID,
		MaxSize:        maxSize,
		summaries:      make(map[uint32]*RequestSummary),
		maxIndexSeen:   -1,
	}, nil
}

// RequestCount returns the number of summaries currently tracked.
func (p *RequestPool) RequestCount() uint32 { return p.requestCount }

// NextIndex returns max(current indices)+1, or 0 if empty. Indices are
// never reused within the pool's lifetime even
// after entries are logically removed, since maxIndexSeen only grows.
func (p *RequestPool) NextIndex() uint32 {
	if p.maxIndexSeen < 0 {
		return 0
	}
	return uint32(p.maxIndexSeen) + 1
}

// Add inserts summary at index, precondition request_count < max_size.
func (p *RequestPool) Add(index uint32, summary RequestSummary) error {
	if p.requestCount >= p.MaxSize {
		return errs.E(errs.PoolCapacityExceeded, "pool.Add", nil)
	}
	cp := summary
	p.summaries[index] = &cp
	p.requestCount++
	if int64(index) > p.maxIndexSeen {
		p.maxIndexSeen = int64(index)
	}
	return nil
}

// Find returns the summary at index, or fails with RequestNotFound.
func (p *RequestPool) Find(index uint32) (*RequestSummary, error) {
	s, ok := p.summaries[index]
	if !ok {
		return nil, errs.E(errs.RequestNotFound, "pool.Find", nil)
	}
	cp := *s
	return &cp, nil
}

// Transition moves the summary at index to newStatus; only legal from
// Pending.
func (p *RequestPool) Transition(index uint32, newStatus Status) error {
	s, ok := p.summaries[index]
	if !ok {
		return errs.E(errs.RequestNotFound, "pool.Transition", nil)
	}
	if s.Status != Pending {
		return errs.E(errs.RequestNotPending, "pool.Transition", nil)
	}
	s.Status = newStatus
	return nil
}

// CleanExpired marks every Pending summary whose age exceeds expirySlots as
// Expired and returns the count transitioned.
// Idempotent: a second call with no newly-stale entries returns 0.
func (p *RequestPool) CleanExpired(currentSlot uint64, expirySlots uint64) uint32 {
	var n uint32
	for _, s := range p.summaries {
		if s.Status != Pending {
			continue
		}
		if currentSlot-s.RequestSlot > expirySlots {
			s.Status = Expired
			n++
		}
	}
	p.LastProcessedSlot = currentSlot
	return n
}

// Indices returns the pool's indices in ascending order, since no two
// indices within a pool are ever equal and ties never need breaking.
func (p *RequestPool) Indices() []uint32 {
	out := make([]uint32, 0, len(p.summaries))
	for idx := range p.summaries {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot captures the pool's full internal state for persistence.
func (p *RequestPool) Snapshot() (requestCount uint32, maxIndexSeen int64, entries map[uint32]RequestSummary) {
	entries = make(map[uint32]RequestSummary, len(p.summaries))
	for idx, s := range p.summaries {
		entries[idx] = *s
	}
	return p.requestCount, p.maxIndexSeen, entries
}

// Restore reconstructs a RequestPool from a previously captured Snapshot,
// bypassing New's capacity bookkeeping so a full pool can be reloaded as-is.
func Restore(subscriptionID [32]byte, poolID uint8, maxSize uint32, lastProcessedSlot uint64, requestCount uint32, maxIndexSeen int64, entries map[uint32]RequestSummary) *RequestPool {
	summaries := make(map[uint32]*RequestSummary, len(entries))
	for idx, s := range entries {
		cp := s
		summaries[idx] = &cp
	}
	return &RequestPool{
		SubscriptionID:    subscriptionID,
		PoolID:            poolID,
		MaxSize:           maxSize,
		LastProcessedSlot: lastProcessedSlot,
		requestCount:      requestCount,
		summaries:         summaries,
		maxIndexSeen:      maxIndexSeen,
	}
}
