// Package subscription implements the funded-account ledger that gates every
// randomness request: balance, confirmation policy, active-request budget,
// and pool membership.
package subscription

import (
	"math"

	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
)

const (
	MinConfirmations = 1
	MaxConfirmations = 255

	MinMaxRequests = 1
	MaxMaxRequests = 100

	MaxRequestKeys = 16
	MaxPoolIDs     = 16
)

// Fingerprint is the truncated 16-byte request-id hint kept for O(n) dedup.
type Fingerprint = [16]byte

// Subscription is the funded account a requester draws against.
type Subscription struct {
	ID             [32]byte
	Owner          [32]byte
	Balance        uint64
	MinBalance     uint64
	Confirmations  uint8
	MaxRequests    uint8
	ActiveRequests uint8
	RequestCounter uint32
	RequestKeys    []Fingerprint
	PoolIDs        []uint8
}

// Create validates and initializes a new subscription with the given
// min_balance, confirmations, and max_requests policy.
func Create(id, owner [32]byte, minBalance uint64, confirmations uint8, maxRequests uint8) (*Subscription, error) {
	if confirmations < MinConfirmations || confirmations > MaxConfirmations {
		return nil, errs.E(errs.InvalidConfirmations, "subscription.Create", nil)
	}
	if maxRequests < MinMaxRequests || maxRequests > MaxMaxRequests {
		return nil, errs.E(errs.InvalidMaxRequests, "subscription.Create", nil)
	}
	return &Subscription{
		ID:            id,
		Owner:         owner,
		MinBalance:    minBalance,
		Confirmations: confirmations,
		MaxRequests:   maxRequests,
	}, nil
}

// AddPool registers pool_id as belonging to this subscription (bounded to
// MaxPoolIDs, mirroring the ≤16 cap on request_keys).
func (s *Subscription) AddPool(poolID uint8) error {
	for _, p := range s.PoolIDs {
		if p == poolID {
			return nil
		}
	}
	if len(s.PoolIDs) >= MaxPoolIDs {
		return errs.E(errs.InvalidPoolId, "subscription.AddPool", nil)
	}
	s.PoolIDs = append(s.PoolIDs, poolID)
	return nil
}

// HasPool reports whether poolID is registered for this subscription.
func (s *Subscription) HasPool(poolID uint8) bool {
	for _, p := range s.PoolIDs {
		if p == poolID {
			return true
		}
	}
	return false
}

// Fund increases balance by amount, fund(amount).
func (s *Subscription) Fund(amount uint64) error {
	if amount == 0 {
		return errs.E(errs.InvalidAmount, "subscription.Fund", nil)
	}
	if s.Balance > math.MaxUint64-amount {
		return errs.E(errs.ArithmeticOverflow, "subscription.Fund", nil)
	}
	s.Balance += amount
	return nil
}

// ReserveForRequest reserves a request slot: deducts min_balance, increments
// active_requests, records fp, and increments request_counter. fp is not
// recorded once MaxRequestKeys fingerprints are already held.
func (s *Subscription) ReserveForRequest(fp Fingerprint) error {
	if s.ActiveRequests >= s.MaxRequests {
		return errs.E(errs.TooManyRequests, "subscription.ReserveForRequest", nil)
	}
	if s.Balance < s.MinBalance {
		return errs.E(errs.InsufficientFunds, "subscription.ReserveForRequest", nil)
	}
	s.Balance -= s.MinBalance
	s.ActiveRequests++
	s.RequestKeys = appendBounded(s.RequestKeys, fp)
	s.RequestCounter++
	return nil
}

// ReleaseOnFulfillment releases a reserved slot on successful fulfillment.
func (s *Subscription) ReleaseOnFulfillment(fp Fingerprint) {
	s.release(fp)
}

// RefundOnCancel refunds min_balance and releases the slot on cancellation.
func (s *Subscription) RefundOnCancel(fp Fingerprint) {
	s.Balance += s.MinBalance
	s.release(fp)
}

func (s *Subscription) release(fp Fingerprint) {
	if s.ActiveRequests > 0 {
		s.ActiveRequests--
	}
	s.RequestKeys = removeFingerprint(s.RequestKeys, fp)
}

// ReleaseBatch decrements active_requests by n without a known fingerprint,
// used by clean_expired which treats request_keys cleanup as best-effort
// since the fingerprint->id mapping isn't retained by the pool.
func (s *Subscription) ReleaseBatch(n uint8) {
	for i := uint8(0); i < n && s.ActiveRequests > 0; i++ {
		s.ActiveRequests--
	}
}

func appendBounded(keys []Fingerprint, fp Fingerprint) []Fingerprint {
	if len(keys) >= MaxRequestKeys {
		return keys
	}
	return append(keys, fp)
}

func removeFingerprint(keys []Fingerprint, fp Fingerprint) []Fingerprint {
	for i, k := range keys {
		if k == fp {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

// Clone returns a defensive copy, handing out a copy rather than a pointer
// into live state.
func (s *Subscription) Clone() *Subscription {
	cp := *s
	cp.RequestKeys = append([]Fingerprint(nil), s.RequestKeys...)
	cp.PoolIDs = append([]uint8(nil), s.PoolIDs...)
	return &cp
}
