package store

import (
	"github.com/mangekyou-labs/kamui-vrf/internal/subscription"
)

// EncodeSubscription serializes a Subscription into its discriminated wire
// record.
func EncodeSubscription(s *subscription.Subscription) []byte {
	w := newWriter(DiscriminatorSubscription)
	w.bytes32(s.ID)
	w.bytes32(s.Owner)
	w.u64(s.Balance)
	w.u64(s.MinBalance)
	w.u8(s.Confirmations)
	w.u8(s.MaxRequests)
	w.u8(s.ActiveRequests)
	w.u32(s.RequestCounter)

	w.u32(uint32(len(s.RequestKeys)))
	for _, fp := range s.RequestKeys {
		w.bytes(fp[:])
	}

	w.u32(uint32(len(s.PoolIDs)))
	for _, id := range s.PoolIDs {
		w.u8(id)
	}
	return w.buf
}

// DecodeSubscription parses a record produced by EncodeSubscription.
func DecodeSubscription(data []byte) (*subscription.Subscription, error) {
	r, err := newReader(DiscriminatorSubscription, data)
	if err != nil {
		return nil, err
	}
	s := &subscription.Subscription{}
	if s.ID, err = r.bytes32(); err != nil {
		return nil, err
	}
	if s.Owner, err = r.bytes32(); err != nil {
		return nil, err
	}
	if s.Balance, err = r.u64(); err != nil {
		return nil, err
	}
	if s.MinBalance, err = r.u64(); err != nil {
		return nil, err
	}
	if s.Confirmations, err = r.u8(); err != nil {
		return nil, err
	}
	if s.MaxRequests, err = r.u8(); err != nil {
		return nil, err
	}
	if s.ActiveRequests, err = r.u8(); err != nil {
		return nil, err
	}
	if s.RequestCounter, err = r.u32(); err != nil {
		return nil, err
	}

	nKeys, err := r.u32()
	if err != nil {
		return nil, err
	}
	s.RequestKeys = make([]subscription.Fingerprint, 0, nKeys)
	for i := uint32(0); i < nKeys; i++ {
		b, err := r.bytes(16)
		if err != nil {
			return nil, err
		}
		var fp subscription.Fingerprint
		copy(fp[:], b)
		s.RequestKeys = append(s.RequestKeys, fp)
	}

	nPools, err := r.u32()
	if err != nil {
		return nil, err
	}
	s.PoolIDs = make([]uint8, 0, nPools)
	for i := uint32(0); i < nPools; i++ {
		id, err := r.u8()
		if err != nil {
			return nil, err
		}
		s.PoolIDs = append(s.PoolIDs, id)
	}
	return s, nil
}
