package store

import (
	"sort"

	"github.com/mangekyou-labs/kamui-vrf/internal/pool"
)

// EncodePool serializes a RequestPool, including every summary it holds,
// into its discriminated wire record.
func EncodePool(p *pool.RequestPool) []byte {
	requestCount, maxIndexSeen, entries := p.Snapshot()

	w := newWriter(DiscriminatorPool)
	w.bytes32(p.SubscriptionID)
	w.u8(p.PoolID)
	w.u32(p.MaxSize)
	w.u64(p.LastProcessedSlot)
	w.u32(requestCount)
	w.i64(maxIndexSeen)

	indices := make([]uint32, 0, len(entries))
	for idx := range entries {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	w.u32(uint32(len(entries)))
	for _, idx := range indices {
		s := entries[idx]
		w.u32(idx)
		w.bytes32(s.Requester)
		w.bytes32(s.SeedHash)
		w.i64(s.Timestamp)
		w.u8(uint8(s.Status))
		w.u64(s.RequestSlot)
		w.u32(s.CallbackGasLimit)
	}
	return w.buf
}

// DecodePool parses a record produced by EncodePool.
func DecodePool(data []byte) (*pool.RequestPool, error) {
	r, err := newReader(DiscriminatorPool, data)
	if err != nil {
		return nil, err
	}
	subscriptionID, err := r.bytes32()
	if err != nil {
		return nil, err
	}
	poolID, err := r.u8()
	if err != nil {
		return nil, err
	}
	maxSize, err := r.u32()
	if err != nil {
		return nil, err
	}
	lastProcessedSlot, err := r.u64()
	if err != nil {
		return nil, err
	}
	requestCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	maxIndexSeen, err := r.i64()
	if err != nil {
		return nil, err
	}

	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	entries := make(map[uint32]pool.RequestSummary, n)
	for i := uint32(0); i < n; i++ {
		idx, err := r.u32()
		if err != nil {
			return nil, err
		}
		var s pool.RequestSummary
		if s.Requester, err = r.bytes32(); err != nil {
			return nil, err
		}
		if s.SeedHash, err = r.bytes32(); err != nil {
			return nil, err
		}
		if s.Timestamp, err = r.i64(); err != nil {
			return nil, err
		}
		status, err := r.u8()
		if err != nil {
			return nil, err
		}
		s.Status = pool.Status(status)
		if s.RequestSlot, err = r.u64(); err != nil {
			return nil, err
		}
		if s.CallbackGasLimit, err = r.u32(); err != nil {
			return nil, err
		}
		entries[idx] = s
	}

	return pool.Restore(subscriptionID, poolID, maxSize, lastProcessedSlot, requestCount, maxIndexSeen, entries), nil
}
