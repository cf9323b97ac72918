package store

import (
	"bytes"
	"sort"

	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
)

// EncodeOracle serializes a single Oracle into its discriminated wire record.
func EncodeOracle(o *oracle.Oracle) []byte {
	w := newWriter(DiscriminatorOracle)
	w.bytes32(o.Authority)
	w.bytes32(o.VrfKey)
	w.u64(o.StakeAmount)
	w.u32(o.Reputation)
	w.i64(o.LastActive)
	if o.IsActive {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.u64(o.FulfillmentCount)
	w.u64(o.FailureCount)
	return w.buf
}

// DecodeOracle parses a record produced by EncodeOracle.
func DecodeOracle(data []byte) (*oracle.Oracle, error) {
	r, err := newReader(DiscriminatorOracle, data)
	if err != nil {
		return nil, err
	}
	o := &oracle.Oracle{}
	if o.Authority, err = r.bytes32(); err != nil {
		return nil, err
	}
	if o.VrfKey, err = r.bytes32(); err != nil {
		return nil, err
	}
	if o.StakeAmount, err = r.u64(); err != nil {
		return nil, err
	}
	if o.Reputation, err = r.u32(); err != nil {
		return nil, err
	}
	if o.LastActive, err = r.i64(); err != nil {
		return nil, err
	}
	active, err := r.u8()
	if err != nil {
		return nil, err
	}
	o.IsActive = active != 0
	if o.FulfillmentCount, err = r.u64(); err != nil {
		return nil, err
	}
	if o.FailureCount, err = r.u64(); err != nil {
		return nil, err
	}
	return o, nil
}

// EncodeRegistry serializes a Registry, including every registered oracle,
// into its discriminated wire record.
func EncodeRegistry(r *oracle.Registry) []byte {
	w := newWriter(DiscriminatorRegistry)
	w.bytes32(r.Admin)
	w.u64(r.MinStake)
	w.u64(r.RotationFrequency)
	w.u64(r.LastRotation)

	oracles := r.All()
	sort.Slice(oracles, func(i, j int) bool {
		return bytes.Compare(oracles[i].Authority[:], oracles[j].Authority[:]) < 0
	})
	w.u32(uint32(len(oracles)))
	for i := range oracles {
		rec := EncodeOracle(&oracles[i])
		w.vec(rec)
	}
	return w.buf
}

// DecodeRegistry parses a record produced by EncodeRegistry.
func DecodeRegistry(data []byte) (*oracle.Registry, error) {
	r, err := newReader(DiscriminatorRegistry, data)
	if err != nil {
		return nil, err
	}
	admin, err := r.bytes32()
	if err != nil {
		return nil, err
	}
	minStake, err := r.u64()
	if err != nil {
		return nil, err
	}
	rotationFrequency, err := r.u64()
	if err != nil {
		return nil, err
	}
	lastRotation, err := r.u64()
	if err != nil {
		return nil, err
	}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	oracles := make([]oracle.Oracle, 0, n)
	for i := uint32(0); i < n; i++ {
		rec, err := r.vec()
		if err != nil {
			return nil, err
		}
		o, err := DecodeOracle(rec)
		if err != nil {
			return nil, err
		}
		oracles = append(oracles, *o)
	}
	return oracle.Restore(admin, minStake, rotationFrequency, lastRotation, oracles), nil
}
