package store

import (
	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/pool"
)

// EncodeRequest serializes a RandomnessRequest into its discriminated wire
// record.
func EncodeRequest(req *coordinator.RandomnessRequest) []byte {
	w := newWriter(DiscriminatorRequest)
	w.bytes32(req.Subscription)
	w.bytes32(req.Seed)
	w.bytes32(req.Requester)
	w.vec(req.CallbackData)
	w.u64(req.RequestSlot)
	w.u8(uint8(req.Status))
	w.u32(req.NumWords)
	w.u32(req.CallbackGasLimit)
	w.u8(req.PoolID)
	w.u32(req.RequestIndex)
	w.bytes32(req.RequestID)
	return w.buf
}

// DecodeRequest parses a record produced by EncodeRequest.
func DecodeRequest(data []byte) (*coordinator.RandomnessRequest, error) {
	r, err := newReader(DiscriminatorRequest, data)
	if err != nil {
		return nil, err
	}
	req := &coordinator.RandomnessRequest{}
	if req.Subscription, err = r.bytes32(); err != nil {
		return nil, err
	}
	if req.Seed, err = r.bytes32(); err != nil {
		return nil, err
	}
	if req.Requester, err = r.bytes32(); err != nil {
		return nil, err
	}
	if req.CallbackData, err = r.vec(); err != nil {
		return nil, err
	}
	if req.RequestSlot, err = r.u64(); err != nil {
		return nil, err
	}
	status, err := r.u8()
	if err != nil {
		return nil, err
	}
	req.Status = pool.Status(status)
	if req.NumWords, err = r.u32(); err != nil {
		return nil, err
	}
	if req.CallbackGasLimit, err = r.u32(); err != nil {
		return nil, err
	}
	if req.PoolID, err = r.u8(); err != nil {
		return nil, err
	}
	if req.RequestIndex, err = r.u32(); err != nil {
		return nil, err
	}
	if req.RequestID, err = r.bytes32(); err != nil {
		return nil, err
	}
	return req, nil
}

// EncodeResult serializes a VrfResult into its discriminated wire record.
func EncodeResult(res *coordinator.VrfResult) []byte {
	w := newWriter(DiscriminatorResult)
	w.u32(uint32(len(res.Randomness)))
	for _, word := range res.Randomness {
		w.bytes(word[:])
	}
	w.bytes(res.Proof[:])
	w.u64(res.ProofSlot)
	w.bytes32(res.RequestID)
	return w.buf
}

// DecodeResult parses a record produced by EncodeResult.
func DecodeResult(data []byte) (*coordinator.VrfResult, error) {
	r, err := newReader(DiscriminatorResult, data)
	if err != nil {
		return nil, err
	}
	res := &coordinator.VrfResult{}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	res.Randomness = make([][64]byte, n)
	for i := uint32(0); i < n; i++ {
		b, err := r.bytes(64)
		if err != nil {
			return nil, err
		}
		copy(res.Randomness[i][:], b)
	}
	proofBytes, err := r.bytes(len(res.Proof))
	if err != nil {
		return nil, err
	}
	copy(res.Proof[:], proofBytes)
	if res.ProofSlot, err = r.u64(); err != nil {
		return nil, err
	}
	if res.RequestID, err = r.bytes32(); err != nil {
		return nil, err
	}
	return res, nil
}
