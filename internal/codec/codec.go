// Package codec implements the cross-chain wire formats the coordinator
// exchanges with remote chains over the peer-gated transport. Every
// payload starts with a tag byte so a receiving chain can dispatch on the
// first byte without parsing the rest; the VRF request and fulfillment
// payloads are fixed-size, generic string payloads are variable-length.
package codec

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
)

// Message type tags, the first byte of every encoded payload.
const (
	TagVRFRequest     byte = 0x00
	TagVRFFulfillment byte = 0x01
)

const (
	requesterSize    = 32
	seedSize         = 32
	callbackDataSize = 32
	requestIDSize    = 32
	randomnessSize   = 64

	// VRFRequestWireSize is tag(1) ‖ requester(32) ‖ seed(32) ‖ callback_data(32) ‖ num_words_be(4) ‖ pool_id(1).
	VRFRequestWireSize = 1 + requesterSize + seedSize + callbackDataSize + 4 + 1
	// VRFFulfillmentWireSize is tag(1) ‖ request_id(32) ‖ randomness(64).
	VRFFulfillmentWireSize = 1 + requestIDSize + randomnessSize
)

// VRFRequestPayload is the fixed-size cross-chain VRF request message.
type VRFRequestPayload struct {
	Requester    [requesterSize]byte
	Seed         [seedSize]byte
	CallbackData [callbackDataSize]byte
	NumWords     uint32
	PoolID       uint8
}

// EncodeVRFRequest produces the 102-byte wire form of p.
func EncodeVRFRequest(p VRFRequestPayload) []byte {
	buf := make([]byte, 0, VRFRequestWireSize)
	buf = append(buf, TagVRFRequest)
	buf = append(buf, p.Requester[:]...)
	buf = append(buf, p.Seed[:]...)
	buf = append(buf, p.CallbackData[:]...)
	buf = binary.BigEndian.AppendUint32(buf, p.NumWords)
	buf = append(buf, p.PoolID)
	return buf
}

// DecodeVRFRequest parses the fixed-size wire form produced by
// EncodeVRFRequest. It does not accept the legacy variable-length shape; use
// DecodeVRFRequestLegacy for that.
func DecodeVRFRequest(data []byte) (VRFRequestPayload, error) {
	var p VRFRequestPayload
	if len(data) != VRFRequestWireSize {
		return p, errs.E(errs.InvalidLength, "codec.DecodeVRFRequest", fmt.Errorf("want %d bytes, got %d", VRFRequestWireSize, len(data)))
	}
	if data[0] != TagVRFRequest {
		return p, errs.E(errs.InvalidMessageType, "codec.DecodeVRFRequest", fmt.Errorf("tag %#x", data[0]))
	}
	off := 1
	copy(p.Requester[:], data[off:off+requesterSize])
	off += requesterSize
	copy(p.Seed[:], data[off:off+seedSize])
	off += seedSize
	copy(p.CallbackData[:], data[off:off+callbackDataSize])
	off += callbackDataSize
	p.NumWords = binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	p.PoolID = data[off]
	return p, nil
}

// DecodeVRFRequestLegacy decodes the legacy variable-length request shape
// (tag ‖ requester(32) ‖ seed(32) ‖ num_words(1) ‖ callback_len_be(4) ‖
// callback_data(callback_len) ‖ pool_id(1)), used by older senders that
// predate the fixed-size wire format. Decode-only: the coordinator never
// produces this shape, and every decoded value is normalized immediately
// into a VRFRequestPayload (oversized callback data is truncated, undersized
// is zero-padded, matching the fixed 32-byte field).
func DecodeVRFRequestLegacy(data []byte) (VRFRequestPayload, error) {
	var p VRFRequestPayload
	const minLen = 1 + requesterSize + seedSize + 1 + 4 + 1
	if len(data) < minLen {
		return p, errs.E(errs.InvalidLength, "codec.DecodeVRFRequestLegacy", fmt.Errorf("too short: %d bytes", len(data)))
	}
	if data[0] != TagVRFRequest {
		return p, errs.E(errs.InvalidMessageType, "codec.DecodeVRFRequestLegacy", fmt.Errorf("tag %#x", data[0]))
	}
	off := 1
	copy(p.Requester[:], data[off:off+requesterSize])
	off += requesterSize
	copy(p.Seed[:], data[off:off+seedSize])
	off += seedSize
	p.NumWords = uint32(data[off])
	off++
	callbackLen := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	if off+callbackLen+1 != len(data) {
		return p, errs.E(errs.InvalidLength, "codec.DecodeVRFRequestLegacy", fmt.Errorf("callback_len %d inconsistent with message length %d", callbackLen, len(data)))
	}
	n := callbackLen
	if n > callbackDataSize {
		n = callbackDataSize
	}
	copy(p.CallbackData[:n], data[off:off+n])
	off += callbackLen
	p.PoolID = data[off]
	return p, nil
}

// VRFFulfillmentPayload is the fixed-size cross-chain VRF fulfillment message.
type VRFFulfillmentPayload struct {
	RequestID  [requestIDSize]byte
	Randomness [randomnessSize]byte
}

// EncodeVRFFulfillment produces the 97-byte wire form of p.
func EncodeVRFFulfillment(p VRFFulfillmentPayload) []byte {
	buf := make([]byte, 0, VRFFulfillmentWireSize)
	buf = append(buf, TagVRFFulfillment)
	buf = append(buf, p.RequestID[:]...)
	buf = append(buf, p.Randomness[:]...)
	return buf
}

// DecodeVRFFulfillment parses the fixed-size wire form produced by
// EncodeVRFFulfillment.
func DecodeVRFFulfillment(data []byte) (VRFFulfillmentPayload, error) {
	var p VRFFulfillmentPayload
	if len(data) != VRFFulfillmentWireSize {
		return p, errs.E(errs.InvalidLength, "codec.DecodeVRFFulfillment", fmt.Errorf("want %d bytes, got %d", VRFFulfillmentWireSize, len(data)))
	}
	if data[0] != TagVRFFulfillment {
		return p, errs.E(errs.InvalidMessageType, "codec.DecodeVRFFulfillment", fmt.Errorf("tag %#x", data[0]))
	}
	off := 1
	copy(p.RequestID[:], data[off:off+requestIDSize])
	off += requestIDSize
	copy(p.Randomness[:], data[off:off+randomnessSize])
	return p, nil
}

// EncodeGenericString encodes an arbitrary UTF-8 string with a 32-byte
// big-endian length header (the length occupies only the low 4 bytes, the
// remaining 28 are zero, matching the 256-bit length fields used elsewhere on
// EVM-style remote chains).
func EncodeGenericString(s string) []byte {
	buf := make([]byte, 32+len(s))
	binary.BigEndian.PutUint32(buf[28:32], uint32(len(s)))
	copy(buf[32:], s)
	return buf
}

// DecodeGenericString decodes the layout produced by EncodeGenericString.
func DecodeGenericString(data []byte) (string, error) {
	if len(data) < 32 {
		return "", errs.E(errs.InvalidLength, "codec.DecodeGenericString", fmt.Errorf("header truncated: %d bytes", len(data)))
	}
	for _, b := range data[:28] {
		if b != 0 {
			return "", errs.E(errs.InvalidLength, "codec.DecodeGenericString", fmt.Errorf("length header overflows 32 bits"))
		}
	}
	n := int(binary.BigEndian.Uint32(data[28:32]))
	if len(data)-32 != n {
		return "", errs.E(errs.InvalidLength, "codec.DecodeGenericString", fmt.Errorf("length %d inconsistent with payload size %d", n, len(data)-32))
	}
	s := data[32:]
	if !utf8.Valid(s) {
		return "", errs.E(errs.InvalidUtf8, "codec.DecodeGenericString", nil)
	}
	return string(s), nil
}

// Payload is the decoded form of any cross-chain message: a VRF request, a
// VRF fulfillment, or an opaque generic string carried under any other tag.
type Payload struct {
	Tag        byte
	VRFRequest *VRFRequestPayload
	VRFFulfill *VRFFulfillmentPayload
	Generic    string
}

// Decode dispatches on the leading tag byte and decodes the remainder using
// the matching fixed-size codec, falling back to the generic string codec
// for any tag outside {TagVRFRequest, TagVRFFulfillment}.
func Decode(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, errs.E(errs.InvalidLength, "codec.Decode", fmt.Errorf("empty message"))
	}
	tag := data[0]
	switch tag {
	case TagVRFRequest:
		p, err := DecodeVRFRequest(data)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Tag: tag, VRFRequest: &p}, nil
	case TagVRFFulfillment:
		p, err := DecodeVRFFulfillment(data)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Tag: tag, VRFFulfill: &p}, nil
	default:
		s, err := DecodeGenericString(data[1:])
		if err != nil {
			return Payload{}, err
		}
		return Payload{Tag: tag, Generic: s}, nil
	}
}
