// Package ids derives the deterministic, replay-safe identifiers the
// coordinator mints for every randomness request.
package ids

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

// Sizes of the fixed-width fields that make up a request id / seed.
const (
	SeedSize        = 32
	AddressSize     = 32
	RequestIDSize   = 32
	FingerprintSize = 16
)

// Hash is the 256-bit cryptographic hash fixed at deployment time and never
// mixed with another hash function. keccak-256 is used throughout this
// module.
func Hash(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveID computes the deterministic 32-byte request id:
//
//	seed(32) ‖ requester(32) ‖ subscription(32) ‖ slot_le(8) ‖ timestamp_le(8) ‖ pool_id(1) ‖ request_index_le(4)
func DeriveID(seed, requester, subscription [32]byte, slot uint64, timestamp int64, poolID uint8, requestIndex uint32) [32]byte {
	buf := make([]byte, 0, 32+32+32+8+8+1+4)
	buf = append(buf, seed[:]...)
	buf = append(buf, requester[:]...)
	buf = append(buf, subscription[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, slot)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(timestamp))
	buf = append(buf, poolID)
	buf = binary.LittleEndian.AppendUint32(buf, requestIndex)
	return Hash(buf)
}

// SeedHash computes H(seed), stored on RequestSummary so a requester cannot
// forge a matching summary without knowing the seed.
func SeedHash(seed [32]byte) [32]byte {
	return Hash(seed[:])
}

// Fingerprint16 truncates a request id to the 16-byte fingerprint kept on the
// owning subscription for O(n) dedup, via Subscription.RequestKeys.
func Fingerprint16(requestID [32]byte) [16]byte {
	var fp [16]byte
	copy(fp[:], requestID[:16])
	return fp
}

// Base58 encodes a 32-byte identifier or public key the way the original
// Solana-based implementation displays addresses, used for CLI output and
// log fields.
func Base58(id [32]byte) string {
	return base58.Encode(id[:])
}

// DecodeBase58Address32 decodes a base58-encoded 32-byte identifier, the
// inverse of Base58.
func DecodeBase58Address32(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := base58.Decode(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("ids: decoded base58 address has length %d, want 32", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
