package codec

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// LegacyAddressSize is the width of the Ethereum-style 20-byte address the
// legacy variable-length request shape carries for its requester/oracle
// fields: a derived 20-byte form rather than a full 32-byte key, matching
// EVM-compatible deployments of this protocol.
const LegacyAddressSize = 20

// RecoverLegacyAddress recovers the 20-byte Keccak-derived address of the
// secp256k1 key that produced a 65-byte compact signature over digest, the
// same recovery scheme Ethereum-family chains use for transaction senders.
func RecoverLegacyAddress(digest [32]byte, compactSig [65]byte) ([LegacyAddressSize]byte, error) {
	var out [LegacyAddressSize]byte
	pub, _, err := ecdsa.RecoverCompact(compactSig[:], digest[:])
	if err != nil {
		return out, fmt.Errorf("codec: recover legacy address: %w", err)
	}
	return addressFromPublicKey(pub), nil
}

// addressFromPublicKey derives the 20-byte address from an uncompressed
// secp256k1 public key the way EVM chains do: the low 20 bytes of
// Keccak256(x ‖ y).
func addressFromPublicKey(pub *secp256k1.PublicKey) [LegacyAddressSize]byte {
	uncompressed := pub.SerializeUncompressed()
	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressed[1:]) // drop the 0x04 prefix byte
	sum := h.Sum(nil)
	var out [LegacyAddressSize]byte
	copy(out[:], sum[len(sum)-LegacyAddressSize:])
	return out
}
