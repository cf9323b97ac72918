package vrfcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"

	"github.com/mangekyou-labs/kamui-vrf/internal/ids"
)

// hkdf is used, rather than a bare hash, so a caller can re-derive the same
// VRF seed from a master secret plus an arbitrary label without ever
// persisting the seed itself.
const hkdfInfo = "kamui-vrf/ecvrf-edwards25519-sha512-tai/v1"

// DeriveSeed expands a master secret and label into a 32-byte VRF seed via
// HKDF-SHA256 (RFC 5869). Two calls with the same secret and label always
// produce the same seed, letting an operator regenerate a keypair file from a
// master secret held offline.
func DeriveSeed(masterSecret []byte, label string) ([SeedSize]byte, error) {
	var out [SeedSize]byte
	kdf := hkdf.New(sha256.New, masterSecret, []byte(label), []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, out[:]); err != nil {
		return out, fmt.Errorf("vrfcrypto: hkdf expand: %w", err)
	}
	return out, nil
}

// RandomSeed returns a fresh, non-deterministic 32-byte seed suitable for a
// one-off keypair not derived from a master secret.
func RandomSeed() ([SeedSize]byte, error) {
	var out [SeedSize]byte
	if _, err := rand.Read(out[:]); err != nil {
		return out, fmt.Errorf("vrfcrypto: read random seed: %w", err)
	}
	return out, nil
}

// KeypairFile is the on-disk JSON representation the CLI's generate-keypair
// and run subcommands read and write. The seed is hex-encoded rather than
// wrapped in any further envelope: operators are expected to protect the
// file with filesystem permissions, the usual convention for plaintext
// offline signer key files.
type KeypairFile struct {
	PublicKey string `json:"public_key"`
	Seed      string `json:"seed"`
	Label     string `json:"label,omitempty"`
}

// SaveKeypair derives the public key from sk and writes a KeypairFile to
// path with 0600 permissions.
func SaveKeypair(path string, sk *PrivateKey, label string) error {
	pub := sk.PublicKey()
	seed := sk.seed
	kf := KeypairFile{
		PublicKey: ids.Base58(pub),
		Seed:      hex.EncodeToString(seed[:]),
		Label:     label,
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("vrfcrypto: marshal keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("vrfcrypto: write keypair file %s: %w", path, err)
	}
	return nil
}

// LoadKeypair reads a KeypairFile written by SaveKeypair and reconstructs the
// private key from its seed.
func LoadKeypair(path string) (*PrivateKey, *KeypairFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("vrfcrypto: read keypair file %s: %w", path, err)
	}
	var kf KeypairFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, nil, fmt.Errorf("vrfcrypto: parse keypair file %s: %w", path, err)
	}
	seedBytes, err := hex.DecodeString(kf.Seed)
	if err != nil || len(seedBytes) != SeedSize {
		return nil, nil, fmt.Errorf("vrfcrypto: keypair file %s: invalid seed", path)
	}
	var seed [SeedSize]byte
	copy(seed[:], seedBytes)
	sk, err := NewPrivateKey(seed)
	if err != nil {
		return nil, nil, err
	}
	if ids.Base58(sk.PublicKey()) != kf.PublicKey {
		return nil, nil, fmt.Errorf("vrfcrypto: keypair file %s: public key does not match seed", path)
	}
	return sk, &kf, nil
}
