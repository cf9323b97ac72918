package vrfcrypto

import (
	"bytes"
	"testing"
)

func mustKey(t *testing.T, seedByte byte) *PrivateKey {
	t.Helper()
	var seed [SeedSize]byte
	for i := range seed {
		seed[i] = seedByte + byte(i)
	}
	sk, err := NewPrivateKey(seed)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return sk
}

func TestProveVerifyRoundTrip(t *testing.T) {
	sk := mustKey(t, 1)
	alpha := []byte("randomness request alpha")

	beta, proof, err := Prove(sk, alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	pub := sk.PublicKey()
	beta2, err := Verify(pub, alpha, proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if beta != beta2 {
		t.Fatalf("verify output mismatch:\n prove:  %x\n verify: %x", beta, beta2)
	}
}

func TestProveIsDeterministic(t *testing.T) {
	sk := mustKey(t, 7)
	alpha := []byte("same alpha every time")

	beta1, proof1, err := Prove(sk, alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	beta2, proof2, err := Prove(sk, alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if beta1 != beta2 || proof1 != proof2 {
		t.Fatal("Prove is not deterministic for the same key and alpha")
	}
}

func TestDistinctAlphaProducesDistinctOutput(t *testing.T) {
	sk := mustKey(t, 2)

	beta1, _, err := Prove(sk, []byte("alpha one"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	beta2, _, err := Prove(sk, []byte("alpha two"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if beta1 == beta2 {
		t.Fatal("distinct alpha values produced the same output")
	}
}

func TestVerifyRejectsTamperedProof(t *testing.T) {
	sk := mustKey(t, 3)
	alpha := []byte("tamper target")

	_, proof, err := Prove(sk, alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	tampered := proof
	tampered[50] ^= 0xFF

	if _, err := Verify(sk.PublicKey(), alpha, tampered); err == nil {
		t.Fatal("Verify accepted a tampered proof")
	}
}

func TestVerifyRejectsWrongPublicKey(t *testing.T) {
	sk := mustKey(t, 4)
	other := mustKey(t, 5)
	alpha := []byte("cross key check")

	_, proof, err := Prove(sk, alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if _, err := Verify(other.PublicKey(), alpha, proof); err == nil {
		t.Fatal("Verify accepted a proof under the wrong public key")
	}
}

func TestVerifyRejectsWrongAlpha(t *testing.T) {
	sk := mustKey(t, 6)

	_, proof, err := Prove(sk, []byte("original alpha"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if _, err := Verify(sk.PublicKey(), []byte("different alpha"), proof); err == nil {
		t.Fatal("Verify accepted a proof under a different alpha")
	}
}

func TestDistinctKeysProduceDistinctOutputs(t *testing.T) {
	alpha := []byte("shared alpha")
	skA := mustKey(t, 10)
	skB := mustKey(t, 20)

	betaA, _, err := Prove(skA, alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	betaB, _, err := Prove(skB, alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if betaA == betaB {
		t.Fatal("distinct keys produced the same output for the same alpha")
	}
	pubA, pubB := skA.PublicKey(), skB.PublicKey()
	if bytes.Equal(pubA[:], pubB[:]) {
		t.Fatal("distinct seeds produced the same public key")
	}
}
