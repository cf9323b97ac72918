package main

import (
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/mangekyou-labs/kamui-vrf/internal/vrfcrypto"
)

func cmdGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	keypairPath := fs.String("keypair", "", "Path to a keypair file written by generate-keypair")
	seedHex := fs.String("seed", "", "32-byte hex-encoded VRF input (alpha)")
	verify := fs.Bool("verify", false, "Verify the produced proof against the public key before printing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keypairPath == "" || *seedHex == "" {
		return fmt.Errorf("both --keypair and --seed are required")
	}

	sk, _, err := vrfcrypto.LoadKeypair(*keypairPath)
	if err != nil {
		return err
	}

	alpha, err := hex.DecodeString(*seedHex)
	if err != nil {
		return fmt.Errorf("decode --seed: %w", err)
	}

	beta, proof, err := vrfcrypto.Prove(sk, alpha)
	if err != nil {
		return fmt.Errorf("prove: %w", err)
	}

	if *verify {
		got, err := vrfcrypto.Verify(sk.PublicKey(), alpha, proof)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if got != beta {
			return fmt.Errorf("verify: output mismatch")
		}
		fmt.Println("verification: ok")
	}

	pub := sk.PublicKey()
	fmt.Printf("public_key: %s\n", hex.EncodeToString(pub[:]))
	fmt.Printf("proof:      %s\n", hex.EncodeToString(proof[:]))
	fmt.Printf("output:     %s\n", hex.EncodeToString(beta[:]))
	return nil
}
