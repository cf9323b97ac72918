package main

import (
	"flag"
	"fmt"

	"github.com/mangekyou-labs/kamui-vrf/internal/vrfcrypto"
)

func cmdGenerateKeypair(args []string) error {
	fs := flag.NewFlagSet("generate-keypair", flag.ExitOnError)
	output := fs.String("output", "vrf-keypair.json", "Path to write the keypair file")
	label := fs.String("label", "", "Optional label embedded in the keypair file")
	masterSecret := fs.String("master-secret", "", "If set, derive the seed via HKDF from this secret instead of reading random bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var seed [vrfcrypto.SeedSize]byte
	var err error
	if *masterSecret != "" {
		seed, err = vrfcrypto.DeriveSeed([]byte(*masterSecret), *label)
	} else {
		seed, err = vrfcrypto.RandomSeed()
	}
	if err != nil {
		return err
	}

	sk, err := vrfcrypto.NewPrivateKey(seed)
	if err != nil {
		return fmt.Errorf("derive private key: %w", err)
	}

	if err := vrfcrypto.SaveKeypair(*output, sk, *label); err != nil {
		return err
	}

	fmt.Printf("Wrote keypair to %s\n", *output)
	return nil
}
