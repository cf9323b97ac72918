// Command vrf-server is the operational face of the VRF coordination engine:
// it generates and loads oracle keypairs, produces offline proofs, runs the
// coordinator behind the HTTP façade, and smoke-tests the whole pipeline
// end-to-end. Subcommand dispatch follows a simple os.Args[1]-selects-the-
// subcommand pattern, each owning its own flag.FlagSet.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "generate-keypair":
		err = cmdGenerateKeypair(args)
	case "generate":
		err = cmdGenerate(args)
	case "run":
		err = cmdRun(args)
	case "test-verification":
		err = cmdTestVerification(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`vrf-server - VRF coordination engine operator CLI

Usage:
  vrf-server <command> [arguments]

Commands:
  generate-keypair --output <path>
        Emit a new ECVRF keypair file.

  generate --keypair <path> --seed <hex> [--verify]
        Produce an offline VRF proof over the given 32-byte hex seed.

  run --keypair <path> [--listen <host:port>] [--ws-local-eid <n>] [--ws-peer-url <url>] [--ws-peer-eid <n>]
        Start the coordinator behind the HTTP facade and (optionally, when
        --ws-local-eid is non-zero) a websocket cross-chain peer link, with a
        periodic expired-request sweep.

  test-verification
        Run an in-memory end-to-end smoke test of subscription creation,
        pool creation, a request, and its fulfillment.

Environment Variables (see pkg/config):
  SERVER_HOST, SERVER_PORT, DATABASE_DSN, DATABASE_MIGRATE_ON_START,
  LOG_LEVEL, LOG_FORMAT, ORACLE_MIN_STAKE, ORACLE_ROTATION_FREQUENCY,
  AUTH_JWT_SECRET, REQUEST_EXPIRY_SLOTS, ENFORCE_VRF_KEY, REDIS_URL`)
}
