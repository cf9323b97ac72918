// Package errs defines the typed error taxonomy shared by every coordinator
// component, so callers can distinguish failure kinds with errors.Is instead
// of string-matching error messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies a distinct, testable failure category.
type Kind string

const (
	// Validation
	InvalidConfirmations    Kind = "invalid_confirmations"
	InvalidWordCount        Kind = "invalid_word_count"
	InvalidGasLimit         Kind = "invalid_gas_limit"
	InvalidAmount           Kind = "invalid_amount"
	InvalidPoolSize         Kind = "invalid_pool_size"
	InvalidPoolId           Kind = "invalid_pool_id"
	InvalidMaxRequests      Kind = "invalid_max_requests"
	InvalidCallbackDataSize Kind = "invalid_callback_data_size"

	// Identity / authorization
	Unauthorized             Kind = "unauthorized"
	InvalidSubscriptionOwner Kind = "invalid_subscription_owner"
	InvalidOracleAuthority   Kind = "invalid_oracle_authority"
	InvalidAdmin             Kind = "invalid_admin"
	InvalidSender            Kind = "invalid_sender"
	InvalidRemoteAddress     Kind = "invalid_remote_address"
	RemoteNotTrusted         Kind = "remote_not_trusted"

	// Resource limits
	InsufficientFunds    Kind = "insufficient_funds"
	InsufficientStake    Kind = "insufficient_stake"
	TooManyRequests      Kind = "too_many_requests"
	PoolCapacityExceeded Kind = "pool_capacity_exceeded"
	ArithmeticOverflow   Kind = "arithmetic_overflow"
	RateLimited          Kind = "rate_limited"

	// Lifecycle
	RequestNotPending       Kind = "request_not_pending"
	RequestAlreadyFulfilled Kind = "request_already_fulfilled"
	RequestExpired          Kind = "request_expired"
	RequestNotFound         Kind = "request_not_found"
	RequestIdMismatch       Kind = "request_id_mismatch"
	InvalidRequestIndex     Kind = "invalid_request_index"
	RotationNotDue          Kind = "rotation_not_due"
	OracleAlreadyRegistered Kind = "oracle_already_registered"
	OracleNotActive         Kind = "oracle_not_active"

	// Cryptography / format
	ProofVerificationFailed Kind = "proof_verification_failed"
	InvalidProof            Kind = "invalid_proof"
	InvalidVrfKey           Kind = "invalid_vrf_key"
	InvalidLength           Kind = "invalid_length"
	InvalidUtf8             Kind = "invalid_utf8"
	InvalidMessageType      Kind = "invalid_message_type"
	InvalidNonce            Kind = "invalid_nonce"
	InvalidGuid             Kind = "invalid_guid"

	// Transport
	EndpointCpiFailed    Kind = "endpoint_cpi_failed"
	MessageEncodingError Kind = "message_encoding_error"
	MessageDecodingError Kind = "message_decoding_error"
)

// Error is the concrete error type carried by every coordinator operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target carries the same Kind; callers normally use the
// package-level Is(err, kind) helper instead of constructing a target error.
func (e *Error) Is(target error) bool {
	var k *Error
	if errors.As(target, &k) {
		return e.Kind == k.Kind
	}
	return false
}

// E constructs a tagged error. err may be nil.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf extracts the Kind from err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
