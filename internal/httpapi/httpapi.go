// Package httpapi exposes the coordinator's operations over HTTP, using a
// gorilla/mux router and JSON request/response envelopes.
package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
	"github.com/mangekyou-labs/kamui-vrf/internal/metrics"
	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
	"github.com/mangekyou-labs/kamui-vrf/internal/vrfcrypto"
)

// Server wires the coordinator and oracle registry to an HTTP mux.
type Server struct {
	router      *mux.Router
	coordinator *coordinator.Coordinator
	registry    *oracle.Registry
	logger      zerolog.Logger
	auth        *AdminAuth
}

// New constructs a Server and registers every route.
func New(c *coordinator.Coordinator, registry *oracle.Registry, logger zerolog.Logger, auth *AdminAuth) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		coordinator: c,
		registry:    registry,
		logger:      logger,
		auth:        auth,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/subscriptions", s.handleCreateSubscription).Methods(http.MethodPost)
	s.router.HandleFunc("/subscriptions/{id}/fund", s.handleFundSubscription).Methods(http.MethodPost)
	s.router.HandleFunc("/pools", s.handleCreatePool).Methods(http.MethodPost)
	s.router.HandleFunc("/requests", s.handleRequestRandomness).Methods(http.MethodPost)
	s.router.HandleFunc("/requests/{id}", s.handleGetRequest).Methods(http.MethodGet)
	s.router.HandleFunc("/requests/{id}/cancel", s.handleCancelRequest).Methods(http.MethodPost)
	s.router.HandleFunc("/fulfillments", s.handleFulfillRandomness).Methods(http.MethodPost)
	s.router.HandleFunc("/pools/{id}/clean", s.handleCleanExpired).Methods(http.MethodPost)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/oracles", s.handleRegisterOracle).Methods(http.MethodPost)
	admin.HandleFunc("/oracles/{authority}/deactivate", s.handleDeactivateOracle).Methods(http.MethodPost)
	admin.HandleFunc("/oracles/{authority}/reputation", s.handleUpdateReputation).Methods(http.MethodPost)
	admin.HandleFunc("/oracles/rotate", s.handleRotateOracles).Methods(http.MethodPost)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusForError maps the coordinator's typed errors onto HTTP status codes.
func statusForError(err error) int {
	kind, ok := errs.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case errs.Unauthorized, errs.InvalidSubscriptionOwner, errs.InvalidOracleAuthority,
		errs.InvalidAdmin, errs.InvalidSender, errs.RemoteNotTrusted:
		return http.StatusForbidden
	case errs.RequestNotFound:
		return http.StatusNotFound
	case errs.RequestAlreadyFulfilled, errs.RequestNotPending, errs.OracleAlreadyRegistered:
		return http.StatusConflict
	case errs.RateLimited, errs.TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func decodeHex32(field, s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%s: invalid hex: %w", field, err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("%s: expected 32 bytes, got %d", field, len(b))
	}
	copy(out[:], b)
	return out, nil
}

var errMissingPathParam = errors.New("missing path parameter")

func pathHex32(r *http.Request, name string) ([32]byte, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok || raw == "" {
		return [32]byte{}, errMissingPathParam
	}
	return decodeHex32(name, raw)
}

func hexBytes32(b [32]byte) string { return hex.EncodeToString(b[:]) }

func decodeHexProof(s string) ([vrfcrypto.ProofSize]byte, error) {
	var out [vrfcrypto.ProofSize]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("proof: invalid hex: %w", err)
	}
	if len(b) != vrfcrypto.ProofSize {
		return out, fmt.Errorf("proof: expected %d bytes, got %d", vrfcrypto.ProofSize, len(b))
	}
	copy(out[:], b)
	return out, nil
}

func decodeHexPublicKey(s string) ([vrfcrypto.PublicKeySize]byte, error) {
	var out [vrfcrypto.PublicKeySize]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("public_key: invalid hex: %w", err)
	}
	if len(b) != vrfcrypto.PublicKeySize {
		return out, fmt.Errorf("public_key: expected %d bytes, got %d", vrfcrypto.PublicKeySize, len(b))
	}
	copy(out[:], b)
	return out, nil
}
