package httpapi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/metrics"
)

var errRequestNotFound = errors.New("request not found")

type createSubscriptionRequest struct {
	ID            string `json:"id"`
	Owner         string `json:"owner"`
	MinBalance    uint64 `json:"min_balance"`
	Confirmations uint8  `json:"confirmations"`
	MaxRequests   uint8  `json:"max_requests"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := decodeHex32("id", req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := decodeHex32("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sub, err := s.coordinator.CreateSubscription(id, owner, req.MinBalance, req.Confirmations, req.MaxRequests)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    hexBytes32(sub.ID),
		"owner": hexBytes32(sub.Owner),
	})
}

type fundSubscriptionRequest struct {
	Funder string `json:"funder"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleFundSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathHex32(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req fundSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	funder, err := decodeHex32("funder", req.Funder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.coordinator.FundSubscription(id, funder, req.Amount); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "funded"})
}

type createPoolRequest struct {
	SubscriptionID string `json:"subscription_id"`
	PoolID         uint8  `json:"pool_id"`
	MaxSize        uint32 `json:"max_size"`
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	var req createPoolRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	subID, err := decodeHex32("subscription_id", req.SubscriptionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.coordinator.CreatePool(subID, req.PoolID, req.MaxSize); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

type requestRandomnessRequest struct {
	Requester        string `json:"requester"`
	SubscriptionID   string `json:"subscription_id"`
	PoolID           uint8  `json:"pool_id"`
	Seed             string `json:"seed"`
	CallbackData     string `json:"callback_data"`
	NumWords         uint32 `json:"num_words"`
	MinConfirmations uint8  `json:"min_confirmations"`
	CallbackGasLimit uint32 `json:"callback_gas_limit"`
	CurrentSlot      uint64 `json:"current_slot"`
}

func (s *Server) handleRequestRandomness(w http.ResponseWriter, r *http.Request) {
	var req requestRandomnessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	requester, err := decodeHex32("requester", req.Requester)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	subID, err := decodeHex32("subscription_id", req.SubscriptionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	seed, err := decodeHex32("seed", req.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	callbackData, err := hex.DecodeString(req.CallbackData)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	randReq, err := s.coordinator.RequestRandomness(
		requester, subID, req.PoolID, seed, callbackData,
		req.NumWords, req.MinConfirmations, req.CallbackGasLimit,
		req.CurrentSlot, time.Now().Unix(),
	)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	dto := requestToDTO(randReq)
	// CorrelationID is a client-facing tracing handle for this HTTP call, not
	// part of the coordinator's own identity scheme (request id is
	// already deterministic); it exists only in this response, not persisted.
	dto.CorrelationID = uuid.NewString()
	writeJSON(w, http.StatusCreated, dto)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathHex32(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, ok := s.coordinator.Request(id)
	if !ok {
		writeError(w, http.StatusNotFound, errRequestNotFound)
		return
	}
	writeJSON(w, http.StatusOK, requestToDTO(req))
}

type requestDTO struct {
	RequestID        string `json:"request_id"`
	Subscription     string `json:"subscription"`
	Requester        string `json:"requester"`
	PoolID           uint8  `json:"pool_id"`
	RequestIndex     uint32 `json:"request_index"`
	Status           string `json:"status"`
	NumWords         uint32 `json:"num_words"`
	CallbackGasLimit uint32 `json:"callback_gas_limit"`
	CorrelationID    string `json:"correlation_id,omitempty"`
}

func requestToDTO(req *coordinator.RandomnessRequest) requestDTO {
	return requestDTO{
		RequestID:        hexBytes32(req.RequestID),
		Subscription:     hexBytes32(req.Subscription),
		Requester:        hexBytes32(req.Requester),
		PoolID:           req.PoolID,
		RequestIndex:     req.RequestIndex,
		Status:           req.Status.String(),
		NumWords:         req.NumWords,
		CallbackGasLimit: req.CallbackGasLimit,
	}
}

type cancelRequestRequest struct {
	Owner        string `json:"owner"`
	PoolID       uint8  `json:"pool_id"`
	RequestIndex uint32 `json:"request_index"`
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathHex32(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req cancelRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := decodeHex32("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.coordinator.CancelRequest(owner, id, req.PoolID, req.RequestIndex); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type fulfillRandomnessRequest struct {
	OracleAuthority string `json:"oracle_authority"`
	RequestID       string `json:"request_id"`
	PoolID          uint8  `json:"pool_id"`
	RequestIndex    uint32 `json:"request_index"`
	Proof           string `json:"proof"`
	PublicKey       string `json:"public_key"`
	CurrentSlot     uint64 `json:"current_slot"`
}

func (s *Server) handleFulfillRandomness(w http.ResponseWriter, r *http.Request) {
	var req fulfillRandomnessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	oracleAuthority, err := decodeHex32("oracle_authority", req.OracleAuthority)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	requestID, err := decodeHex32("request_id", req.RequestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	proof, err := decodeHexProof(req.Proof)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	publicKey, err := decodeHexPublicKey(req.PublicKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.coordinator.FulfillRandomness(r.Context(), oracleAuthority, requestID, req.PoolID, req.RequestIndex, proof, publicKey, req.CurrentSlot)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	words := make([]string, 0, len(result.Randomness))
	for _, word := range result.Randomness {
		words = append(words, hex.EncodeToString(word[:]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request_id": hexBytes32(result.RequestID),
		"randomness": words,
	})
}

type cleanExpiredRequest struct {
	SubscriptionID string `json:"subscription_id"`
	CurrentSlot    uint64 `json:"current_slot"`
}

func (s *Server) handleCleanExpired(w http.ResponseWriter, r *http.Request) {
	poolID, err := parsePoolIDPathParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req cleanExpiredRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	subID, err := decodeHex32("subscription_id", req.SubscriptionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := s.coordinator.CleanExpired(subID, poolID, req.CurrentSlot)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"expired_count": n})
}

type registerOracleRequest struct {
	Authority   string `json:"authority"`
	VrfKey      string `json:"vrf_key"`
	StakeAmount uint64 `json:"stake_amount"`
	CurrentSlot int64  `json:"current_slot"`
}

func (s *Server) handleRegisterOracle(w http.ResponseWriter, r *http.Request) {
	var req registerOracleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	authority, err := decodeHex32("authority", req.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	vrfKey, err := decodeHex32("vrf_key", req.VrfKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.registry.Register(authority, vrfKey, req.StakeAmount, req.CurrentSlot); err != nil {
		metrics.RecordOracleRegistration(false)
		writeError(w, statusForError(err), err)
		return
	}
	metrics.RecordOracleRegistration(true)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

type deactivateOracleRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleDeactivateOracle(w http.ResponseWriter, r *http.Request) {
	authority, err := pathHex32(r, "authority")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req deactivateOracleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := decodeHex32("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.registry.Deactivate(caller, authority); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type updateReputationRequest struct {
	Caller      string `json:"caller"`
	Successes   uint64 `json:"successes"`
	Failures    uint64 `json:"failures"`
	CurrentSlot int64  `json:"current_slot"`
}

func (s *Server) handleUpdateReputation(w http.ResponseWriter, r *http.Request) {
	authority, err := pathHex32(r, "authority")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req updateReputationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := decodeHex32("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.registry.UpdateReputation(caller, authority, req.Successes, req.Failures, req.CurrentSlot); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	metrics.RecordReputationUpdate(hexBytes32(authority))
	oracleRec, _ := s.registry.Get(authority)
	writeJSON(w, http.StatusOK, map[string]uint32{"reputation": oracleRec.Reputation})
}

type rotateOraclesRequest struct {
	CurrentSlot uint64 `json:"current_slot"`
}

func (s *Server) handleRotateOracles(w http.ResponseWriter, r *http.Request) {
	var req rotateOraclesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	selected, err := s.registry.Rotate(req.CurrentSlot)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	out := make([]string, 0, len(selected))
	for _, authority := range selected {
		out = append(out, hexBytes32(authority))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rotated": out})
}

func parsePoolIDPathParam(r *http.Request, name string) (uint8, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, errMissingPathParam
	}
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("pool id: invalid uint8 %q: %w", raw, err)
	}
	return uint8(n), nil
}
