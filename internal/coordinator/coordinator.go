// Package coordinator implements the VRF coordination state machine: the
// hub that validates requests, creates detailed request records, admits
// them into a pool, dispatches fulfillments, and records results.
package coordinator

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
	"github.com/mangekyou-labs/kamui-vrf/internal/ids"
	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
	"github.com/mangekyou-labs/kamui-vrf/internal/pool"
	"github.com/mangekyou-labs/kamui-vrf/internal/subscription"
	"github.com/mangekyou-labs/kamui-vrf/internal/vrfcrypto"
)

const (
	MinWords = 1
	MaxWords = 100

	MinCallbackGasLimit = 10_000
	MaxCallbackGasLimit = 1_000_000

	MaxCallbackDataSize = 256
)

// RandomnessRequest is the full detail record kept for fulfillment.
type RandomnessRequest struct {
	Subscription     [32]byte
	Seed             [32]byte
	Requester        [32]byte
	CallbackData     []byte
	RequestSlot      uint64
	Status           pool.Status
	NumWords         uint32
	CallbackGasLimit uint32
	PoolID           uint8
	RequestIndex     uint32
	RequestID        [32]byte
}

// VrfResult is the fulfillment record.
type VrfResult struct {
	Randomness [][64]byte
	Proof      [vrfcrypto.ProofSize]byte
	ProofSlot  uint64
	RequestID  [32]byte
}

// Callback is the consumer-application capability reference invoked
// best-effort after a successful fulfillment. Failure is logged and
// surfaced as a non-fatal event; it never rolls back the fulfillment.
type Callback interface {
	Invoke(ctx context.Context, requestID [32]byte, randomness [][64]byte) error
}

// Event is a structured, self-describing record emitted for every
// state-change.
type Event struct {
	Name    string
	Payload interface{}
}

// EventSink receives emitted events. Implementations must not block.
type EventSink interface {
	Emit(Event)
}

// NullEventSink discards every event.
type NullEventSink struct{}

func (NullEventSink) Emit(Event) {}

type poolKey struct {
	subscription [32]byte
	poolID       uint8
}

// FingerprintIndex is an optional side index mapping a subscription's
// truncated 16-byte request fingerprint to the full request id it was
// derived from. The coordinator only writes to it (Put on reserve, Delete on
// release); it never reads a mapping back. When an index is configured,
// CleanExpired releases each expired request's reserved slot individually,
// found from the coordinator's own request records, instead of the
// best-effort ReleaseBatch decrement.
type FingerprintIndex interface {
	Put(ctx context.Context, subscriptionID [32]byte, fp [16]byte, requestID [32]byte) error
	Delete(ctx context.Context, subscriptionID [32]byte, fp [16]byte) error
}

// Config configures a Coordinator. Registry and Callback are optional;
// EventSink defaults to NullEventSink; Logger defaults to zerolog's disabled
// logger.
type Config struct {
	Registry         *oracle.Registry
	Callback         Callback
	EventSink        EventSink
	Logger           zerolog.Logger
	ExpirySlots      uint64
	// FingerprintIndex is optional; nil preserves the documented
	// best-effort clean_expired behavior exactly.
	FingerprintIndex FingerprintIndex
	// EnforceVrfKey requires fulfill_randomness's public_key to match a
	// registered active oracle; when unset, the check is relaxed.
	EnforceVrfKey bool
	// RateLimiterFactory builds a per-oracle token bucket for
	// fulfill_randomness and process_batch. Nil disables rate limiting.
	RateLimiterFactory func(authority [32]byte) *rate.Limiter
}

// Coordinator is the VRF coordination state machine. All public methods are
// serialized by mu, matching single-threaded-per-container model:
// the lock is held across an operation's checks and writes so a failed
// precondition leaves no partial state. FulfillRandomness waits on its rate
// limiter before taking the lock for that part, and ProcessBatch takes it
// once per item rather than for the whole batch.
type Coordinator struct {
	mu sync.Mutex

	subscriptions map[[32]byte]*subscription.Subscription
	pools         map[poolKey]*pool.RequestPool
	requests      map[[32]byte]*RandomnessRequest
	results       map[[32]byte]*VrfResult

	registry      *oracle.Registry
	callback      Callback
	sink          EventSink
	logger        zerolog.Logger
	expirySlots   uint64
	enforceVrfKey bool
	limiterFor    func(authority [32]byte) *rate.Limiter
	limiters      map[[32]byte]*rate.Limiter
	fpIndex       FingerprintIndex
}

// New constructs an empty Coordinator.
func New(cfg Config) *Coordinator {
	sink := cfg.EventSink
	if sink == nil {
		sink = NullEventSink{}
	}
	expiry := cfg.ExpirySlots
	if expiry == 0 {
		expiry = pool.DefaultExpirySlots
	}
	return &Coordinator{
		subscriptions: make(map[[32]byte]*subscription.Subscription),
		pools:         make(map[poolKey]*pool.RequestPool),
		requests:      make(map[[32]byte]*RandomnessRequest),
		results:       make(map[[32]byte]*VrfResult),
		registry:      cfg.Registry,
		callback:      cfg.Callback,
		sink:          sink,
		logger:        cfg.Logger,
		expirySlots:   expiry,
		enforceVrfKey: cfg.EnforceVrfKey,
		limiterFor:    cfg.RateLimiterFactory,
		limiters:      make(map[[32]byte]*rate.Limiter),
		fpIndex:       cfg.FingerprintIndex,
	}
}

// CreateSubscription registers a new funded account.
func (c *Coordinator) CreateSubscription(id, owner [32]byte, minBalance uint64, confirmations, maxRequests uint8) (*subscription.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.subscriptions[id]; exists {
		return nil, errs.E(errs.InvalidSubscriptionOwner, "coordinator.CreateSubscription", nil)
	}
	sub, err := subscription.Create(id, owner, minBalance, confirmations, maxRequests)
	if err != nil {
		return nil, err
	}
	c.subscriptions[id] = sub
	c.sink.Emit(Event{Name: "SubscriptionCreated", Payload: struct {
		Subscription [32]byte
		Owner        [32]byte
		MinBalance   uint64
		MaxRequests  uint8
	}{id, owner, minBalance, maxRequests}})
	return sub.Clone(), nil
}

// FundSubscription deposits amount into subscription id.
func (c *Coordinator) FundSubscription(id, funder [32]byte, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.subscriptions[id]
	if !ok {
		return errs.E(errs.InvalidSubscriptionOwner, "coordinator.FundSubscription", nil)
	}
	if err := sub.Fund(amount); err != nil {
		return err
	}
	c.sink.Emit(Event{Name: "SubscriptionFunded", Payload: struct {
		Subscription [32]byte
		Funder       [32]byte
		Amount       uint64
	}{id, funder, amount}})
	return nil
}

// CreatePool initializes a request pool under subscriptionID.
func (c *Coordinator) CreatePool(subscriptionID [32]byte, poolID uint8, maxSize uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.subscriptions[subscriptionID]
	if !ok {
		return errs.E(errs.InvalidSubscriptionOwner, "coordinator.CreatePool", nil)
	}
	key := poolKey{subscriptionID, poolID}
	if _, exists := c.pools[key]; exists {
		return errs.E(errs.InvalidPoolId, "coordinator.CreatePool", nil)
	}
	p, err := pool.New(subscriptionID, poolID, maxSize)
	if err != nil {
		return err
	}
	if err := sub.AddPool(poolID); err != nil {
		return err
	}
	c.pools[key] = p
	c.sink.Emit(Event{Name: "RequestPoolInitialized", Payload: struct {
		Subscription [32]byte
		PoolID       uint8
		MaxSize      uint32
	}{subscriptionID, poolID, maxSize}})
	return nil
}

// RequestRandomness validates and admits a new randomness request.
// currentSlot/currentTimestamp are the host-observed values at the
// instant of minting, used both for request_id derivation and expiry.
func (c *Coordinator) RequestRandomness(
	requester, subscriptionID [32]byte,
	poolID uint8,
	seed [32]byte,
	callbackData []byte,
	numWords uint32,
	minConfirmations uint8,
	callbackGasLimit uint32,
	currentSlot uint64,
	currentTimestamp int64,
) (*RandomnessRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestRandomnessLocked(requester, subscriptionID, poolID, seed, callbackData, numWords, minConfirmations, callbackGasLimit, currentSlot, currentTimestamp, nil)
}

// RequestRandomnessWithID behaves exactly like RequestRandomness but uses
// externalID as the request id instead of deriving one via the usual hash
// derivation. It exists for the cross-chain receive path, which uses the
// transport's guid as the externally visible request identifier.
func (c *Coordinator) RequestRandomnessWithID(
	externalID [32]byte,
	requester, subscriptionID [32]byte,
	poolID uint8,
	seed [32]byte,
	callbackData []byte,
	numWords uint32,
	minConfirmations uint8,
	callbackGasLimit uint32,
	currentSlot uint64,
	currentTimestamp int64,
) (*RandomnessRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestRandomnessLocked(requester, subscriptionID, poolID, seed, callbackData, numWords, minConfirmations, callbackGasLimit, currentSlot, currentTimestamp, &externalID)
}

func (c *Coordinator) requestRandomnessLocked(
	requester, subscriptionID [32]byte,
	poolID uint8,
	seed [32]byte,
	callbackData []byte,
	numWords uint32,
	minConfirmations uint8,
	callbackGasLimit uint32,
	currentSlot uint64,
	currentTimestamp int64,
	externalID *[32]byte,
) (*RandomnessRequest, error) {
	if minConfirmations < subscription.MinConfirmations || minConfirmations > subscription.MaxConfirmations {
		return nil, errs.E(errs.InvalidConfirmations, "coordinator.RequestRandomness", nil)
	}
	if numWords < MinWords || numWords > MaxWords {
		return nil, errs.E(errs.InvalidWordCount, "coordinator.RequestRandomness", nil)
	}
	if callbackGasLimit < MinCallbackGasLimit || callbackGasLimit > MaxCallbackGasLimit {
		return nil, errs.E(errs.InvalidGasLimit, "coordinator.RequestRandomness", nil)
	}
	if len(callbackData) > MaxCallbackDataSize {
		return nil, errs.E(errs.InvalidCallbackDataSize, "coordinator.RequestRandomness", nil)
	}

	sub, ok := c.subscriptions[subscriptionID]
	if !ok {
		return nil, errs.E(errs.InvalidSubscriptionOwner, "coordinator.RequestRandomness", nil)
	}
	if !sub.HasPool(poolID) {
		return nil, errs.E(errs.InvalidPoolId, "coordinator.RequestRandomness", nil)
	}
	key := poolKey{subscriptionID, poolID}
	p, ok := c.pools[key]
	if !ok {
		return nil, errs.E(errs.InvalidPoolId, "coordinator.RequestRandomness", nil)
	}

	requestIndex := p.NextIndex()
	var requestID [32]byte
	if externalID != nil {
		requestID = *externalID
	} else {
		requestID = ids.DeriveID(seed, requester, subscriptionID, currentSlot, currentTimestamp, poolID, requestIndex)
	}
	fp := ids.Fingerprint16(requestID)

	if err := sub.ReserveForRequest(fp); err != nil {
		return nil, err
	}
	c.recordFingerprint(subscriptionID, fp, requestID)

	summary := pool.RequestSummary{
		Requester:        requester,
		SeedHash:         ids.SeedHash(seed),
		Timestamp:        currentTimestamp,
		Status:           pool.Pending,
		RequestSlot:      currentSlot,
		CallbackGasLimit: callbackGasLimit,
	}
	if err := p.Add(requestIndex, summary); err != nil {
		sub.RefundOnCancel(fp)
		c.releaseFingerprint(subscriptionID, fp)
		return nil, err
	}

	cbCopy := append([]byte(nil), callbackData...)
	req := &RandomnessRequest{
		Subscription:     subscriptionID,
		Seed:             seed,
		Requester:        requester,
		CallbackData:     cbCopy,
		RequestSlot:      currentSlot,
		Status:           pool.Pending,
		NumWords:         numWords,
		CallbackGasLimit: callbackGasLimit,
		PoolID:           poolID,
		RequestIndex:     requestIndex,
		RequestID:        requestID,
	}
	c.requests[requestID] = req

	c.sink.Emit(Event{Name: "RandomnessRequested", Payload: struct {
		RequestID    [32]byte
		Requester    [32]byte
		Subscription [32]byte
		Seed         [32]byte
		PoolID       uint8
		RequestIndex uint32
	}{requestID, requester, subscriptionID, seed, poolID, requestIndex}})

	cp := *req
	cp.CallbackData = append([]byte(nil), req.CallbackData...)
	return &cp, nil
}

// FulfillRandomness verifies a proof and records the resulting randomness.
func (c *Coordinator) FulfillRandomness(
	ctx context.Context,
	oracleAuthority [32]byte,
	requestID [32]byte,
	poolID uint8,
	requestIndex uint32,
	proof [vrfcrypto.ProofSize]byte,
	publicKey [vrfcrypto.PublicKeySize]byte,
	currentSlot uint64,
) (*VrfResult, error) {
	c.mu.Lock()
	limiter := c.limiterForAuthority(oracleAuthority)
	c.mu.Unlock()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, errs.E(errs.RateLimited, "coordinator.FulfillRandomness", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.requests[requestID]
	if !ok {
		return nil, errs.E(errs.RequestNotFound, "coordinator.FulfillRandomness", nil)
	}
	if req.RequestID != requestID {
		return nil, errs.E(errs.RequestIdMismatch, "coordinator.FulfillRandomness", nil)
	}
	if req.PoolID != poolID {
		return nil, errs.E(errs.InvalidPoolId, "coordinator.FulfillRandomness", nil)
	}
	if req.RequestIndex != requestIndex {
		return nil, errs.E(errs.InvalidRequestIndex, "coordinator.FulfillRandomness", nil)
	}
	if req.Status != pool.Pending {
		return nil, errs.E(errs.RequestNotPending, "coordinator.FulfillRandomness", nil)
	}

	key := poolKey{req.Subscription, req.PoolID}
	p, ok := c.pools[key]
	if !ok {
		return nil, errs.E(errs.InvalidPoolId, "coordinator.FulfillRandomness", nil)
	}

	if currentSlot-req.RequestSlot > c.expirySlots {
		req.Status = pool.Expired
		_ = p.Transition(requestIndex, pool.Expired)
		if sub := c.subscriptions[req.Subscription]; sub != nil {
			fp := ids.Fingerprint16(requestID)
			sub.ReleaseOnFulfillment(fp)
			c.releaseFingerprint(req.Subscription, fp)
		}
		c.sink.Emit(Event{Name: "RequestExpired", Payload: struct {
			RequestID    [32]byte
			Subscription [32]byte
			PoolID       uint8
			RequestIndex uint32
		}{requestID, req.Subscription, req.PoolID, req.RequestIndex}})
		return nil, errs.E(errs.RequestExpired, "coordinator.FulfillRandomness", nil)
	}

	if c.enforceVrfKey && c.registry != nil {
		if !c.registry.IsActiveKey(publicKey) {
			return nil, errs.E(errs.InvalidVrfKey, "coordinator.FulfillRandomness", nil)
		}
	}

	if _, err := vrfcrypto.Verify(publicKey, req.Seed[:], proof); err != nil {
		return nil, errs.E(errs.ProofVerificationFailed, "coordinator.FulfillRandomness", err)
	}

	req.Status = pool.Fulfilled
	if err := p.Transition(requestIndex, pool.Fulfilled); err != nil {
		return nil, err
	}

	randomness := expandRandomness(requestID, req.NumWords)
	result := &VrfResult{
		Randomness: randomness,
		Proof:      proof,
		ProofSlot:  currentSlot,
		RequestID:  requestID,
	}
	c.results[requestID] = result

	sub := c.subscriptions[req.Subscription]
	fp := ids.Fingerprint16(requestID)
	if sub != nil {
		sub.ReleaseOnFulfillment(fp)
		c.releaseFingerprint(req.Subscription, fp)
	}

	c.sink.Emit(Event{Name: "RandomnessFulfilled", Payload: struct {
		RequestID  [32]byte
		Requester  [32]byte
		Randomness [64]byte
		Oracle     [32]byte
	}{requestID, req.Requester, randomness[0], oracleAuthority}})

	if c.callback != nil {
		if err := c.callback.Invoke(ctx, requestID, randomness); err != nil {
			c.logger.Warn().Err(err).Hex("request_id", requestID[:]).Msg("consumer callback failed")
			c.sink.Emit(Event{Name: "CallbackFailed", Payload: struct {
				RequestID [32]byte
				Err       string
			}{requestID, err.Error()}})
		}
	}

	cp := *result
	cp.Randomness = append([][64]byte(nil), result.Randomness...)
	return &cp, nil
}

// FulfillFromRemote marks a request Fulfilled using randomness already
// verified and relayed by a remote chain's coordinator, matching the
// cross-chain VrfFulfillment dispatch ("mark matching pending request
// Fulfilled"): the 97-byte wire fulfillment carries only request_id and the
// first randomness word, no proof, because verification already happened on
// the origin chain. Subsequent words (if num_words > 1) are derived the same
// deterministic way as a local fulfillment.
func (c *Coordinator) FulfillFromRemote(requestID [32]byte, firstWord [64]byte, currentSlot uint64) (*VrfResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.requests[requestID]
	if !ok {
		return nil, errs.E(errs.RequestNotFound, "coordinator.FulfillFromRemote", nil)
	}
	if req.Status != pool.Pending {
		return nil, errs.E(errs.RequestNotPending, "coordinator.FulfillFromRemote", nil)
	}

	key := poolKey{req.Subscription, req.PoolID}
	p, ok := c.pools[key]
	if !ok {
		return nil, errs.E(errs.InvalidPoolId, "coordinator.FulfillFromRemote", nil)
	}

	req.Status = pool.Fulfilled
	if err := p.Transition(req.RequestIndex, pool.Fulfilled); err != nil {
		return nil, err
	}

	randomness := expandRandomness(requestID, req.NumWords)
	randomness[0] = firstWord
	result := &VrfResult{
		Randomness: randomness,
		ProofSlot:  currentSlot,
		RequestID:  requestID,
	}
	c.results[requestID] = result

	sub := c.subscriptions[req.Subscription]
	if sub != nil {
		fp := ids.Fingerprint16(requestID)
		sub.ReleaseOnFulfillment(fp)
		c.releaseFingerprint(req.Subscription, fp)
	}

	c.sink.Emit(Event{Name: "RandomnessFulfilled", Payload: struct {
		RequestID  [32]byte
		Requester  [32]byte
		Randomness [64]byte
		Oracle     [32]byte
	}{requestID, req.Requester, firstWord, [32]byte{}}})

	cp := *result
	cp.Randomness = append([][64]byte(nil), result.Randomness...)
	return &cp, nil
}

// CancelRequest cancels a pending request, refunding the subscription.
func (c *Coordinator) CancelRequest(owner [32]byte, requestID [32]byte, poolID uint8, requestIndex uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.requests[requestID]
	if !ok {
		return errs.E(errs.RequestNotFound, "coordinator.CancelRequest", nil)
	}
	sub, ok := c.subscriptions[req.Subscription]
	if !ok {
		return errs.E(errs.InvalidSubscriptionOwner, "coordinator.CancelRequest", nil)
	}
	if sub.Owner != owner {
		return errs.E(errs.InvalidSubscriptionOwner, "coordinator.CancelRequest", nil)
	}
	if req.PoolID != poolID || req.RequestIndex != requestIndex {
		return errs.E(errs.InvalidRequestIndex, "coordinator.CancelRequest", nil)
	}
	if req.Status != pool.Pending {
		return errs.E(errs.RequestNotPending, "coordinator.CancelRequest", nil)
	}

	key := poolKey{req.Subscription, req.PoolID}
	p, ok := c.pools[key]
	if !ok {
		return errs.E(errs.InvalidPoolId, "coordinator.CancelRequest", nil)
	}
	if err := p.Transition(requestIndex, pool.Cancelled); err != nil {
		return err
	}
	req.Status = pool.Cancelled

	fp := ids.Fingerprint16(requestID)
	sub.RefundOnCancel(fp)
	c.releaseFingerprint(req.Subscription, fp)

	c.sink.Emit(Event{Name: "RequestCancelled", Payload: struct {
		RequestID    [32]byte
		Subscription [32]byte
		PoolID       uint8
		RequestIndex uint32
	}{requestID, req.Subscription, req.PoolID, req.RequestIndex}})
	return nil
}

// CleanExpired sweeps a pool for stale Pending requests, transitioning them
// to Expired and releasing the subscription's reserved slots.
// Permissionless: any caller may invoke it.
func (c *Coordinator) CleanExpired(subscriptionID [32]byte, poolID uint8, currentSlot uint64) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := poolKey{subscriptionID, poolID}
	p, ok := c.pools[key]
	if !ok {
		return 0, errs.E(errs.InvalidPoolId, "coordinator.CleanExpired", nil)
	}
	sub, ok := c.subscriptions[subscriptionID]
	if !ok {
		return 0, errs.E(errs.InvalidSubscriptionOwner, "coordinator.CleanExpired", nil)
	}

	n := p.CleanExpired(currentSlot, c.expirySlots)
	if n > 0 {
		if c.fpIndex != nil {
			// Exact accounting: the side index lets us resolve each expired
			// request's fingerprint instead of falling back to the
			// best-effort batch decrement.
			for _, req := range c.requests {
				if req.Subscription == subscriptionID && req.PoolID == poolID && req.Status == pool.Pending {
					if currentSlot-req.RequestSlot > c.expirySlots {
						req.Status = pool.Expired
						fp := ids.Fingerprint16(req.RequestID)
						sub.ReleaseOnFulfillment(fp)
						c.releaseFingerprint(subscriptionID, fp)
					}
				}
			}
		} else {
			for _, req := range c.requests {
				if req.Subscription == subscriptionID && req.PoolID == poolID && req.Status == pool.Pending {
					if currentSlot-req.RequestSlot > c.expirySlots {
						req.Status = pool.Expired
					}
				}
			}
			if n > 255 {
				n = 255
			}
			sub.ReleaseBatch(uint8(n))
		}
	}

	c.sink.Emit(Event{Name: "RequestPoolCleaned", Payload: struct {
		Subscription [32]byte
		PoolID       uint8
		ExpiredCount uint32
	}{subscriptionID, poolID, n}})
	return n, nil
}

// BatchItem is one unit of work for ProcessBatch.
type BatchItem struct {
	RequestID    [32]byte
	PoolID       uint8
	RequestIndex uint32
	Proof        [vrfcrypto.ProofSize]byte
	PublicKey    [vrfcrypto.PublicKeySize]byte
}

// BatchOutcome pairs an item with its individual result.
type BatchOutcome struct {
	Item   BatchItem
	Result *VrfResult
	Err    error
}

// ProcessBatch applies FulfillRandomness to each item independently; partial
// success is allowed. Ordering is input order.
func (c *Coordinator) ProcessBatch(ctx context.Context, oracleAuthority [32]byte, poolID uint8, items []BatchItem, currentSlot uint64) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(items))
	var successes uint32
	for _, item := range items {
		result, err := c.FulfillRandomness(ctx, oracleAuthority, item.RequestID, item.PoolID, item.RequestIndex, item.Proof, item.PublicKey, currentSlot)
		outcomes = append(outcomes, BatchOutcome{Item: item, Result: result, Err: err})
		if err == nil {
			successes++
		}
	}

	c.mu.Lock()
	c.sink.Emit(Event{Name: "BatchProcessed", Payload: struct {
		Oracle [32]byte
		PoolID uint8
		Count  uint32
	}{oracleAuthority, poolID, successes}})
	c.mu.Unlock()

	return outcomes
}

// Request returns a defensive copy of the request record, for inspection by
// the HTTP façade and tests.
func (c *Coordinator) Request(requestID [32]byte) (*RandomnessRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.requests[requestID]
	if !ok {
		return nil, false
	}
	cp := *req
	cp.CallbackData = append([]byte(nil), req.CallbackData...)
	return &cp, true
}

// Result returns a defensive copy of the VrfResult for requestID, if any.
func (c *Coordinator) Result(requestID [32]byte) (*VrfResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[requestID]
	if !ok {
		return nil, false
	}
	cp := *res
	cp.Randomness = append([][64]byte(nil), res.Randomness...)
	return &cp, true
}

// PoolRef identifies one of the coordinator's pools for enumeration purposes
// (e.g. a periodic clean_expired sweep).
type PoolRef struct {
	Subscription [32]byte
	PoolID       uint8
}

// Pools returns every (subscription, pool_id) pair currently registered,
// letting an operator process sweep every pool without tracking them
// separately.
func (c *Coordinator) Pools() []PoolRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PoolRef, 0, len(c.pools))
	for k := range c.pools {
		out = append(out, PoolRef{Subscription: k.subscription, PoolID: k.poolID})
	}
	return out
}

// recordFingerprint best-effort-records a newly reserved request's fingerprint
// in the optional side index; failures are logged, never fatal (the index
// is an enhancement, not a correctness requirement).
func (c *Coordinator) recordFingerprint(subscriptionID [32]byte, fp [16]byte, requestID [32]byte) {
	if c.fpIndex == nil {
		return
	}
	if err := c.fpIndex.Put(context.Background(), subscriptionID, fp, requestID); err != nil {
		c.logger.Warn().Err(err).Msg("fingerprint index put failed")
	}
}

// releaseFingerprint best-effort-removes a released request's fingerprint
// from the optional side index.
func (c *Coordinator) releaseFingerprint(subscriptionID [32]byte, fp [16]byte) {
	if c.fpIndex == nil {
		return
	}
	if err := c.fpIndex.Delete(context.Background(), subscriptionID, fp); err != nil {
		c.logger.Warn().Err(err).Msg("fingerprint index delete failed")
	}
}

func (c *Coordinator) limiterForAuthority(authority [32]byte) *rate.Limiter {
	if c.limiterFor == nil {
		return nil
	}
	if l, ok := c.limiters[authority]; ok {
		return l
	}
	l := c.limiterFor(authority)
	c.limiters[authority] = l
	return l
}

// expandRandomness derives the num_words sequence of 64-byte words:
// word_i = H(request_id || i_le(4)), duplicated to fill 64 bytes.
func expandRandomness(requestID [32]byte, numWords uint32) [][64]byte {
	words := make([][64]byte, numWords)
	for i := uint32(0); i < numWords; i++ {
		var idxBuf [4]byte
		binary.LittleEndian.PutUint32(idxBuf[:], i)
		h := ids.Hash(requestID[:], idxBuf[:])
		copy(words[i][0:32], h[:])
		copy(words[i][32:64], h[:])
	}
	return words
}
