// Package crosschain implements the peer-gated cross-chain receive pipeline:
// authenticates inbound messages by (source-endpoint, sender), clears replay
// via the transport, decodes the payload with the wire codec, and routes it
// to the coordinator.
package crosschain

import (
	"context"

	"github.com/mangekyou-labs/kamui-vrf/internal/codec"
	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
)

// Transport is the generic messaging transport the core consumes but never
// implements. Clear returns true the first time a given
// (srcEID, sender, nonce, guid) triple is seen; the core assumes this
// guarantees at-most-once processing.
type Transport interface {
	Send(ctx context.Context, dstEID uint32, message []byte) error
	Clear(ctx context.Context, srcEID uint32, sender [32]byte, nonce uint64, guid [32]byte, message []byte) (firstTime bool, err error)
}

// ReceiveParams mirrors LayerZero-style lz_receive parameters.
type ReceiveParams struct {
	SrcEID  uint32
	Sender  [32]byte
	Nonce   uint64
	Guid    [32]byte
	Message []byte
}

// GenericHandler processes a decoded Generic-tagged payload for
// application-specific routing.
type GenericHandler interface {
	HandleGeneric(ctx context.Context, params ReceiveParams, payload string) error
}

// Receiver authenticates and dispatches inbound cross-chain messages.
type Receiver struct {
	peers       map[uint32][32]byte
	transport   Transport
	coordinator *coordinator.Coordinator
	generic     GenericHandler

	subscriptionResolver func(srcEID uint32, requester [32]byte) [32]byte
	slots                func() (slot uint64, timestamp int64)
}

// Config configures a Receiver.
type Config struct {
	Transport   Transport
	Coordinator *coordinator.Coordinator
	Generic     GenericHandler
	// SubscriptionResolver maps a (srcEID, requester) pair to the local
	// SubscriptionId the request should draw against. Required.
	SubscriptionResolver func(srcEID uint32, requester [32]byte) [32]byte
	// Slots supplies the host-observed (slot, timestamp) pair stamped onto
	// requests admitted from the cross-chain path. It must use the same clock
	// as the deployment's clean_expired callers; when nil, the transport nonce
	// stands in as a purely logical slot.
	Slots func() (slot uint64, timestamp int64)
}

// New constructs a Receiver with the given trusted peers
// (src_endpoint_id -> peer_address).
func New(peers map[uint32][32]byte, cfg Config) *Receiver {
	p := make(map[uint32][32]byte, len(peers))
	for k, v := range peers {
		p[k] = v
	}
	return &Receiver{
		peers:                p,
		transport:            cfg.Transport,
		coordinator:          cfg.Coordinator,
		generic:              cfg.Generic,
		subscriptionResolver: cfg.SubscriptionResolver,
		slots:                cfg.Slots,
	}
}

// PeerAddress returns the trusted sender address configured for srcEID.
func (r *Receiver) PeerAddress(srcEID uint32) ([32]byte, bool) {
	addr, ok := r.peers[srcEID]
	return addr, ok
}

// LzReceive authenticates and dispatches an inbound message (
// lz_receive(params)).
func (r *Receiver) LzReceive(ctx context.Context, params ReceiveParams) error {
	peer, ok := r.peers[params.SrcEID]
	if !ok || params.Sender != peer {
		return errs.E(errs.InvalidSender, "crosschain.LzReceive", nil)
	}

	firstTime, err := r.transport.Clear(ctx, params.SrcEID, params.Sender, params.Nonce, params.Guid, params.Message)
	if err != nil {
		return errs.E(errs.EndpointCpiFailed, "crosschain.LzReceive", err)
	}
	if !firstTime {
		// Already processed: the transport's clear() guarantees at-most-once
		// delivery, so this is a no-op rather than an error.
		return nil
	}

	payload, err := codec.Decode(params.Message)
	if err != nil {
		return errs.E(errs.MessageDecodingError, "crosschain.LzReceive", err)
	}

	switch {
	case payload.VRFRequest != nil:
		return r.dispatchVRFRequest(ctx, params, *payload.VRFRequest)
	case payload.VRFFulfill != nil:
		return r.dispatchVRFFulfillment(ctx, params, *payload.VRFFulfill)
	default:
		if r.generic == nil {
			return nil
		}
		if err := r.generic.HandleGeneric(ctx, params, payload.Generic); err != nil {
			return errs.E(errs.MessageDecodingError, "crosschain.LzReceive", err)
		}
		return nil
	}
}

func (r *Receiver) dispatchVRFRequest(ctx context.Context, params ReceiveParams, req codec.VRFRequestPayload) error {
	if r.subscriptionResolver == nil {
		return errs.E(errs.MessageDecodingError, "crosschain.dispatchVRFRequest", nil)
	}
	subscriptionID := r.subscriptionResolver(params.SrcEID, req.Requester)

	slot, timestamp := r.currentSlots(params)
	_, err := r.coordinator.RequestRandomnessWithID(
		params.Guid,
		req.Requester,
		subscriptionID,
		req.PoolID,
		req.Seed,
		req.CallbackData[:],
		req.NumWords,
		1,
		100_000,
		slot,
		timestamp,
	)
	return err
}

func (r *Receiver) dispatchVRFFulfillment(ctx context.Context, params ReceiveParams, fulfill codec.VRFFulfillmentPayload) error {
	slot, _ := r.currentSlots(params)
	_, err := r.coordinator.FulfillFromRemote(fulfill.RequestID, fulfill.Randomness, slot)
	return err
}

func (r *Receiver) currentSlots(params ReceiveParams) (uint64, int64) {
	if r.slots != nil {
		return r.slots()
	}
	return params.Nonce, 0
}

// Send encodes nothing itself; it rejects a dstEID with no configured peer
// address (InvalidRemoteAddress) and otherwise delegates the outbound send
// to the transport, which is not handed the peer address.
func (r *Receiver) Send(ctx context.Context, dstEID uint32, message []byte) error {
	if _, ok := r.peers[dstEID]; !ok {
		return errs.E(errs.InvalidRemoteAddress, "crosschain.Send", nil)
	}
	return r.transport.Send(ctx, dstEID, message)
}
