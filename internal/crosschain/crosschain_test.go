package crosschain

import (
	"context"
	"testing"

	"github.com/mangekyou-labs/kamui-vrf/internal/codec"
	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/errs"
)

type fakeTransport struct {
	seen map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{seen: make(map[string]bool)}
}

func (f *fakeTransport) Send(ctx context.Context, dstEID uint32, message []byte) error {
	return nil
}

func (f *fakeTransport) Clear(ctx context.Context, srcEID uint32, sender [32]byte, nonce uint64, guid [32]byte, message []byte) (bool, error) {
	key := string(sender[:]) + string(guid[:])
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func setupCoordinatorWithSubscription(t *testing.T) (*coordinator.Coordinator, [32]byte) {
	t.Helper()
	c := coordinator.New(coordinator.Config{})
	var subID, owner [32]byte
	subID[0] = 1
	if _, err := c.CreateSubscription(subID, owner, 0, 1, 10); err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if err := c.CreatePool(subID, 1, 10); err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	return c, subID
}

// TestPeerGatingScenario exercises rejection of a message from an untrusted peer.
func TestPeerGatingScenario(t *testing.T) {
	c, subID := setupCoordinatorWithSubscription(t)
	var peerAddr [32]byte
	peerAddr[0] = 0xAB

	transport := newFakeTransport()
	recv := New(map[uint32]([32]byte){40161: peerAddr}, Config{
		Transport:   transport,
		Coordinator: c,
		SubscriptionResolver: func(srcEID uint32, requester [32]byte) [32]byte {
			return subID
		},
	})

	var requester, seed, callback [32]byte
	requester[0] = 5
	req := codec.VRFRequestPayload{Requester: requester, Seed: seed, CallbackData: callback, NumWords: 1, PoolID: 1}
	message := codec.EncodeVRFRequest(req)

	var guid [32]byte
	guid[0] = 1
	if err := recv.LzReceive(context.Background(), ReceiveParams{
		SrcEID: 40161, Sender: peerAddr, Nonce: 1, Guid: guid, Message: message,
	}); err != nil {
		t.Fatalf("LzReceive with correct sender: %v", err)
	}

	wrongSender := peerAddr
	wrongSender[31] ^= 0x01
	guid2 := guid
	guid2[0] = 2
	err := recv.LzReceive(context.Background(), ReceiveParams{
		SrcEID: 40161, Sender: wrongSender, Nonce: 2, Guid: guid2, Message: message,
	})
	if !errs.Is(err, errs.InvalidSender) {
		t.Fatalf("got %v, want InvalidSender", err)
	}
}

func TestLzReceiveDispatchesVRFRequest(t *testing.T) {
	c, subID := setupCoordinatorWithSubscription(t)
	var peerAddr [32]byte
	peerAddr[0] = 0xCD
	transport := newFakeTransport()
	recv := New(map[uint32]([32]byte){1: peerAddr}, Config{
		Transport:   transport,
		Coordinator: c,
		SubscriptionResolver: func(srcEID uint32, requester [32]byte) [32]byte {
			return subID
		},
	})

	var requester, seed, callback [32]byte
	req := codec.VRFRequestPayload{Requester: requester, Seed: seed, CallbackData: callback, NumWords: 2, PoolID: 1}
	message := codec.EncodeVRFRequest(req)
	var guid [32]byte
	guid[0] = 9

	if err := recv.LzReceive(context.Background(), ReceiveParams{SrcEID: 1, Sender: peerAddr, Nonce: 1, Guid: guid, Message: message}); err != nil {
		t.Fatalf("LzReceive: %v", err)
	}

	got, ok := c.Request(guid)
	if !ok {
		t.Fatal("expected a request keyed by the transport guid")
	}
	if got.NumWords != 2 {
		t.Fatalf("num_words = %d, want 2", got.NumWords)
	}
}

func TestLzReceiveIsIdempotentOnReplayedNonce(t *testing.T) {
	c, subID := setupCoordinatorWithSubscription(t)
	var peerAddr [32]byte
	peerAddr[0] = 0xEF
	transport := newFakeTransport()
	recv := New(map[uint32]([32]byte){1: peerAddr}, Config{
		Transport:   transport,
		Coordinator: c,
		SubscriptionResolver: func(srcEID uint32, requester [32]byte) [32]byte {
			return subID
		},
	})

	var requester, seed, callback [32]byte
	req := codec.VRFRequestPayload{Requester: requester, Seed: seed, CallbackData: callback, NumWords: 1, PoolID: 1}
	message := codec.EncodeVRFRequest(req)
	var guid [32]byte
	guid[0] = 3
	params := ReceiveParams{SrcEID: 1, Sender: peerAddr, Nonce: 7, Guid: guid, Message: message}

	if err := recv.LzReceive(context.Background(), params); err != nil {
		t.Fatalf("first LzReceive: %v", err)
	}
	// A replayed (sender, guid) is cleared as a no-op, not re-dispatched or errored.
	if err := recv.LzReceive(context.Background(), params); err != nil {
		t.Fatalf("replayed LzReceive should be a no-op, got error: %v", err)
	}
}
