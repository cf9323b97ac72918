package crosschain

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestWSTransportSendReceiveRoundTrip(t *testing.T) {
	const serverEID, clientEID = 1, 2
	var serverAddr, clientAddr [32]byte
	serverAddr[0] = 0xAA
	clientAddr[0] = 0xBB

	server := NewWSTransport(serverEID, serverAddr)

	var mu sync.Mutex
	var got *ReceiveParams
	received := make(chan struct{})
	server.SetReceiveHandler(func(ctx context.Context, params ReceiveParams) error {
		mu.Lock()
		cp := params
		got = &cp
		mu.Unlock()
		close(received)
		return nil
	})

	httpServer := httptest.NewServer(server.ServeHTTP(clientEID))
	defer httpServer.Close()

	client := NewWSTransport(clientEID, clientAddr)
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	if err := client.Dial(context.Background(), serverEID, wsURL); err != nil {
		t.Fatalf("Dial: %v", err)
	}

	payload := []byte("hello-cross-chain")
	if err := client.Send(context.Background(), serverEID, payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the server to receive the message")
	}

	mu.Lock()
	defer mu.Unlock()
	if got == nil {
		t.Fatal("no message received")
	}
	if string(got.Message) != string(payload) {
		t.Fatalf("message = %q, want %q", got.Message, payload)
	}
	if got.SrcEID != clientEID {
		t.Fatalf("SrcEID = %d, want %d", got.SrcEID, clientEID)
	}
	if got.Sender != clientAddr {
		t.Fatalf("Sender = %x, want %x", got.Sender, clientAddr)
	}
}

func TestWSTransportClearDedup(t *testing.T) {
	var addr [32]byte
	addr[0] = 1
	transport := NewWSTransport(1, addr)

	var sender, guid [32]byte
	sender[0], guid[0] = 2, 3

	first, err := transport.Clear(context.Background(), 7, sender, 1, guid, []byte("m"))
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !first {
		t.Fatal("expected the first Clear call to report firstTime=true")
	}

	second, err := transport.Clear(context.Background(), 7, sender, 1, guid, []byte("m"))
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if second {
		t.Fatal("expected the second Clear call for the same tuple to report firstTime=false")
	}
}

func TestWSTransportSendWithoutConnectionFails(t *testing.T) {
	var addr [32]byte
	transport := NewWSTransport(1, addr)
	if err := transport.Send(context.Background(), 99, []byte("x")); err == nil {
		t.Fatal("expected Send to a never-dialed endpoint to fail")
	}
}
