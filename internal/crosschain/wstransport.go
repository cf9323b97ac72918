package crosschain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mangekyou-labs/kamui-vrf/internal/ids"
)

// wsEnvelope is the wire shape WSTransport exchanges between peers: enough of
// ReceiveParams to reconstruct an lz_receive call on the far side, plus the
// destination endpoint id so a single connection can carry traffic for
// multiple logical routes.
type wsEnvelope struct {
	SrcEID  uint32   `json:"src_eid"`
	DstEID  uint32   `json:"dst_eid"`
	Sender  [32]byte `json:"sender"`
	Nonce   uint64   `json:"nonce"`
	Guid    [32]byte `json:"guid"`
	Message []byte   `json:"message"`
}

func dedupKey(srcEID uint32, sender [32]byte, nonce uint64, guid [32]byte) string {
	return fmt.Sprintf("%d:%x:%d:%x", srcEID, sender, nonce, guid)
}

// WSTransport is a development/demo Transport ("generic messaging
// transport the core never implements") carrying encoded C3 payloads between
// two in-process peers over a plain websocket connection, grounded on the
// obscura push-oracle server's upgrader/read-pump/write-pump shape.
type WSTransport struct {
	localEID     uint32
	localAddress [32]byte
	upgrader     websocket.Upgrader

	mu     sync.Mutex
	conns  map[uint32]*websocket.Conn
	seen   map[string]struct{}
	nonces map[uint32]uint64

	onReceive func(ctx context.Context, params ReceiveParams) error
}

// NewWSTransport constructs a transport for the local endpoint id localEID.
// localAddress is stamped onto every outbound envelope as its Sender, so the
// remote peer's trusted-peer check (Receiver.peers) can authenticate it.
func NewWSTransport(localEID uint32, localAddress [32]byte) *WSTransport {
	return &WSTransport{
		localEID:     localEID,
		localAddress: localAddress,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns:  make(map[uint32]*websocket.Conn),
		seen:   make(map[string]struct{}),
		nonces: make(map[uint32]uint64),
	}
}

// SetReceiveHandler registers the callback invoked for every inbound
// envelope addressed to this transport's local endpoint, normally
// (*Receiver).LzReceive.
func (t *WSTransport) SetReceiveHandler(h func(ctx context.Context, params ReceiveParams) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReceive = h
}

// ServeHTTP upgrades an inbound connection from peerEID and starts its read
// loop. Mount it behind whatever path convention the deployment uses for
// peer-to-peer links (e.g. /ws/peers/{eid}).
func (t *WSTransport) ServeHTTP(peerEID uint32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := t.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		t.registerConn(peerEID, conn)
		go t.readLoop(peerEID, conn)
	}
}

// Dial opens an outbound connection to a peer at url and registers it under
// dstEID for subsequent Send calls.
func (t *WSTransport) Dial(ctx context.Context, dstEID uint32, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("crosschain: dial peer %d at %s: %w", dstEID, url, err)
	}
	t.registerConn(dstEID, conn)
	go t.readLoop(dstEID, conn)
	return nil
}

func (t *WSTransport) registerConn(eid uint32, conn *websocket.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[eid] = conn
}

func (t *WSTransport) readLoop(peerEID uint32, conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env wsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		if env.DstEID != t.localEID {
			continue
		}
		t.mu.Lock()
		handler := t.onReceive
		t.mu.Unlock()
		if handler == nil {
			continue
		}
		_ = handler(context.Background(), ReceiveParams{
			SrcEID:  env.SrcEID,
			Sender:  env.Sender,
			Nonce:   env.Nonce,
			Guid:    env.Guid,
			Message: env.Message,
		})
	}
}

// Send implements Transport: it encodes message for the peer registered
// under dstEID and writes it over that peer's connection.
func (t *WSTransport) Send(ctx context.Context, dstEID uint32, message []byte) error {
	t.mu.Lock()
	conn, ok := t.conns[dstEID]
	if ok {
		t.nonces[dstEID]++
	}
	nonce := t.nonces[dstEID]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("crosschain: no connection registered for endpoint %d", dstEID)
	}
	env := wsEnvelope{
		SrcEID:  t.localEID,
		DstEID:  dstEID,
		Sender:  t.localAddress,
		Nonce:   nonce,
		Guid:    ids.Hash(message, []byte{byte(dstEID)}),
		Message: message,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("crosschain: encode envelope: %w", err)
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// Clear implements Transport's replay guard: it returns true the first time
// a given (srcEID, sender, nonce, guid) tuple is observed and false on every
// subsequent call, matching LayerZero's nonce-clearing semantics in-process.
func (t *WSTransport) Clear(ctx context.Context, srcEID uint32, sender [32]byte, nonce uint64, guid [32]byte, message []byte) (bool, error) {
	key := dedupKey(srcEID, sender, nonce, guid)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[key]; ok {
		return false, nil
	}
	t.seen[key] = struct{}{}
	return true, nil
}

var _ Transport = (*WSTransport)(nil)
