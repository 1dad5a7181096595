package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

// WebSocketTransport exchanges JSON text frames with a host-side WebSocket
// endpoint, typically served by the panel's embedded Node runtime.
type WebSocketTransport struct {
	conn   *websocket.Conn
	wmu    sync.Mutex
	frames chan Frame
	closed atomic.Bool
}

// DialWebSocket connects to the host bridge endpoint at url.
func DialWebSocket(ctx context.Context, url string) (*WebSocketTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial host bridge %s: %w", url, err)
	}
	return NewWebSocketTransport(conn), nil
}

// NewWebSocketTransport wraps an established connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	t := &WebSocketTransport{
		conn:   conn,
		frames: make(chan Frame, 16),
	}
	go t.readLoop()
	return t
}

// Frames returns the inbound frame channel.
func (t *WebSocketTransport) Frames() <-chan Frame {
	return t.frames
}

// Send writes frame as one JSON text message.
func (t *WebSocketTransport) Send(ctx context.Context, frame Frame) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.closed.Load() {
		return ErrTransportClosed
	}

	deadline := time.Now().Add(wsWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteJSON(frame)
}

// Close sends a close message and tears down the connection.
func (t *WebSocketTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.wmu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.wmu.Unlock()
	return t.conn.Close()
}

func (t *WebSocketTransport) readLoop() {
	defer close(t.frames)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			// a malformed message leaves the connection usable
			continue
		}
		t.frames <- frame
	}
}
