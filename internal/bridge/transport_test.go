package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/aebridge/pkg/types"
)

func TestStreamTransportRoundTrip(t *testing.T) {
	// two pipes form a duplex link between client side and host side
	hostIn, clientOut := io.Pipe()
	clientIn, hostOut := io.Pipe()

	clientSide := NewStreamTransport(clientIn, clientOut)
	hostSide := NewStreamTransport(hostIn, hostOut)

	go func() {
		for f := range hostSide.Frames() {
			_ = hostSide.Send(context.Background(), respondWith(f, map[string]any{"name": "stream.aep"}))
		}
	}()

	client := New(clientSide)
	info, err := client.GetProjectInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stream.aep", info.Name)

	require.NoError(t, client.Close())
	_ = hostSide.Close()
	assert.ErrorIs(t, clientSide.Send(context.Background(), Frame{Type: FrameCommand}), ErrTransportClosed)
}

func TestStreamTransportRejectsBadHeader(t *testing.T) {
	r := strings.NewReader("Content-Length: 0\r\n\r\n")
	tr := NewStreamTransport(r, nopWriteCloser{io.Discard})

	_, ok := <-tr.Frames()
	assert.False(t, ok, "frames channel should close on invalid framing")
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestWebSocketTransport(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd Frame
			if err := json.Unmarshal(data, &cmd); err != nil {
				return
			}
			// garbage first to prove the reader survives it
			_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
			if cmd.Operation == OpGetLayerComment {
				_ = conn.WriteJSON(Frame{ID: cmd.ID, Type: FrameError,
					Error: &types.CEPError{Code: "LAYER_LOCKED", Message: "locked"}})
				continue
			}
			_ = conn.WriteJSON(respondWith(cmd, types.ProjectInfo{Name: "ws.aep", NumItems: 3}))
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	tr, err := DialWebSocket(ctx, url)
	require.NoError(t, err)

	client := New(tr)
	defer client.Close()

	info, err := client.GetProjectInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.NumItems)

	_, err = client.GetLayerComment(ctx, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LAYER_LOCKED")
}

func TestDialWebSocketFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := DialWebSocket(ctx, "ws://127.0.0.1:1/bridge")
	assert.Error(t, err)
}
