package bridge

import (
	"context"
	"encoding/json"
	"sync"
)

// fakeHost is an in-memory Transport. Commands are recorded on sent and,
// when a handler is set, answered synchronously from inside Send.
type fakeHost struct {
	mu        sync.Mutex
	frames    chan Frame
	sent      chan Frame
	handler   func(Frame) []Frame
	sendErr   error
	closeOnce sync.Once
}

func newFakeHost(handler func(Frame) []Frame) *fakeHost {
	return &fakeHost{
		frames:  make(chan Frame, 64),
		sent:    make(chan Frame, 64),
		handler: handler,
	}
}

func (h *fakeHost) Send(_ context.Context, f Frame) error {
	h.mu.Lock()
	err, handler := h.sendErr, h.handler
	h.mu.Unlock()
	if err != nil {
		return err
	}
	h.sent <- f
	if handler != nil {
		for _, reply := range handler(f) {
			h.frames <- reply
		}
	}
	return nil
}

func (h *fakeHost) Frames() <-chan Frame { return h.frames }

func (h *fakeHost) Close() error {
	h.closeOnce.Do(func() { close(h.frames) })
	return nil
}

func (h *fakeHost) emit(f Frame) { h.frames <- f }

// respondWith builds a response frame answering cmd.
func respondWith(cmd Frame, v any) Frame {
	data, _ := json.Marshal(v)
	return Frame{ID: cmd.ID, Type: FrameResponse, Operation: cmd.Operation, Payload: data}
}

// decodeArg decodes argument i of a command frame.
func decodeArg[T any](f Frame, i int) T {
	var v T
	_ = json.Unmarshal(f.Args[i], &v)
	return v
}
