package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Transport moves frames to and from the host. Send is fire-only: success of
// the command is conveyed later by an inbound frame. Frames must be closed
// once the connection ends or Close is called.
type Transport interface {
	Send(ctx context.Context, frame Frame) error
	Frames() <-chan Frame
	Close() error
}

// ErrTransportClosed is returned when sending on a closed transport.
var ErrTransportClosed = errors.New("transport closed")

// StreamTransport exchanges Content-Length framed JSON over a byte stream.
type StreamTransport struct {
	r      *bufio.Reader
	rc     io.Closer
	w      io.WriteCloser
	wmu    sync.Mutex
	frames chan Frame
	closed atomic.Bool
	cmd    *exec.Cmd
}

// NewStreamTransport starts reading frames from r and writes frames to w.
func NewStreamTransport(r io.Reader, w io.WriteCloser) *StreamTransport {
	t := &StreamTransport{
		r:      bufio.NewReader(r),
		w:      w,
		frames: make(chan Frame, 16),
	}
	if rc, ok := r.(io.Closer); ok {
		t.rc = rc
	}
	go t.readLoop()
	return t
}

// StartProcess launches a host helper process and speaks the stream framing
// over its stdin and stdout.
func StartProcess(ctx context.Context, command string, args ...string) (*StreamTransport, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return nil, fmt.Errorf("failed to start host process: %w", err)
	}

	t := NewStreamTransport(stdout, stdin)
	t.cmd = cmd
	t.rc = nil // Wait closes stdout once the process exits
	return t, nil
}

// Frames returns the inbound frame channel.
func (t *StreamTransport) Frames() <-chan Frame {
	return t.frames
}

// Send writes one framed message.
func (t *StreamTransport) Send(_ context.Context, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.closed.Load() {
		return ErrTransportClosed
	}
	if _, err := io.WriteString(t.w, header); err != nil {
		return err
	}
	_, err = t.w.Write(data)
	return err
}

// Close closes the write side and, for process transports, waits for exit.
func (t *StreamTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.wmu.Lock()
	err := t.w.Close()
	t.wmu.Unlock()

	if t.cmd != nil {
		if waitErr := t.cmd.Wait(); err == nil {
			err = waitErr
		}
		return err
	}
	if t.rc != nil {
		if closeErr := t.rc.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func (t *StreamTransport) readLoop() {
	defer close(t.frames)
	for {
		frame, err := t.readFrame()
		if err != nil {
			return
		}
		t.frames <- frame
	}
}

func (t *StreamTransport) readFrame() (Frame, error) {
	var contentLength int
	for {
		line, err := t.r.ReadString('\n')
		if err != nil {
			return Frame{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "content-length:") {
			val := strings.TrimSpace(strings.TrimPrefix(lower, "content-length:"))
			if n, err := strconv.Atoi(val); err == nil {
				contentLength = n
			}
		}
	}
	if contentLength <= 0 {
		return Frame{}, fmt.Errorf("invalid content-length: %d", contentLength)
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.r, body); err != nil {
		return Frame{}, err
	}

	var frame Frame
	if err := json.Unmarshal(body, &frame); err != nil {
		return Frame{}, fmt.Errorf("invalid frame: %w", err)
	}
	return frame, nil
}
