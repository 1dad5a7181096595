package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/aebridge/internal/logging"
	"github.com/dshills/aebridge/pkg/types"
)

// ErrClosed is returned by calls issued after Close.
var ErrClosed = errors.New("bridge: client closed")

const hostClosedMessage = "host connection closed"

// Client gives request/response semantics to a fire-and-forget host channel.
//
// Every command gets a generated request ID. Inbound frames are
// demultiplexed by a single dispatcher goroutine into one-shot channels, one
// per waiting caller. Each request settles exactly once: by response, by
// error, or by timeout.
type Client struct {
	transport Transport
	table     *pendingTable
	timeout   time.Duration
	logger    *logging.Logger
	onEvent   EventHandler

	closed   atomic.Bool
	closeMu  sync.Mutex
	done     chan struct{}
	sentCmds atomic.Int64
}

// New creates a Client over transport and starts its dispatcher.
func New(transport Transport, opts ...Option) *Client {
	if transport == nil {
		panic("bridge: transport must not be nil")
	}

	cfg := &config{
		timeout: DefaultTimeout,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.timeout <= 0 {
		cfg.timeout = DefaultTimeout
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}

	c := &Client{
		transport: transport,
		table:     newPendingTable(),
		timeout:   cfg.timeout,
		logger:    cfg.logger.WithComponent("bridge"),
		onEvent:   cfg.onEvent,
		done:      make(chan struct{}),
	}
	go c.dispatch()
	return c
}

// Call sends operation with args and waits for its settlement. A call whose
// correlation key matches one already in flight joins it instead of sending
// a second command.
func (c *Client) Call(ctx context.Context, operation string, args ...any) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, connectionError(ErrClosed.Error(), operation)
	}
	if c.hostGone() {
		return nil, connectionError(hostClosedMessage, operation)
	}

	key := correlationKey(operation, args)
	req, waiter, fresh := c.table.join(key, operation, uuid.NewString, func(id string) *time.Timer {
		return time.AfterFunc(c.timeout, func() { c.expire(id, operation) })
	})

	if fresh {
		if err := c.send(ctx, req.id, operation, args); err != nil {
			c.table.settle(req.id, result{err: connectionError(err.Error(), operation)})
		}
	} else {
		c.logger.Debug("joined in-flight request", "operation", operation, "request_id", req.id)
	}

	select {
	case res := <-waiter:
		return res.payload, res.err
	case <-c.done:
		// joined after the dispatcher's final sweep; settle is a no-op if
		// the request already completed
		c.table.settle(req.id, result{err: connectionError(hostClosedMessage, operation)})
		res := <-waiter
		return res.payload, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) send(ctx context.Context, id, operation string, args []any) error {
	frame, err := newCommand(id, operation, args)
	if err != nil {
		return err
	}
	c.sentCmds.Add(1)
	c.logger.Debug("sending command", "operation", operation, "request_id", id)
	return c.transport.Send(ctx, frame)
}

func (c *Client) expire(id, operation string) {
	err := types.NewCEPError(types.CodeTimeout,
		fmt.Sprintf("operation %s timed out after %s", operation, c.timeout),
		map[string]any{"operation": operation, "requestId": id})
	if c.table.settle(id, result{err: err}) {
		c.logger.Warn("command timed out", "operation", operation, "request_id", id)
	}
}

// dispatch reads inbound frames until the transport closes.
func (c *Client) dispatch() {
	defer close(c.done)
	defer c.failAll(hostClosedMessage)

	for frame := range c.transport.Frames() {
		c.route(frame)
	}
}

func (c *Client) route(frame Frame) {
	switch frame.Type {
	case FrameResponse:
		if frame.ID == "" || !c.table.settle(frame.ID, result{payload: frame.Payload}) {
			c.logger.Debug("dropping unmatched response", "operation", frame.Operation, "request_id", frame.ID)
		}

	case FrameError:
		cepErr := frame.Error
		if cepErr == nil {
			cepErr = types.NewCEPError("HOST_ERROR", "host reported an error without details", nil)
		}
		if cepErr.Timestamp.IsZero() {
			cepErr.Timestamp = time.Now()
		}

		if frame.ID != "" {
			if !c.table.settle(frame.ID, result{err: cepErr}) {
				c.logger.Debug("dropping unmatched error", "operation", frame.Operation, "request_id", frame.ID)
			}
			return
		}
		if frame.Operation == "" {
			c.logger.Warn("host error without request id or operation", "code", cepErr.Code, "message", cepErr.Message)
			return
		}
		ids := c.table.idsForOperation(frame.Operation)
		for _, id := range ids {
			c.table.settle(id, result{err: cepErr})
		}
		c.logger.Warn("host error routed by operation", "operation", frame.Operation, "code", cepErr.Code, "failed", len(ids))

	case FrameEvent:
		if c.onEvent != nil {
			c.onEvent(frame.Operation, frame.Payload)
		}

	default:
		c.logger.Debug("ignoring frame", "type", string(frame.Type), "operation", frame.Operation)
	}
}

func (c *Client) failAll(reason string) {
	for _, id := range c.table.ids() {
		c.table.settle(id, result{err: connectionError(reason, "")})
	}
}

// Pending reports the number of requests awaiting settlement.
func (c *Client) Pending() int {
	return c.table.len()
}

// CommandsSent reports how many command frames have been handed to the transport.
func (c *Client) CommandsSent() int64 {
	return c.sentCmds.Load()
}

// IsAvailable reports whether the client can still issue commands. It turns
// false after Close or once the host side of the transport goes away.
func (c *Client) IsAvailable() bool {
	return !c.closed.Load() && !c.hostGone()
}

// hostGone reports whether the dispatcher has stopped because the transport
// closed its frame channel.
func (c *Client) hostGone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close fails every pending call with CONNECTION_ERROR and closes the transport.
func (c *Client) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.failAll(ErrClosed.Error())
	err := c.transport.Close()
	<-c.done
	return err
}

func connectionError(message, operation string) *types.CEPError {
	var details any
	if operation != "" {
		details = map[string]any{"operation": operation}
	}
	return types.NewCEPError(types.CodeConnectionError, message, details)
}
