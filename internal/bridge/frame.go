package bridge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/aebridge/pkg/types"
)

// FrameType distinguishes outbound commands from inbound host messages.
type FrameType string

const (
	FrameCommand  FrameType = "command"
	FrameResponse FrameType = "response"
	FrameError    FrameType = "error"
	FrameEvent    FrameType = "event"
)

// Frame is the unit exchanged with the host script. Commands carry a request
// ID that the host echoes on the matching response or error frame.
type Frame struct {
	ID        string            `json:"id,omitempty"`
	Type      FrameType         `json:"type"`
	Operation string            `json:"operation,omitempty"`
	Args      []json.RawMessage `json:"args,omitempty"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Error     *types.CEPError   `json:"error,omitempty"`
}

// newCommand encodes args and builds a command frame.
func newCommand(id, operation string, args []any) (Frame, error) {
	encoded := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return Frame{}, fmt.Errorf("failed to encode argument %d of %s: %w", i, operation, err)
		}
		encoded = append(encoded, data)
	}
	return Frame{
		ID:        id,
		Type:      FrameCommand,
		Operation: operation,
		Args:      encoded,
	}, nil
}

// correlationKey combines the operation name with the JSON encoding of each
// argument. JSON values are self-delimiting, so "a","b_c" and "a_b","c" give
// different keys. Calls without arguments use the bare operation name.
func correlationKey(operation string, args []any) string {
	if len(args) == 0 {
		return operation
	}
	var b strings.Builder
	b.WriteString(operation)
	for _, arg := range args {
		b.WriteByte('_')
		data, err := json.Marshal(arg)
		if err != nil {
			// the command cannot be encoded either; keep the key distinct anyway
			data = []byte(strconv.Quote(fmt.Sprintf("%#v", arg)))
		}
		b.Write(data)
	}
	return b.String()
}
