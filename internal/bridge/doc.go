// Package bridge implements the request/response client for the After Effects
// host script.
//
// The host channel is one-directional: the client fires a command frame and
// the host later emits a response, error or event frame. Nothing on the wire
// says which command a reply belongs to unless the client arranges it, so
// every command carries a generated request ID that the host echoes back.
//
// # Basic Usage
//
//	transport, err := bridge.DialWebSocket(ctx, "ws://127.0.0.1:8787/bridge")
//	if err != nil {
//	    return err
//	}
//	client := bridge.New(transport, bridge.WithTimeout(10*time.Second))
//	defer client.Close()
//
//	comment, err := client.GetLayerComment(ctx, 12)
//
// # Settlement
//
// Each request settles exactly once:
//
//   - response frame with its ID: the payload is delivered
//   - error frame with its ID: the CEPError is delivered
//   - no frame before the timeout: a TIMEOUT CEPError is delivered
//
// After settlement the request is gone from the pending table. A frame that
// arrives later for the same ID is dropped. Caller context cancellation only
// stops that caller's wait; there is no cancel command toward the host.
//
// # Coalescing
//
// The correlation key of a call is the operation name joined with its
// JSON-encoded arguments ("getLayerComment_12"). A call whose key matches a
// request still in flight joins it: no second command is sent and both
// callers receive the same result.
//
// # Legacy Error Frames
//
// Hosts that cannot echo request IDs may send error frames tagged only with
// an operation name. Such a frame fails every pending request for exactly
// that operation.
//
// # Retries
//
// The client never retries. Idempotent reads can be wrapped with Retry:
//
//	layers, err := bridge.Retry(ctx, bridge.DefaultRetryPolicy(),
//	    func(ctx context.Context) ([]types.Layer, error) {
//	        return client.GetAllLayers(ctx)
//	    })
package bridge
