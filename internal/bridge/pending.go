package bridge

import (
	"encoding/json"
	"sync"
	"time"
)

// result is delivered once to every waiter of a settled request.
type result struct {
	payload json.RawMessage
	err     error
}

// pendingRequest tracks one in-flight command. All waiters share its fate.
type pendingRequest struct {
	id        string
	key       string
	operation string
	waiters   []chan result
	timer     *time.Timer
	createdAt time.Time
}

// pendingTable owns every outstanding request. Requests are indexed by
// generated ID for routing and by correlation key for coalescing.
type pendingTable struct {
	mu    sync.Mutex
	byID  map[string]*pendingRequest
	byKey map[string]string
}

func newPendingTable() *pendingTable {
	return &pendingTable{
		byID:  make(map[string]*pendingRequest),
		byKey: make(map[string]string),
	}
}

// join registers a waiter under key. If a request with the same key is
// already in flight the waiter is attached to it and fresh is false; the
// caller must not send a second command. Otherwise a new request is created
// with newID and arm is called (under the table lock) to start its timer.
func (t *pendingTable) join(key, operation string, newID func() string, arm func(id string) *time.Timer) (req *pendingRequest, waiter chan result, fresh bool) {
	waiter = make(chan result, 1)

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.byKey[key]; ok {
		if existing, ok := t.byID[id]; ok {
			existing.waiters = append(existing.waiters, waiter)
			return existing, waiter, false
		}
	}

	req = &pendingRequest{
		id:        newID(),
		key:       key,
		operation: operation,
		waiters:   []chan result{waiter},
		createdAt: time.Now(),
	}
	t.byID[req.id] = req
	t.byKey[key] = req.id
	req.timer = arm(req.id)
	return req, waiter, true
}

// settle delivers res to every waiter of id and evicts it. It reports false
// when id is unknown, which is how late duplicates are dropped.
func (t *pendingTable) settle(id string, res result) bool {
	t.mu.Lock()
	req, ok := t.byID[id]
	if ok {
		t.evictLocked(req)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	for _, w := range req.waiters {
		w <- res
	}
	return true
}

// idsForOperation returns a snapshot of the IDs pending for operation so the
// caller can settle them without iterating the live map.
func (t *pendingTable) idsForOperation(operation string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []string
	for id, req := range t.byID {
		if req.operation == operation {
			ids = append(ids, id)
		}
	}
	return ids
}

// ids returns a snapshot of every pending ID.
func (t *pendingTable) ids() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	return ids
}

// len reports the number of outstanding requests.
func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

func (t *pendingTable) evictLocked(req *pendingRequest) {
	if req.timer != nil {
		req.timer.Stop()
	}
	delete(t.byID, req.id)
	if t.byKey[req.key] == req.id {
		delete(t.byKey, req.key)
	}
}
