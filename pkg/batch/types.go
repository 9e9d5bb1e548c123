package batch

import "context"

// TaskState represents the lifecycle state of a single item within a run
type TaskState string

const (
	// StatePending indicates the item has not been admitted yet
	StatePending TaskState = "pending"

	// StateActive indicates the item holds a limiter slot and its worker
	// invocation is in flight
	StateActive TaskState = "active"

	// StateCompleted indicates the worker returned a result
	StateCompleted TaskState = "completed"

	// StateFailed indicates the worker returned an error
	StateFailed TaskState = "failed"
)

// Item is one unit of work. The payload is forwarded to the worker
// verbatim; the ID is used for identity, deduplication and retry.
type Item struct {
	// ID uniquely identifies the item within a batch
	ID string `json:"id"`

	// Payload holds the domain data handed to the worker
	Payload any `json:"payload,omitempty"`
}

// Worker processes one item and returns its result or an error.
// All failure modes must surface as a returned error, never as a
// sentinel result value. A worker that needs a timeout enforces it
// itself via the supplied context.
type Worker func(ctx context.Context, item Item) (any, error)

// Status is a point-in-time snapshot of counters. The Limiter reports
// slots (Total is the concurrency ceiling); the Orchestrator reports
// items (Total is the batch size). The two views share a shape but
// must not be conflated.
type Status struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Success records one item that completed together with its result.
type Success struct {
	Item   Item `json:"item"`
	Result any  `json:"result"`
}

// Failure records one item that failed together with the error message.
type Failure struct {
	Item  Item   `json:"item"`
	Error string `json:"error"`
}

// Results is the terminal outcome of a run. Entries appear in
// completion order, not submission order; callers needing input order
// must re-sort by item ID. Items never admitted before cancellation
// appear in neither slice.
type Results struct {
	Success []Success `json:"success"`
	Failed  []Failure `json:"failed"`
}
