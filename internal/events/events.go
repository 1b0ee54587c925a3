// Package events implements the real-time notification channel: task
// lifecycle event definitions and the websocket fan-out hub that broadcasts
// them to every connected client.
package events

// Task lifecycle event kinds emitted over the real-time channel.
const (
	TaskCreated = "task:created"
	TaskUpdated = "task:updated"
	TaskDeleted = "task:deleted"
)

// Event is the wire envelope pushed to real-time clients.
type Event struct {
	// Kind is one of the Task* event kind constants.
	Kind string `json:"event"`

	// Data carries the affected task, or just its ID for deletions.
	Data any `json:"data"`
}

// Publisher defines the fan-out contract used by services that emit task
// lifecycle events. Delivery is best-effort: callers log a returned error
// and continue, never failing the primary operation.
type Publisher interface {
	// Publish broadcasts the event to every currently connected client.
	// There is no per-user targeting, acknowledgment, or replay for clients
	// that connect later.
	Publish(kind string, payload any) error
}
