package hub

import "time"

// Action names the kind of mutation an event reports.
type Action string

// Mutation actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Message types on the wire.
const (
	TypeEvent = "event"
	TypePing  = "ping"
	TypePong  = "pong"
	TypeError = "error"
)

// Event describes one completed mutation. Resource is the JSON view of the
// affected record after the change (or at deletion).
type Event struct {
	Action    Action
	Resource  any
	Timestamp time.Time

	seq uint64
}

// message is the JSON envelope written to clients.
type message struct {
	Type      string `json:"type"`
	Action    Action `json:"action,omitempty"`
	Resource  any    `json:"resource,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
