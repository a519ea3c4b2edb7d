// Package recording persists HARQ hook events for offline analysis.
package recording

// EventKind names a HARQ transition worth recording.
type EventKind string

const (
	EventNewTx           EventKind = "new_tx"
	EventNewRetx         EventKind = "new_retx"
	EventAck             EventKind = "ack"
	EventMaxRetxExceeded EventKind = "max_retx_exceeded"
	EventPhichPop        EventKind = "phich_pop"
	EventFeedbackMiss    EventKind = "feedback_miss"
	EventEntityReset     EventKind = "entity_reset"
)

// Event is one row of HARQ telemetry, flattened from a harq.HookCtx.
type Event struct {
	ID        string
	EntityID  string
	Kind      string
	ProcessID int64
	TB        int64
	Ack       bool
	Detail    string
}

// DataRecorder is a backend that can persist and flush HARQ events.
type DataRecorder interface {
	RecordEvent(e Event)
	Flush()
	Close() error
}
