package domain

import "time"

// EventKind discriminates persisted log records.
type EventKind string

const (
	EventKindError      EventKind = "error"
	EventKindConversion EventKind = "conversion"
)

// Event is a record handed to an EventRecorder.
type Event interface {
	EventID() string
	Kind() EventKind
}

// ErrorEvent records a failed dispatch.
type ErrorEvent struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Client    string    `json:"client,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ErrorEvent) EventID() string { return e.ID }
func (e *ErrorEvent) Kind() EventKind { return EventKindError }

// ConversionEvent records a client-reported conversion.
type ConversionEvent struct {
	ID         string    `json:"id"`
	Identity   string    `json:"identity"`
	Region     string    `json:"region"`
	Timestamp  string    `json:"timestamp"`
	Client     string    `json:"client,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

func (e *ConversionEvent) EventID() string { return e.ID }
func (e *ConversionEvent) Kind() EventKind { return EventKindConversion }
