package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "exam-variant-service"
	EventVersion = "1.0"
)

type EventType string

const (
	BatchGenerated  EventType = "batch.generated"
	BatchFailed     EventType = "batch.failed"
	VariantVerified EventType = "variant.verified"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(eventType EventType, data any) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ===== EVENT PAYLOADS =====

type BatchGeneratedData struct {
	BatchID       string   `json:"batch_id"`
	Seed          string   `json:"seed"`
	StudentCount  int      `json:"student_count"`
	IncludeMaster bool     `json:"include_master"`
	QuestionCount int      `json:"question_count"`
	Codes         []string `json:"codes"`
	GeneratedBy   string   `json:"generated_by"`
}

type BatchFailedData struct {
	Seed         string `json:"seed"`
	StudentCount int    `json:"student_count"`
	Stage        string `json:"stage,omitempty"`
	QuestionID   string `json:"question_id,omitempty"`
	Error        string `json:"error"`
	RequestedBy  string `json:"requested_by"`
}

type VariantVerifiedData struct {
	BatchID     string `json:"batch_id"`
	Code        string `json:"code"`
	Fingerprint string `json:"fingerprint"`
	Match       bool   `json:"match"`
}

// EventPublisher delivers events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
