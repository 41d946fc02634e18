package officina

import (
	"context"
	"errors"
	"time"
)

// Category is the triage bucket assigned to a completed request.
type Category string

const (
	CategoryUrgent      Category = "URGENT"
	CategoryAppointment Category = "APPOINTMENT"
	CategoryQuote       Category = "QUOTE"
)

func (c Category) Valid() bool {
	return c == CategoryUrgent || c == CategoryAppointment || c == CategoryQuote
}

// Status of a request. Moves forward only: NEW -> REPLIED -> COMPLETED.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusReplied   Status = "REPLIED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	return s == StatusNew || s == StatusReplied || s == StatusCompleted
}

// Request is one completed intake conversation. Category and the
// branch-specific fields are fixed at insert; only status, reply and the
// corresponding timestamps change afterwards.
type Request struct {
	ID                 int64      `json:"id"`
	CustomerID         string     `json:"customer_id"`
	Vehicle            string     `json:"vehicle"`
	IssueDescription   string     `json:"issue_description"`
	IssueCode          string     `json:"issue_code"`
	UrgencyDescription *string    `json:"urgency_description,omitempty"`
	SymptomNotes       *string    `json:"symptom_notes,omitempty"`
	TimePreference     *string    `json:"time_preference,omitempty"`
	ServiceType        *string    `json:"service_type,omitempty"`
	HasDiagnosis       *string    `json:"has_diagnosis,omitempty"`
	Category           Category   `json:"category"`
	Status             Status     `json:"status"`
	Reply              *string    `json:"reply,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	RepliedAt          *time.Time `json:"replied_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// ErrNotFound is returned by Store lookups and updates for unknown ids.
var ErrNotFound = errors.New("request not found")

// Filter narrows List results. Zero values match everything; when both
// fields are set they apply conjunctively.
type Filter struct {
	Category Category
	Status   Status
}

// Store — persistence for completed requests.
type Store interface {
	Insert(ctx context.Context, req *Request) (int64, error)
	List(ctx context.Context, f Filter) ([]Request, error)
	Get(ctx context.Context, id int64) (*Request, error)
	MarkReplied(ctx context.Context, id int64, reply string, at time.Time) error
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
	Count(ctx context.Context) (int, error)
}

// Messenger delivers outbound WhatsApp messages to customers and returns
// the provider's message reference.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Service — conversation orchestration. HandleMessage always returns a
// customer-facing reply, even when persistence or notification fail.
type Service interface {
	HandleMessage(ctx context.Context, customerID, body, messageSID string) string
	ActiveConversations() int
}
