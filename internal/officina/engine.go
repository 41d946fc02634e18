package officina

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"officina-bot/internal/push"
)

// Conversation steps. Step 0 is the implicit welcome for a customer with
// no prior state; steps 4-5 belong to the maintenance branch, 6-7 to the
// quote branch.
const (
	stepWelcome = iota
	stepVehicle
	stepIssue
	stepUrgency
	stepSymptoms
	stepTime
	stepService
	stepDiagnosis
)

const pushTimeout = 5 * time.Second

// conversation is the live state for one customer. The mutex serializes
// all transitions for that customer; distinct customers proceed in
// parallel.
type conversation struct {
	mu     sync.Mutex
	closed bool

	step      int
	startedAt time.Time

	// webhook redelivery dedup
	lastMessageSID string
	lastReply      string

	vehicle            string
	issueDescription   string
	issueCode          string
	urgencyDescription *string
	symptomNotes       *string
	timePreference     *string
	serviceType        *string
	hasDiagnosis       *string
}

type engine struct {
	store    Store
	notifier push.Notifier

	mu    sync.Mutex
	table map[string]*conversation
}

func NewEngine(store Store, notifier push.Notifier) Service {
	return &engine{
		store:    store,
		notifier: notifier,
		table:    make(map[string]*conversation),
	}
}

func (e *engine) HandleMessage(ctx context.Context, customerID, body, messageSID string) string {
	for {
		conv := e.lookup(customerID)
		conv.mu.Lock()
		if conv.closed {
			// closed between lookup and lock, a fresh conversation exists now
			conv.mu.Unlock()
			continue
		}

		if messageSID != "" && messageSID == conv.lastMessageSID {
			reply := conv.lastReply
			conv.mu.Unlock()
			log.Printf("[engine] duplicate delivery customer=%s sid=%s", customerID, messageSID)
			return reply
		}

		reply := e.advance(ctx, customerID, conv, body)
		conv.lastMessageSID = messageSID
		conv.lastReply = reply
		conv.mu.Unlock()
		return reply
	}
}

func (e *engine) ActiveConversations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.table)
}

func (e *engine) lookup(customerID string) *conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	conv, ok := e.table[customerID]
	if !ok {
		conv = &conversation{startedAt: time.Now()}
		e.table[customerID] = conv
	}
	return conv
}

// advance applies one message to the conversation and returns the reply.
// Caller holds conv.mu.
func (e *engine) advance(ctx context.Context, customerID string, conv *conversation, body string) string {
	switch conv.step {
	case stepWelcome:
		conv.step = stepVehicle
		return WelcomePrompt + "\n\n" + VehiclePrompt

	case stepVehicle:
		conv.vehicle = body
		conv.step = stepIssue
		return IssuePrompt

	case stepIssue:
		desc, ok := issueOptions[body]
		if !ok {
			return InvalidOptionPrompt
		}
		conv.issueDescription = desc
		conv.issueCode = body
		switch body {
		case "1":
			conv.step = stepUrgency
			return UrgencyPrompt
		case "2":
			conv.step = stepSymptoms
			return SymptomsPrompt
		default:
			conv.step = stepService
			return ServicePrompt
		}

	case stepUrgency:
		urgency, ok := urgencyOptions[body]
		if !ok {
			return InvalidOptionPrompt
		}
		conv.urgencyDescription = &urgency
		return e.close(ctx, customerID, conv)

	case stepSymptoms:
		notes := body
		conv.symptomNotes = &notes
		conv.step = stepTime
		return TimePrompt

	case stepTime:
		pref := body
		conv.timePreference = &pref
		return e.close(ctx, customerID, conv)

	case stepService:
		svc := body
		conv.serviceType = &svc
		conv.step = stepDiagnosis
		return DiagnosisPrompt

	case stepDiagnosis:
		diag := body
		conv.hasDiagnosis = &diag
		return e.close(ctx, customerID, conv)
	}

	log.Printf("[engine] unmapped step=%d customer=%s", conv.step, customerID)
	return FallbackPrompt
}

// close persists the finished conversation as a request, fires the urgent
// push when needed and drops the live state. Persistence and notification
// fail independently: each is logged and neither blocks the confirmation
// returned to the customer.
func (e *engine) close(ctx context.Context, customerID string, conv *conversation) string {
	req := &Request{
		CustomerID:         customerID,
		Vehicle:            conv.vehicle,
		IssueDescription:   conv.issueDescription,
		IssueCode:          conv.issueCode,
		UrgencyDescription: conv.urgencyDescription,
		SymptomNotes:       conv.symptomNotes,
		TimePreference:     conv.timePreference,
		ServiceType:        conv.serviceType,
		HasDiagnosis:       conv.hasDiagnosis,
		Category:           Classify(conv.issueCode, conv.urgencyDescription),
		Status:             StatusNew,
		CreatedAt:          time.Now().UTC(),
	}

	id, err := e.store.Insert(ctx, req)
	if err != nil {
		log.Printf("[engine] insert failed customer=%s: %v", customerID, err)
	} else {
		req.ID = id
	}

	e.notify(ctx, req)

	conv.closed = true
	e.mu.Lock()
	delete(e.table, customerID)
	e.mu.Unlock()

	log.Printf("[engine] request saved: %s - %s", req.Category, req.Vehicle)
	return ClosingPrompt
}

func (e *engine) notify(ctx context.Context, req *Request) {
	if req.Category != CategoryUrgent {
		return
	}

	urgency := ""
	if req.UrgencyDescription != nil {
		urgency = *req.UrgencyDescription
	}

	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	err := e.notifier.Send(ctx, push.Notification{
		Title: "🚨 URGENT request",
		Body:  req.Vehicle + " - " + urgency,
		Topic: "workshop-owner",
		Data: map[string]string{
			"request_id":   strconv.FormatInt(req.ID, 10),
			"category":     string(req.Category),
			"click_action": "OPEN_URGENT",
		},
	})
	if err != nil {
		log.Printf("[engine] push failed: %v", err)
	}
}
