package reminder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/contact"
	"github.com/trezcool/koinonia/core/schedule"
)

// Status classifies an obligation's urgency. The set is closed: exhaustive
// switches are expected wherever it is consumed.
type Status int

const (
	// StatusPending: reminder not yet due.
	StatusPending Status = iota
	// StatusLate: due date already passed and no dispatch recorded today.
	StatusLate
	// StatusSentToday: a dispatch for this obligation was recorded today.
	StatusSentToday
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLate:
		return "late"
	case StatusSentToday:
		return "sent_today"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// DispatchKey uniquely identifies an obligation: one event, one contact.
type DispatchKey struct {
	EventID   string `json:"event_id"`
	EventKind string `json:"event_kind"`
	ContactID string `json:"contact_id"`
}

// Obligation is a computed reminder owed to a contact for an event.
// It only lives for the duration of one resolution call; it is never persisted.
type Obligation struct {
	Event     schedule.Event  `json:"event"`
	Contact   contact.Contact `json:"contact"`
	EventDate time.Time       `json:"event_date"`
	DueDate   time.Time       `json:"due_date"` // EventDate - Contact.LeadDays
	Status    Status          `json:"status"`
}

func (o Obligation) Key() DispatchKey {
	return DispatchKey{
		EventID:   o.Event.ID,
		EventKind: o.Event.Kind,
		ContactID: o.Contact.ID,
	}
}

// Dispatch statuses
const DispatchStatusSent = "sent"

// DispatchRecord is an append-only ledger row written once per completed send.
type DispatchRecord struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	EventKind string    `json:"event_kind"`
	ContactID string    `json:"contact_id"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"` // UTC
	Status    string    `json:"status"`
}

func (rec DispatchRecord) Key() DispatchKey {
	return DispatchKey{
		EventID:   rec.EventID,
		EventKind: rec.EventKind,
		ContactID: rec.ContactID,
	}
}

// NewDispatch contains information needed to record a completed dispatch.
type NewDispatch struct {
	EventID   string `json:"event_id" validate:"required"`
	EventKind string `json:"event_kind" validate:"required,oneof=service agenda"`
	ContactID string `json:"contact_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

func (nd *NewDispatch) Validate(validate *validator.Validate) error {
	nd.EventID = core.CleanString(nd.EventID)
	nd.EventKind = core.CleanString(nd.EventKind, true /* lower */)
	nd.ContactID = core.CleanString(nd.ContactID)
	nd.Message = core.CleanString(nd.Message)
	return validate.Struct(nd)
}

// Obligation rebuilds the minimal obligation this dispatch satisfies.
func (nd NewDispatch) Obligation() Obligation {
	return Obligation{
		Event:   schedule.Event{ID: nd.EventID, Kind: nd.EventKind},
		Contact: contact.Contact{ID: nd.ContactID},
	}
}
