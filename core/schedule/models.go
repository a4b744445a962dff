package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/koinonia/core"
)

// Event kinds. A "service" event is a worship-service roster entry (escala);
// an "agenda" event comes from the annual calendar.
const (
	KindService = "service"
	KindAgenda  = "agenda"
)

var Kinds = []string{KindService, KindAgenda}

func ValidKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Event is a dated entry with a roster of assigned participant names.
// Only published events are visible to the reminder engine.
type Event struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"` // calendar day, midnight UTC
	AssignedNames []string  `json:"assigned_names"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Kind          string    `json:"kind" validate:"required,oneof=service agenda"`
	Title         string    `json:"title" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	AssignedNames []string  `json:"assigned_names" validate:"omitempty,dive,required"`
	Published     bool      `json:"published"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Kind = core.CleanString(ne.Kind, true /* lower */)
	ne.Title = core.CleanString(ne.Title)
	ne.AssignedNames = cleanNames(ne.AssignedNames)
	ne.Date = core.DateOf(ne.Date)
	return validate.Struct(ne)
}

// UpdateEvent defines what information may be provided to modify an existing Event.
type UpdateEvent struct {
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	AssignedNames []string  `json:"assigned_names" validate:"omitempty,dive,required"`
	Published     *bool     `json:"published"`
}

func (ue *UpdateEvent) Validate(origEvt Event, validate *validator.Validate) error {
	title := core.CleanString(ue.Title)
	if title != "" {
		ue.Title = title
	} else {
		ue.Title = origEvt.Title
	}

	if !ue.Date.IsZero() {
		ue.Date = core.DateOf(ue.Date)
	} else {
		ue.Date = origEvt.Date
	}

	if ue.AssignedNames != nil {
		ue.AssignedNames = cleanNames(ue.AssignedNames)
	}
	return validate.Struct(ue)
}

type QueryFilter struct {
	Search    string    `query:"search"`
	Kind      string    `query:"kind"`
	Published *bool     `query:"published"`
	DateFrom  time.Time `query:"date_from"`
	DateTo    time.Time `query:"date_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Kind == "" && qf.Published == nil && qf.DateFrom.IsZero() && qf.DateTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
}

func cleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if name = core.CleanString(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	return cleaned
}
