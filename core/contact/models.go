package contact

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/koinonia/core"
)

// Notification channel preferences
const (
	ChannelEmail    = "email"
	ChannelWhatsapp = "whatsapp"
	ChannelBoth     = "both"
)

var Channels = []string{ChannelEmail, ChannelWhatsapp, ChannelBoth}

// Contact is a person the reminder engine may owe notifications to.
// Name is unique within the directory and is what roster entries reference.
type Contact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
	Channel  string `json:"channel"`
	// LeadDays is how many whole days before an event a reminder becomes due.
	LeadDays int `json:"lead_days"`
	// PreferredTime only drives dispatch scheduling, never urgency.
	PreferredTime null.Time `json:"preferred_time"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// NewContact contains information needed to create a new Contact.
type NewContact struct {
	Name          string    `json:"name" validate:"required"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Phone         string    `json:"phone" validate:"omitempty,phone_"`
	Channel       string    `json:"channel" validate:"required,oneof=email whatsapp both"`
	LeadDays      int       `json:"lead_days" validate:"required,min=1"`
	PreferredTime null.Time `json:"preferred_time"`
}

func (nc *NewContact) Validate(validate *validator.Validate, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	nc.Phone = core.CleanString(nc.Phone)
	nc.Channel = core.CleanString(nc.Channel, true /* lower */)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.checkUniqueness(nc.Name)
}

// UpdateContact defines what information may be provided to modify an existing Contact.
type UpdateContact struct {
	Name          string    `json:"name"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Phone         string    `json:"phone" validate:"omitempty,phone_"`
	IsActive      *bool     `json:"is_active"`
	Channel       string    `json:"channel" validate:"omitempty,oneof=email whatsapp both"`
	LeadDays      int       `json:"lead_days" validate:"omitempty,min=1"`
	PreferredTime null.Time `json:"preferred_time"`
}

func (uc *UpdateContact) Validate(origCt Contact, validate *validator.Validate, svc *Service) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = origCt.Name
	}

	email := core.CleanString(uc.Email, true /* lower */)
	if email != "" {
		uc.Email = email
	} else {
		uc.Email = origCt.Email
	}

	uc.Channel = core.CleanString(uc.Channel, true /* lower */)
	if uc.Channel == "" {
		uc.Channel = origCt.Channel
	}
	if uc.LeadDays == 0 {
		uc.LeadDays = origCt.LeadDays
	}
	if !uc.PreferredTime.Valid {
		uc.PreferredTime = origCt.PreferredTime
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.checkUniqueness(uc.Name, origCt)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Channel  string `query:"channel"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Channel == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Channel = core.CleanString(qf.Channel, true /* lower */)
}
