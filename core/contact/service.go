package contact

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/koinonia/core"
)

var (
	// errors
	ErrNotFound   = errors.New("contact not found")
	ErrNameExists = errors.New("a contact with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excludedContacts ...Contact) error
		CreateContact(ctx context.Context, ct Contact) (Contact, error)
		GetContactByID(ctx context.Context, id string) (Contact, error)
		// QueryContacts applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Contact.Name or Contact.Email.
		QueryContacts(ctx context.Context, filter *QueryFilter) ([]Contact, error)
		// QueryActiveContacts excludes inactive contacts entirely.
		QueryActiveContacts(ctx context.Context) ([]Contact, error)
		UpdateContact(ctx context.Context, ct Contact, isActive *bool) (Contact, error)
		DeleteContactsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(name string, exclContacts ...Contact) error {
	if err := svc.repo.CheckNameUniqueness(context.Background(), name, exclContacts...); err != nil {
		if errors.Is(err, ErrNameExists) {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewContact) (Contact, error) {
	now := time.Now().UTC()
	ct := Contact{
		Name:          nc.Name,
		Email:         nc.Email,
		Phone:         nc.Phone,
		IsActive:      true,
		Channel:       nc.Channel,
		LeadDays:      nc.LeadDays,
		PreferredTime: nc.PreferredTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateContact(ctx, ct)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Contact, error) {
	return svc.repo.GetContactByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Contact, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryContacts(ctx, filter)
}

// QueryActive returns the contacts the reminder engine may notify.
func (svc *Service) QueryActive(ctx context.Context) ([]Contact, error) {
	return svc.repo.QueryActiveContacts(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateContact) (Contact, error) {
	ct := Contact{
		ID:            id,
		Name:          uc.Name,
		Email:         uc.Email,
		Phone:         uc.Phone,
		Channel:       uc.Channel,
		LeadDays:      uc.LeadDays,
		PreferredTime: uc.PreferredTime,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateContact(ctx, ct, uc.IsActive)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteContactsByID(ctx, ids...)
}
