package schedule

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("event not found")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		GetEventByID(ctx context.Context, id string) (Event, error)
		// QueryEvents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Event.Title or any assigned name.
		QueryEvents(ctx context.Context, filter *QueryFilter) ([]Event, error)
		// QueryEligibleEvents returns published events only. Date filtering is
		// left to the reminder engine; unpublished events must never leak out.
		QueryEligibleEvents(ctx context.Context, today time.Time) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event, published *bool) (Event, error)
		DeleteEventsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		Kind:          ne.Kind,
		Title:         ne.Title,
		Date:          ne.Date,
		AssignedNames: ne.AssignedNames,
		Published:     ne.Published,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Event, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryEvents(ctx, filter)
}

// EligibleOn returns the published events the reminder engine may consider on `today`.
func (svc *Service) EligibleOn(ctx context.Context, today time.Time) ([]Event, error) {
	return svc.repo.QueryEligibleEvents(ctx, today)
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	evt := Event{
		ID:            id,
		Title:         ue.Title,
		Date:          ue.Date,
		AssignedNames: ue.AssignedNames,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateEvent(ctx, evt, ue.Published)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteEventsByID(ctx, ids...)
}
