package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/koinonia/core/schedule"
)

type eventRepository struct {
	db *eventTable
}

var _ schedule.Repository = (*eventRepository)(nil)

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) query() []schedule.Event {
	evts := make([]schedule.Event, 0, len(repo.db.table))
	for _, evt := range repo.db.table {
		evts = append(evts, *evt)
	}
	sort.Slice(evts, func(i, j int) bool {
		if !evts[i].Date.Equal(evts[j].Date) {
			return evts[i].Date.Before(evts[j].Date)
		}
		return evts[i].CreatedAt.Before(evts[j].CreatedAt)
	})
	return evts
}

func (repo *eventRepository) CreateEvent(_ context.Context, evt schedule.Event) (schedule.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	evt.ID = uuid.New().String()
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) GetEventByID(_ context.Context, id string) (schedule.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		return *evt, nil
	}
	return schedule.Event{}, schedule.ErrNotFound
}

func (repo *eventRepository) QueryEvents(_ context.Context, filter *schedule.QueryFilter) ([]schedule.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	evts := repo.query()
	if filter == nil || filter.IsEmpty() {
		return evts, nil
	}

	matches := make([]schedule.Event, 0, len(evts))
	for _, evt := range evts {
		if filter.Search != "" && !eventMatches(evt, filter.Search) {
			continue
		}
		if filter.Kind != "" && evt.Kind != filter.Kind {
			continue
		}
		if filter.Published != nil && evt.Published != *filter.Published {
			continue
		}
		if !filter.DateFrom.IsZero() && evt.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && evt.Date.After(filter.DateTo) {
			continue
		}
		matches = append(matches, evt)
	}
	return matches, nil
}

func (repo *eventRepository) QueryEligibleEvents(_ context.Context, _ time.Time) ([]schedule.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	evts := repo.query()
	published := make([]schedule.Event, 0, len(evts))
	for _, evt := range evts {
		if evt.Published {
			published = append(published, evt)
		}
	}
	return published, nil
}

func (repo *eventRepository) UpdateEvent(_ context.Context, evt schedule.Event, published *bool) (schedule.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origEvt, ok := repo.db.table[evt.ID]
	if !ok {
		return schedule.Event{}, schedule.ErrNotFound
	}
	if evt.AssignedNames != nil {
		origEvt.AssignedNames = evt.AssignedNames
	}
	if published != nil {
		origEvt.Published = *published
	}
	origEvt.Title = evt.Title
	origEvt.Date = evt.Date
	origEvt.UpdatedAt = evt.UpdatedAt

	repo.db.table[evt.ID] = origEvt
	return *origEvt, nil
}

func (repo *eventRepository) DeleteEventsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func eventMatches(evt schedule.Event, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(evt.Title), search) {
		return true
	}
	for _, name := range evt.AssignedNames {
		if strings.Contains(strings.ToLower(name), search) {
			return true
		}
	}
	return false
}
