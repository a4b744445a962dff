package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/reminder"
)

type dispatchRepository struct {
	db *dispatchTable
}

var _ reminder.DispatchLedger = (*dispatchRepository)(nil)

func NewDispatchRepository(db *DB) *dispatchRepository {
	return &dispatchRepository{db: db.dispatch}
}

func (repo *dispatchRepository) QueryDispatchesOn(_ context.Context, day time.Time) ([]reminder.DispatchKey, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	day = core.DateOf(day)
	var keys []reminder.DispatchKey
	for dd := range repo.db.table {
		if dd.day.Equal(day) {
			keys = append(keys, dd.key)
		}
	}
	return keys, nil
}

func (repo *dispatchRepository) QueryDispatchedKeys(_ context.Context) ([]reminder.DispatchKey, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[reminder.DispatchKey]struct{}, len(repo.db.table))
	var keys []reminder.DispatchKey
	for dd := range repo.db.table {
		if _, dup := seen[dd.key]; dup {
			continue
		}
		seen[dd.key] = struct{}{}
		keys = append(keys, dd.key)
	}
	return keys, nil
}

func (repo *dispatchRepository) CreateDispatch(_ context.Context, rec reminder.DispatchRecord) (reminder.DispatchRecord, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	dd := dispatchDay{key: rec.Key(), day: core.DateOf(rec.SentAt)}
	if existing, ok := repo.db.table[dd]; ok {
		return *existing, nil
	}
	repo.db.table[dd] = &rec
	return rec, nil
}
