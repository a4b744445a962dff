package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/reminder"
)

type dispatchRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	EventKind string    `db:"event_kind"`
	ContactID string    `db:"contact_id"`
	Message   string    `db:"message"`
	SentAt    time.Time `db:"sent_at"`
	SentOn    time.Time `db:"sent_on"`
	Status    string    `db:"status"`
}

func (r dispatchRow) record() reminder.DispatchRecord {
	return reminder.DispatchRecord{
		ID:        r.ID,
		EventID:   r.EventID,
		EventKind: r.EventKind,
		ContactID: r.ContactID,
		Message:   r.Message,
		SentAt:    r.SentAt.UTC(),
		Status:    r.Status,
	}
}

type keyRow struct {
	EventID   string `db:"event_id"`
	EventKind string `db:"event_kind"`
	ContactID string `db:"contact_id"`
}

func keys(rows []keyRow) []reminder.DispatchKey {
	ks := make([]reminder.DispatchKey, 0, len(rows))
	for _, r := range rows {
		ks = append(ks, reminder.DispatchKey{EventID: r.EventID, EventKind: r.EventKind, ContactID: r.ContactID})
	}
	return ks
}

type dispatchRepository struct {
	db *sqlx.DB
}

var _ reminder.DispatchLedger = (*dispatchRepository)(nil) // interface compliance check

func NewDispatchRepository(db *sqlx.DB) *dispatchRepository {
	return &dispatchRepository{db: db}
}

func (repo dispatchRepository) QueryDispatchesOn(ctx context.Context, day time.Time) ([]reminder.DispatchKey, error) {
	var rows []keyRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT event_id, event_kind, contact_id FROM "dispatch" WHERE sent_on = $1`,
		core.DateOf(day),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying dispatches by day")
	}
	return keys(rows), nil
}

func (repo dispatchRepository) QueryDispatchedKeys(ctx context.Context) ([]reminder.DispatchKey, error) {
	var rows []keyRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT DISTINCT event_id, event_kind, contact_id FROM "dispatch"`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying dispatched keys")
	}
	return keys(rows), nil
}

// CreateDispatch appends a ledger row. The unique (event, contact, day) index
// turns a duplicate insert into a fetch of the existing row.
func (repo dispatchRepository) CreateDispatch(ctx context.Context, rec reminder.DispatchRecord) (reminder.DispatchRecord, error) {
	sentOn := core.DateOf(rec.SentAt)

	var row dispatchRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO "dispatch" (id, event_id, event_kind, contact_id, message, sent_at, sent_on, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (event_id, event_kind, contact_id, sent_on) DO NOTHING
		 RETURNING *`,
		rec.ID, rec.EventID, rec.EventKind, rec.ContactID, rec.Message, rec.SentAt, sentOn, rec.Status,
	)
	if err == sql.ErrNoRows {
		// conflict: a dispatch for this obligation was already recorded today
		err = repo.db.GetContext(ctx, &row,
			`SELECT * FROM "dispatch"
			 WHERE event_id = $1 AND event_kind = $2 AND contact_id = $3 AND sent_on = $4`,
			rec.EventID, rec.EventKind, rec.ContactID, sentOn,
		)
	}
	if err != nil {
		return reminder.DispatchRecord{}, errors.Wrap(err, "inserting dispatch")
	}
	return row.record(), nil
}
