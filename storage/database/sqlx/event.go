package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/koinonia/core/schedule"
)

type eventRow struct {
	ID            string         `db:"id"`
	Kind          string         `db:"kind"`
	Title         string         `db:"title"`
	Date          time.Time      `db:"date"`
	AssignedNames pq.StringArray `db:"assigned_names"`
	Published     bool           `db:"published"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r eventRow) event() schedule.Event {
	return schedule.Event{
		ID:            r.ID,
		Kind:          r.Kind,
		Title:         r.Title,
		Date:          r.Date.UTC(),
		AssignedNames: r.AssignedNames,
		Published:     r.Published,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func events(rows []eventRow) []schedule.Event {
	evts := make([]schedule.Event, 0, len(rows))
	for _, r := range rows {
		evts = append(evts, r.event())
	}
	return evts
}

type eventRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to schedule.ErrNotFound
func (repo eventRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return schedule.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo eventRepository) CreateEvent(ctx context.Context, evt schedule.Event) (schedule.Event, error) {
	evt.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO "event" (id, kind, title, date, assigned_names, published, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		evt.ID, evt.Kind, evt.Title, evt.Date, pq.StringArray(evt.AssignedNames), evt.Published, evt.CreatedAt, evt.UpdatedAt,
	)
	if err != nil {
		return schedule.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo eventRepository) GetEventByID(ctx context.Context, id string) (schedule.Event, error) {
	var row eventRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "event" WHERE id = $1`, id)
	if err != nil {
		return schedule.Event{}, repo.trapNoRowsErr(err, "getting event by id")
	}
	return row.event(), nil
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter *schedule.QueryFilter) ([]schedule.Event, error) {
	query := `SELECT * FROM "event"`
	var clauses []string
	var args []interface{}

	if filter != nil {
		// events with Title or any assigned name matching the search keyword
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := len(args)
			clauses = append(clauses, fmt.Sprintf(
				"(title ILIKE $%d OR EXISTS (SELECT 1 FROM UNNEST(assigned_names) an WHERE an ILIKE $%d))", n, n))
		}
		if filter.Kind != "" {
			args = append(args, filter.Kind)
			clauses = append(clauses, fmt.Sprintf("kind = $%d", len(args)))
		}
		if filter.Published != nil {
			args = append(args, *filter.Published)
			clauses = append(clauses, fmt.Sprintf("published = $%d", len(args)))
		}
		if !filter.DateFrom.IsZero() {
			args = append(args, filter.DateFrom)
			clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
		}
		if !filter.DateTo.IsZero() {
			args = append(args, filter.DateTo)
			clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)))
		}
	}

	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY date, created_at"

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return events(rows), nil
}

func (repo eventRepository) QueryEligibleEvents(ctx context.Context, today time.Time) ([]schedule.Event, error) {
	// date filtering is the reminder engine's job; only the published flag is enforced here
	var rows []eventRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "event" WHERE published = TRUE ORDER BY date, created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying eligible events")
	}
	return events(rows), nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, evt schedule.Event, published *bool) (schedule.Event, error) {
	var names interface{}
	if evt.AssignedNames != nil {
		names = pq.StringArray(evt.AssignedNames)
	}
	var row eventRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE "event"
		 SET title          = $1,
		     date           = $2,
		     assigned_names = COALESCE($3, assigned_names),
		     published      = COALESCE($4, published),
		     updated_at     = $5
		 WHERE id = $6
		 RETURNING *`,
		evt.Title, evt.Date, names, published, evt.UpdatedAt, evt.ID,
	)
	if err != nil {
		return schedule.Event{}, repo.trapNoRowsErr(err, "updating event")
	}
	return row.event(), nil
}

func (repo eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "event" WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting events")
}
