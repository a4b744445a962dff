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
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/koinonia/core/contact"
)

type contactRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	IsActive      bool      `db:"is_active"`
	Channel       string    `db:"channel"`
	LeadDays      int       `db:"lead_days"`
	PreferredTime null.Time `db:"preferred_time"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r contactRow) contact() contact.Contact {
	return contact.Contact{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		IsActive:      r.IsActive,
		Channel:       r.Channel,
		LeadDays:      r.LeadDays,
		PreferredTime: r.PreferredTime,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func contacts(rows []contactRow) []contact.Contact {
	cts := make([]contact.Contact, 0, len(rows))
	for _, r := range rows {
		cts = append(cts, r.contact())
	}
	return cts
}

type contactRepository struct {
	db *sqlx.DB
}

var _ contact.Repository = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(db *sqlx.DB) *contactRepository {
	return &contactRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to contact.ErrNotFound
func (repo contactRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return contact.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo contactRepository) CheckNameUniqueness(ctx context.Context, name string, excludedContacts ...contact.Contact) error {
	query := `SELECT EXISTS (SELECT 1 FROM "contact" WHERE LOWER(name) = LOWER($1)`
	args := []interface{}{name}
	if len(excludedContacts) > 0 {
		ids := make([]string, 0, len(excludedContacts))
		for _, ct := range excludedContacts {
			ids = append(ids, ct.ID)
		}
		args = append(args, pq.Array(ids))
		query += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
	}
	query += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking contact uniqueness")
	}
	if exists {
		return contact.ErrNameExists
	}
	return nil
}

func (repo contactRepository) CreateContact(ctx context.Context, ct contact.Contact) (contact.Contact, error) {
	ct.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO "contact" (id, name, email, phone, is_active, channel, lead_days, preferred_time, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ct.ID, ct.Name, ct.Email, ct.Phone, ct.IsActive, ct.Channel, ct.LeadDays, ct.PreferredTime, ct.CreatedAt, ct.UpdatedAt,
	)
	if err != nil {
		return contact.Contact{}, errors.Wrap(err, "inserting contact")
	}
	return ct, nil
}

func (repo contactRepository) GetContactByID(ctx context.Context, id string) (contact.Contact, error) {
	var row contactRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "contact" WHERE id = $1`, id)
	if err != nil {
		return contact.Contact{}, repo.trapNoRowsErr(err, "getting contact by id")
	}
	return row.contact(), nil
}

func (repo contactRepository) QueryContacts(ctx context.Context, filter *contact.QueryFilter) ([]contact.Contact, error) {
	query := `SELECT * FROM "contact"`
	var clauses []string
	var args []interface{}

	if filter != nil {
		// contacts with Name or Email matching the search keyword
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := len(args)
			clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", n, n))
		}
		if filter.Channel != "" {
			args = append(args, filter.Channel)
			clauses = append(clauses, fmt.Sprintf("channel = $%d", len(args)))
		}
		if filter.IsActive != nil {
			args = append(args, *filter.IsActive)
			clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
		}
	}

	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY name"

	var rows []contactRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying contacts")
	}
	return contacts(rows), nil
}

func (repo contactRepository) QueryActiveContacts(ctx context.Context) ([]contact.Contact, error) {
	var rows []contactRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "contact" WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying active contacts")
	}
	return contacts(rows), nil
}

func (repo contactRepository) UpdateContact(ctx context.Context, ct contact.Contact, isActive *bool) (contact.Contact, error) {
	var row contactRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE "contact"
		 SET name           = $1,
		     email          = $2,
		     phone          = $3,
		     channel        = $4,
		     lead_days      = $5,
		     preferred_time = $6,
		     is_active      = COALESCE($7, is_active),
		     updated_at     = $8
		 WHERE id = $9
		 RETURNING *`,
		ct.Name, ct.Email, ct.Phone, ct.Channel, ct.LeadDays, ct.PreferredTime, isActive, ct.UpdatedAt, ct.ID,
	)
	if err != nil {
		return contact.Contact{}, repo.trapNoRowsErr(err, "updating contact")
	}
	return row.contact(), nil
}

func (repo contactRepository) DeleteContactsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "contact" WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting contacts")
}
