package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/koinonia/core/contact"
)

type contactRepository struct {
	db *contactTable
}

var _ contact.Repository = (*contactRepository)(nil)

func NewContactRepository(db *DB) *contactRepository {
	return &contactRepository{db: db.contact}
}

func (repo *contactRepository) query() []contact.Contact {
	cts := make([]contact.Contact, 0, len(repo.db.table))
	for _, ct := range repo.db.table {
		cts = append(cts, *ct)
	}
	sort.Slice(cts, func(i, j int) bool { return cts[i].Name < cts[j].Name })
	return cts
}

func (repo *contactRepository) CheckNameUniqueness(_ context.Context, name string, excludedContacts ...contact.Contact) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedContacts))
	for _, ct := range excludedContacts {
		excluded[ct.ID] = struct{}{}
	}

	for _, ct := range repo.query() {
		if _, skip := excluded[ct.ID]; skip {
			continue
		}
		if strings.EqualFold(ct.Name, name) {
			return contact.ErrNameExists
		}
	}
	return nil
}

func (repo *contactRepository) CreateContact(_ context.Context, ct contact.Contact) (contact.Contact, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ct.ID = uuid.New().String()
	repo.db.table[ct.ID] = &ct
	return ct, nil
}

func (repo *contactRepository) GetContactByID(_ context.Context, id string) (contact.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ct, ok := repo.db.table[id]; ok {
		return *ct, nil
	}
	return contact.Contact{}, contact.ErrNotFound
}

func (repo *contactRepository) QueryContacts(_ context.Context, filter *contact.QueryFilter) ([]contact.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cts := repo.query()
	if filter == nil || filter.IsEmpty() {
		return cts, nil
	}

	matches := make([]contact.Contact, 0, len(cts))
	for _, ct := range cts {
		if filter.Search != "" && !contactMatches(ct, filter.Search) {
			continue
		}
		if filter.Channel != "" && ct.Channel != filter.Channel {
			continue
		}
		if filter.IsActive != nil && ct.IsActive != *filter.IsActive {
			continue
		}
		matches = append(matches, ct)
	}
	return matches, nil
}

func (repo *contactRepository) QueryActiveContacts(_ context.Context) ([]contact.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cts := repo.query()
	active := make([]contact.Contact, 0, len(cts))
	for _, ct := range cts {
		if ct.IsActive {
			active = append(active, ct)
		}
	}
	return active, nil
}

func (repo *contactRepository) UpdateContact(_ context.Context, ct contact.Contact, isActive *bool) (contact.Contact, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origCt, ok := repo.db.table[ct.ID]
	if !ok {
		return contact.Contact{}, contact.ErrNotFound
	}
	if isActive != nil {
		origCt.IsActive = *isActive
	}
	if ct.LeadDays != 0 {
		origCt.LeadDays = ct.LeadDays
	}
	if ct.Channel != "" {
		origCt.Channel = ct.Channel
	}
	origCt.Name = ct.Name
	origCt.Email = ct.Email
	origCt.Phone = ct.Phone
	origCt.PreferredTime = ct.PreferredTime
	origCt.UpdatedAt = ct.UpdatedAt

	repo.db.table[ct.ID] = origCt
	return *origCt, nil
}

func (repo *contactRepository) DeleteContactsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func contactMatches(ct contact.Contact, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(ct.Name), search) ||
		strings.Contains(strings.ToLower(ct.Email), search)
}
