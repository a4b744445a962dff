package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/contact"
	"github.com/trezcool/koinonia/core/schedule"
)

type (
	// EventSource supplies published events; the engine does its own date filtering.
	EventSource interface {
		QueryEligibleEvents(ctx context.Context, today time.Time) ([]schedule.Event, error)
	}

	// ContactDirectory supplies active contacts only.
	ContactDirectory interface {
		QueryActiveContacts(ctx context.Context) ([]contact.Contact, error)
	}

	// DispatchLedger is the append-only record of reminders already sent.
	DispatchLedger interface {
		// QueryDispatchesOn returns the keys dispatched on that calendar day only.
		QueryDispatchesOn(ctx context.Context, day time.Time) ([]DispatchKey, error)
		// QueryDispatchedKeys returns the distinct keys dispatched on any day.
		QueryDispatchedKeys(ctx context.Context) ([]DispatchKey, error)
		// CreateDispatch appends a row; idempotent per (key, calendar day of SentAt):
		// recording the same obligation twice on one day yields the existing row.
		CreateDispatch(ctx context.Context, rec DispatchRecord) (DispatchRecord, error)
	}

	Service struct {
		events   EventSource
		contacts ContactDirectory
		ledger   DispatchLedger
		conf     *core.Config
		logger   core.Logger
	}
)

func NewService(events EventSource, contacts ContactDirectory, ledger DispatchLedger, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		events:   events,
		contacts: contacts,
		ledger:   ledger,
		conf:     conf,
		logger:   logger,
	}
}

// Resolve computes every reminder obligation owed as of `today`.
//
// The three leaf reads fan out concurrently and fail fast: any read error
// aborts the whole resolution with no partial result. Resolution itself is a
// pure fold over the joined data.
func (svc *Service) Resolve(ctx context.Context, today time.Time) ([]Obligation, error) {
	today = core.DateOf(today)
	recurrence := svc.conf.Reminder.Recurrence

	var (
		events    []schedule.Event
		contacts  []contact.Contact
		sentToday []DispatchKey
		sentEver  []DispatchKey
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if events, err = svc.events.QueryEligibleEvents(gctx, today); err != nil {
			return errors.Wrap(err, "querying eligible events")
		}
		return nil
	})
	g.Go(func() (err error) {
		if contacts, err = svc.contacts.QueryActiveContacts(gctx); err != nil {
			return errors.Wrap(err, "querying active contacts")
		}
		return nil
	})
	g.Go(func() (err error) {
		if sentToday, err = svc.ledger.QueryDispatchesOn(gctx, today); err != nil {
			return errors.Wrap(err, "querying today's dispatches")
		}
		return nil
	})
	if !recurrence {
		// once-ever policy needs full dispatch history
		g.Go(func() (err error) {
			if sentEver, err = svc.ledger.QueryDispatchedKeys(gctx); err != nil {
				return errors.Wrap(err, "querying dispatched keys")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return svc.fold(today, recurrence, events, contacts, sentToday, sentEver), nil
}

// fold joins the fetched data into obligations. Pure and synchronous.
func (svc *Service) fold(
	today time.Time,
	recurrence bool,
	events []schedule.Event,
	contacts []contact.Contact,
	sentToday, sentEver []DispatchKey,
) []Obligation {
	byName := make(map[string]contact.Contact, len(contacts))
	for _, ct := range contacts {
		byName[strings.ToLower(ct.Name)] = ct
	}
	sentTodaySet := keySet(sentToday)
	sentEverSet := keySet(sentEver)

	var obligations []Obligation
	seen := make(map[DispatchKey]struct{})

	for _, evt := range events {
		// past events never produce obligations, sent or not
		if evt.Date.Before(today) {
			continue
		}

		for _, name := range evt.AssignedNames {
			ct, ok := byName[strings.ToLower(name)]
			if !ok {
				// deliberate no-op; logged so data-quality gaps stay observable
				svc.logger.Debug("reminder: no active contact matches assigned name " + name)
				continue
			}

			ob := Obligation{
				Event:     evt,
				Contact:   ct,
				EventDate: evt.Date,
				DueDate:   evt.Date.AddDate(0, 0, -ct.LeadDays),
			}
			key := ob.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if _, sent := sentTodaySet[key]; sent {
				ob.Status = StatusSentToday
				obligations = append(obligations, ob)
				continue
			}
			if !recurrence {
				if _, ever := sentEverSet[key]; ever {
					// once-ever policy: already satisfied on a prior day
					continue
				}
			}
			if ob.DueDate.Before(today) {
				ob.Status = StatusLate
			} else {
				ob.Status = StatusPending
			}
			obligations = append(obligations, ob)
		}
	}
	return obligations
}

// Record appends a dispatch to the ledger. It must be called strictly after
// the reminder was actually transmitted. The write is idempotent per
// obligation per day, so a double call cannot duplicate ledger rows.
func (svc *Service) Record(ctx context.Context, ob Obligation, message string) (DispatchRecord, error) {
	if message == "" {
		return DispatchRecord{}, core.NewValidationError(
			errors.New("dispatch message is required"),
			core.FieldError{Field: "message", Error: "this field is required"},
		)
	}
	rec := DispatchRecord{
		ID:        uuid.New().String(),
		EventID:   ob.Event.ID,
		EventKind: ob.Event.Kind,
		ContactID: ob.Contact.ID,
		Message:   message,
		SentAt:    time.Now().UTC(),
		Status:    DispatchStatusSent,
	}
	rec, err := svc.ledger.CreateDispatch(ctx, rec)
	if err != nil {
		return DispatchRecord{}, errors.Wrap(err, "recording dispatch")
	}
	return rec, nil
}

func keySet(keys []DispatchKey) map[DispatchKey]struct{} {
	set := make(map[DispatchKey]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}
