package reminder_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/contact"
	"github.com/trezcool/koinonia/core/reminder"
	"github.com/trezcool/koinonia/core/schedule"
	inmemdb "github.com/trezcool/koinonia/storage/database/inmem"
	testutil "github.com/trezcool/koinonia/tests"
)

var today = time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc         *reminder.Service
	eventRepo   schedule.Repository
	contactRepo contact.Repository
	ledger      reminder.DispatchLedger
}

func setup(t *testing.T, recurrence bool) fixture {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	eventRepo := inmemdb.NewEventRepository(db)
	contactRepo := inmemdb.NewContactRepository(db)
	ledger := inmemdb.NewDispatchRepository(db)
	svc := reminder.NewService(eventRepo, contactRepo, ledger, testutil.NewConfig(recurrence), testutil.NewLogger())
	return fixture{svc: svc, eventRepo: eventRepo, contactRepo: contactRepo, ledger: ledger}
}

func statusByContact(obs []reminder.Obligation) map[string]reminder.Status {
	res := make(map[string]reminder.Status, len(obs))
	for _, ob := range obs {
		res[ob.Contact.Name] = ob.Status
	}
	return res
}

func TestResolve_urgencyClassification(t *testing.T) {
	tests := []struct {
		name       string
		eventDate  time.Time
		leadDays   int
		wantStatus reminder.Status
		wantDue    time.Time
	}{
		{
			name:       "due date passed is late",
			eventDate:  time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC),
			leadDays:   3,
			wantStatus: reminder.StatusLate,
			wantDue:    time.Date(2024, 12, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "due date ahead is pending",
			eventDate:  time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
			leadDays:   3,
			wantStatus: reminder.StatusPending,
			wantDue:    time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "due today is pending, not late",
			eventDate:  time.Date(2024, 12, 13, 0, 0, 0, 0, time.UTC),
			leadDays:   3,
			wantStatus: reminder.StatusPending,
			wantDue:    today,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, true /* recurrence */)
			ct := testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, tt.leadDays, true)
			evt := testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", tt.eventDate, []string{"Maria Souza"}, true)

			obs, err := f.svc.Resolve(context.Background(), today)
			require.NoError(t, err)
			require.Len(t, obs, 1)

			ob := obs[0]
			assert.Equal(t, evt.ID, ob.Event.ID)
			assert.Equal(t, ct.ID, ob.Contact.ID)
			assert.True(t, ob.EventDate.Equal(core.DateOf(tt.eventDate)))
			assert.True(t, ob.DueDate.Equal(tt.wantDue), "DueDate = %v, want %v", ob.DueDate, tt.wantDue)
			assert.Equal(t, tt.wantStatus, ob.Status)
		})
	}
}

func TestResolve_pastEventsNeverProduceObligations(t *testing.T) {
	f := setup(t, true)
	testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	// yesterday; no reminder was ever sent for it, still dropped
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today.AddDate(0, 0, -1), []string{"Maria Souza"}, true)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestResolve_unpublishedEventsExcluded(t *testing.T) {
	f := setup(t, true)
	testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza"}, false /* unpublished */)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestResolve_nameMatchingIsCaseInsensitive(t *testing.T) {
	f := setup(t, true)
	ct := testutil.CreateContact(t, f.contactRepo, "João Silva", contact.ChannelWhatsapp, 2, true)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindAgenda, "Assembleia anual", today.AddDate(0, 0, 5), []string{"joão silva"}, true)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, ct.ID, obs[0].Contact.ID)
}

func TestResolve_unmatchedNameIsSkippedSilently(t *testing.T) {
	f := setup(t, true)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Fulano de Tal"}, true)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestResolve_inactiveContactsExcluded(t *testing.T) {
	f := setup(t, true)
	testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, false /* inactive */)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza"}, true)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestResolve_sentTodayOverridesClassification(t *testing.T) {
	f := setup(t, true)
	ct := testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	// would be late without the ledger entry
	evt := testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza"}, true)

	_, err := f.ledger.CreateDispatch(context.Background(), reminder.DispatchRecord{
		ID:        "d1",
		EventID:   evt.ID,
		EventKind: evt.Kind,
		ContactID: ct.ID,
		Message:   "Lembrete: Culto",
		SentAt:    today.Add(9 * time.Hour),
		Status:    reminder.DispatchStatusSent,
	})
	require.NoError(t, err)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	// still included, for observability
	assert.Equal(t, reminder.StatusSentToday, obs[0].Status)
}

func TestResolve_priorDayDispatchDoesNotCountAsSentToday(t *testing.T) {
	f := setup(t, true)
	ct := testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	evt := testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza"}, true)

	_, err := f.ledger.CreateDispatch(context.Background(), reminder.DispatchRecord{
		ID:        "d1",
		EventID:   evt.ID,
		EventKind: evt.Kind,
		ContactID: ct.ID,
		Message:   "Lembrete: Culto",
		SentAt:    today.AddDate(0, 0, -1).Add(9 * time.Hour),
		Status:    reminder.DispatchStatusSent,
	})
	require.NoError(t, err)

	// recurrence on: the obligation recurs and is late again today
	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, reminder.StatusLate, obs[0].Status)
}

func TestResolve_onceEverPolicy(t *testing.T) {
	f := setup(t, false /* recurrence disabled */)
	maria := testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	testutil.CreateContact(t, f.contactRepo, "João Silva", contact.ChannelEmail, 3, true)
	evt := testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza", "João Silva"}, true)

	// Maria was reminded yesterday; her obligation is satisfied for good
	_, err := f.ledger.CreateDispatch(context.Background(), reminder.DispatchRecord{
		ID:        "d1",
		EventID:   evt.ID,
		EventKind: evt.Kind,
		ContactID: maria.ID,
		Message:   "Lembrete: Culto",
		SentAt:    today.AddDate(0, 0, -1).Add(9 * time.Hour),
		Status:    reminder.DispatchStatusSent,
	})
	require.NoError(t, err)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)

	statuses := statusByContact(obs)
	assert.NotContains(t, statuses, "Maria Souza")
	assert.Equal(t, reminder.StatusLate, statuses["João Silva"])
}

func TestResolve_onceEverPolicyStillReportsSentToday(t *testing.T) {
	f := setup(t, false)
	ct := testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	evt := testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza"}, true)

	_, err := f.ledger.CreateDispatch(context.Background(), reminder.DispatchRecord{
		ID:        "d1",
		EventID:   evt.ID,
		EventKind: evt.Kind,
		ContactID: ct.ID,
		Message:   "Lembrete: Culto",
		SentAt:    today.Add(9 * time.Hour),
		Status:    reminder.DispatchStatusSent,
	})
	require.NoError(t, err)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, reminder.StatusSentToday, obs[0].Status)
}

func TestResolve_neverEmitsDuplicateKeys(t *testing.T) {
	f := setup(t, true)
	testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	// same name twice on the roster
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza", "maria souza"}, true)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	assert.Len(t, obs, 1)
}

func TestResolve_preservesRosterOrder(t *testing.T) {
	f := setup(t, true)
	testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	testutil.CreateContact(t, f.contactRepo, "João Silva", contact.ChannelEmail, 3, true)
	testutil.CreateContact(t, f.contactRepo, "Ana Lima", contact.ChannelEmail, 3, true)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto",
		today, []string{"Maria Souza", "Ana Lima", "João Silva"}, true)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, "Maria Souza", obs[0].Contact.Name)
	assert.Equal(t, "Ana Lima", obs[1].Contact.Name)
	assert.Equal(t, "João Silva", obs[2].Contact.Name)
}

func TestResolve_isIdempotent(t *testing.T) {
	f := setup(t, true)
	testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	testutil.CreateContact(t, f.contactRepo, "João Silva", contact.ChannelEmail, 1, true)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza", "João Silva"}, true)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindAgenda, "Assembleia", today.AddDate(0, 0, 7), []string{"João Silva"}, true)

	first, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	second, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecord_roundTrip(t *testing.T) {
	// Record stamps SentAt with the wall clock, so this round trip runs
	// against the actual current day.
	now := core.Today()

	f := setup(t, true)
	testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	testutil.CreateContact(t, f.contactRepo, "João Silva", contact.ChannelEmail, 3, true)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", now, []string{"Maria Souza", "João Silva"}, true)

	obs, err := f.svc.Resolve(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	var mariaOb reminder.Obligation
	for _, ob := range obs {
		if ob.Contact.Name == "Maria Souza" {
			mariaOb = ob
		}
		assert.Equal(t, reminder.StatusLate, ob.Status)
	}

	rec, err := f.svc.Record(context.Background(), mariaOb, "Lembrete: Culto em 10/12")
	require.NoError(t, err)
	assert.Equal(t, mariaOb.Key(), rec.Key())
	assert.Equal(t, reminder.DispatchStatusSent, rec.Status)

	// resolving again flips only Maria's status
	obs, err = f.svc.Resolve(context.Background(), now)
	require.NoError(t, err)
	statuses := statusByContact(obs)
	assert.Equal(t, reminder.StatusSentToday, statuses["Maria Souza"])
	assert.Equal(t, reminder.StatusLate, statuses["João Silva"])
}

func TestRecord_isIdempotentPerDay(t *testing.T) {
	f := setup(t, true)
	testutil.CreateContact(t, f.contactRepo, "Maria Souza", contact.ChannelEmail, 3, true)
	testutil.CreateEvent(t, f.eventRepo, schedule.KindService, "Culto", today, []string{"Maria Souza"}, true)

	obs, err := f.svc.Resolve(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, obs, 1)

	first, err := f.svc.Record(context.Background(), obs[0], "Lembrete: Culto")
	require.NoError(t, err)
	second, err := f.svc.Record(context.Background(), obs[0], "Lembrete: Culto (de novo)")
	require.NoError(t, err)

	// the double call resolves to the first ledger row
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Message, second.Message)
}

func TestRecord_requiresMessage(t *testing.T) {
	f := setup(t, true)
	_, err := f.svc.Record(context.Background(), reminder.Obligation{}, "")
	require.Error(t, err)
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

// failing collaborators

type failingEvents struct{}

func (failingEvents) QueryEligibleEvents(context.Context, time.Time) ([]schedule.Event, error) {
	return nil, errors.New("events down")
}

type failingContacts struct{}

func (failingContacts) QueryActiveContacts(context.Context) ([]contact.Contact, error) {
	return nil, errors.New("contacts down")
}

type failingLedger struct{}

func (failingLedger) QueryDispatchesOn(context.Context, time.Time) ([]reminder.DispatchKey, error) {
	return nil, errors.New("ledger down")
}
func (failingLedger) QueryDispatchedKeys(context.Context) ([]reminder.DispatchKey, error) {
	return nil, errors.New("ledger down")
}
func (failingLedger) CreateDispatch(_ context.Context, rec reminder.DispatchRecord) (reminder.DispatchRecord, error) {
	return reminder.DispatchRecord{}, errors.New("ledger down")
}

func TestResolve_leafFailureFailsTheWholeResolution(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	eventRepo := inmemdb.NewEventRepository(db)
	contactRepo := inmemdb.NewContactRepository(db)
	ledger := inmemdb.NewDispatchRepository(db)
	conf := testutil.NewConfig(true)
	logger := testutil.NewLogger()

	tests := []struct {
		name string
		svc  *reminder.Service
	}{
		{name: "event source down", svc: reminder.NewService(failingEvents{}, contactRepo, ledger, conf, logger)},
		{name: "contact directory down", svc: reminder.NewService(eventRepo, failingContacts{}, ledger, conf, logger)},
		{name: "dispatch ledger down", svc: reminder.NewService(eventRepo, contactRepo, failingLedger{}, conf, logger)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := tt.svc.Resolve(context.Background(), today)
			require.Error(t, err)
			assert.Nil(t, obs) // no partial results
		})
	}
}
