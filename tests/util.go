package testutil

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/contact"
	"github.com/trezcool/koinonia/core/schedule"
)

// NewConfig returns a ready-made test configuration, bypassing env loading.
func NewConfig(recurrence bool) *core.Config {
	return &core.Config{
		Debug:            true,
		TestMode:         true,
		Env:              "TEST",
		Build:            "test",
		AppName:          "Koinonia",
		SecretKey:        "secret",
		DefaultFromEmail: "noreply@test.test",
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
		},
		Reminder: core.ReminderConfig{Recurrence: recurrence},
	}
}

type testLogger struct {
	std *log.Logger
}

var _ core.Logger = (*testLogger)(nil)

// NewLogger returns a std-only core.Logger for tests.
func NewLogger() core.Logger {
	return &testLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}
}

func (l testLogger) Enable(bool) {}

func (l testLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l testLogger) Debug(msg string, args ...interface{}) { l.print(msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.print(msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.print(msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.print(msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.print(msg, args); l.std.Fatal(msg) }

func CreateContact(
	t *testing.T,
	repo contact.Repository,
	name, channel string,
	leadDays int,
	isActive bool,
) contact.Contact {
	t.Helper()
	now := time.Now().UTC()
	ct := contact.Contact{
		Name:      name,
		Channel:   channel,
		LeadDays:  leadDays,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ct, err := repo.CreateContact(context.Background(), ct)
	if err != nil {
		t.Fatalf("CreateContact() failed: %v", err)
	}
	return ct
}

func CreateEvent(
	t *testing.T,
	repo schedule.Repository,
	kind, title string,
	date time.Time,
	assignedNames []string,
	published bool,
) schedule.Event {
	t.Helper()
	now := time.Now().UTC()
	evt := schedule.Event{
		Kind:          kind,
		Title:         title,
		Date:          core.DateOf(date),
		AssignedNames: assignedNames,
		Published:     published,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	evt, err := repo.CreateEvent(context.Background(), evt)
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return evt
}
