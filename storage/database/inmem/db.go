package inmemdb

import (
	"sync"
	"time"

	"github.com/trezcool/koinonia/core/contact"
	"github.com/trezcool/koinonia/core/reminder"
	"github.com/trezcool/koinonia/core/schedule"
)

type (
	eventTable struct {
		mutex sync.RWMutex
		table map[string]*schedule.Event
	}

	contactTable struct {
		mutex sync.RWMutex
		table map[string]*contact.Contact
	}

	// dispatchDay keys the ledger per obligation per calendar day
	dispatchDay struct {
		key reminder.DispatchKey
		day time.Time
	}

	dispatchTable struct {
		mutex sync.RWMutex
		table map[dispatchDay]*reminder.DispatchRecord
	}

	DB struct {
		event    *eventTable
		contact  *contactTable
		dispatch *dispatchTable
	}
)

func Open() (*DB, error) {
	db := &DB{
		event:    &eventTable{table: make(map[string]*schedule.Event)},
		contact:  &contactTable{table: make(map[string]*contact.Contact)},
		dispatch: &dispatchTable{table: make(map[dispatchDay]*reminder.DispatchRecord)},
	}
	return db, nil
}
