package inmemdb

import (
	"sync"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
)

type (
	// DB keeps every table behind one RWMutex so that cascades and replacements are atomic.
	DB struct {
		mu       sync.RWMutex
		subject  *subjectTable
		schedule *scheduleTable
		record   *recordTable
		setting  map[string]string

		core.ChangeFeed
	}

	subjectTable struct {
		pkCount int
		table   map[int]*subject.Subject
	}

	scheduleTable struct {
		pkCount int
		table   map[int]*schedule.ClassSchedule
	}

	recordTable struct {
		pkCount int
		table   map[int]*attendance.Record
	}
)

func Open() *DB {
	return &DB{
		subject:  &subjectTable{table: make(map[int]*subject.Subject)},
		schedule: &scheduleTable{table: make(map[int]*schedule.ClassSchedule)},
		record:   &recordTable{table: make(map[int]*attendance.Record)},
		setting:  make(map[string]string),
	}
}

// Truncate empties every table and resets primary keys.
func (db *DB) Truncate() {
	db.mu.Lock()
	db.subject = &subjectTable{table: make(map[int]*subject.Subject)}
	db.schedule = &scheduleTable{table: make(map[int]*schedule.ClassSchedule)}
	db.record = &recordTable{table: make(map[int]*attendance.Record)}
	db.setting = make(map[string]string)
	db.mu.Unlock()

	db.Publish(core.TableSubject)
	db.Publish(core.TableSchedule)
	db.Publish(core.TableRecord)
	db.Publish(core.TableSetting)
}

// deleteSchedules removes schedules; their records are kept, detached from the schedule.
// Callers must hold the write lock.
func (db *DB) deleteSchedules(ids map[int]bool) {
	for id := range ids {
		delete(db.schedule.table, id)
	}
	for _, rec := range db.record.table {
		if rec.ScheduleID.Valid && ids[rec.ScheduleID.Int] {
			rec.ScheduleID = null.Int{}
		}
	}
}
