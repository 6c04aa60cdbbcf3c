package core

import "sync"

// Tables reported by Change.
const (
	TableSubject  = "subject"
	TableSchedule = "schedule"
	TableRecord   = "record"
	TableSetting  = "setting"
)

// Change describes a committed write.
type Change struct {
	Table string
	IDs   []int
}

// ChangeSubscriber is implemented by storages that report their writes.
type ChangeSubscriber interface {
	Subscribe(fn func(Change)) (unsubscribe func())
}

var _ ChangeSubscriber = (*ChangeFeed)(nil) // interface compliance check

// ChangeFeed fans committed writes out to subscribers. The zero value is ready to use.
type ChangeFeed struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(Change)
}

// Subscribe registers fn to be called after every write. Calling the returned func unsubscribes.
func (f *ChangeFeed) Subscribe(fn func(Change)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listeners == nil {
		f.listeners = make(map[int]func(Change))
	}
	f.nextID++
	id := f.nextID
	f.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// Publish calls every subscriber synchronously. It must not be called while holding storage locks.
func (f *ChangeFeed) Publish(table string, ids ...int) {
	f.mu.RLock()
	listeners := make([]func(Change), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.RUnlock()

	for _, fn := range listeners {
		fn(Change{Table: table, IDs: ids})
	}
}
