// Package realtime turns committed writes on the store into full-snapshot
// subscriptions.
package realtime

import (
	"sync"

	"gorm.io/gorm"

	"inkwell/common"
)

// Feed fans out change notifications per collection. Installed on a
// *gorm.DB with db.Use(feed), it is woken after every committed create,
// update or delete that touched at least one row.
type Feed struct {
	mu       sync.Mutex
	watchers map[string]map[*watcher]struct{}
}

type watcher struct {
	ch chan struct{}
}

func NewFeed() *Feed {
	return &Feed{watchers: make(map[string]map[*watcher]struct{})}
}

// Name implements gorm.Plugin.
func (f *Feed) Name() string {
	return "inkwell:realtime"
}

// Initialize implements gorm.Plugin. The hooks run after the statement's
// own transaction has been committed so a re-query sees the write.
func (f *Feed) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().After("gorm:commit_or_rollback_transaction").
		Register("inkwell:notify_create", f.afterWrite); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:commit_or_rollback_transaction").
		Register("inkwell:notify_update", f.afterWrite); err != nil {
		return err
	}
	return cb.Delete().After("gorm:commit_or_rollback_transaction").
		Register("inkwell:notify_delete", f.afterWrite)
}

func (f *Feed) afterWrite(tx *gorm.DB) {
	if tx.Error != nil || tx.RowsAffected == 0 || tx.Statement == nil {
		return
	}
	if table := tx.Statement.Table; table != "" {
		f.Notify(table)
	}
}

// Notify wakes every watcher of collection. Wakeups coalesce: a watcher
// that has not consumed the previous signal is not signalled twice.
func (f *Feed) Notify(collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for w := range f.watchers[collection] {
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
	log := common.Logger("realtime")
	log.Debug().
		Str(common.COLLECTION, collection).
		Int("watchers", len(f.watchers[collection])).
		Msg("change")
}

// Watch registers for change signals on collection. The returned stop
// function is idempotent.
func (f *Feed) Watch(collection string) (<-chan struct{}, func()) {
	w := &watcher{ch: make(chan struct{}, 1)}

	f.mu.Lock()
	set, ok := f.watchers[collection]
	if !ok {
		set = make(map[*watcher]struct{})
		f.watchers[collection] = set
	}
	set[w] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.watchers[collection], w)
			if len(f.watchers[collection]) == 0 {
				delete(f.watchers, collection)
			}
			f.mu.Unlock()
		})
	}
	return w.ch, stop
}

// Watchers reports how many watchers are registered for collection.
func (f *Feed) Watchers(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers[collection])
}
