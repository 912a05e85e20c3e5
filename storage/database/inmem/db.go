// Package inmemdb keeps every table in process memory. It honours the same invariants
// as the SQL repositories and backs unit tests and throwaway instances.
package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/prayer"
	"github.com/mutabaah/mutabaah/core/schedule"
	"github.com/mutabaah/mutabaah/core/user"
)

type recordKey struct {
	childID string
	prayer.Key
}

// DB guards all tables with one lock so cascades and renames stay consistent.
type DB struct {
	mu        sync.RWMutex
	users     map[string]*user.User
	children  map[string]*child.Child
	records   map[string]*prayer.Record // by ID
	recordIDs map[recordKey]string
	schedules map[string]*schedule.Schedule
}

func Open() *DB {
	return &DB{
		users:     make(map[string]*user.User),
		children:  make(map[string]*child.Child),
		records:   make(map[string]*prayer.Record),
		recordIDs: make(map[recordKey]string),
		schedules: make(map[string]*schedule.Schedule),
	}
}

// deleteChild removes a child with its records and schedules. Callers hold the write lock.
func (db *DB) deleteChild(id string) {
	delete(db.children, id)
	for key, recID := range db.recordIDs {
		if key.childID == id {
			delete(db.recordIDs, key)
			delete(db.records, recID)
		}
	}
	for sID, s := range db.schedules {
		if s.ChildID == id {
			delete(db.schedules, sID)
		}
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortBy orders items by the given orderings; fields maps an ordering field to a comparison
// returning -1, 0 or 1. Unknown fields are ignored.
func sortBy[T any](items []T, ordering []core.DBOrdering, fields map[string]func(a, b T) int) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := fields[ord.Field]
			if !ok {
				continue
			}
			c := cmp(items[i], items[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
