package prayer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("prayer record not found")
)

// Ledger is the per-child store of prayer records.
type Ledger interface {
	// FindRecords returns the child's records dated inside w, both ends included.
	FindRecords(ctx context.Context, childID string, w calendar.Window) ([]Record, error)
	// InsertMissing creates a not-done record for every key the child does not have yet
	// and returns how many were created. Each key is created atomically: concurrent
	// callers never produce duplicates.
	InsertMissing(ctx context.Context, childID string, keys []Key) (int, error)
	// UpsertRecord creates the record or updates its status in a single write.
	UpsertRecord(ctx context.Context, childID string, typ Type, day string, status bool) (Record, error)
	// UpdateStatus updates a record by identity. ErrNotFound if the child has no such record.
	UpdateStatus(ctx context.Context, childID, recordID string, status bool) (Record, error)
}

// ExpectedKeys enumerates every (day, type) pair of w.
func ExpectedKeys(w calendar.Window) []Key {
	days := w.Days()
	keys := make([]Key, 0, len(days)*len(Types))
	for _, d := range days {
		day := d.Format(calendar.DayLayout)
		for _, typ := range Types {
			keys = append(keys, Key{Type: typ, Day: day})
		}
	}
	return keys
}

// MissingKeys returns the keys of w that have no record in existing.
func MissingKeys(existing []Record, w calendar.Window) []Key {
	have := make(map[Key]struct{}, len(existing))
	for _, rec := range existing {
		have[rec.Key()] = struct{}{}
	}
	expected := ExpectedKeys(w)
	var missing []Key
	for _, key := range expected {
		if _, ok := have[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Reconciler backfills a child's ledger so every expected record of a window exists.
// It only ever adds records: existing ones are left untouched.
type Reconciler struct {
	ledger Ledger
}

func NewReconciler(ledger Ledger) *Reconciler {
	return &Reconciler{ledger: ledger}
}

// Reconcile returns the number of records created.
// After a partial failure the created records stay valid and a retry completes the rest.
func (r *Reconciler) Reconcile(ctx context.Context, childID string, w calendar.Window) (int, error) {
	existing, err := r.ledger.FindRecords(ctx, childID, w)
	if err != nil {
		return 0, errors.Wrap(err, "finding records")
	}
	missing := MissingKeys(existing, w)
	if len(missing) == 0 {
		return 0, nil
	}
	created, err := r.ledger.InsertMissing(ctx, childID, missing)
	if err != nil {
		return created, errors.Wrap(err, "inserting missing records")
	}
	return created, nil
}
