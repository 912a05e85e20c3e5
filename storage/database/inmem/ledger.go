package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/prayer"
)

type ledger struct {
	db *DB
}

var _ prayer.Ledger = (*ledger)(nil) // interface compliance check

func NewLedger(db *DB) *ledger {
	return &ledger{db: db}
}

func (l *ledger) FindRecords(_ context.Context, childID string, w calendar.Window) ([]prayer.Record, error) {
	l.db.mu.RLock()
	defer l.db.mu.RUnlock()

	var recs []prayer.Record
	for key, id := range l.db.recordIDs {
		if key.childID != childID {
			continue
		}
		if rec := l.db.records[id]; rec.InWindow(w) {
			recs = append(recs, *rec)
		}
	}
	prayer.SortRecords(recs)
	return recs, nil
}

func (l *ledger) InsertMissing(_ context.Context, childID string, keys []prayer.Key) (int, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()

	now := time.Now().UTC()
	created := 0
	for _, key := range keys {
		rk := recordKey{childID: childID, Key: key}
		if _, ok := l.db.recordIDs[rk]; ok {
			continue
		}
		rec := &prayer.Record{
			ID:        uuid.New().String(),
			ChildID:   childID,
			Type:      key.Type,
			Day:       key.Day,
			UpdatedAt: now,
		}
		l.db.records[rec.ID] = rec
		l.db.recordIDs[rk] = rec.ID
		created++
	}
	return created, nil
}

func (l *ledger) UpsertRecord(_ context.Context, childID string, typ prayer.Type, day string, status bool) (prayer.Record, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()

	now := time.Now().UTC()
	rk := recordKey{childID: childID, Key: prayer.Key{Type: typ, Day: day}}
	if id, ok := l.db.recordIDs[rk]; ok {
		rec := l.db.records[id]
		rec.Status = status
		rec.UpdatedAt = now
		return *rec, nil
	}
	rec := &prayer.Record{
		ID:        uuid.New().String(),
		ChildID:   childID,
		Type:      typ,
		Day:       day,
		Status:    status,
		UpdatedAt: now,
	}
	l.db.records[rec.ID] = rec
	l.db.recordIDs[rk] = rec.ID
	return *rec, nil
}

func (l *ledger) UpdateStatus(_ context.Context, childID, recordID string, status bool) (prayer.Record, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()

	rec, ok := l.db.records[recordID]
	if !ok || rec.ChildID != childID {
		return prayer.Record{}, prayer.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	return *rec, nil
}
