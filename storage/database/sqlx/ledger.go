package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/prayer"
)

const (
	recordColumns = "id, child_id, prayer_type, day, status, updated_at"

	// insertChunkSize keeps multi-row inserts well under the driver parameter limits.
	insertChunkSize = 50
)

type recordRow struct {
	ID        string `db:"id"`
	ChildID   string `db:"child_id"`
	Type      string `db:"prayer_type"`
	Day       string `db:"day"`
	Status    bool   `db:"status"`
	UpdatedAt string `db:"updated_at"`
}

func (row recordRow) unboil() prayer.Record {
	return prayer.Record{
		ID:        row.ID,
		ChildID:   row.ChildID,
		Type:      prayer.Type(row.Type),
		Day:       row.Day,
		Status:    row.Status,
		UpdatedAt: parseTime(row.UpdatedAt),
	}
}

type ledger struct {
	exec core.DBExecutor
}

var _ prayer.Ledger = (*ledger)(nil) // interface compliance check

func NewLedger(exec core.DBExecutor) *ledger {
	return &ledger{exec: exec}
}

func (l *ledger) FindRecords(ctx context.Context, childID string, w calendar.Window) ([]prayer.Record, error) {
	q := l.exec.Rebind("SELECT " + recordColumns + " FROM prayer_records WHERE child_id = ? AND day >= ? AND day <= ? ORDER BY day")

	var rows []recordRow
	if err := sqlx.SelectContext(ctx, l.exec, &rows, q, childID, w.StartDay(), w.EndDay()); err != nil {
		return nil, core.NewStoreUnavailableError(err, "finding prayer records")
	}
	recs := make([]prayer.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.unboil())
	}
	prayer.SortRecords(recs)
	return recs, nil
}

// InsertMissing commits chunk by chunk: rows inserted before a failure stay, and the
// unique (child_id, prayer_type, day) constraint turns concurrent duplicates into no-ops.
func (l *ledger) InsertMissing(ctx context.Context, childID string, keys []prayer.Key) (int, error) {
	now := formatTime(time.Now())
	created := 0
	for start := 0; start < len(keys); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		values := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*6)
		for _, key := range chunk {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, uuid.New().String(), childID, string(key.Type), key.Day, false, now)
		}
		q := "INSERT INTO prayer_records (" + recordColumns + ") VALUES " + strings.Join(values, ", ") +
			" ON CONFLICT (child_id, prayer_type, day) DO NOTHING"

		res, err := l.exec.ExecContext(ctx, l.exec.Rebind(q), args...)
		if err != nil {
			return created, core.NewStoreUnavailableError(err, "inserting prayer records")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return created, core.NewStoreUnavailableError(err, "inserting prayer records")
		}
		created += int(n)
	}
	return created, nil
}

func (l *ledger) getRecord(ctx context.Context, cond string, args ...interface{}) (prayer.Record, error) {
	var row recordRow
	q := l.exec.Rebind("SELECT " + recordColumns + " FROM prayer_records WHERE " + cond)
	if err := sqlx.GetContext(ctx, l.exec, &row, q, args...); err != nil {
		return prayer.Record{}, trapNoRowsErr(err, prayer.ErrNotFound, "finding prayer record")
	}
	return row.unboil(), nil
}

func (l *ledger) UpsertRecord(ctx context.Context, childID string, typ prayer.Type, day string, status bool) (prayer.Record, error) {
	q := "INSERT INTO prayer_records (" + recordColumns + ") VALUES (?, ?, ?, ?, ?, ?)" +
		" ON CONFLICT (child_id, prayer_type, day) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at"
	args := []interface{}{uuid.New().String(), childID, string(typ), day, status, formatTime(time.Now())}
	if _, err := l.exec.ExecContext(ctx, l.exec.Rebind(q), args...); err != nil {
		return prayer.Record{}, core.NewStoreUnavailableError(err, "upserting prayer record")
	}
	return l.getRecord(ctx, "child_id = ? AND prayer_type = ? AND day = ?", childID, string(typ), day)
}

func (l *ledger) UpdateStatus(ctx context.Context, childID, recordID string, status bool) (prayer.Record, error) {
	if _, err := uuid.Parse(recordID); err != nil {
		return prayer.Record{}, prayer.ErrNotFound
	}
	q := l.exec.Rebind("UPDATE prayer_records SET status = ?, updated_at = ? WHERE id = ? AND child_id = ?")
	res, err := l.exec.ExecContext(ctx, q, status, formatTime(time.Now()), recordID, childID)
	if err != nil {
		return prayer.Record{}, core.NewStoreUnavailableError(err, "updating prayer record")
	}
	if err = trapNoRowsAffected(res, prayer.ErrNotFound, "updating prayer record"); err != nil {
		return prayer.Record{}, err
	}
	return l.getRecord(ctx, "id = ?", recordID)
}
