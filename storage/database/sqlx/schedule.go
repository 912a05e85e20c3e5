package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/schedule"
)

const scheduleColumns = "id, title, child_id, child_name, start_date, end_date, deadline, status, created_at, updated_at"

var scheduleOrderings = map[string]string{
	"title":      "LOWER(title)",
	"child_name": "LOWER(child_name)",
	"status":     "status",
	"start_date": "start_date",
	"end_date":   "end_date",
	"deadline":   "deadline",
	"created_at": "created_at",
}

type scheduleRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	ChildID   string      `db:"child_id"`
	ChildName string      `db:"child_name"`
	StartDate string      `db:"start_date"`
	EndDate   string      `db:"end_date"`
	Deadline  null.String `db:"deadline"`
	Status    string      `db:"status"`
	CreatedAt string      `db:"created_at"`
	UpdatedAt string      `db:"updated_at"`
}

func boilSchedule(s schedule.Schedule) scheduleRow {
	return scheduleRow{
		ID:        s.ID,
		Title:     s.Title,
		ChildID:   s.ChildID,
		ChildName: s.ChildName,
		StartDate: formatTime(s.StartDate),
		EndDate:   formatTime(s.EndDate),
		Deadline:  formatNullTime(s.Deadline),
		Status:    string(s.Status),
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
}

func (row scheduleRow) unboil() schedule.Schedule {
	return schedule.Schedule{
		ID:        row.ID,
		Title:     row.Title,
		ChildID:   row.ChildID,
		ChildName: row.ChildName,
		StartDate: parseTime(row.StartDate),
		EndDate:   parseTime(row.EndDate),
		Deadline:  parseNullTime(row.Deadline),
		Status:    schedule.Status(row.Status),
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}
}

type scheduleRepository struct {
	exec core.DBExecutor
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(exec core.DBExecutor) *scheduleRepository {
	return &scheduleRepository{exec: exec}
}

// CreateSchedule copies the child's current name; child.ErrNotFound if the child does not exist.
func (repo *scheduleRepository) CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	s.ID = uuid.New().String()
	row := boilSchedule(s)
	q := repo.exec.Rebind(`INSERT INTO schedules (` + scheduleColumns + `)
		SELECT ?, ?, c.id, c.name, ?, ?, ?, ?, ?, ? FROM children c WHERE c.id = ?`)
	res, err := repo.exec.ExecContext(ctx, q,
		row.ID, row.Title, row.StartDate, row.EndDate, row.Deadline, row.Status, row.CreatedAt, row.UpdatedAt, row.ChildID)
	if err != nil {
		return schedule.Schedule{}, core.NewStoreUnavailableError(err, "inserting schedule")
	}
	if err = trapNoRowsAffected(res, child.ErrNotFound, "inserting schedule"); err != nil {
		return schedule.Schedule{}, err
	}
	return repo.GetSchedule(ctx, s.ID)
}

func (repo *scheduleRepository) QuerySchedules(ctx context.Context, filter *schedule.QueryFilter, ordering []core.DBOrdering) ([]schedule.Schedule, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !filter.IsEmpty() {
		if filter.ChildID != "" {
			conds = append(conds, "child_id = ?")
			args = append(args, filter.ChildID)
		}
		if !filter.From.IsZero() {
			conds = append(conds, "start_date >= ?")
			args = append(args, formatTime(filter.From))
		}
		if !filter.To.IsZero() {
			conds = append(conds, "start_date <= ?")
			args = append(args, formatTime(filter.To))
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, 0, len(filter.Statuses))
			for _, st := range filter.Statuses {
				statuses = append(statuses, string(st))
			}
			conds = append(conds, "status IN (?)")
			args = append(args, statuses)
		}
	}
	q, args, err := sqlx.In("SELECT "+scheduleColumns+" FROM schedules"+where(conds)+orderBy(ordering, scheduleOrderings, "start_date ASC"), args...)
	if err != nil {
		return nil, core.NewStoreUnavailableError(err, "querying schedules")
	}

	var rows []scheduleRow
	if err = sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, core.NewStoreUnavailableError(err, "querying schedules")
	}
	schedules := make([]schedule.Schedule, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, row.unboil())
	}
	return schedules, nil
}

func (repo *scheduleRepository) GetSchedule(ctx context.Context, id string) (schedule.Schedule, error) {
	if _, err := uuid.Parse(id); err != nil {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	var row scheduleRow
	q := repo.exec.Rebind("SELECT " + scheduleColumns + " FROM schedules WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, id); err != nil {
		return schedule.Schedule{}, trapNoRowsErr(err, schedule.ErrNotFound, "finding schedule")
	}
	return row.unboil(), nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	q := `UPDATE schedules SET title = :title, child_id = :child_id, child_name = :child_name,
		start_date = :start_date, end_date = :end_date, deadline = :deadline, status = :status,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, boilSchedule(s))
	if err != nil {
		return schedule.Schedule{}, core.NewStoreUnavailableError(err, "updating schedule")
	}
	if err = trapNoRowsAffected(res, schedule.ErrNotFound, "updating schedule"); err != nil {
		return schedule.Schedule{}, err
	}
	return repo.GetSchedule(ctx, s.ID)
}

func (repo *scheduleRepository) DeleteSchedulesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM schedules WHERE id IN (?)", ids)
	if err != nil {
		return core.NewStoreUnavailableError(err, "deleting schedules")
	}
	if _, err = repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...); err != nil {
		return core.NewStoreUnavailableError(err, "deleting schedules")
	}
	return nil
}
