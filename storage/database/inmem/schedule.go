package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/schedule"
)

var scheduleOrderings = map[string]func(a, b schedule.Schedule) int{
	"title":      func(a, b schedule.Schedule) int { return compareStrings(a.Title, b.Title) },
	"child_name": func(a, b schedule.Schedule) int { return compareStrings(a.ChildName, b.ChildName) },
	"status":     func(a, b schedule.Schedule) int { return compareStrings(string(a.Status), string(b.Status)) },
	"start_date": func(a, b schedule.Schedule) int { return compareTimes(a.StartDate, b.StartDate) },
	"end_date":   func(a, b schedule.Schedule) int { return compareTimes(a.EndDate, b.EndDate) },
	"deadline":   func(a, b schedule.Schedule) int { return compareTimes(a.Deadline.Time, b.Deadline.Time) },
	"created_at": func(a, b schedule.Schedule) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.children[s.ChildID]; !ok {
		return schedule.Schedule{}, child.ErrNotFound
	}
	s.ID = uuid.New().String()
	repo.db.schedules[s.ID] = &s
	return s, nil
}

func (repo *scheduleRepository) QuerySchedules(_ context.Context, filter *schedule.QueryFilter, ordering []core.DBOrdering) ([]schedule.Schedule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	schedules := make([]schedule.Schedule, 0, len(repo.db.schedules))
	for _, s := range repo.db.schedules {
		if matchSchedule(s, filter) {
			schedules = append(schedules, *s)
		}
	}
	sortBy(schedules, append(ordering, core.DBOrdering{Field: "start_date", Ascending: true}), scheduleOrderings)
	return schedules, nil
}

func matchSchedule(s *schedule.Schedule, filter *schedule.QueryFilter) bool {
	if filter.IsEmpty() {
		return true
	}
	if filter.ChildID != "" && s.ChildID != filter.ChildID {
		return false
	}
	if !filter.From.IsZero() && s.StartDate.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && s.StartDate.After(filter.To) {
		return false
	}
	if len(filter.Statuses) > 0 {
		for _, st := range filter.Statuses {
			if s.Status == st {
				return true
			}
		}
		return false
	}
	return true
}

func (repo *scheduleRepository) GetSchedule(_ context.Context, id string) (schedule.Schedule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.schedules[id]; ok {
		return *s, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) UpdateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.schedules[s.ID]; !ok {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	if c, ok := repo.db.children[s.ChildID]; ok {
		s.ChildName = c.Name
	}
	repo.db.schedules[s.ID] = &s
	return s, nil
}

func (repo *scheduleRepository) DeleteSchedulesByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.schedules, id)
	}
	return nil
}
