package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("schedule not found")
)

type (
	Repository interface {
		CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		// QuerySchedules applies AND operation on available QueryFilter fields.
		QuerySchedules(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Schedule, error)
		GetSchedule(ctx context.Context, id string) (Schedule, error)
		UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		DeleteSchedulesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo     Repository
		children child.Repository
	}
)

func NewService(repo Repository, children child.Repository) *Service {
	return &Service{repo: repo, children: children}
}

// owner resolves the child a schedule points to; child.ErrNotFound if it does not exist.
func (svc *Service) owner(ctx context.Context, childID string) (child.Child, error) {
	c, err := svc.children.GetChild(ctx, childID)
	if err != nil {
		return child.Child{}, errors.Wrap(err, "finding child")
	}
	return c, nil
}

func (svc *Service) Create(ctx context.Context, ns NewSchedule) (Schedule, error) {
	c, err := svc.owner(ctx, ns.ChildID)
	if err != nil {
		return Schedule{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateSchedule(ctx, Schedule{
		Title:     ns.Title,
		ChildID:   c.ID,
		ChildName: c.Name,
		StartDate: ns.StartDate.UTC(),
		EndDate:   ns.EndDate.UTC(),
		Deadline:  utcTime(ns.Deadline),
		Status:    ns.Status,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Schedule, error) {
	return svc.repo.QuerySchedules(ctx, filter, ordering)
}

// Week returns the schedules starting inside [from, to], earliest first.
func (svc *Service) Week(ctx context.Context, from, to time.Time) ([]Schedule, error) {
	return svc.repo.QuerySchedules(ctx, &QueryFilter{From: from, To: to}, []core.DBOrdering{{Field: "start_date", Ascending: true}})
}

// Upcoming returns the unfinished schedules starting inside [from, to].
func (svc *Service) Upcoming(ctx context.Context, from, to time.Time) ([]Schedule, error) {
	filter := &QueryFilter{From: from, To: to, Statuses: []Status{StatusNotStarted, StatusInProgress}}
	return svc.repo.QuerySchedules(ctx, filter, []core.DBOrdering{{Field: "start_date", Ascending: true}})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Schedule, error) {
	return svc.repo.GetSchedule(ctx, id)
}

// Update saves us over orig; us must have been validated against orig.
func (svc *Service) Update(ctx context.Context, orig Schedule, us UpdateSchedule) (Schedule, error) {
	s := orig
	if us.ChildID != orig.ChildID {
		c, err := svc.owner(ctx, us.ChildID)
		if err != nil {
			return Schedule{}, err
		}
		s.ChildID, s.ChildName = c.ID, c.Name
	}
	s.Title = us.Title
	s.StartDate = us.StartDate.UTC()
	s.EndDate = us.EndDate.UTC()
	s.Deadline = utcTime(us.Deadline)
	s.Status = us.Status
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchedule(ctx, s)
}

// SetStatus moves the schedule to status. Setting the current status is a no-op.
func (svc *Service) SetStatus(ctx context.Context, id string, status Status) (Schedule, error) {
	s, err := svc.repo.GetSchedule(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	if s.Status == status {
		return s, nil
	}
	if !s.Status.CanTransitionTo(status) {
		return Schedule{}, newTransitionError(s.Status, status)
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchedule(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSchedulesByID(ctx, ids...)
}

func utcTime(t null.Time) null.Time {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}
