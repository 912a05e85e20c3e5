package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/mutabaah/mutabaah/core"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

var (
	Statuses = []Status{StatusNotStarted, StatusInProgress, StatusDone}

	transitions = map[Status][]Status{
		StatusNotStarted: {StatusInProgress, StatusDone},
		StatusInProgress: {StatusNotStarted, StatusDone},
		StatusDone:       {StatusInProgress},
	}
)

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether a schedule in status s may move to next.
// Staying in the same status is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return next.Valid()
	}
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Schedule is an activity planned for one child.
// ChildName is a display copy of the child's name, kept in sync on rename.
type Schedule struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ChildID   string    `json:"child_id"`
	ChildName string    `json:"child_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Deadline  null.Time `json:"deadline"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewSchedule contains information needed to create a new Schedule.
type NewSchedule struct {
	Title     string    `json:"title" validate:"required,notblank,max=255"`
	ChildID   string    `json:"child_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Deadline  null.Time `json:"deadline"`
	Status    Status    `json:"status" validate:"omitempty,schedulestatus"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.ChildID = core.CleanString(ns.ChildID)
	if ns.Status == "" {
		ns.Status = StatusNotStarted
	}
	return validate.Struct(ns)
}

// UpdateSchedule defines what information may be provided to modify an existing Schedule.
// Zero fields keep their current value.
type UpdateSchedule struct {
	Title     string    `json:"title" validate:"required,notblank,max=255"`
	ChildID   string    `json:"child_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Deadline  null.Time `json:"deadline"`
	Status    Status    `json:"status" validate:"required,schedulestatus"`
}

func (us *UpdateSchedule) Validate(orig Schedule, validate *validator.Validate) error {
	if us.Title = core.CleanString(us.Title); us.Title == "" {
		us.Title = orig.Title
	}
	if us.ChildID = core.CleanString(us.ChildID); us.ChildID == "" {
		us.ChildID = orig.ChildID
	}
	if us.StartDate.IsZero() {
		us.StartDate = orig.StartDate
	}
	if us.EndDate.IsZero() {
		us.EndDate = orig.EndDate
	}
	if !us.Deadline.Valid {
		us.Deadline = orig.Deadline
	}
	if us.Status == "" {
		us.Status = orig.Status
	}
	if err := validate.Struct(us); err != nil {
		return err
	}
	if !orig.Status.CanTransitionTo(us.Status) {
		return newTransitionError(orig.Status, us.Status)
	}
	return nil
}

type SetStatus struct {
	Status Status `json:"status" validate:"required,schedulestatus"`
}

func (ss *SetStatus) Validate(validate *validator.Validate) error {
	ss.Status = Status(core.CleanString(string(ss.Status), true /* lower */))
	return validate.Struct(ss)
}

// QueryFilter selects schedules; From and To bound StartDate, both ends included.
type QueryFilter struct {
	ChildID  string    `query:"child_id"`
	From     time.Time `query:"-"`
	To       time.Time `query:"-"`
	Statuses []Status  `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.ChildID == "" && qf.From.IsZero() && qf.To.IsZero() && len(qf.Statuses) == 0)
}

func (qf *QueryFilter) Clean() {
	qf.ChildID = core.CleanString(qf.ChildID)
}

func newTransitionError(from, to Status) error {
	return core.NewValidationError(nil, core.FieldError{
		Field: "status",
		Error: "cannot change status from " + string(from) + " to " + string(to),
	})
}

// Stamp returns the reminder identity of a schedule occurrence.
func (s Schedule) Stamp() string {
	return s.ID + "@" + s.StartDate.UTC().Format(time.RFC3339)
}
