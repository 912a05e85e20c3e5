package child

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mutabaah/mutabaah/core"
)

// Child owns a ledger of prayer records and may be referenced by schedules.
type Child struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewChild contains information needed to create a new Child.
type NewChild struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (nc *NewChild) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nc.Name)
}

// UpdateChild defines what information may be provided to modify an existing Child.
type UpdateChild struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (uc *UpdateChild) Validate(ctx context.Context, orig Child, validate *validator.Validate, svc *Service) error {
	uc.Name = core.CleanString(uc.Name)
	if uc.Name == "" {
		uc.Name = orig.Name
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uc.Name, orig)
}

type QueryFilter struct {
	Search string   `query:"search"`
	IDs    []string `query:"id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.Search == "" && len(qf.IDs) == 0)
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Names maps child IDs to display names.
func Names(children []Child) map[string]string {
	names := make(map[string]string, len(children))
	for _, c := range children {
		names[c.ID] = c.Name
	}
	return names
}
