package child

import (
	"context"
	"errors"
	"time"

	"github.com/mutabaah/mutabaah/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("child not found")
	ErrNameExists = errors.New("a child with this name already exists")
)

type (
	Repository interface {
		// CheckNameUniqueness does a case-insensitive match on Child.Name.
		CheckNameUniqueness(ctx context.Context, name string, excludedChildren ...Child) error
		CreateChild(ctx context.Context, c Child) (Child, error)
		// QueryChildren applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Child.Name.
		QueryChildren(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Child, error)
		GetChild(ctx context.Context, id string) (Child, error)
		// UpdateChild also refreshes the child name cached on its schedules.
		UpdateChild(ctx context.Context, c Child) (Child, error)
		// DeleteChildrenByID cascades to the children's prayer records and schedules.
		DeleteChildrenByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, name string, exclChildren ...Child) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, exclChildren...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewChild) (Child, error) {
	now := time.Now().UTC()
	return svc.repo.CreateChild(ctx, Child{
		Name:      nc.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Query returns every child matching filter. A nil filter returns all children.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Child, error) {
	return svc.repo.QueryChildren(ctx, filter, ordering)
}

// Select returns the single child identified by id, or every child when id is empty.
func (svc *Service) Select(ctx context.Context, id string) ([]Child, error) {
	if id == "" {
		return svc.repo.QueryChildren(ctx, nil, []core.DBOrdering{{Field: "name", Ascending: true}})
	}
	c, err := svc.repo.GetChild(ctx, id)
	if err != nil {
		return nil, err
	}
	return []Child{c}, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Child, error) {
	return svc.repo.GetChild(ctx, id)
}

// Update saves uc over orig; uc must have been validated against orig.
func (svc *Service) Update(ctx context.Context, orig Child, uc UpdateChild) (Child, error) {
	c := orig
	c.Name = uc.Name
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateChild(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteChildrenByID(ctx, ids...)
}
