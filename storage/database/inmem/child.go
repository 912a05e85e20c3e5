package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
)

var childOrderings = map[string]func(a, b child.Child) int{
	"name":       func(a, b child.Child) int { return compareStrings(a.Name, b.Name) },
	"created_at": func(a, b child.Child) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
	"updated_at": func(a, b child.Child) int { return compareTimes(a.UpdatedAt, b.UpdatedAt) },
}

type childRepository struct {
	db *DB
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(db *DB) *childRepository {
	return &childRepository{db: db}
}

func (repo *childRepository) CheckNameUniqueness(_ context.Context, name string, excludedChildren ...child.Child) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedChildren))
	for _, c := range excludedChildren {
		excluded[c.ID] = true
	}
	for _, c := range repo.db.children {
		if strings.EqualFold(c.Name, name) && !excluded[c.ID] {
			return child.ErrNameExists
		}
	}
	return nil
}

func (repo *childRepository) CreateChild(_ context.Context, c child.Child) (child.Child, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = uuid.New().String()
	repo.db.children[c.ID] = &c
	return c, nil
}

func (repo *childRepository) QueryChildren(_ context.Context, filter *child.QueryFilter, ordering []core.DBOrdering) ([]child.Child, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ids map[string]bool
	if filter != nil && len(filter.IDs) > 0 {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	children := make([]child.Child, 0, len(repo.db.children))
	for _, c := range repo.db.children {
		if filter != nil && filter.Search != "" && !containsFold(c.Name, filter.Search) {
			continue
		}
		if ids != nil && !ids[c.ID] {
			continue
		}
		children = append(children, *c)
	}
	sortBy(children, append(ordering, core.DBOrdering{Field: "name", Ascending: true}), childOrderings)
	return children, nil
}

func (repo *childRepository) GetChild(_ context.Context, id string) (child.Child, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.children[id]; ok {
		return *c, nil
	}
	return child.Child{}, child.ErrNotFound
}

func (repo *childRepository) UpdateChild(_ context.Context, c child.Child) (child.Child, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.children[c.ID]; !ok {
		return child.Child{}, child.ErrNotFound
	}
	repo.db.children[c.ID] = &c
	for _, s := range repo.db.schedules {
		if s.ChildID == c.ID {
			s.ChildName = c.Name
		}
	}
	return c, nil
}

func (repo *childRepository) DeleteChildrenByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		repo.db.deleteChild(id)
	}
	return nil
}
