package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
)

const childColumns = "id, name, created_at, updated_at"

var childOrderings = map[string]string{
	"name":       "LOWER(name)",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type childRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func boilChild(c child.Child) childRow {
	return childRow{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

func (row childRow) unboil() child.Child {
	return child.Child{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}
}

type childRepository struct {
	exec core.DBExecutor
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(exec core.DBExecutor) *childRepository {
	return &childRepository{exec: exec}
}

func (repo *childRepository) CheckNameUniqueness(ctx context.Context, name string, excludedChildren ...child.Child) error {
	q := "SELECT COUNT(*) FROM children WHERE LOWER(name) = LOWER(?)"
	args := []interface{}{name}
	if len(excludedChildren) > 0 {
		ids := make([]string, 0, len(excludedChildren))
		for _, c := range excludedChildren {
			ids = append(ids, c.ID)
		}
		q += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return core.NewStoreUnavailableError(err, "checking child name uniqueness")
	}

	var count int
	if err = sqlx.GetContext(ctx, repo.exec, &count, repo.exec.Rebind(q), args...); err != nil {
		return core.NewStoreUnavailableError(err, "checking child name uniqueness")
	}
	if count > 0 {
		return child.ErrNameExists
	}
	return nil
}

func (repo *childRepository) CreateChild(ctx context.Context, c child.Child) (child.Child, error) {
	c.ID = uuid.New().String()
	q := "INSERT INTO children (" + childColumns + ") VALUES (:id, :name, :created_at, :updated_at)"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, boilChild(c)); err != nil {
		return child.Child{}, core.NewStoreUnavailableError(err, "inserting child")
	}
	return repo.GetChild(ctx, c.ID)
}

func (repo *childRepository) QueryChildren(ctx context.Context, filter *child.QueryFilter, ordering []core.DBOrdering) ([]child.Child, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, "LOWER(name) LIKE ?")
			args = append(args, likeArg(filter.Search))
		}
		if len(filter.IDs) > 0 {
			conds = append(conds, "id IN (?)")
			args = append(args, filter.IDs)
		}
	}
	q, args, err := sqlx.In("SELECT "+childColumns+" FROM children"+where(conds)+orderBy(ordering, childOrderings, "LOWER(name) ASC"), args...)
	if err != nil {
		return nil, core.NewStoreUnavailableError(err, "querying children")
	}

	var rows []childRow
	if err = sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, core.NewStoreUnavailableError(err, "querying children")
	}
	children := make([]child.Child, 0, len(rows))
	for _, row := range rows {
		children = append(children, row.unboil())
	}
	return children, nil
}

func (repo *childRepository) GetChild(ctx context.Context, id string) (child.Child, error) {
	if _, err := uuid.Parse(id); err != nil {
		return child.Child{}, child.ErrNotFound
	}
	var row childRow
	q := repo.exec.Rebind("SELECT " + childColumns + " FROM children WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, id); err != nil {
		return child.Child{}, trapNoRowsErr(err, child.ErrNotFound, "finding child")
	}
	return row.unboil(), nil
}

func (repo *childRepository) UpdateChild(ctx context.Context, c child.Child) (child.Child, error) {
	err := inTx(ctx, repo.exec, func(exec core.DBExecutor) error {
		q := "UPDATE children SET name = :name, updated_at = :updated_at WHERE id = :id"
		res, err := sqlx.NamedExecContext(ctx, exec, q, boilChild(c))
		if err != nil {
			return core.NewStoreUnavailableError(err, "updating child")
		}
		if err = trapNoRowsAffected(res, child.ErrNotFound, "updating child"); err != nil {
			return err
		}
		q = exec.Rebind("UPDATE schedules SET child_name = ? WHERE child_id = ?")
		if _, err = exec.ExecContext(ctx, q, c.Name, c.ID); err != nil {
			return core.NewStoreUnavailableError(err, "renaming child schedules")
		}
		return nil
	})
	if err != nil {
		return child.Child{}, err
	}
	return repo.GetChild(ctx, c.ID)
}

// DeleteChildrenByID relies on ON DELETE CASCADE for prayer records and schedules.
func (repo *childRepository) DeleteChildrenByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM children WHERE id IN (?)", ids)
	if err != nil {
		return core.NewStoreUnavailableError(err, "deleting children")
	}
	if _, err = repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...); err != nil {
		return core.NewStoreUnavailableError(err, "deleting children")
	}
	return nil
}
