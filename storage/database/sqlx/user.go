package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/user"
)

const userColumns = "id, name, username, is_active, password_hash, created_at, updated_at, last_login"

var userOrderings = map[string]string{
	"name":       "LOWER(name)",
	"username":   "username",
	"is_active":  "is_active",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Username     string      `db:"username"`
	IsActive     bool        `db:"is_active"`
	PasswordHash string      `db:"password_hash"`
	CreatedAt    string      `db:"created_at"`
	UpdatedAt    string      `db:"updated_at"`
	LastLogin    null.String `db:"last_login"`
}

func boilUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		IsActive:     usr.IsActive,
		PasswordHash: string(usr.PasswordHash),
		CreatedAt:    formatTime(usr.CreatedAt),
		UpdatedAt:    formatTime(usr.UpdatedAt),
		LastLogin:    formatNullTime(usr.LastLogin),
	}
}

func (row userRow) unboil() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		IsActive:     row.IsActive,
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    parseTime(row.CreatedAt),
		UpdatedAt:    parseTime(row.UpdatedAt),
		LastLogin:    parseNullTime(row.LastLogin),
	}
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedUsers ...user.User) error {
	q := "SELECT COUNT(*) FROM users WHERE LOWER(username) = LOWER(?)"
	args := []interface{}{username}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return core.NewStoreUnavailableError(err, "checking username uniqueness")
	}

	var count int
	if err = sqlx.GetContext(ctx, repo.exec, &count, repo.exec.Rebind(q), args...); err != nil {
		return core.NewStoreUnavailableError(err, "checking username uniqueness")
	}
	if count > 0 {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :username, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, boilUser(usr)); err != nil {
		return user.User{}, core.NewStoreUnavailableError(err, "inserting user")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(username) LIKE ?)")
			args = append(args, likeArg(filter.Search), likeArg(filter.Search))
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
	}
	q := "SELECT " + userColumns + " FROM users" + where(conds) + orderBy(ordering, userOrderings, "created_at DESC")

	var rows []userRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, core.NewStoreUnavailableError(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.unboil())
	}
	return users, nil
}

func (repo *userRepository) getUser(ctx context.Context, cond string, arg interface{}) (user.User, error) {
	var row userRow
	q := repo.exec.Rebind("SELECT " + userColumns + " FROM users WHERE " + cond)
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.unboil(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, "id = ?", id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "LOWER(username) = LOWER(?)", username)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET name = :name, username = :username, is_active = :is_active,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, boilUser(usr))
	if err != nil {
		return user.User{}, core.NewStoreUnavailableError(err, "updating user")
	}
	if err = trapNoRowsAffected(res, user.ErrNotFound, "updating user"); err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return core.NewStoreUnavailableError(err, "deleting users")
	}
	if _, err = repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...); err != nil {
		return core.NewStoreUnavailableError(err, "deleting users")
	}
	return nil
}
