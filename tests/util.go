package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/schedule"
	"github.com/mutabaah/mutabaah/core/user"
	"github.com/mutabaah/mutabaah/storage/database"
)

// PrepareDB opens a fresh, migrated in-memory sqlite database, closed when t ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := core.NewTestConfig()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(db.DB, conf); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateChild(t *testing.T, repo child.Repository, name string, createdAt ...time.Time) child.Child {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c, err := repo.CreateChild(context.Background(), child.Child{Name: name, CreatedAt: tstamp, UpdatedAt: tstamp})
	if err != nil {
		t.Fatalf("CreateChild() failed: %v", err)
	}
	return c
}

// CreateSchedule creates a one hour schedule of c starting at start.
func CreateSchedule(
	t *testing.T,
	repo schedule.Repository,
	title string,
	c child.Child,
	start time.Time,
	status schedule.Status,
) schedule.Schedule {
	t.Helper()
	now := time.Now().UTC()
	s, err := repo.CreateSchedule(context.Background(), schedule.Schedule{
		Title:     title,
		ChildID:   c.ID,
		ChildName: c.Name,
		StartDate: start.UTC(),
		EndDate:   start.Add(time.Hour).UTC(),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	return s
}
