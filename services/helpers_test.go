package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"timesheet/apperror"
	"timesheet/config"
	"timesheet/database"
	"timesheet/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "password123"

// fixture is a small organisation: manager M with report E, a second manager
// O with report X, and one project.
type fixture struct {
	db       *gorm.DB
	manager  *models.User
	employee *models.User
	other    *models.User
	outsider *models.User
	project  *models.Project

	timesheets *TimesheetService
	entries    *EntryService
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, "silent")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.Role, managerID *uint) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  string(hash),
		Role:      role,
		ManagerID: managerID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)

	manager := createUser(t, db, "maria", models.RoleManager, nil)
	employee := createUser(t, db, "eric", models.RoleEmployee, &manager.ID)
	other := createUser(t, db, "oscar", models.RoleManager, nil)
	outsider := createUser(t, db, "xena", models.RoleEmployee, &other.ID)

	project := &models.Project{Name: "Website Redesign"}
	require.NoError(t, db.Create(project).Error)

	timesheets := NewTimesheetService(db)
	timesheets.now = func() time.Time { return time.Date(2026, 2, 6, 17, 0, 0, 0, time.UTC) }

	return &fixture{
		db:         db,
		manager:    manager,
		employee:   employee,
		other:      other,
		outsider:   outsider,
		project:    project,
		timesheets: timesheets,
		entries:    NewEntryService(db),
	}
}

// draftWithEntry creates a week 6/2026 timesheet for owner holding one 8h entry.
func (f *fixture) draftWithEntry(t *testing.T, owner *models.User) *models.Timesheet {
	t.Helper()
	ctx := context.Background()
	ts, err := f.timesheets.Create(ctx, owner, CreateTimesheetInput{WeekNumber: 6, Year: 2026})
	require.NoError(t, err)
	_, err = f.entries.Create(ctx, CreateEntryInput{
		TimesheetID: ts.ID,
		ProjectID:   f.project.ID,
		Date:        models.NewDate(2026, 2, 3),
		Hours:       8,
	}, owner)
	require.NoError(t, err)
	return ts
}

func (f *fixture) submitted(t *testing.T, owner *models.User) *models.Timesheet {
	t.Helper()
	ts := f.draftWithEntry(t, owner)
	ts, err := f.timesheets.Submit(context.Background(), ts.ID, owner)
	require.NoError(t, err)
	return ts
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}
