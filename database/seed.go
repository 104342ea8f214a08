package database

import (
	"fmt"
	"time"

	"timesheet/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DemoPassword = "password123"

// SeedResult summarizes what SeedDemoData created.
type SeedResult struct {
	Managers   int
	Employees  int
	Projects   int
	Timesheets int
	Entries    int
}

// SeedDemoData wipes all rows and loads a small demo organisation: two
// managers with two employees each, three projects, and a draft timesheet for
// the current ISO week per employee.
func SeedDemoData(db *gorm.DB, now time.Time) (*SeedResult, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	result := &SeedResult{}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []interface{}{&models.Entry{}, &models.Timesheet{}, &models.User{}, &models.Project{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}

		alice := models.User{Username: "alice_manager", Email: "alice@example.com", Password: string(hashedPassword), Role: models.RoleManager}
		bob := models.User{Username: "bob_manager", Email: "bob@example.com", Password: string(hashedPassword), Role: models.RoleManager}
		if err := tx.Create(&[]*models.User{&alice, &bob}).Error; err != nil {
			return err
		}
		result.Managers = 2

		employees := []*models.User{
			{Username: "charlie_emp", Email: "charlie@example.com", Password: string(hashedPassword), Role: models.RoleEmployee, ManagerID: &alice.ID},
			{Username: "diana_emp", Email: "diana@example.com", Password: string(hashedPassword), Role: models.RoleEmployee, ManagerID: &alice.ID},
			{Username: "eve_emp", Email: "eve@example.com", Password: string(hashedPassword), Role: models.RoleEmployee, ManagerID: &bob.ID},
			{Username: "frank_emp", Email: "frank@example.com", Password: string(hashedPassword), Role: models.RoleEmployee, ManagerID: &bob.ID},
		}
		if err := tx.Create(&employees).Error; err != nil {
			return err
		}
		result.Employees = len(employees)

		projects := []*models.Project{
			{Name: "Website Redesign", Description: strPtr("Complete overhaul of company website")},
			{Name: "Mobile App Development", Description: strPtr("iOS and Android app for customers")},
			{Name: "Internal Tools", Description: strPtr("Development of internal automation tools")},
		}
		if err := tx.Create(&projects).Error; err != nil {
			return err
		}
		result.Projects = len(projects)

		year, week := models.CurrentWeek(now)
		monday := models.WeekStart(year, week)

		// days worked, project and hours per employee
		plans := []struct {
			days    int
			project *models.Project
			hours   float64
		}{
			{5, projects[0], 8},
			{5, projects[1], 7.5},
			{3, projects[2], 8},
			{1, projects[0], 4},
		}

		for i, employee := range employees {
			timesheet := models.Timesheet{
				EmployeeID: employee.ID,
				WeekNumber: week,
				Year:       year,
				Status:     models.StatusDraft,
			}
			if err := tx.Create(&timesheet).Error; err != nil {
				return err
			}
			result.Timesheets++

			plan := plans[i]
			for day := 0; day < plan.days; day++ {
				entry := models.Entry{
					EmployeeID:  employee.ID,
					TimesheetID: timesheet.ID,
					ProjectID:   plan.project.ID,
					Date:        models.DateOf(monday.AddDate(0, 0, day)),
					Hours:       plan.hours,
					Description: strPtr(fmt.Sprintf("Working on %s", plan.project.Name)),
				}
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
				result.Entries++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func strPtr(s string) *string {
	return &s
}
