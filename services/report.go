package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"timesheet/apperror"
	"timesheet/models"

	"gorm.io/gorm"
)

// TimesheetSummary is a timesheet with aggregate figures over its entries.
// EmployeeName is only filled for the manager approval queue.
type TimesheetSummary struct {
	models.Timesheet
	EntriesCount int64   `json:"entries_count"`
	TotalHours   float64 `json:"total_hours"`
	EmployeeName *string `json:"employee_name,omitempty"`
}

type entryStats struct {
	TimesheetID  uint
	EntriesCount int64
	TotalHours   float64
}

// summarize attaches entry counts and hour totals using one grouped query.
func summarize(db *gorm.DB, timesheets []models.Timesheet, withEmployee bool) ([]TimesheetSummary, error) {
	summaries := make([]TimesheetSummary, 0, len(timesheets))
	if len(timesheets) == 0 {
		return summaries, nil
	}

	ids := make([]uint, len(timesheets))
	for i := range timesheets {
		ids[i] = timesheets[i].ID
	}

	var stats []entryStats
	err := db.Model(&models.Entry{}).
		Select("timesheet_id, COUNT(*) AS entries_count, COALESCE(SUM(hours), 0) AS total_hours").
		Where("timesheet_id IN ?", ids).
		Group("timesheet_id").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	byTimesheet := make(map[uint]entryStats, len(stats))
	for _, s := range stats {
		byTimesheet[s.TimesheetID] = s
	}

	for _, ts := range timesheets {
		summary := TimesheetSummary{
			Timesheet:    ts,
			EntriesCount: byTimesheet[ts.ID].EntriesCount,
			TotalHours:   byTimesheet[ts.ID].TotalHours,
		}
		if withEmployee && ts.Employee != nil {
			name := ts.Employee.DisplayName()
			summary.EmployeeName = &name
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// TeamEntryRow is one line of the team export.
type TeamEntryRow struct {
	Username    string
	ProjectName string
	Date        models.Date
	Hours       float64
	Description *string
	Status      models.Status
}

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// TeamEntries returns the entries of the caller's direct reports that belong
// to timesheets of the given ISO week.
func (s *ReportService) TeamEntries(ctx context.Context, caller *models.User, year, week int) ([]TeamEntryRow, error) {
	if !caller.IsManager() {
		return nil, apperror.Forbidden("user is not a manager")
	}
	if year < models.MinYear || year > models.MaxYear {
		return nil, apperror.Validation("year must be between %d and %d", models.MinYear, models.MaxYear)
	}
	if week < models.MinWeek || week > models.WeeksInYear(year) {
		return nil, apperror.Validation("week_number must be between %d and %d", models.MinWeek, models.WeeksInYear(year))
	}

	rows := make([]TeamEntryRow, 0)
	err := s.db.WithContext(ctx).
		Table("timesheet_entries").
		Select("users.username, projects.name AS project_name, timesheet_entries.date, timesheet_entries.hours, timesheet_entries.description, timesheets.status").
		Joins("JOIN users ON users.id = timesheet_entries.employee_id").
		Joins("JOIN projects ON projects.id = timesheet_entries.project_id").
		Joins("JOIN timesheets ON timesheets.id = timesheet_entries.timesheet_id").
		Where("users.manager_id = ? AND timesheets.year = ? AND timesheets.week_number = ?", caller.ID, year, week).
		Order("users.username asc, timesheet_entries.date asc, timesheet_entries.id asc").
		Scan(&rows).Error
	return rows, err
}

// ExportFilename names the CSV download for a week.
func ExportFilename(year, week int) string {
	return fmt.Sprintf("team_entries_%d_w%02d.csv", year, week)
}

// WriteTeamEntriesCSV writes rows with a header line.
func WriteTeamEntriesCSV(w io.Writer, rows []TeamEntryRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Employee", "Project", "Date", "Hours", "Description", "Status"}); err != nil {
		return err
	}
	for _, row := range rows {
		description := ""
		if row.Description != nil {
			description = *row.Description
		}
		record := []string{
			row.Username,
			row.ProjectName,
			row.Date.String(),
			strconv.FormatFloat(row.Hours, 'f', 2, 64),
			description,
			string(row.Status),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
