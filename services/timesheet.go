package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"timesheet/apperror"
	"timesheet/database"
	"timesheet/models"

	"gorm.io/gorm"
)

// TimesheetService drives the timesheet lifecycle. Every operation re-reads
// the stored timesheet and owner, so authorization never depends on anything
// but the caller's identity and current rows.
type TimesheetService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTimesheetService(db *gorm.DB) *TimesheetService {
	return &TimesheetService{db: db, now: time.Now}
}

type CreateTimesheetInput struct {
	WeekNumber int `json:"week_number" validate:"min=1,max=53"`
	Year       int `json:"year" validate:"min=2020,max=2030"`
}

const maxRejectionComment = 1000

type RejectTimesheetInput struct {
	RejectionComment string `json:"rejection_comment"`
}

// TimesheetDetail is a timesheet together with its entries.
type TimesheetDetail struct {
	models.Timesheet
	Entries []models.Entry `json:"entries"`
}

func (s *TimesheetService) Create(ctx context.Context, caller *models.User, input CreateTimesheetInput) (*models.Timesheet, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if weeks := models.WeeksInYear(input.Year); input.WeekNumber > weeks {
		return nil, apperror.Validation("year %d has only %d ISO weeks", input.Year, weeks)
	}

	timesheet := &models.Timesheet{
		EmployeeID: caller.ID,
		WeekNumber: input.WeekNumber,
		Year:       input.Year,
		Status:     models.StatusDraft,
	}
	if err := s.db.WithContext(ctx).Create(timesheet).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict("timesheet already exists for week %d, %d", input.WeekNumber, input.Year)
		}
		return nil, err
	}
	return timesheet, nil
}

func (s *TimesheetService) Submit(ctx context.Context, id uint, caller *models.User) (*models.Timesheet, error) {
	var result *models.Timesheet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		timesheet, err := findTimesheet(tx, id, true)
		if err != nil {
			return err
		}
		if !timesheet.OwnedBy(caller.ID) {
			return apperror.Forbidden("not your timesheet")
		}
		next, ok := timesheet.Status.Next(models.ActionSubmit)
		if !ok {
			return apperror.InvalidState("timesheet is not draft")
		}

		var entries int64
		if err := tx.Model(&models.Entry{}).Where("timesheet_id = ?", timesheet.ID).Count(&entries).Error; err != nil {
			return err
		}
		if entries == 0 {
			return apperror.InvalidState("cannot submit empty timesheet")
		}

		result, err = transition(tx, timesheet, next, map[string]interface{}{
			"submitted_at": s.now().UTC(),
		})
		return err
	})
	return result, err
}

func (s *TimesheetService) Approve(ctx context.Context, id uint, caller *models.User) (*models.Timesheet, error) {
	return s.review(ctx, id, caller, models.ActionApprove, nil)
}

func (s *TimesheetService) Reject(ctx context.Context, id uint, input RejectTimesheetInput, caller *models.User) (*models.Timesheet, error) {
	comment := strings.TrimSpace(input.RejectionComment)
	if comment == "" {
		return nil, apperror.Validation("rejection comment is required")
	}
	if len(comment) > maxRejectionComment {
		return nil, apperror.Validation("rejection comment must be at most %d characters", maxRejectionComment)
	}
	return s.review(ctx, id, caller, models.ActionReject, &comment)
}

// review applies approve or reject. The caller must be a manager, must not
// own the timesheet, and must be the owner's direct manager.
func (s *TimesheetService) review(ctx context.Context, id uint, caller *models.User, action models.Action, comment *string) (*models.Timesheet, error) {
	var result *models.Timesheet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		timesheet, err := findTimesheet(tx, id, true)
		if err != nil {
			return err
		}
		if err := authorizeReview(tx, timesheet, caller); err != nil {
			return err
		}
		next, ok := timesheet.Status.Next(action)
		if !ok {
			return apperror.InvalidState("timesheet not in submitted status")
		}

		fields := map[string]interface{}{
			"reviewed_at": s.now().UTC(),
			"reviewed_by": caller.ID,
		}
		if comment != nil {
			fields["rejection_comment"] = *comment
		}
		result, err = transition(tx, timesheet, next, fields)
		return err
	})
	return result, err
}

func authorizeReview(tx *gorm.DB, timesheet *models.Timesheet, caller *models.User) error {
	if !caller.IsManager() {
		return apperror.Forbidden("user is not a manager")
	}
	if timesheet.OwnedBy(caller.ID) {
		return apperror.Forbidden("cannot review your own timesheet")
	}
	owner, err := findUser(tx, timesheet.EmployeeID)
	if err != nil && !apperror.Is(err, apperror.KindNotFound) {
		return err
	}
	if owner == nil || !owner.ReportsTo(caller.ID) {
		return apperror.Forbidden("not the employee's manager")
	}
	return nil
}

// transition moves timesheet to next, guarded on its current status so that
// two racing transitions cannot both succeed.
func transition(tx *gorm.DB, timesheet *models.Timesheet, next models.Status, fields map[string]interface{}) (*models.Timesheet, error) {
	fields["status"] = next
	res := tx.Model(&models.Timesheet{}).
		Where("id = ? AND status = ?", timesheet.ID, timesheet.Status).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperror.InvalidState("timesheet %d was modified concurrently", timesheet.ID)
	}
	return findTimesheet(tx, timesheet.ID, false)
}

// Delete removes a draft timesheet and its entries.
func (s *TimesheetService) Delete(ctx context.Context, id uint, caller *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		timesheet, err := findTimesheet(tx, id, true)
		if err != nil {
			return err
		}
		if !timesheet.OwnedBy(caller.ID) {
			return apperror.Forbidden("not your timesheet")
		}
		if !timesheet.IsDraft() {
			return apperror.InvalidState("only draft timesheets can be deleted")
		}
		if err := tx.Where("timesheet_id = ?", timesheet.ID).Delete(&models.Entry{}).Error; err != nil {
			return err
		}
		return tx.Delete(timesheet).Error
	})
}

func (s *TimesheetService) ListForOwner(ctx context.Context, ownerID uint, filter models.TimesheetFilter) ([]TimesheetSummary, error) {
	db := s.db.WithContext(ctx)
	query := db.Where("employee_id = ?", ownerID)
	if filter.Status != nil {
		if !filter.Status.Valid() {
			return nil, apperror.Validation("invalid status %q", *filter.Status)
		}
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.WeekNumber != nil {
		query = query.Where("week_number = ?", *filter.WeekNumber)
	}

	var timesheets []models.Timesheet
	if err := query.Order("year desc, week_number desc").Find(&timesheets).Error; err != nil {
		return nil, err
	}
	return summarize(db, timesheets, false)
}

func (s *TimesheetService) ListPendingForManager(ctx context.Context, caller *models.User) ([]TimesheetSummary, error) {
	if !caller.IsManager() {
		return nil, apperror.Forbidden("user is not a manager")
	}

	db := s.db.WithContext(ctx)
	var timesheets []models.Timesheet
	err := db.Preload("Employee").
		Joins("JOIN users ON users.id = timesheets.employee_id").
		Where("timesheets.status = ? AND users.manager_id = ?", models.StatusSubmitted, caller.ID).
		Order("timesheets.submitted_at asc, timesheets.id asc").
		Find(&timesheets).Error
	if err != nil {
		return nil, err
	}
	return summarize(db, timesheets, true)
}

// GetWithEntries returns a timesheet and its entries. Managers may read their
// own timesheets and their direct reports'; employees only their own.
func (s *TimesheetService) GetWithEntries(ctx context.Context, id uint, caller *models.User) (*TimesheetDetail, error) {
	db := s.db.WithContext(ctx)
	timesheet, err := findTimesheet(db, id, false)
	if err != nil {
		return nil, err
	}

	if !timesheet.OwnedBy(caller.ID) {
		if !caller.IsManager() {
			return nil, apperror.Forbidden("not your timesheet")
		}
		owner, err := findUser(db, timesheet.EmployeeID)
		if err != nil && !apperror.Is(err, apperror.KindNotFound) {
			return nil, err
		}
		if owner == nil || !owner.ReportsTo(caller.ID) {
			return nil, apperror.Forbidden("not the employee's manager")
		}
	}

	entries := make([]models.Entry, 0)
	if err := db.Where("timesheet_id = ?", timesheet.ID).Order("date asc, id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return &TimesheetDetail{Timesheet: *timesheet, Entries: entries}, nil
}

func findTimesheet(tx *gorm.DB, id uint, lock bool) (*models.Timesheet, error) {
	query := tx
	if lock {
		query = database.ForUpdate(tx)
	}
	var timesheet models.Timesheet
	if err := query.First(&timesheet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("timesheet doesn't exist")
		}
		return nil, err
	}
	return &timesheet, nil
}
