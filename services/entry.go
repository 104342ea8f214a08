package services

import (
	"context"
	"errors"

	"timesheet/apperror"
	"timesheet/models"

	"gorm.io/gorm"
)

type EntryService struct {
	db *gorm.DB
}

func NewEntryService(db *gorm.DB) *EntryService {
	return &EntryService{db: db}
}

type CreateEntryInput struct {
	TimesheetID uint        `json:"timesheet_id" validate:"required"`
	ProjectID   uint        `json:"project_id" validate:"required"`
	Date        models.Date `json:"date"`
	Hours       float64     `json:"hours"`
	Description *string     `json:"description" validate:"omitempty,max=500"`
}

// UpdateEntryInput is a partial update; nil fields are left untouched.
type UpdateEntryInput struct {
	ProjectID   *uint        `json:"project_id"`
	Date        *models.Date `json:"date"`
	Hours       *float64     `json:"hours"`
	Description *string      `json:"description" validate:"omitempty,max=500"`
}

func (s *EntryService) Create(ctx context.Context, input CreateEntryInput, caller *models.User) (*models.Entry, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, apperror.Validation("date is required")
	}

	var entry *models.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		timesheet, err := findTimesheet(tx, input.TimesheetID, true)
		if err != nil {
			return err
		}
		if !timesheet.OwnedBy(caller.ID) {
			return apperror.Forbidden("not your timesheet")
		}
		if !timesheet.IsDraft() {
			return apperror.InvalidState("cannot add entries to non-draft timesheet")
		}
		if err := checkEntryDate(timesheet, input.Date); err != nil {
			return err
		}
		if err := checkProjectExists(tx, input.ProjectID); err != nil {
			return err
		}
		if err := checkHours(input.Hours); err != nil {
			return err
		}

		entry = &models.Entry{
			EmployeeID:  caller.ID,
			TimesheetID: timesheet.ID,
			ProjectID:   input.ProjectID,
			Date:        input.Date,
			Hours:       input.Hours,
			Description: input.Description,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) Update(ctx context.Context, id uint, input UpdateEntryInput, caller *models.User) (*models.Entry, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var entry *models.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = findEntry(tx, id)
		if err != nil {
			return err
		}
		if entry.EmployeeID != caller.ID {
			return apperror.Forbidden("you can only update your own entries")
		}
		timesheet, err := findTimesheet(tx, entry.TimesheetID, true)
		if err != nil {
			return err
		}
		if !timesheet.IsDraft() {
			return apperror.InvalidState("cannot modify entries of non-draft timesheet")
		}

		if input.ProjectID != nil {
			if err := checkProjectExists(tx, *input.ProjectID); err != nil {
				return err
			}
			entry.ProjectID = *input.ProjectID
		}
		if input.Date != nil {
			if err := checkEntryDate(timesheet, *input.Date); err != nil {
				return err
			}
			entry.Date = *input.Date
		}
		if input.Hours != nil {
			if err := checkHours(*input.Hours); err != nil {
				return err
			}
			entry.Hours = *input.Hours
		}
		if input.Description != nil {
			entry.Description = input.Description
		}
		return tx.Save(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) Delete(ctx context.Context, id uint, caller *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := findEntry(tx, id)
		if err != nil {
			return err
		}
		if entry.EmployeeID != caller.ID {
			return apperror.Forbidden("you can only delete your own entries")
		}
		timesheet, err := findTimesheet(tx, entry.TimesheetID, true)
		if err != nil {
			return err
		}
		if !timesheet.IsDraft() {
			return apperror.InvalidState("cannot delete entries of non-draft timesheet")
		}
		return tx.Delete(entry).Error
	})
}

// Get returns an entry visible to its owner and the owner's direct manager.
func (s *EntryService) Get(ctx context.Context, id uint, caller *models.User) (*models.Entry, error) {
	db := s.db.WithContext(ctx)
	entry, err := findEntry(db, id)
	if err != nil {
		return nil, err
	}
	if entry.EmployeeID == caller.ID {
		return entry, nil
	}
	owner, err := findUser(db, entry.EmployeeID)
	if err != nil && !apperror.Is(err, apperror.KindNotFound) {
		return nil, err
	}
	if owner == nil || !caller.CanViewOwnedBy(owner) {
		return nil, apperror.Forbidden("not authorized to view this entry")
	}
	return entry, nil
}

func (s *EntryService) ListOwn(ctx context.Context, employeeID uint) ([]models.Entry, error) {
	entries := make([]models.Entry, 0)
	err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("date desc, id desc").
		Find(&entries).Error
	return entries, err
}

// ListForManagerTeam returns every entry written by the caller's direct reports.
func (s *EntryService) ListForManagerTeam(ctx context.Context, caller *models.User) ([]models.Entry, error) {
	if !caller.IsManager() {
		return nil, apperror.Forbidden("user is not a manager")
	}

	db := s.db.WithContext(ctx)
	var teamIDs []uint
	if err := db.Model(&models.User{}).Where("manager_id = ?", caller.ID).Pluck("id", &teamIDs).Error; err != nil {
		return nil, err
	}

	entries := make([]models.Entry, 0)
	if len(teamIDs) == 0 {
		return entries, nil
	}
	err := db.Where("employee_id IN ?", teamIDs).
		Order("date desc, id desc").
		Find(&entries).Error
	return entries, err
}

func checkEntryDate(timesheet *models.Timesheet, date models.Date) error {
	if !timesheet.Contains(date) {
		return apperror.Validation("date %s is not in week %d of %d", date, timesheet.WeekNumber, timesheet.Year)
	}
	return nil
}

func checkHours(hours float64) error {
	if hours <= models.MinHoursExclusive {
		return apperror.Validation("hours must be greater than 0")
	}
	if hours > models.MaxHours {
		return apperror.Validation("hours cannot exceed %d in a single day", models.MaxHours)
	}
	return nil
}

func checkProjectExists(tx *gorm.DB, projectID uint) error {
	var count int64
	if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperror.NotFound("project with id %d not found", projectID)
	}
	return nil
}

func findEntry(tx *gorm.DB, id uint) (*models.Entry, error) {
	var entry models.Entry
	if err := tx.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("timesheet entry with id %d not found", id)
		}
		return nil, err
	}
	return &entry, nil
}
