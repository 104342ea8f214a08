package services

import (
	"context"
	"errors"
	"strings"

	"timesheet/apperror"
	"timesheet/database"
	"timesheet/models"

	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// Create adds a project. Only managers may create projects.
func (s *ProjectService) Create(ctx context.Context, caller *models.User, input CreateProjectInput) (*models.Project, error) {
	if !caller.IsManager() {
		return nil, apperror.Forbidden("only managers can create projects")
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	project := &models.Project{Name: input.Name, Description: input.Description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Project{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("project name already exists")
		}
		if err := tx.Create(project).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperror.Conflict("project name already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("project with id %d not found", id)
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects := make([]models.Project, 0)
	err := s.db.WithContext(ctx).Order("name asc").Find(&projects).Error
	return projects, err
}
