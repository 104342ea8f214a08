package services

import (
	"context"
	"errors"
	"strings"

	"timesheet/apperror"
	"timesheet/database"
	"timesheet/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type RegisterInput struct {
	Username  string      `json:"username" validate:"required,min=3,max=100"`
	Email     string      `json:"email" validate:"required,email,max=255"`
	Password  string      `json:"password" validate:"required,min=5"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=employee manager"`
	ManagerID *uint       `json:"manager_id"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=5"`
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = models.RoleEmployee
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hashedPassword),
		Role:      input.Role,
		ManagerID: input.ManagerID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("username already registered")
		}
		if err := tx.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("email already registered")
		}

		if input.ManagerID != nil {
			manager, err := findUser(tx, *input.ManagerID)
			if err != nil {
				if apperror.Is(err, apperror.KindNotFound) {
					return apperror.NotFound("manager with id %d not found", *input.ManagerID)
				}
				return err
			}
			if !manager.IsManager() {
				return apperror.Validation("assigned manager must have manager role")
			}
		}

		if err := tx.Create(user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperror.Conflict("username or email already registered")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user whose stored hash matches password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("incorrect username or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("incorrect username or password")
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return findUser(s.db.WithContext(ctx), id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	err := s.db.WithContext(ctx).Order("id asc").Find(&users).Error
	return users, err
}

// TeamMembers lists the direct reports of managerID.
func (s *UserService) TeamMembers(ctx context.Context, managerID uint) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	manager, err := findUser(db, managerID)
	if err != nil {
		return nil, err
	}
	if !manager.IsManager() {
		return nil, apperror.Validation("user is not a manager")
	}

	members := make([]models.User, 0)
	err = db.Where("manager_id = ?", manager.ID).Order("username asc").Find(&members).Error
	return members, err
}

func (s *UserService) ChangePassword(ctx context.Context, caller *models.User, input ChangePasswordInput) error {
	if err := validateInput(input); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, caller.ID)
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
			return apperror.Unauthorized("current password is incorrect")
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return tx.Model(user).Update("password", string(hashedPassword)).Error
	})
}

func findUser(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user with id %d not found", id)
		}
		return nil, err
	}
	return &user, nil
}
