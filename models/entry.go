package models

import (
	"time"
)

type Entry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	EmployeeID  uint      `gorm:"not null;index" json:"employee_id"`
	TimesheetID uint      `gorm:"not null;index" json:"timesheet_id"`
	ProjectID   uint      `gorm:"not null;index" json:"project_id"`
	Project     *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Date        Date      `gorm:"not null" json:"date"`
	Hours       float64   `gorm:"not null" json:"hours"`
	Description *string   `gorm:"size:500" json:"description"`
}

func (Entry) TableName() string {
	return "timesheet_entries"
}

const (
	MinHoursExclusive = 0
	MaxHours          = 24
)

// ValidHours reports whether h lies in (0, 24].
func ValidHours(h float64) bool {
	return h > MinHoursExclusive && h <= MaxHours
}
