package models

import (
	"time"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Username  string    `gorm:"uniqueIndex;not null;size:100" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      Role      `gorm:"not null;size:20;default:employee" json:"role"`
	ManagerID *uint     `gorm:"index" json:"manager_id"`
	Manager   *User     `gorm:"foreignKey:ManagerID;constraint:OnDelete:SET NULL" json:"-"`
	Entries   []Entry   `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) DisplayName() string {
	return u.Username
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

func (u *User) IsEmployee() bool {
	return u.Role == RoleEmployee
}

// ReportsTo reports whether managerID is this user's direct manager.
func (u *User) ReportsTo(managerID uint) bool {
	return u.ManagerID != nil && *u.ManagerID == managerID
}

// CanViewOwnedBy reports whether u may read records owned by owner: their own,
// or a direct report's when u is a manager.
func (u *User) CanViewOwnedBy(owner *User) bool {
	if u.ID == owner.ID {
		return true
	}
	return u.IsManager() && owner.ReportsTo(u.ID)
}
