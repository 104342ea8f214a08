package models

import (
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

var AllStatuses = []Status{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Action is a lifecycle operation applied to a timesheet.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var AllActions = []Action{ActionSubmit, ActionApprove, ActionReject}

// transitions is the complete lifecycle: any (status, action) pair missing
// here is illegal. Approved and rejected are terminal.
var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionSubmit: StatusSubmitted,
	},
	StatusSubmitted: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
}

// Next returns the status reached by applying a to s, and false when the
// transition is not allowed.
func (s Status) Next(a Action) (Status, bool) {
	next, ok := transitions[s][a]
	return next, ok
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

type Timesheet struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	EmployeeID       uint       `gorm:"not null;uniqueIndex:idx_timesheet_employee_week" json:"employee_id"`
	Employee         *User      `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"-"`
	WeekNumber       int        `gorm:"not null;uniqueIndex:idx_timesheet_employee_week" json:"week_number"`
	Year             int        `gorm:"not null;uniqueIndex:idx_timesheet_employee_week" json:"year"`
	Status           Status     `gorm:"not null;size:20;default:draft;index" json:"status"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	ReviewedBy       *uint      `json:"reviewed_by"`
	Reviewer         *User      `gorm:"foreignKey:ReviewedBy;constraint:OnDelete:SET NULL" json:"-"`
	RejectionComment *string    `gorm:"size:1000" json:"rejection_comment"`
	Entries          []Entry    `gorm:"foreignKey:TimesheetID;constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Timesheet) IsDraft() bool {
	return t.Status == StatusDraft
}

func (t *Timesheet) OwnedBy(userID uint) bool {
	return t.EmployeeID == userID
}

// Contains reports whether d falls in the timesheet's ISO week.
func (t *Timesheet) Contains(d Date) bool {
	year, week := d.ISOWeek()
	return year == t.Year && week == t.WeekNumber
}

// TimesheetFilter narrows ListForOwner; nil fields are not applied.
type TimesheetFilter struct {
	Status     *Status
	Year       *int
	WeekNumber *int
}
