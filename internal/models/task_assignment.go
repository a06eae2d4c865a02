package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	StatusPending    AssignmentStatus = "pending"
	StatusForwarded  AssignmentStatus = "forwarded"
	StatusInProgress AssignmentStatus = "in_progress"
	StatusSubmitted  AssignmentStatus = "submitted"
	StatusCompleted  AssignmentStatus = "completed"
	StatusRejected   AssignmentStatus = "rejected"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusForwarded, StatusInProgress, StatusSubmitted, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

type Result string

const (
	ResultPositive Result = "olumlu"
	ResultNegative Result = "olumsuz"
)

func (r Result) Valid() bool {
	return r == ResultPositive || r == ResultNegative
}

// Attachment is one uploaded evidence file, stored inline on its assignment.
type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Key        string    `json:"key"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"`
}

// Assignment is one instance of a Task given to a supervisor for a date.
// Rows are never deleted. Every write goes through a conditional update on
// (id, status, version).
type Assignment struct {
	ID              string                          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TaskID          string                          `gorm:"type:varchar(36);not null;index" json:"task_id"`
	AssignedTo      string                          `gorm:"type:varchar(36);not null;index" json:"assigned_to"`
	ForwardedTo     *string                         `gorm:"type:varchar(36);index" json:"forwarded_to"`
	AssignedDate    string                          `gorm:"type:varchar(10);not null;index" json:"assigned_date"`
	Status          AssignmentStatus                `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Result          *Result                         `gorm:"type:varchar(16)" json:"result"`
	Attachments     datatypes.JSONSlice[Attachment] `json:"attachments"`
	StaffNotes      string                          `gorm:"type:text" json:"staff_notes"`
	SupervisorNotes string                          `gorm:"type:text" json:"supervisor_notes"`
	ForwardedAt     *time.Time                      `json:"forwarded_at"`
	SubmittedAt     *time.Time                      `json:"submitted_at"`
	CompletedAt     *time.Time                      `json:"completed_at"`
	Version         int64                           `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time                       `json:"created_at"`
	UpdatedAt       time.Time                       `json:"updated_at"`

	// Relations
	Task       Task  `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Supervisor User  `gorm:"foreignKey:AssignedTo" json:"-"`
	Staff      *User `gorm:"foreignKey:ForwardedTo" json:"-"`
}

func (Assignment) TableName() string {
	return "task_assignments"
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	if a.Attachments == nil {
		a.Attachments = datatypes.JSONSlice[Attachment]{}
	}
	return nil
}
