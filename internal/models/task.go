package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Department string

const (
	DepartmentManagement Department = "yonetim"
	DepartmentStation    Department = "istasyon"
	DepartmentAccounting Department = "muhasebe"
	DepartmentShift      Department = "vardiya"
)

// TaskDepartments are the operational units a task can belong to.
var TaskDepartments = []Department{DepartmentStation, DepartmentAccounting, DepartmentShift}

// ValidForTask reports whether tasks may be filed under d.
func (d Department) ValidForTask() bool {
	for _, v := range TaskDepartments {
		if d == v {
			return true
		}
	}
	return false
}

func (d Department) Valid() bool {
	return d == DepartmentManagement || d.ValidForTask()
}

type Frequency string

const (
	FrequencyOnce      Frequency = "once"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is a catalog template. Rows are soft-deleted on re-import so that
// assignments keep resolving the task they were created from.
type Task struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string         `gorm:"type:varchar(500);not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Department    Department     `gorm:"type:varchar(32);not null;index" json:"department"`
	Frequency     Frequency      `gorm:"type:varchar(16);not null" json:"frequency"`
	Priority      Priority       `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`
	RequiresPhoto bool           `gorm:"not null;default:false" json:"requires_photo"`
	IsCustom      bool           `gorm:"not null;default:false;index" json:"is_custom"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
