package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Message      string    `gorm:"type:text" json:"message"`
	AssignmentID *string   `gorm:"type:varchar(36)" json:"assignment_id"`
	IsRead       bool      `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

type SoundPreferenceState string

const (
	SoundUnset     SoundPreferenceState = "unset"
	SoundEnabled   SoundPreferenceState = "enabled"
	SoundDismissed SoundPreferenceState = "dismissed"
)

func (s SoundPreferenceState) Valid() bool {
	return s == SoundUnset || s == SoundEnabled || s == SoundDismissed
}

// SoundPreference is the per-user opt-in for notification sounds.
type SoundPreference struct {
	UserID      string               `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	State       SoundPreferenceState `gorm:"type:varchar(16);not null;default:'unset'" json:"state"`
	DismissedAt *time.Time           `json:"dismissed_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func (SoundPreference) TableName() string {
	return "notification_sound_preferences"
}
