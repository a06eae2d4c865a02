package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is an append-only manager annotation on an assignment.
type Comment struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	AssignmentID string    `gorm:"type:varchar(36);not null;index" json:"assignment_id"`
	UserID       string    `gorm:"type:varchar(36);not null" json:"user_id"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	CreatedAt    time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Comment) TableName() string {
	return "gm_comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
