package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleGeneralManager  Role = "general_manager"
	RoleSupervisor      Role = "supervisor"
	RoleShiftSupervisor Role = "shift_supervisor"
	RoleStaff           Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGeneralManager, RoleSupervisor, RoleShiftSupervisor, RoleStaff:
		return true
	}
	return false
}

// Supervises reports whether the role can own assignments and forward them.
func (r Role) Supervises() bool {
	return r == RoleSupervisor || r == RoleShiftSupervisor
}

type User struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Role         Role       `gorm:"type:varchar(32);not null;index" json:"role"`
	Department   Department `gorm:"type:varchar(32);not null;index" json:"department"`
	SupervisorID *string    `gorm:"type:varchar(36)" json:"supervisor_id"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
