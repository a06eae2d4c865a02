package dto

import "github.com/fuelops/task-tracker/internal/models"

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Email        string            `json:"email" binding:"required"`
	Password     string            `json:"password" binding:"required"`
	FullName     string            `json:"full_name" binding:"required"`
	Role         models.Role       `json:"role" binding:"required"`
	Department   models.Department `json:"department" binding:"required"`
	SupervisorID *string           `json:"supervisor_id"`
}

// UpdateUserRequest is the body of PATCH /users/:id; absent fields are unchanged
type UpdateUserRequest struct {
	FullName     *string            `json:"full_name"`
	Password     *string            `json:"password"`
	Role         *models.Role       `json:"role"`
	Department   *models.Department `json:"department"`
	SupervisorID *string            `json:"supervisor_id"`
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title         string            `json:"title" binding:"required"`
	Description   string            `json:"description"`
	Department    models.Department `json:"department" binding:"required"`
	Priority      models.Priority   `json:"priority"`
	RequiresPhoto bool              `json:"requires_photo"`
	AssignDate    string            `json:"assign_date"`
}

// GenerateTasksRequest is the body of POST /tasks/generate
type GenerateTasksRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreateAssignmentRequest is the body of POST /assignments
type CreateAssignmentRequest struct {
	TaskID       string `json:"task_id" binding:"required"`
	AssignedTo   string `json:"assigned_to" binding:"required"`
	AssignedDate string `json:"assigned_date"`
}

// ForwardRequest is the body of POST /assignments/:id/forward
type ForwardRequest struct {
	StaffID string `json:"staff_id" binding:"required"`
	Note    string `json:"note"`
}

// SubmitRequest is the JSON form of POST /assignments/:id/submit.
// Files come as multipart "files" with a "notes" field instead.
type SubmitRequest struct {
	Notes string `json:"notes" form:"notes"`
}

// ApproveRequest is the JSON form of POST /assignments/:id/approve
type ApproveRequest struct {
	Result models.Result `json:"result" form:"result" binding:"required"`
	Notes  string        `json:"notes" form:"notes"`
}

// RejectRequest is the body of POST /assignments/:id/reject
type RejectRequest struct {
	Notes string `json:"notes"`
}

// CommentRequest is the body of POST /assignments/:id/comments
type CommentRequest struct {
	Text string `json:"text"`
}

// SoundPreferenceRequest is the body of PUT /notifications/sound
type SoundPreferenceRequest struct {
	State models.SoundPreferenceState `json:"state" binding:"required"`
}
