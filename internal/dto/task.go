package dto

import (
	"time"

	"github.com/fuelops/task-tracker/internal/lifecycle"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	FullName     string            `json:"full_name"`
	Role         models.Role       `json:"role"`
	Department   models.Department `json:"department"`
	SupervisorID *string           `json:"supervisor_id"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
}

// UserSummaryDTO is the name card embedded in other resources
type UserSummaryDTO struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// TaskDTO represents a catalog task in API responses
type TaskDTO struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Department    models.Department `json:"department"`
	Frequency     models.Frequency  `json:"frequency"`
	Priority      models.Priority   `json:"priority"`
	RequiresPhoto bool              `json:"requires_photo"`
	IsCustom      bool              `json:"is_custom"`
	IsActive      bool              `json:"is_active"`
	CreatedAt     time.Time         `json:"created_at"`
}

// AssignmentDTO represents an assignment with its read-time delay label and
// the actions the viewer may take.
type AssignmentDTO struct {
	ID              string                  `json:"id"`
	TaskID          string                  `json:"task_id"`
	AssignedDate    string                  `json:"assigned_date"`
	Status          models.AssignmentStatus `json:"status"`
	Result          *models.Result          `json:"result"`
	StaffNotes      string                  `json:"staff_notes"`
	SupervisorNotes string                  `json:"supervisor_notes"`
	Attachments     []models.Attachment     `json:"attachments"`
	ForwardedAt     *time.Time              `json:"forwarded_at"`
	SubmittedAt     *time.Time              `json:"submitted_at"`
	CompletedAt     *time.Time              `json:"completed_at"`
	Version         int64                   `json:"version"`
	Delay           lifecycle.Delay         `json:"delay"`
	DelayLabel      string                  `json:"delay_label"`
	Actions         []lifecycle.CommandName `json:"actions"`
	Task            TaskDTO                 `json:"task"`
	Supervisor      UserSummaryDTO          `json:"supervisor"`
	Staff           *UserSummaryDTO         `json:"staff"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// AssignmentListResponse represents a paginated list of assignments
type AssignmentListResponse struct {
	Assignments []AssignmentDTO          `json:"assignments"`
	Pagination  utils.PaginationResponse `json:"pagination"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role,
		Department:   user.Department,
		SupervisorID: user.SupervisorID,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserDTO(u))
	}
	return out
}

func toUserSummary(user models.User) UserSummaryDTO {
	return UserSummaryDTO{ID: user.ID, FullName: user.FullName}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Department:    task.Department,
		Frequency:     task.Frequency,
		Priority:      task.Priority,
		RequiresPhoto: task.RequiresPhoto,
		IsCustom:      task.IsCustom,
		IsActive:      task.IsActive,
		CreatedAt:     task.CreatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskDTO(t))
	}
	return out
}

// ToAssignmentDTO converts an assignment as seen by viewer.
func ToAssignmentDTO(a models.Assignment, delay lifecycle.Delay, viewer models.User) AssignmentDTO {
	attachments := []models.Attachment(a.Attachments)
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	actions := lifecycle.Actions(a, lifecycle.ActorFromUser(viewer))
	if actions == nil {
		actions = []lifecycle.CommandName{}
	}

	out := AssignmentDTO{
		ID:              a.ID,
		TaskID:          a.TaskID,
		AssignedDate:    a.AssignedDate,
		Status:          a.Status,
		Result:          a.Result,
		StaffNotes:      a.StaffNotes,
		SupervisorNotes: a.SupervisorNotes,
		Attachments:     attachments,
		ForwardedAt:     a.ForwardedAt,
		SubmittedAt:     a.SubmittedAt,
		CompletedAt:     a.CompletedAt,
		Version:         a.Version,
		Delay:           delay,
		DelayLabel:      delay.String(),
		Actions:         actions,
		Task:            ToTaskDTO(a.Task),
		Supervisor:      toUserSummary(a.Supervisor),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if a.Staff != nil {
		staff := toUserSummary(*a.Staff)
		out.Staff = &staff
	}
	return out
}
