package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/utils"
)

// ErrStaleWrite is returned by conditional updates that matched no row
// because the status or version moved underneath the caller.
var ErrStaleWrite = errors.New("repository: row changed since it was read")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email (case-insensitive)
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByIDs returns the users with the given IDs; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)

	// List lists users matching filter ordered by full name
	List(ctx context.Context, filter UserFilter) ([]models.User, error)

	// Update saves every column of user
	Update(ctx context.Context, user *models.User) error
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Roles      []models.Role
	Department *models.Department
	ActiveOnly bool
}

// TaskRepository defines the interface for task catalog access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID, including soft-deleted ones
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// List lists live tasks
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// ReplaceCatalog soft-deletes every non-custom task and inserts tasks in one transaction
	ReplaceCatalog(ctx context.Context, tasks []models.Task) (replaced int64, err error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Department *models.Department
	Custom     *bool
	ActiveOnly bool
}

// AssignmentRepository defines the interface for assignment data access
type AssignmentRepository interface {
	// Create creates a new assignment
	Create(ctx context.Context, a *models.Assignment) error

	// CreateBatch creates several assignments in one statement
	CreateBatch(ctx context.Context, list []models.Assignment) error

	// FindByID finds an assignment with its task, supervisor and staff loaded
	FindByID(ctx context.Context, id string) (*models.Assignment, error)

	// List retrieves assignments with filtering, list ordering and optional pagination
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error)

	// CountByStatus groups the filtered assignments by status and result
	CountByStatus(ctx context.Context, filter AssignmentFilter) ([]StatusCount, error)

	// UpdateIfCurrent writes next only if the stored row still has expectStatus
	// and next.Version. On success next.Version is advanced.
	UpdateIfCurrent(ctx context.Context, next *models.Assignment, expectStatus models.AssignmentStatus) error
}

// AssignmentFilter holds filtering options for listing assignments.
// Empty fields do not filter.
type AssignmentFilter struct {
	AssignedTo  string
	ForwardedTo string
	TaskID      string
	Department  *models.Department
	Statuses    []models.AssignmentStatus
	Result      *models.Result
	DateFrom    string
	DateTo      string
	// Page is ignored when Limit is zero.
	Page utils.PaginationParams
}

// StatusCount is one row of CountByStatus.
type StatusCount struct {
	Status models.AssignmentStatus
	Result *models.Result
	Count  int64
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// CreateBatch persists notifications in one statement
	CreateBatch(ctx context.Context, list []models.Notification) error

	// FindByID finds a notification by ID
	FindByID(ctx context.Context, id string) (*models.Notification, error)

	// ListUnread lists unread notifications of a user, newest first
	ListUnread(ctx context.Context, userID string, limit int) ([]models.Notification, error)

	// CountUnread counts unread notifications of a user
	CountUnread(ctx context.Context, userID string) (int64, error)

	// MarkRead marks a single notification read
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead marks every notification of a user read
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// ExpireBefore marks unread notifications created before cutoff read
	ExpireBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error)
}

// CommentRepository defines the interface for manager comments
type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Comment, error)
}

// SoundPreferenceRepository stores the per-user notification sound opt-in
type SoundPreferenceRepository interface {
	// Get returns the stored preference, or an unset one if none exists
	Get(ctx context.Context, userID string) (models.SoundPreference, error)

	// Save inserts or replaces the preference
	Save(ctx context.Context, pref *models.SoundPreference) error
}
