package services

import (
	"context"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/notify"
	"github.com/fuelops/task-tracker/internal/repository"
	"github.com/fuelops/task-tracker/internal/spreadsheet"
)

var (
	ErrTitleRequired   = apierrors.Validation("title is required")
	ErrInvalidPriority = apierrors.Validation("priority must be low, medium or high")
	ErrNoSupervisors   = apierrors.Validation("the department has no active supervisor to assign to")
)

// CatalogService manages the task catalog.
type CatalogService struct {
	tasks       repository.TaskRepository
	users       repository.UserRepository
	assignments *AssignmentService
	notifier    *NotificationService
	ai          *AIService
	log         *zap.Logger
}

// NewCatalogService creates a new CatalogService. ai may be nil when drafting is not configured.
func NewCatalogService(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	assignments *AssignmentService,
	notifier *NotificationService,
	ai *AIService,
	log *zap.Logger,
) *CatalogService {
	return &CatalogService{
		tasks:       tasks,
		users:       users,
		assignments: assignments,
		notifier:    notifier,
		ai:          ai,
		log:         log,
	}
}

// ListTasksInput represents filters for listing catalog tasks
type ListTasksInput struct {
	Department string
	CustomOnly bool
}

// ImportResult summarizes a catalog replacement
type ImportResult struct {
	Imported int   `json:"imported"`
	Replaced int64 `json:"replaced"`
}

// CreateTaskInput represents an ad-hoc task created by the general manager.
// A non-empty AssignDate also assigns it to the department's supervisors.
type CreateTaskInput struct {
	Title         string
	Description   string
	Department    models.Department
	Priority      models.Priority
	RequiresPhoto bool
	AssignDate    string
}

// CreateTaskResult is the created task and any assignments made for it
type CreateTaskResult struct {
	Task        *models.Task        `json:"task"`
	Assignments []models.Assignment `json:"assignments"`
}

// List returns live catalog tasks
func (s *CatalogService) List(ctx context.Context, input ListTasksInput) ([]models.Task, error) {
	filter := repository.TaskFilter{}
	if input.Department != "" {
		dept := models.Department(input.Department)
		if !dept.ValidForTask() {
			return nil, ErrInvalidDepartment
		}
		filter.Department = &dept
	}
	if input.CustomOnly {
		custom := true
		filter.Custom = &custom
	}

	var tasks []models.Task
	err := retryRead(ctx, func() error {
		var err error
		tasks, err = s.tasks.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, storeFailure("list tasks", err)
	}
	return tasks, nil
}

// Import replaces the non-custom catalog with the workbook's rows. Any bad
// row rejects the whole file and nothing is written.
func (s *CatalogService) Import(ctx context.Context, user *models.User, r io.Reader) (*ImportResult, error) {
	if !isGeneralManager(user) {
		return nil, ErrGeneralManagerOnly
	}

	rows, err := spreadsheet.ParseCatalog(r)
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, models.Task{
			Title:         row.Title,
			Description:   row.Description,
			Department:    row.Department,
			Frequency:     row.Frequency,
			Priority:      models.PriorityMedium,
			RequiresPhoto: row.RequiresPhoto,
			IsCustom:      false,
			IsActive:      true,
		})
	}

	replaced, err := s.tasks.ReplaceCatalog(ctx, tasks)
	if err != nil {
		return nil, storeFailure("replace catalog", err)
	}

	s.log.Info("catalog imported",
		zap.String("user_id", user.ID),
		zap.Int("imported", len(tasks)),
		zap.Int64("replaced", replaced),
	)
	return &ImportResult{Imported: len(tasks), Replaced: replaced}, nil
}

// Export writes every active task in the import format
func (s *CatalogService) Export(ctx context.Context, w io.Writer) error {
	var tasks []models.Task
	err := retryRead(ctx, func() error {
		var err error
		tasks, err = s.tasks.List(ctx, repository.TaskFilter{ActiveOnly: true})
		return err
	})
	if err != nil {
		return storeFailure("list tasks", err)
	}
	return spreadsheet.WriteCatalog(w, tasks)
}

// CreateCustom adds an ad-hoc task, notifies the department's supervisors,
// and optionally assigns it to each of them for AssignDate.
func (s *CatalogService) CreateCustom(ctx context.Context, user *models.User, input CreateTaskInput) (*CreateTaskResult, error) {
	if !isGeneralManager(user) {
		return nil, ErrGeneralManagerOnly
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !input.Department.ValidForTask() {
		return nil, ErrInvalidDepartment
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if input.AssignDate != "" {
		if _, err := time.Parse(constants.DateLayout, input.AssignDate); err != nil {
			return nil, ErrInvalidDate
		}
	}

	dept := input.Department
	supervisors, err := s.users.List(ctx, repository.UserFilter{
		Roles:      []models.Role{models.RoleSupervisor, models.RoleShiftSupervisor},
		Department: &dept,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, storeFailure("list supervisors", err)
	}
	if input.AssignDate != "" && len(supervisors) == 0 {
		return nil, ErrNoSupervisors
	}

	task := &models.Task{
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Department:    input.Department,
		Frequency:     models.FrequencyOnce,
		Priority:      input.Priority,
		RequiresPhoto: input.RequiresPhoto,
		IsCustom:      true,
		IsActive:      true,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, storeFailure("create task", err)
	}

	result := &CreateTaskResult{Task: task, Assignments: []models.Assignment{}}
	if input.AssignDate != "" {
		for _, sup := range supervisors {
			a, err := s.assignments.Create(ctx, user, CreateAssignmentInput{
				TaskID:       task.ID,
				AssignedTo:   sup.ID,
				AssignedDate: input.AssignDate,
			})
			if err != nil {
				return nil, err
			}
			result.Assignments = append(result.Assignments, *a)
		}
		return result, nil
	}

	if s.notifier != nil {
		if _, err := s.notifier.Dispatch(ctx, notify.Event{
			Kind:       notify.EventTaskCreated,
			Task:       *task,
			Actor:      *user,
			Candidates: supervisors,
		}); err != nil {
			s.log.Warn("failed to notify supervisors", zap.String("task_id", task.ID), zap.Error(err))
		}
	}
	return result, nil
}

// GenerateDrafts suggests ad-hoc tasks from free text. Nothing is saved.
func (s *CatalogService) GenerateDrafts(ctx context.Context, user *models.User, text string) ([]TaskDraft, error) {
	if !isGeneralManager(user) {
		return nil, ErrGeneralManagerOnly
	}
	if s.ai == nil {
		return nil, ErrAIServiceNotConfigured
	}
	return s.ai.DraftTasks(ctx, text)
}
