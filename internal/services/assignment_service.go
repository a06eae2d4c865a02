package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/lifecycle"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/notify"
	"github.com/fuelops/task-tracker/internal/repository"
	"github.com/fuelops/task-tracker/internal/spreadsheet"
	"github.com/fuelops/task-tracker/internal/utils"
)

var (
	ErrAssignmentNotFound  = apierrors.NotFound("assignment not found")
	ErrAssignmentForbidden = apierrors.Authorization("you do not have access to this assignment")
	ErrAssignmentReadOnly  = apierrors.Conflict("completed assignments cannot be changed")
	ErrConcurrentUpdate    = apierrors.Conflict("assignment was changed by someone else, reload and try again")
	ErrInvalidDate         = apierrors.Validation("date must be in YYYY-MM-DD format")
	ErrInvalidStatus       = apierrors.Validation("unknown status")
	ErrInvalidDepartment   = apierrors.Validation("unknown department")
	ErrGeneralManagerOnly  = apierrors.Authorization("only the general manager can do this")
	ErrTaskNotFound        = apierrors.NotFound("task not found")
	ErrTaskUnavailable     = apierrors.Validation("task is no longer in the catalog")
	ErrSupervisorMismatch  = apierrors.Validation("assignee must be an active supervisor of the task's department")
)

// AssignmentService runs assignment reads and every lifecycle transition.
type AssignmentService struct {
	assignments repository.AssignmentRepository
	tasks       repository.TaskRepository
	users       repository.UserRepository
	attachments *AttachmentService
	notifier    *NotificationService
	log         *zap.Logger
	loc         *time.Location
	now         func() time.Time
}

// NewAssignmentService creates a new AssignmentService. loc is the business
// timezone used for dates and delay labels.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	tasks repository.TaskRepository,
	users repository.UserRepository,
	attachments *AttachmentService,
	notifier *NotificationService,
	loc *time.Location,
	log *zap.Logger,
) *AssignmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AssignmentService{
		assignments: assignments,
		tasks:       tasks,
		users:       users,
		attachments: attachments,
		notifier:    notifier,
		log:         log,
		loc:         loc,
		now:         time.Now,
	}
}

// ListAssignmentsInput represents filters for listing assignments
type ListAssignmentsInput struct {
	Department string
	Status     string
	Result     string
	Query      string
	StartDate  string
	EndDate    string
	Page       utils.PaginationParams
}

// CreateAssignmentInput represents a manual assignment by the general manager
type CreateAssignmentInput struct {
	TaskID       string
	AssignedTo   string
	AssignedDate string
}

// Stats are the dashboard counters. Forwarded includes in_progress.
type Stats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Forwarded int64 `json:"forwarded"`
	Submitted int64 `json:"submitted"`
	Rejected  int64 `json:"rejected"`
	Completed int64 `json:"completed"`
	Positive  int64 `json:"positive"`
	Negative  int64 `json:"negative"`
	Open      int64 `json:"open"`
}

// Today is the current business date.
func (s *AssignmentService) Today() string {
	return s.now().In(s.loc).Format(constants.DateLayout)
}

// Delay labels an assignment at read time.
func (s *AssignmentService) Delay(a models.Assignment) lifecycle.Delay {
	return lifecycle.ClassifyDelay(a, s.now(), s.loc)
}

// List returns the assignments user may see, in list order.
func (s *AssignmentService) List(ctx context.Context, user *models.User, input ListAssignmentsInput) ([]models.Assignment, int64, error) {
	filter, err := s.buildFilter(user, input)
	if err != nil {
		return nil, 0, err
	}

	query := strings.TrimSpace(input.Query)
	if query == "" {
		filter.Page = input.Page
	}

	var list []models.Assignment
	var total int64
	err = retryRead(ctx, func() error {
		var err error
		list, total, err = s.assignments.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, storeFailure("list assignments", err)
	}

	if query == "" {
		return list, total, nil
	}

	// Search folds Turkish case, which SQL LIKE cannot do portably.
	matched := list[:0]
	for _, a := range list {
		if matchesQuery(a, query) {
			matched = append(matched, a)
		}
	}
	total = int64(len(matched))
	if input.Page.Limit > 0 {
		start := min(input.Page.Offset, len(matched))
		end := min(start+input.Page.Limit, len(matched))
		matched = matched[start:end]
	}
	return matched, total, nil
}

func matchesQuery(a models.Assignment, q string) bool {
	if utils.ContainsFold(a.Task.Title, q) {
		return true
	}
	if a.Staff != nil && utils.ContainsFold(a.Staff.FullName, q) {
		return true
	}
	return utils.ContainsFold(a.Supervisor.FullName, q)
}

// Stats counts the assignments user may see under the same filters as List.
func (s *AssignmentService) Stats(ctx context.Context, user *models.User, input ListAssignmentsInput) (*Stats, error) {
	filter, err := s.buildFilter(user, input)
	if err != nil {
		return nil, err
	}

	var rows []repository.StatusCount
	err = retryRead(ctx, func() error {
		var err error
		rows, err = s.assignments.CountByStatus(ctx, filter)
		return err
	})
	if err != nil {
		return nil, storeFailure("count assignments", err)
	}

	stats := &Stats{}
	for _, r := range rows {
		stats.Total += r.Count
		switch lifecycle.Bucket(r.Status) {
		case models.StatusPending:
			stats.Pending += r.Count
		case models.StatusForwarded:
			stats.Forwarded += r.Count
		case models.StatusSubmitted:
			stats.Submitted += r.Count
		case models.StatusRejected:
			stats.Rejected += r.Count
		case models.StatusCompleted:
			stats.Completed += r.Count
			if r.Result != nil && *r.Result == models.ResultPositive {
				stats.Positive += r.Count
			}
			if r.Result != nil && *r.Result == models.ResultNegative {
				stats.Negative += r.Count
			}
		}
	}
	stats.Open = stats.Total - stats.Completed
	return stats, nil
}

// Export writes the filtered view as a report workbook.
func (s *AssignmentService) Export(ctx context.Context, user *models.User, input ListAssignmentsInput, w io.Writer) error {
	input.Page = utils.PaginationParams{}
	list, _, err := s.List(ctx, user, input)
	if err != nil {
		return err
	}

	rows := make([]spreadsheet.ReportRow, 0, len(list))
	for _, a := range list {
		rows = append(rows, s.reportRow(a))
	}
	return spreadsheet.WriteReport(w, rows, s.loc)
}

func (s *AssignmentService) reportRow(a models.Assignment) spreadsheet.ReportRow {
	row := spreadsheet.ReportRow{
		Task:            a.Task.Title,
		Department:      string(a.Task.Department),
		Supervisor:      a.Supervisor.FullName,
		Status:          string(a.Status),
		AssignedDate:    a.AssignedDate,
		ForwardedAt:     a.ForwardedAt,
		SubmittedAt:     a.SubmittedAt,
		CompletedAt:     a.CompletedAt,
		DelayStatus:     s.Delay(a).String(),
		StaffNotes:      a.StaffNotes,
		SupervisorNotes: a.SupervisorNotes,
	}
	if a.Staff != nil {
		row.Staff = a.Staff.FullName
	}
	if a.Result != nil {
		row.Result = string(*a.Result)
	}
	return row
}

// Get returns one assignment if user may see it
func (s *AssignmentService) Get(ctx context.Context, user *models.User, id string) (*models.Assignment, error) {
	a, err := loadAssignment(ctx, s.assignments, id)
	if err != nil {
		return nil, err
	}
	if !canView(user, a) {
		return nil, ErrAssignmentForbidden
	}
	return a, nil
}

// Create assigns a catalog task to a supervisor for a date and notifies them.
func (s *AssignmentService) Create(ctx context.Context, user *models.User, input CreateAssignmentInput) (*models.Assignment, error) {
	if !isGeneralManager(user) {
		return nil, ErrGeneralManagerOnly
	}
	date, err := s.parseDate(input.AssignedDate)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.FindByID(ctx, input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, storeFailure("find task", err)
	}
	if task.DeletedAt.Valid || !task.IsActive {
		return nil, ErrTaskUnavailable
	}

	supervisor, err := s.users.FindByID(ctx, input.AssignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupervisorMismatch
		}
		return nil, storeFailure("find supervisor", err)
	}
	if !supervisor.IsActive || !supervisor.Role.Supervises() || supervisor.Department != task.Department {
		return nil, ErrSupervisorMismatch
	}

	a := &models.Assignment{
		TaskID:       task.ID,
		AssignedTo:   supervisor.ID,
		AssignedDate: date,
		Status:       models.StatusPending,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, storeFailure("create assignment", err)
	}
	a.Task = *task
	a.Supervisor = *supervisor

	s.dispatch(ctx, notify.Event{Kind: notify.EventAssigned, Task: *task, Assignment: *a, Actor: *user})
	return a, nil
}

// SubmitInput is the staff member's completion report.
type SubmitInput struct {
	Notes string
	Files []Upload
}

// ApproveInput is the supervisor's review outcome.
type ApproveInput struct {
	Result models.Result
	Notes  string
	Files  []Upload
}

// Forward hands a pending assignment to a staff member of the supervisor's department.
func (s *AssignmentService) Forward(ctx context.Context, user *models.User, id, staffID, note string) (*models.Assignment, error) {
	staff, err := s.users.FindByID(ctx, staffID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeFailure("find staff member", err)
		}
		staff = &models.User{}
	}

	cmd := lifecycle.Forward{By: lifecycle.ActorFromUser(*user), Staff: *staff, Note: strings.TrimSpace(note)}
	return s.transition(ctx, user, id, cmd, notify.EventForwarded)
}

// Start marks a forwarded assignment as being worked on.
func (s *AssignmentService) Start(ctx context.Context, user *models.User, id string) (*models.Assignment, error) {
	return s.transition(ctx, user, id, lifecycle.Start{By: lifecycle.ActorFromUser(*user)}, "")
}

// Submit uploads any new files, then sends the assignment for review with
// everything in its ledger as evidence.
func (s *AssignmentService) Submit(ctx context.Context, user *models.User, id string, input SubmitInput) (*models.Assignment, error) {
	build := func(current *models.Assignment, atts []models.Attachment) lifecycle.Command {
		return lifecycle.Submit{By: lifecycle.ActorFromUser(*user), Notes: strings.TrimSpace(input.Notes), Attachments: atts}
	}
	return s.transitionWithFiles(ctx, user, id, input.Files, build, notify.EventSubmitted)
}

// Approve completes a submitted assignment with a result.
func (s *AssignmentService) Approve(ctx context.Context, user *models.User, id string, input ApproveInput) (*models.Assignment, error) {
	build := func(current *models.Assignment, atts []models.Attachment) lifecycle.Command {
		return lifecycle.Approve{By: lifecycle.ActorFromUser(*user), Result: input.Result, Notes: strings.TrimSpace(input.Notes), Attachments: atts}
	}
	return s.transitionWithFiles(ctx, user, id, input.Files, build, "")
}

// Reject returns a submitted assignment to the staff member with a reason.
func (s *AssignmentService) Reject(ctx context.Context, user *models.User, id, notes string) (*models.Assignment, error) {
	cmd := lifecycle.Reject{By: lifecycle.ActorFromUser(*user), Notes: notes}
	return s.transition(ctx, user, id, cmd, notify.EventRejected)
}

// transitionWithFiles stages uploads before the status write so the command
// sees them; staged objects are removed if the write does not happen.
func (s *AssignmentService) transitionWithFiles(
	ctx context.Context,
	user *models.User,
	id string,
	files []Upload,
	build func(*models.Assignment, []models.Attachment) lifecycle.Command,
	event notify.EventKind,
) (*models.Assignment, error) {
	current, err := loadAssignment(ctx, s.assignments, id)
	if err != nil {
		return nil, err
	}

	if len(files) > 0 {
		// Reject bad actors and statuses before anything is uploaded.
		trial := build(current, current.Attachments)
		if _, err := lifecycle.Apply(*current, current.Task, trial, s.now()); err != nil &&
			!errors.Is(err, lifecycle.ErrEvidenceRequired) {
			return nil, err
		}
	}

	atts, cleanup, err := s.attachments.withUploads(ctx, current, user.ID, files)
	if err != nil {
		return nil, err
	}

	out, err := s.commit(ctx, user, current, build(current, atts), event)
	if err != nil {
		cleanup()
		return nil, err
	}
	return out, nil
}

func (s *AssignmentService) transition(ctx context.Context, user *models.User, id string, cmd lifecycle.Command, event notify.EventKind) (*models.Assignment, error) {
	current, err := loadAssignment(ctx, s.assignments, id)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, user, current, cmd, event)
}

// commit applies cmd and persists it with the conditional update.
func (s *AssignmentService) commit(ctx context.Context, user *models.User, current *models.Assignment, cmd lifecycle.Command, event notify.EventKind) (*models.Assignment, error) {
	next, err := lifecycle.Apply(*current, current.Task, cmd, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.assignments.UpdateIfCurrent(ctx, &next, current.Status); err != nil {
		return nil, mapWriteError(err)
	}

	s.log.Info("assignment transitioned",
		zap.String("assignment_id", next.ID),
		zap.String("action", string(cmd.Name())),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
		zap.String("user_id", user.ID),
	)

	if event != "" {
		s.dispatch(ctx, notify.Event{Kind: event, Task: current.Task, Assignment: next, Actor: *user})
	}

	if fresh, err := s.assignments.FindByID(ctx, next.ID); err == nil {
		return fresh, nil
	}
	return &next, nil
}

// dispatch notifies after a committed write; failures never undo the write.
func (s *AssignmentService) dispatch(ctx context.Context, e notify.Event) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Dispatch(ctx, e); err != nil {
		s.log.Warn("failed to dispatch notifications",
			zap.String("event", string(e.Kind)),
			zap.String("assignment_id", e.Assignment.ID),
			zap.Error(err),
		)
	}
}

func (s *AssignmentService) buildFilter(user *models.User, input ListAssignmentsInput) (repository.AssignmentFilter, error) {
	filter := repository.AssignmentFilter{}

	if input.Department != "" {
		dept := models.Department(input.Department)
		if !dept.ValidForTask() {
			return filter, ErrInvalidDepartment
		}
		filter.Department = &dept
	}
	if input.Status != "" {
		status := models.AssignmentStatus(input.Status)
		if !status.Valid() {
			return filter, ErrInvalidStatus
		}
		filter.Statuses = lifecycle.FilterStatuses(status)
	}
	if input.Result != "" {
		result := models.Result(input.Result)
		if !result.Valid() {
			return filter, lifecycle.ErrInvalidResult
		}
		filter.Result = &result
	}
	for _, d := range []string{input.StartDate, input.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(constants.DateLayout, d); err != nil {
			return filter, ErrInvalidDate
		}
	}
	filter.DateFrom = input.StartDate
	filter.DateTo = input.EndDate

	return scopeFor(user, filter), nil
}

func (s *AssignmentService) parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.Today(), nil
	}
	if _, err := time.Parse(constants.DateLayout, raw); err != nil {
		return "", ErrInvalidDate
	}
	return raw, nil
}

// loadAssignment reads an assignment with retries and maps a missing row to ErrAssignmentNotFound.
func loadAssignment(ctx context.Context, repo repository.AssignmentRepository, id string) (*models.Assignment, error) {
	var a *models.Assignment
	err := retryRead(ctx, func() error {
		var err error
		a, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, storeFailure("find assignment", err)
	}
	return a, nil
}

func mapWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrStaleWrite):
		return ErrConcurrentUpdate
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrAssignmentNotFound
	default:
		return storeFailure("update assignment", err)
	}
}
