// Package lifecycle holds the assignment state machine. Everything here is pure:
// callers load the current row, call Apply, and persist the result with a
// conditional update.
package lifecycle

import (
	"time"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
)

var (
	ErrInvalidTransition   = apierrors.Conflict("action is not allowed in the current status")
	ErrNotOwner            = apierrors.Authorization("only the supervisor owning the assignment can do this")
	ErrNotForwardee        = apierrors.Authorization("only the staff member the assignment was forwarded to can do this")
	ErrStaffNotEligible    = apierrors.Validation("staff member must be an active staff member of the same department")
	ErrEvidenceRequired    = apierrors.Validation("this task requires at least one attachment")
	ErrRejectNotesRequired = apierrors.Validation("a reason is required when rejecting")
	ErrInvalidResult       = apierrors.Validation("result must be olumlu or olumsuz")
)

// Actor is the authenticated user issuing a command.
type Actor struct {
	ID         string
	Role       models.Role
	Department models.Department
}

// ActorFromUser builds an Actor from a loaded user row.
func ActorFromUser(u models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Department: u.Department}
}

// CommandName identifies a command in errors, logs and the actions list.
type CommandName string

const (
	CmdForward CommandName = "forward"
	CmdStart   CommandName = "start"
	CmdSubmit  CommandName = "submit"
	CmdApprove CommandName = "approve"
	CmdReject  CommandName = "reject"
)

// Command is one of Forward, Start, Submit, Approve or Reject.
type Command interface {
	Name() CommandName
	issuer() Actor
}

type Forward struct {
	By    Actor
	Staff models.User
	Note  string
}

type Start struct {
	By Actor
}

type Submit struct {
	By          Actor
	Notes       string
	Attachments []models.Attachment
}

type Approve struct {
	By          Actor
	Result      models.Result
	Notes       string
	Attachments []models.Attachment
}

type Reject struct {
	By    Actor
	Notes string
}

func (Forward) Name() CommandName { return CmdForward }
func (Start) Name() CommandName   { return CmdStart }
func (Submit) Name() CommandName  { return CmdSubmit }
func (Approve) Name() CommandName { return CmdApprove }
func (Reject) Name() CommandName  { return CmdReject }

func (c Forward) issuer() Actor { return c.By }
func (c Start) issuer() Actor   { return c.By }
func (c Submit) issuer() Actor  { return c.By }
func (c Approve) issuer() Actor { return c.By }
func (c Reject) issuer() Actor  { return c.By }

// transitions lists, per command, the statuses it may start from and where it lands.
var transitions = map[CommandName]struct {
	from []models.AssignmentStatus
	to   models.AssignmentStatus
}{
	CmdForward: {from: []models.AssignmentStatus{models.StatusPending}, to: models.StatusForwarded},
	CmdStart:   {from: []models.AssignmentStatus{models.StatusForwarded}, to: models.StatusInProgress},
	CmdSubmit: {
		from: []models.AssignmentStatus{models.StatusForwarded, models.StatusInProgress, models.StatusRejected},
		to:   models.StatusSubmitted,
	},
	CmdApprove: {from: []models.AssignmentStatus{models.StatusSubmitted}, to: models.StatusCompleted},
	CmdReject:  {from: []models.AssignmentStatus{models.StatusSubmitted}, to: models.StatusRejected},
}

// CanTransition reports whether cmd may be issued while the assignment is in status.
func CanTransition(status models.AssignmentStatus, cmd CommandName) bool {
	t, ok := transitions[cmd]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if from == status {
			return true
		}
	}
	return false
}

// Apply runs cmd against current and returns the next state. current is not
// modified. Errors are apierrors.DomainError values: Authorization for the
// wrong actor, Conflict for a command the status does not accept, Validation
// for a failed guard.
func Apply(current models.Assignment, task models.Task, cmd Command, now time.Time) (models.Assignment, error) {
	if err := checkActor(current, cmd).Error(); err != nil {
		return current, err
	}
	if !CanTransition(current.Status, cmd.Name()) {
		return current, ErrInvalidTransition.WithDetails(map[string]string{
			"status": string(current.Status),
			"action": string(cmd.Name()),
		})
	}

	next := clone(current)
	next.Status = transitions[cmd.Name()].to

	switch c := cmd.(type) {
	case Forward:
		if err := CanForward(c.By, c.Staff).Error(); err != nil {
			return current, err
		}
		staffID := c.Staff.ID
		next.ForwardedTo = &staffID
		next.ForwardedAt = timePtr(now)
		next.SupervisorNotes = c.Note

	case Start:
		// status change only

	case Submit:
		if err := CanSubmit(task, c.Attachments).Error(); err != nil {
			return current, err
		}
		next.StaffNotes = c.Notes
		next.Attachments = append(next.Attachments[:0:0], c.Attachments...)
		next.SubmittedAt = timePtr(now)

	case Approve:
		if !c.Result.Valid() {
			return current, ErrInvalidResult
		}
		result := c.Result
		next.Result = &result
		next.SupervisorNotes = c.Notes
		next.Attachments = MergeAttachments(next.Attachments, c.Attachments)
		next.CompletedAt = timePtr(now)

	case Reject:
		if err := CanReject(c.Notes).Error(); err != nil {
			return current, err
		}
		next.SupervisorNotes = c.Notes
	}

	return next, nil
}

// Actions lists the commands actor could issue right now, ignoring input guards.
func Actions(a models.Assignment, actor Actor) []CommandName {
	all := []Command{Forward{By: actor}, Start{By: actor}, Submit{By: actor}, Approve{By: actor}, Reject{By: actor}}
	var out []CommandName
	for _, cmd := range all {
		if CanTransition(a.Status, cmd.Name()) && checkActor(a, cmd).Allowed {
			out = append(out, cmd.Name())
		}
	}
	return out
}

// MergeAttachments appends the items of extra whose id is not already present.
func MergeAttachments(existing, extra []models.Attachment) []models.Attachment {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]models.Attachment, 0, len(existing)+len(extra))
	for _, att := range existing {
		seen[att.ID] = struct{}{}
		merged = append(merged, att)
	}
	for _, att := range extra {
		if _, ok := seen[att.ID]; ok {
			continue
		}
		seen[att.ID] = struct{}{}
		merged = append(merged, att)
	}
	return merged
}

func clone(a models.Assignment) models.Assignment {
	next := a
	next.Attachments = append(a.Attachments[:0:0], a.Attachments...)
	return next
}

func timePtr(t time.Time) *time.Time {
	return &t
}
