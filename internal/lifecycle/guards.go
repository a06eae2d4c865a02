package lifecycle

import (
	"strings"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Err     *apierrors.DomainError
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return r.Err
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(err *apierrors.DomainError) GuardResult { return GuardResult{Err: err} }

// checkActor enforces who may issue each command.
// Forward, Approve, Reject: the owning supervisor.
// Start, Submit: the staff member the assignment was forwarded to.
func checkActor(a models.Assignment, cmd Command) GuardResult {
	by := cmd.issuer()
	switch cmd.Name() {
	case CmdForward, CmdApprove, CmdReject:
		if by.ID == "" || by.ID != a.AssignedTo {
			return deny(ErrNotOwner)
		}
	case CmdStart, CmdSubmit:
		if a.ForwardedTo == nil || by.ID == "" || by.ID != *a.ForwardedTo {
			return deny(ErrNotForwardee)
		}
	}
	return allow()
}

// CanForward evaluates whether staff can receive an assignment from supervisor.
// Rules:
// - staff must exist and be active
// - staff must have the staff role
// - staff must be in the supervisor's department
func CanForward(supervisor Actor, staff models.User) GuardResult {
	if staff.ID == "" || !staff.IsActive {
		return deny(ErrStaffNotEligible)
	}
	if staff.Role != models.RoleStaff {
		return deny(ErrStaffNotEligible)
	}
	if staff.Department != supervisor.Department {
		return deny(ErrStaffNotEligible)
	}
	return allow()
}

// CanSubmit requires evidence when the task asks for it.
func CanSubmit(task models.Task, attachments []models.Attachment) GuardResult {
	if task.RequiresPhoto && len(attachments) == 0 {
		return deny(ErrEvidenceRequired)
	}
	return allow()
}

// CanReject requires a non-blank reason.
func CanReject(notes string) GuardResult {
	if strings.TrimSpace(notes) == "" {
		return deny(ErrRejectNotesRequired)
	}
	return allow()
}
