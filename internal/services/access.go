package services

import (
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/repository"
)

// canView reports whether user may read an assignment.
// General managers see everything, supervisors what they own, staff what was forwarded to them.
func canView(user *models.User, a *models.Assignment) bool {
	switch {
	case user == nil:
		return false
	case user.Role == models.RoleGeneralManager:
		return true
	case user.Role.Supervises():
		return a.AssignedTo == user.ID
	default:
		return a.ForwardedTo != nil && *a.ForwardedTo == user.ID
	}
}

// scopeFor narrows an assignment filter to what user may see.
func scopeFor(user *models.User, f repository.AssignmentFilter) repository.AssignmentFilter {
	switch {
	case user.Role == models.RoleGeneralManager:
	case user.Role.Supervises():
		f.AssignedTo = user.ID
	default:
		f.ForwardedTo = user.ID
	}
	return f
}

// ledgerEditor decides whether user may add or remove attachments right now.
// Staff edit while the work is with them; the owning supervisor edits during review.
func ledgerEditor(user *models.User, a *models.Assignment) error {
	isStaff := a.ForwardedTo != nil && *a.ForwardedTo == user.ID
	isOwner := a.AssignedTo == user.ID
	if !isStaff && !isOwner {
		return ErrAssignmentForbidden
	}
	if a.Status == models.StatusCompleted {
		return ErrAssignmentReadOnly
	}

	switch a.Status {
	case models.StatusForwarded, models.StatusInProgress, models.StatusRejected:
		if isStaff {
			return nil
		}
	case models.StatusSubmitted:
		if isOwner {
			return nil
		}
	}
	return ErrLedgerClosed.WithDetails(map[string]string{"status": string(a.Status)})
}

func isGeneralManager(user *models.User) bool {
	return user != nil && user.Role == models.RoleGeneralManager
}
