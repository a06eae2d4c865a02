package lifecycle

import (
	"sort"

	"github.com/fuelops/task-tracker/internal/models"
)

// Bucket folds presentation-equivalent statuses: in_progress reads as forwarded.
func Bucket(s models.AssignmentStatus) models.AssignmentStatus {
	if s == models.StatusInProgress {
		return models.StatusForwarded
	}
	return s
}

// FilterStatuses expands a status filter to every status in its bucket.
func FilterStatuses(s models.AssignmentStatus) []models.AssignmentStatus {
	if Bucket(s) == models.StatusForwarded {
		return []models.AssignmentStatus{models.StatusForwarded, models.StatusInProgress}
	}
	return []models.AssignmentStatus{s}
}

// Unresolved reports whether someone still has to act before review.
func Unresolved(s models.AssignmentStatus) bool {
	switch s {
	case models.StatusPending, models.StatusForwarded, models.StatusInProgress, models.StatusRejected:
		return true
	}
	return false
}

// Rank orders statuses for list views: unresolved, then submitted, then completed.
func Rank(s models.AssignmentStatus) int {
	switch {
	case Unresolved(s):
		return 0
	case s == models.StatusSubmitted:
		return 1
	default:
		return 2
	}
}

// Sort orders assignments by Rank, then assigned date descending, then creation descending.
func Sort(list []models.Assignment) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if ra, rb := Rank(a.Status), Rank(b.Status); ra != rb {
			return ra < rb
		}
		if a.AssignedDate != b.AssignedDate {
			return a.AssignedDate > b.AssignedDate
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
