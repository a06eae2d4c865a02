package lifecycle

import (
	"fmt"
	"math"
	"time"

	"github.com/fuelops/task-tracker/internal/constants"
	"github.com/fuelops/task-tracker/internal/models"
)

type DelayKind string

const (
	DelayPending DelayKind = "pending"
	DelayOverdue DelayKind = "overdue"
	DelaySameDay DelayKind = "same_day"
	DelayLate    DelayKind = "delayed"
)

// Delay is the read-time lateness label of an assignment.
type Delay struct {
	Kind DelayKind `json:"kind"`
	Days int       `json:"days"`
}

func (d Delay) String() string {
	switch d.Kind {
	case DelayOverdue:
		return "overdue by " + days(d.Days)
	case DelayLate:
		return "delayed by " + days(d.Days)
	case DelaySameDay:
		return "same-day"
	default:
		return "pending"
	}
}

// IsLate reports whether the assignment missed its day, finished or not.
func (d Delay) IsLate() bool {
	return d.Kind == DelayOverdue || d.Kind == DelayLate
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// ClassifyDelay computes d = floor((t - assigned_date 00:00 in loc) / 24h) where t
// is the submission time, falling back to completion time, or now while open.
// Negative values clamp to zero.
func ClassifyDelay(a models.Assignment, now time.Time, loc *time.Location) Delay {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(constants.DateLayout, a.AssignedDate, loc)
	if err != nil {
		return Delay{Kind: DelayPending}
	}

	var finished *time.Time
	switch {
	case a.SubmittedAt != nil:
		finished = a.SubmittedAt
	case a.Status == models.StatusCompleted && a.CompletedAt != nil:
		finished = a.CompletedAt
	}

	if finished == nil {
		if d := dayDiff(start, now); d > 0 {
			return Delay{Kind: DelayOverdue, Days: d}
		}
		return Delay{Kind: DelayPending}
	}

	if d := dayDiff(start, *finished); d > 0 {
		return Delay{Kind: DelayLate, Days: d}
	}
	return Delay{Kind: DelaySameDay}
}

func dayDiff(start, t time.Time) int {
	return int(math.Floor(t.Sub(start).Hours() / 24))
}
