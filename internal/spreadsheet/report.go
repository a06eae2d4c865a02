package spreadsheet

import (
	"io"
	"time"
)

// ReportHeaders is the fixed column order of the assignment report.
var ReportHeaders = []string{
	"Task", "Department", "Staff", "Supervisor", "Status", "Result",
	"AssignedDate", "ForwardedAt", "SubmittedAt", "CompletedAt",
	"DelayStatus", "StaffNotes", "SupervisorNotes",
}

// ReportRow is one assignment flattened for export.
type ReportRow struct {
	Task            string
	Department      string
	Staff           string
	Supervisor      string
	Status          string
	Result          string
	AssignedDate    string
	ForwardedAt     *time.Time
	SubmittedAt     *time.Time
	CompletedAt     *time.Time
	DelayStatus     string
	StaffNotes      string
	SupervisorNotes string
}

const reportTimeLayout = "2006-01-02 15:04"

// WriteReport writes rows in the given order; timestamps are rendered in loc.
func WriteReport(w io.Writer, rows []ReportRow, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	stamp := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.In(loc).Format(reportTimeLayout)
	}

	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{
			r.Task,
			r.Department,
			r.Staff,
			r.Supervisor,
			r.Status,
			r.Result,
			r.AssignedDate,
			stamp(r.ForwardedAt),
			stamp(r.SubmittedAt),
			stamp(r.CompletedAt),
			r.DelayStatus,
			r.StaffNotes,
			r.SupervisorNotes,
		})
	}

	widths := []float64{35, 12, 20, 20, 12, 10, 12, 17, 17, 17, 18, 35, 35}
	return writeSheet(w, "Görev Raporu", ReportHeaders, values, widths)
}
