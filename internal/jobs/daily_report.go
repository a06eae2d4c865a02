// Package jobs runs the scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fuelops/task-tracker/internal/services"
)

// ReportSender builds and mails the report of one date. An empty date means today.
type ReportSender interface {
	Send(ctx context.Context, date string) (*services.DailyReport, error)
}

// DailyReportJob mails the end-of-day report on a cron schedule.
type DailyReportJob struct {
	scheduler *cron.Cron
	sender    ReportSender
	schedule  string
	timeout   time.Duration
	log       *zap.Logger
	jobID     cron.EntryID
}

// NewDailyReportJob creates the job. schedule has a seconds field,
// e.g. "0 0 20 * * *" runs at 20:00:00 in loc every day.
func NewDailyReportJob(sender ReportSender, schedule string, loc *time.Location, log *zap.Logger) *DailyReportJob {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyReportJob{
		scheduler: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		sender:    sender,
		schedule:  schedule,
		timeout:   2 * time.Minute,
		log:       log,
	}
}

// Start registers the schedule and starts the scheduler.
func (j *DailyReportJob) Start() error {
	var err error
	j.jobID, err = j.scheduler.AddFunc(j.schedule, j.run)
	if err != nil {
		return fmt.Errorf("error scheduling daily report: %w", err)
	}

	j.scheduler.Start()
	j.log.Info("daily report scheduler started", zap.String("schedule", j.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running report to finish.
func (j *DailyReportJob) Stop() {
	<-j.scheduler.Stop().Done()
	j.log.Info("daily report scheduler stopped")
}

// Next returns the next scheduled run, zero before Start.
func (j *DailyReportJob) Next() time.Time {
	return j.scheduler.Entry(j.jobID).Next
}

// RunNow sends the report for date immediately.
func (j *DailyReportJob) RunNow(ctx context.Context, date string) (*services.DailyReport, error) {
	return j.sender.Send(ctx, date)
}

func (j *DailyReportJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.sender.Send(ctx, "")
	if err != nil {
		j.log.Error("scheduled daily report failed", zap.Error(err))
		return
	}
	j.log.Info("scheduled daily report sent",
		zap.String("date", report.Date),
		zap.Int("total", report.Total),
	)
}
