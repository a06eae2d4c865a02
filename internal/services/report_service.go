package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/lifecycle"
	"github.com/fuelops/task-tracker/internal/mailer"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/repository"
)

//go:embed templates/daily_report.html
var dailyReportHTML string

var dailyReportTemplate = template.Must(template.New("daily_report").Parse(dailyReportHTML))

var ErrNoRecipient = apierrors.Validation("no report recipient is configured")

// DailyReport is the end-of-day summary for one assigned date.
type DailyReport struct {
	Date        string       `json:"date"`
	Total       int          `json:"total"`
	Completed   int          `json:"completed"`
	Pending     int          `json:"pending"`
	Delayed     int          `json:"delayed"`
	SameDay     int          `json:"same_day"`
	Positive    int          `json:"positive"`
	Negative    int          `json:"negative"`
	PendingList []ReportItem `json:"pending_list"`
	DelayedList []ReportItem `json:"delayed_list"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// ReportItem is one line of the pending or delayed list.
type ReportItem struct {
	Task       string `json:"task"`
	Department string `json:"department"`
	Staff      string `json:"staff"`
	Status     string `json:"status"`
	Delay      string `json:"delay"`
	DelayDays  int    `json:"delay_days"`
}

// ReportService builds and mails the daily report.
type ReportService struct {
	assignments repository.AssignmentRepository
	mailer      mailer.Mailer
	recipient   string
	loc         *time.Location
	log         *zap.Logger
	now         func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(assignments repository.AssignmentRepository, m mailer.Mailer, recipient string, loc *time.Location, log *zap.Logger) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		assignments: assignments,
		mailer:      m,
		recipient:   recipient,
		loc:         loc,
		log:         log,
		now:         time.Now,
	}
}

// Today is the current business date.
func (s *ReportService) Today() string {
	return s.now().In(s.loc).Format(constants.DateLayout)
}

// Daily aggregates the assignments of date. An empty date means today.
// Pending counts everything not completed; delayed and same-day only count completed work.
func (s *ReportService) Daily(ctx context.Context, date string) (*DailyReport, error) {
	if date == "" {
		date = s.Today()
	}
	if _, err := time.Parse(constants.DateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}

	var list []models.Assignment
	err := retryRead(ctx, func() error {
		var err error
		list, _, err = s.assignments.List(ctx, repository.AssignmentFilter{DateFrom: date, DateTo: date})
		return err
	})
	if err != nil {
		return nil, storeFailure("load assignments", err)
	}

	now := s.now()
	report := &DailyReport{
		Date:        date,
		Total:       len(list),
		PendingList: []ReportItem{},
		DelayedList: []ReportItem{},
		GeneratedAt: now.In(s.loc),
	}

	for _, a := range list {
		delay := lifecycle.ClassifyDelay(a, now, s.loc)
		item := ReportItem{
			Task:       a.Task.Title,
			Department: string(a.Task.Department),
			Staff:      "Atanmadı",
			Status:     string(a.Status),
			Delay:      delay.String(),
			DelayDays:  delay.Days,
		}
		if a.Staff != nil {
			item.Staff = a.Staff.FullName
		}

		if a.Status != models.StatusCompleted {
			report.Pending++
			report.PendingList = append(report.PendingList, item)
			continue
		}

		report.Completed++
		if a.Result != nil {
			switch *a.Result {
			case models.ResultPositive:
				report.Positive++
			case models.ResultNegative:
				report.Negative++
			}
		}
		if a.SubmittedAt == nil {
			continue
		}
		switch delay.Kind {
		case lifecycle.DelaySameDay:
			report.SameDay++
		case lifecycle.DelayLate:
			report.Delayed++
			report.DelayedList = append(report.DelayedList, item)
		}
	}

	return report, nil
}

// Render produces the HTML email body.
func (s *ReportService) Render(report *DailyReport) (string, error) {
	var buf bytes.Buffer
	data := struct {
		*DailyReport
		Heading string
	}{
		DailyReport: report,
		Heading:     s.heading(report.Date),
	}
	if err := dailyReportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// Send builds the report for date and mails it to the configured recipient.
func (s *ReportService) Send(ctx context.Context, date string) (*DailyReport, error) {
	if strings.TrimSpace(s.recipient) == "" {
		return nil, ErrNoRecipient
	}

	report, err := s.Daily(ctx, date)
	if err != nil {
		return nil, err
	}
	body, err := s.Render(report)
	if err != nil {
		return nil, err
	}

	msg := mailer.Message{
		To:      []string{s.recipient},
		Subject: "Günlük Görev Raporu - " + report.Date,
		Body:    body,
		HTML:    true,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, apierrors.External("failed to send report email", err)
	}

	s.log.Info("daily report sent",
		zap.String("date", report.Date),
		zap.Int("total", report.Total),
		zap.Int("completed", report.Completed),
	)
	return report, nil
}

var (
	turkishMonths = [...]string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran", "Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}
	turkishDays   = [...]string{"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi"}
)

// heading formats date as "02 Ocak 2024 Pazartesi".
func (s *ReportService) heading(date string) string {
	t, err := time.ParseInLocation(constants.DateLayout, date, s.loc)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%02d %s %d %s", t.Day(), turkishMonths[t.Month()-1], t.Year(), turkishDays[t.Weekday()])
}
