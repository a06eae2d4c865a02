package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fuelops/task-tracker/internal/database"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/ledger"
	"github.com/fuelops/task-tracker/internal/lifecycle"
	"github.com/fuelops/task-tracker/internal/mailer"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/realtime"
	"github.com/fuelops/task-tracker/internal/repository"
	"github.com/fuelops/task-tracker/internal/spreadsheet"
	"github.com/fuelops/task-tracker/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// memStore is an ObjectStore kept in a map. failAfter > 0 makes the
// failAfter-th Put and every later one fail.
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	puts      int
	failAfter int
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failAfter > 0 && m.puts >= m.failAfter {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	return m.URL(key), nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memStore) URL(key string) string { return "https://files.test/" + key }

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// staleAssignments fails every conditional update as if another writer got there first.
type staleAssignments struct {
	repository.AssignmentRepository
}

func (staleAssignments) UpdateIfCurrent(ctx context.Context, next *models.Assignment, expect models.AssignmentStatus) error {
	return repository.ErrStaleWrite
}

type ServicesTestSuite struct {
	suite.Suite
	db    *gorm.DB
	ctx   context.Context
	now   time.Time
	store *memStore
	mail  *fakeMailer

	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	taskRepo       repository.TaskRepository

	notifications *NotificationService
	attachments   *AttachmentService
	assignments   *AssignmentService
	catalog       *CatalogService
	reports       *ReportService
	users         *UserService
	comments      *CommentService

	gm         *models.User
	supervisor *models.User
	staff      *models.User
	photoTask  *models.Task
	plainTask  *models.Task
}

func (s *ServicesTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.AutoMigrate(database.Models()...))

	s.db = db
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	s.store = newMemStore()
	s.mail = &fakeMailer{}
	log := zap.NewNop()

	s.assignmentRepo = repository.NewAssignmentRepository(db)
	s.userRepo = repository.NewUserRepository(db)
	s.taskRepo = repository.NewTaskRepository(db)

	s.notifications = NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewSoundPreferenceRepository(db),
		realtime.NewMemoryHub(),
		log,
	)
	s.attachments = NewAttachmentService(s.assignmentRepo, s.store, 0, log)
	s.attachments.now = s.clock
	s.assignments = NewAssignmentService(s.assignmentRepo, s.taskRepo, s.userRepo, s.attachments, s.notifications, time.UTC, log)
	s.assignments.now = s.clock
	s.catalog = NewCatalogService(s.taskRepo, s.userRepo, s.assignments, s.notifications, nil, log)
	s.reports = NewReportService(s.assignmentRepo, s.mail, "mudur@istasyon.example", time.UTC, log)
	s.reports.now = s.clock
	s.users = NewUserService(s.userRepo, log)
	s.comments = NewCommentService(repository.NewCommentRepository(db), s.assignmentRepo)

	s.gm = s.createUser("Genel Müdür", models.RoleGeneralManager, models.DepartmentManagement)
	s.supervisor = s.createUser("Ali Yılmaz", models.RoleSupervisor, models.DepartmentStation)
	s.staff = s.createUser("Ayşe Kaya", models.RoleStaff, models.DepartmentStation)
	s.photoTask = s.createTask("Pompa kontrolü", true)
	s.plainTask = s.createTask("Yangın tüpü kontrolü", false)
}

func (s *ServicesTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *ServicesTestSuite) clock() time.Time { return s.now }

func (s *ServicesTestSuite) createUser(name string, role models.Role, dept models.Department) *models.User {
	hash, err := HashPassword("secret123")
	s.Require().NoError(err)
	u := &models.User{
		Email:        strings.ReplaceAll(strings.ToLower(name), " ", ".") + "@istasyon.example",
		FullName:     name,
		Role:         role,
		Department:   dept,
		IsActive:     true,
		PasswordHash: hash,
	}
	s.Require().NoError(s.userRepo.Create(s.ctx, u))
	return u
}

func (s *ServicesTestSuite) createTask(title string, photo bool) *models.Task {
	t := &models.Task{
		Title:         title,
		Department:    models.DepartmentStation,
		Frequency:     models.FrequencyDaily,
		Priority:      models.PriorityMedium,
		RequiresPhoto: photo,
		IsActive:      true,
	}
	s.Require().NoError(s.taskRepo.Create(s.ctx, t))
	return t
}

func (s *ServicesTestSuite) assign(task *models.Task) *models.Assignment {
	a, err := s.assignments.Create(s.ctx, s.gm, CreateAssignmentInput{
		TaskID:       task.ID,
		AssignedTo:   s.supervisor.ID,
		AssignedDate: "2024-01-02",
	})
	s.Require().NoError(err)
	return a
}

func (s *ServicesTestSuite) forwarded(task *models.Task) *models.Assignment {
	a := s.assign(task)
	a, err := s.assignments.Forward(s.ctx, s.supervisor, a.ID, s.staff.ID, "bugün bitmeli")
	s.Require().NoError(err)
	return a
}

func photo(name string) Upload {
	return Upload{Name: name, DeclaredType: "image/png", Content: pngBytes}
}

func (s *ServicesTestSuite) TestFullLifecycle() {
	a := s.assign(s.photoTask)
	s.Equal(models.StatusPending, a.Status)

	a, err := s.assignments.Forward(s.ctx, s.supervisor, a.ID, s.staff.ID, "bugün bitmeli")
	s.Require().NoError(err)
	s.Equal(models.StatusForwarded, a.Status)
	s.Require().NotNil(a.ForwardedTo)
	s.Equal(s.staff.ID, *a.ForwardedTo)

	a, err = s.assignments.Start(s.ctx, s.staff, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, a.Status)

	a, err = s.assignments.Submit(s.ctx, s.staff, a.ID, SubmitInput{Notes: "tamam", Files: []Upload{photo("pompa.png")}})
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, a.Status)
	s.Require().Len(a.Attachments, 1)
	s.Equal("image/png", a.Attachments[0].MimeType)
	s.Equal(s.staff.ID, a.Attachments[0].UploadedBy)
	s.Equal(1, s.store.count())

	a, err = s.assignments.Approve(s.ctx, s.supervisor, a.ID, ApproveInput{Result: models.ResultPositive, Notes: "güzel"})
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, a.Status)
	s.Require().NotNil(a.Result)
	s.Equal(models.ResultPositive, *a.Result)
	s.Equal(int64(5), a.Version)
	s.Len(a.Attachments, 1, "approval keeps the staff evidence")

	_, err = s.assignments.Reject(s.ctx, s.supervisor, a.ID, "geç kaldı")
	s.ErrorIs(err, lifecycle.ErrInvalidTransition)

	stats, err := s.assignments.Stats(s.ctx, s.gm, ListAssignmentsInput{})
	s.Require().NoError(err)
	s.Equal(int64(1), stats.Completed)
	s.Equal(int64(1), stats.Positive)
	s.Equal(int64(0), stats.Open)

	supCount, err := s.notifications.UnreadCount(s.ctx, s.supervisor.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), supCount, "assigned and submitted")
	staffCount, err := s.notifications.UnreadCount(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), staffCount, "forwarded; approval notifies nobody")
}

func (s *ServicesTestSuite) TestRejectAndResubmit() {
	a := s.forwarded(s.plainTask)
	a, err := s.assignments.Submit(s.ctx, s.staff, a.ID, SubmitInput{Notes: "bitti"})
	s.Require().NoError(err)

	_, err = s.assignments.Reject(s.ctx, s.supervisor, a.ID, "  ")
	s.ErrorIs(err, lifecycle.ErrRejectNotesRequired)

	a, err = s.assignments.Reject(s.ctx, s.supervisor, a.ID, "fotoğraf eksik")
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, a.Status)
	s.Equal("fotoğraf eksik", a.SupervisorNotes)

	a, err = s.assignments.Submit(s.ctx, s.staff, a.ID, SubmitInput{Notes: "düzeltildi"})
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, a.Status)
}

func (s *ServicesTestSuite) TestWrongActors() {
	a := s.assign(s.plainTask)

	_, err := s.assignments.Forward(s.ctx, s.staff, a.ID, s.staff.ID, "")
	s.ErrorIs(err, lifecycle.ErrNotOwner)

	_, err = s.assignments.Get(s.ctx, s.staff, a.ID)
	s.ErrorIs(err, ErrAssignmentForbidden, "staff only see what was forwarded to them")

	_, err = s.assignments.Create(s.ctx, s.supervisor, CreateAssignmentInput{TaskID: s.plainTask.ID, AssignedTo: s.supervisor.ID})
	s.ErrorIs(err, ErrGeneralManagerOnly)
}

func (s *ServicesTestSuite) TestForwardToIneligibleStaff() {
	a := s.assign(s.plainTask)

	inactive := s.createUser("Pasif Personel", models.RoleStaff, models.DepartmentStation)
	s.Require().NoError(s.db.Model(inactive).Update("is_active", false).Error)
	_, err := s.assignments.Forward(s.ctx, s.supervisor, a.ID, inactive.ID, "")
	s.ErrorIs(err, lifecycle.ErrStaffNotEligible)

	other := s.createUser("Muhasebe Personeli", models.RoleStaff, models.DepartmentAccounting)
	_, err = s.assignments.Forward(s.ctx, s.supervisor, a.ID, other.ID, "")
	s.ErrorIs(err, lifecycle.ErrStaffNotEligible)

	_, err = s.assignments.Forward(s.ctx, s.supervisor, a.ID, "missing", "")
	s.ErrorIs(err, lifecycle.ErrStaffNotEligible)

	got, err := s.assignments.Get(s.ctx, s.gm, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(int64(1), got.Version)
}

func (s *ServicesTestSuite) TestSubmitRequiresEvidence() {
	a := s.forwarded(s.photoTask)

	_, err := s.assignments.Submit(s.ctx, s.staff, a.ID, SubmitInput{Notes: "tamam"})
	s.ErrorIs(err, lifecycle.ErrEvidenceRequired)

	_, err = s.attachments.Add(s.ctx, s.staff, a.ID, photo("once.png"))
	s.Require().NoError(err)

	got, err := s.assignments.Submit(s.ctx, s.staff, a.ID, SubmitInput{Notes: "tamam"})
	s.Require().NoError(err)
	s.Len(got.Attachments, 1, "earlier uploads count as evidence")
}

func (s *ServicesTestSuite) TestStaleWriteIsConflict() {
	a := s.assign(s.plainTask)
	stale := *a

	_, err := s.assignments.Forward(s.ctx, s.supervisor, a.ID, s.staff.ID, "")
	s.Require().NoError(err)

	cmd := lifecycle.Forward{By: lifecycle.ActorFromUser(*s.supervisor), Staff: *s.staff}
	_, err = s.assignments.commit(s.ctx, s.supervisor, &stale, cmd, "")
	s.ErrorIs(err, ErrConcurrentUpdate)
}

func (s *ServicesTestSuite) TestFailedUploadLeavesNothing() {
	a := s.forwarded(s.plainTask)
	s.store.failAfter = 2

	_, err := s.assignments.Submit(s.ctx, s.staff, a.ID, SubmitInput{Files: []Upload{photo("a.png"), photo("b.png")}})
	s.Require().Error(err)
	s.Equal(0, s.store.count(), "the first object is removed again")

	got, err := s.assignments.Get(s.ctx, s.staff, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusForwarded, got.Status)
	s.Empty(got.Attachments)
}

func (s *ServicesTestSuite) TestFailedWriteRemovesUploads() {
	a := s.forwarded(s.plainTask)
	attachments := NewAttachmentService(staleAssignments{s.assignmentRepo}, s.store, 0, zap.NewNop())
	svc := NewAssignmentService(staleAssignments{s.assignmentRepo}, s.taskRepo, s.userRepo, attachments, nil, time.UTC, zap.NewNop())

	_, err := svc.Submit(s.ctx, s.staff, a.ID, SubmitInput{Files: []Upload{photo("a.png")}})
	s.ErrorIs(err, ErrConcurrentUpdate)
	s.Equal(1, s.store.puts)
	s.Equal(0, s.store.count())
}

func (s *ServicesTestSuite) TestUploadRejectedBeforeStorageForWrongActor() {
	a := s.assign(s.plainTask)

	_, err := s.assignments.Submit(s.ctx, s.staff, a.ID, SubmitInput{Files: []Upload{photo("a.png")}})
	s.ErrorIs(err, lifecycle.ErrNotForwardee)
	s.Equal(0, s.store.puts)
}

func (s *ServicesTestSuite) TestAttachments() {
	a := s.forwarded(s.plainTask)

	_, err := s.attachments.Add(s.ctx, s.staff, a.ID, Upload{Name: "x.exe", Content: []byte("MZ\x90\x00binary")})
	s.ErrorIs(err, ledger.ErrUnsupportedType)

	att, err := s.attachments.Add(s.ctx, s.staff, a.ID, photo("pompa.png"))
	s.Require().NoError(err)

	list, err := s.attachments.List(s.ctx, s.supervisor, a.ID, s.staff.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.attachments.Add(s.ctx, s.supervisor, a.ID, photo("sup.png"))
	s.ErrorIs(err, ErrLedgerClosed, "the supervisor only edits during review")

	s.Require().NoError(s.attachments.Remove(s.ctx, s.staff, a.ID, "unknown"))
	s.Require().NoError(s.attachments.Remove(s.ctx, s.staff, a.ID, att.ID))
	s.Equal(0, s.store.count())

	for i := 0; i < 5; i++ {
		_, err = s.attachments.Add(s.ctx, s.staff, a.ID, photo("p.png"))
		s.Require().NoError(err)
	}
	_, err = s.attachments.Add(s.ctx, s.staff, a.ID, photo("p.png"))
	s.ErrorIs(err, ledger.ErrFull)
	s.Equal(5, s.store.count())
}

func (s *ServicesTestSuite) TestListSearchFoldsTurkish() {
	s.assign(s.photoTask)
	s.assign(s.plainTask)

	list, total, err := s.assignments.List(s.ctx, s.gm, ListAssignmentsInput{Query: "POMPA"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(s.photoTask.ID, list[0].TaskID)

	list, total, err = s.assignments.List(s.ctx, s.gm, ListAssignmentsInput{Query: "YILMAZ"})
	s.Require().NoError(err)
	s.Equal(int64(2), total, "supervisor name matches with dotless i folding")
	s.Len(list, 2)

	_, _, err = s.assignments.List(s.ctx, s.gm, ListAssignmentsInput{StartDate: "02.01.2024"})
	s.ErrorIs(err, ErrInvalidDate)
}

func (s *ServicesTestSuite) TestDailyReport() {
	done := s.forwarded(s.plainTask)
	done, err := s.assignments.Submit(s.ctx, s.staff, done.ID, SubmitInput{Notes: "tamam"})
	s.Require().NoError(err)
	_, err = s.assignments.Approve(s.ctx, s.supervisor, done.ID, ApproveInput{Result: models.ResultPositive})
	s.Require().NoError(err)
	s.assign(s.photoTask)

	report, err := s.reports.Send(s.ctx, "")
	s.Require().NoError(err)
	s.Equal("2024-01-02", report.Date)
	s.Equal(2, report.Total)
	s.Equal(1, report.Completed)
	s.Equal(1, report.Pending)
	s.Equal(1, report.SameDay)
	s.Equal(1, report.Positive)
	s.Equal(0, report.Delayed)
	s.Require().Len(report.PendingList, 1)
	s.Equal("Atanmadı", report.PendingList[0].Staff)

	s.Require().Len(s.mail.sent, 1)
	msg := s.mail.sent[0]
	s.Equal([]string{"mudur@istasyon.example"}, msg.To)
	s.Equal("Günlük Görev Raporu - 2024-01-02", msg.Subject)
	s.True(msg.HTML)
	s.Contains(msg.Body, "02 Ocak 2024 Salı")
	s.Contains(msg.Body, "Pompa kontrolü")
}

func (s *ServicesTestSuite) TestDailyReportMailFailure() {
	s.mail.err = errors.New("smtp down")
	_, err := s.reports.Send(s.ctx, "2024-01-02")
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to send report email")

	s.reports.recipient = ""
	_, err = s.reports.Send(s.ctx, "2024-01-02")
	s.ErrorIs(err, ErrNoRecipient)
}

func (s *ServicesTestSuite) TestNotifications() {
	s.assign(s.plainTask)

	list, err := s.notifications.ListUnread(s.ctx, s.supervisor.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	s.ErrorIs(s.notifications.MarkRead(s.ctx, s.staff.ID, list[0].ID), ErrNotificationForbidden)
	s.ErrorIs(s.notifications.MarkRead(s.ctx, s.supervisor.ID, "missing"), ErrNotificationNotFound)
	s.Require().NoError(s.notifications.MarkRead(s.ctx, s.supervisor.ID, list[0].ID))
	s.Require().NoError(s.notifications.MarkRead(s.ctx, s.supervisor.ID, list[0].ID), "marking twice is harmless")

	count, err := s.notifications.UnreadCount(s.ctx, s.supervisor.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServicesTestSuite) TestUnreadCountExpiresOldNotifications() {
	s.notifications.now = s.clock
	stale := models.Notification{UserID: s.staff.ID, Title: "Eski", CreatedAt: s.now.Add(-8 * 24 * time.Hour)}
	fresh := models.Notification{UserID: s.staff.ID, Title: "Yeni", CreatedAt: s.now.Add(-24 * time.Hour)}
	s.Require().NoError(s.db.Create(&stale).Error)
	s.Require().NoError(s.db.Create(&fresh).Error)

	count, err := s.notifications.UnreadCount(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), count, "the badge skips week-old rows")

	list, err := s.notifications.ListUnread(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(fresh.ID, list[0].ID)
	s.Equal(int64(len(list)), count)
}

func (s *ServicesTestSuite) TestNotificationsReachLiveFeed() {
	sub, err := s.notifications.Subscribe(s.ctx, s.supervisor.ID)
	s.Require().NoError(err)
	defer sub.Cancel()

	a := s.assign(s.plainTask)

	select {
	case n := <-sub.C:
		s.Equal(s.supervisor.ID, n.UserID)
		s.Require().NotNil(n.AssignmentID)
		s.Equal(a.ID, *n.AssignmentID)
	case <-time.After(time.Second):
		s.Fail("no notification delivered")
	}
}

func (s *ServicesTestSuite) TestSoundPreference() {
	pref, err := s.notifications.SoundPreference(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Equal(models.SoundUnset, pref.State)

	_, err = s.notifications.SetSoundPreference(s.ctx, s.staff.ID, "loud")
	s.ErrorIs(err, ErrInvalidSoundState)

	pref, err = s.notifications.SetSoundPreference(s.ctx, s.staff.ID, models.SoundDismissed)
	s.Require().NoError(err)
	s.NotNil(pref.DismissedAt)

	pref, err = s.notifications.SoundPreference(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Equal(models.SoundDismissed, pref.State)
}

func (s *ServicesTestSuite) catalogWorkbook(rows [][]string) *bytes.Buffer {
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			s.Require().NoError(err)
			s.Require().NoError(f.SetCellValue("Sheet1", cell, v))
		}
	}
	var buf bytes.Buffer
	s.Require().NoError(f.Write(&buf))
	return &buf
}

func (s *ServicesTestSuite) TestCatalogImport() {
	custom, err := s.catalog.CreateCustom(s.ctx, s.gm, CreateTaskInput{Title: "Tabela temizliği", Department: models.DepartmentStation})
	s.Require().NoError(err)
	used := s.assign(s.plainTask)

	bad := s.catalogWorkbook([][]string{
		{"PERİYOT", "BİRİM", "GÖREV"},
		{"gunluk", "istasyon", "Pompa kontrolü"},
		{"aylik", "otopark", "Bariyer"},
	})
	_, err = s.catalog.Import(s.ctx, s.gm, bad)
	s.ErrorIs(err, spreadsheet.ErrInvalidRows)

	before, err := s.catalog.List(s.ctx, ListTasksInput{})
	s.Require().NoError(err)
	s.Len(before, 3, "a rejected file changes nothing")

	good := s.catalogWorkbook([][]string{
		{"PERİYOT", "BİRİM", "GÖREV", "AÇIKLAMA", "BELGE"},
		{"gunluk", "istasyon", "Pompa kontrolü", "", "evet"},
		{"haftalik", "muhasebe", "Kasa sayımı", "", ""},
	})
	result, err := s.catalog.Import(s.ctx, s.gm, good)
	s.Require().NoError(err)
	s.Equal(2, result.Imported)
	s.Equal(int64(2), result.Replaced)

	after, err := s.catalog.List(s.ctx, ListTasksInput{})
	s.Require().NoError(err)
	s.Len(after, 3)
	customOnly, err := s.catalog.List(s.ctx, ListTasksInput{CustomOnly: true})
	s.Require().NoError(err)
	s.Require().Len(customOnly, 1)
	s.Equal(custom.Task.ID, customOnly[0].ID)

	got, err := s.assignments.Get(s.ctx, s.gm, used.ID)
	s.Require().NoError(err)
	s.Equal(s.plainTask.Title, got.Task.Title, "history still resolves the replaced task")

	_, err = s.assignments.Create(s.ctx, s.gm, CreateAssignmentInput{TaskID: s.plainTask.ID, AssignedTo: s.supervisor.ID})
	s.ErrorIs(err, ErrTaskUnavailable)

	_, err = s.catalog.Import(s.ctx, s.supervisor, s.catalogWorkbook(nil))
	s.ErrorIs(err, ErrGeneralManagerOnly)
}

func (s *ServicesTestSuite) TestCreateCustomWithAssignDate() {
	shift := s.createUser("Vardiya Amiri", models.RoleShiftSupervisor, models.DepartmentStation)

	result, err := s.catalog.CreateCustom(s.ctx, s.gm, CreateTaskInput{
		Title:      "Acil tank kontrolü",
		Department: models.DepartmentStation,
		Priority:   models.PriorityHigh,
		AssignDate: "2024-01-03",
	})
	s.Require().NoError(err)
	s.True(result.Task.IsCustom)
	s.Equal(models.FrequencyOnce, result.Task.Frequency)
	s.Len(result.Assignments, 2)

	owners := []string{result.Assignments[0].AssignedTo, result.Assignments[1].AssignedTo}
	s.ElementsMatch([]string{s.supervisor.ID, shift.ID}, owners)

	_, err = s.catalog.CreateCustom(s.ctx, s.gm, CreateTaskInput{Title: "x", Department: models.DepartmentStation, AssignDate: "yarın"})
	s.ErrorIs(err, ErrInvalidDate)
	_, err = s.catalog.CreateCustom(s.ctx, s.gm, CreateTaskInput{Title: " ", Department: models.DepartmentStation})
	s.ErrorIs(err, ErrTitleRequired)
}

func (s *ServicesTestSuite) TestCreateCustomNotifiesSupervisors() {
	_, err := s.catalog.CreateCustom(s.ctx, s.gm, CreateTaskInput{Title: "Tabela temizliği", Department: models.DepartmentStation})
	s.Require().NoError(err)

	list, err := s.notifications.ListUnread(s.ctx, s.supervisor.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Nil(list[0].AssignmentID)
}

func (s *ServicesTestSuite) TestExportReport() {
	s.assign(s.plainTask)

	var buf bytes.Buffer
	s.Require().NoError(s.assignments.Export(s.ctx, s.gm, ListAssignmentsInput{}, &buf))

	f, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *ServicesTestSuite) TestComments() {
	a := s.assign(s.plainTask)

	_, err := s.comments.Create(s.ctx, s.supervisor, a.ID, "not")
	s.ErrorIs(err, ErrGeneralManagerOnly)
	_, err = s.comments.Create(s.ctx, s.gm, a.ID, "   ")
	s.ErrorIs(err, ErrCommentEmpty)

	c, err := s.comments.Create(s.ctx, s.gm, a.ID, "Fotoğrafları da ekleyin")
	s.Require().NoError(err)
	s.Equal(s.gm.ID, c.UserID)

	list, err := s.comments.List(s.ctx, s.supervisor, a.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.comments.List(s.ctx, s.staff, a.ID)
	s.ErrorIs(err, ErrAssignmentForbidden)
}

func (s *ServicesTestSuite) TestUserAdministration() {
	_, err := s.users.Create(s.ctx, s.supervisor, CreateUserInput{Email: "a@b.c"})
	s.ErrorIs(err, ErrGeneralManagerOnly)

	_, err = s.users.Create(s.ctx, s.gm, CreateUserInput{
		Email: strings.ToUpper(s.staff.Email), Password: "secret123", FullName: "Başka Ayşe",
		Role: models.RoleStaff, Department: models.DepartmentStation,
	})
	s.ErrorIs(err, ErrEmailTaken)

	_, err = s.users.Create(s.ctx, s.gm, CreateUserInput{
		Email: "yeni@istasyon.example", Password: "123", FullName: "Yeni",
		Role: models.RoleStaff, Department: models.DepartmentStation,
	})
	s.ErrorIs(err, ErrPasswordTooShort)

	name := "Ayşe K."
	updated, err := s.users.Update(s.ctx, s.supervisor, s.staff.ID, UpdateUserInput{FullName: &name})
	s.Require().NoError(err)
	s.Equal("Ayşe K.", updated.FullName)

	role := models.RoleSupervisor
	_, err = s.users.Update(s.ctx, s.supervisor, s.staff.ID, UpdateUserInput{Role: &role})
	s.ErrorIs(err, ErrSupervisorLimited)

	_, err = s.users.ToggleActive(s.ctx, s.gm, s.gm.ID)
	s.ErrorIs(err, ErrCannotToggleSelf)

	toggled, err := s.users.ToggleActive(s.ctx, s.gm, s.staff.ID)
	s.Require().NoError(err)
	s.False(toggled.IsActive)

	eligible, err := s.users.EligibleStaff(s.ctx, s.supervisor)
	s.Require().NoError(err)
	s.Empty(eligible)
}

func (s *ServicesTestSuite) TestLogin() {
	auth := NewAuthService(s.userRepo, zap.NewNop())

	user, err := auth.Login(s.ctx, LoginInput{Email: " ali.yılmaz@istasyon.example ", Password: "secret123"})
	s.Require().NoError(err)
	s.Equal(s.supervisor.ID, user.ID)

	_, err = auth.Login(s.ctx, LoginInput{Email: s.supervisor.Email, Password: "wrong"})
	s.ErrorIs(err, ErrInvalidCredentials)

	s.Require().NoError(s.db.Model(s.supervisor).Update("is_active", false).Error)
	_, err = auth.Login(s.ctx, LoginInput{Email: s.supervisor.Email, Password: "secret123"})
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = auth.GetUser(s.ctx, s.supervisor.ID)
	s.ErrorIs(err, ErrUserInactive)
}

func (s *ServicesTestSuite) TestStoreFailureIsExternal() {
	a := s.assign(s.plainTask)
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())

	_, err = s.catalog.List(s.ctx, ListTasksInput{})
	s.True(apierrors.IsKind(err, apierrors.KindExternal), "read: %v", err)

	_, err = s.notifications.MarkAllRead(s.ctx, s.supervisor.ID)
	s.True(apierrors.IsKind(err, apierrors.KindExternal), "write: %v", err)

	_, err = s.assignments.Forward(s.ctx, s.supervisor, a.ID, s.staff.ID, "")
	s.True(apierrors.IsKind(err, apierrors.KindExternal), "transition: %v", err)
}

func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}
