package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fuelops/task-tracker/internal/constants"
	"github.com/fuelops/task-tracker/internal/database"
	"github.com/fuelops/task-tracker/internal/mailer"
	"github.com/fuelops/task-tracker/internal/middleware"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/notify"
	"github.com/fuelops/task-tracker/internal/realtime"
	"github.com/fuelops/task-tracker/internal/repository"
	"github.com/fuelops/task-tracker/internal/services"
	"github.com/fuelops/task-tracker/internal/storage"
)

const testPassword = "secret123"

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *memStore) URL(key string) string { return "/files/" + key }

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(ctx context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}
	o.sent = append(o.sent, msg)
	return nil
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	mail     *outbox
	hub      *realtime.MemoryHub
	registry *notify.Registry
	users    repository.UserRepository
	tasks    repository.TaskRepository

	gm         *models.User
	supervisor *models.User
	staff      *models.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	t.Cleanup(func() {
		sqlDB.Close()
	})

	log := zap.NewNop()
	env := &testEnv{
		db:       db,
		mail:     &outbox{},
		hub:      realtime.NewMemoryHub(),
		registry: notify.NewRegistry(),
		users:    repository.NewUserRepository(db),
		tasks:    repository.NewTaskRepository(db),
	}
	assignmentRepo := repository.NewAssignmentRepository(db)

	authService := services.NewAuthService(env.users, log)
	notifications := services.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewSoundPreferenceRepository(db),
		env.hub,
		log,
	)
	attachments := services.NewAttachmentService(assignmentRepo, &memStore{objects: map[string][]byte{}}, 0, log)
	assignments := services.NewAssignmentService(assignmentRepo, env.tasks, env.users, attachments, notifications, time.UTC, log)
	catalog := services.NewCatalogService(env.tasks, env.users, assignments, notifications, nil, log)
	comments := services.NewCommentService(repository.NewCommentRepository(db), assignmentRepo)
	reports := services.NewReportService(assignmentRepo, env.mail, "mudur@istasyon.example", time.UTC, log)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r.Group("/api"), Handlers{
		Auth:          NewAuthHandler(authService, false),
		Users:         NewUserHandler(services.NewUserService(env.users, log)),
		Tasks:         NewTaskHandler(catalog),
		Assignments:   NewAssignmentHandler(assignments, attachments, comments),
		Notifications: NewNotificationHandler(notifications, env.registry, log),
		Reports:       NewReportHandler(reports),
	}, authService, assignments)
	env.router = r

	env.gm = env.createUser(t, "mudur@istasyon.example", "Genel Müdür", models.RoleGeneralManager, models.DepartmentManagement)
	env.supervisor = env.createUser(t, "ali@istasyon.example", "Ali Yılmaz", models.RoleSupervisor, models.DepartmentStation)
	env.staff = env.createUser(t, "ayse@istasyon.example", "Ayşe Kaya", models.RoleStaff, models.DepartmentStation)
	return env
}

func (e *testEnv) createUser(t *testing.T, email, name string, role models.Role, dept models.Department) *models.User {
	t.Helper()
	hash, err := services.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{Email: email, FullName: name, Role: role, Department: dept, IsActive: true, PasswordHash: hash}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) createTask(t *testing.T, title string, photo bool) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:         title,
		Department:    models.DepartmentStation,
		Frequency:     models.FrequencyDaily,
		Priority:      models.PriorityMedium,
		RequiresPhoto: photo,
		IsActive:      true,
	}
	require.NoError(t, e.tasks.Create(context.Background(), task))
	return task
}

// login returns the session cookies of user.
func (e *testEnv) login(t *testing.T, user *models.User) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    user.Email,
		"password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
	return cookies
}

// do sends a JSON request; body may be nil.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, cookies)
}

func (e *testEnv) send(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

// handlerSuite gives every suite a fresh database and router per test.
type handlerSuite struct {
	suite.Suite
	env *testEnv
}

func (s *handlerSuite) SetupTest() {
	s.env = setupTestEnv(s.T())
}

func today() string {
	return time.Now().UTC().Format(constants.DateLayout)
}

// assign creates an assignment of task for the supervisor through the API.
func (s *handlerSuite) assign(task *models.Task, gmCookies []*http.Cookie) string {
	w := s.env.do(s.T(), http.MethodPost, "/api/assignments", map[string]interface{}{
		"task_id":       task.ID,
		"assigned_to":   s.env.supervisor.ID,
		"assigned_date": today(),
	}, gmCookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		ID string `json:"id"`
	}
	decode(s.T(), w, &body)
	return body.ID
}

type upload struct {
	field, name, contentType string
	content                  []byte
}

// multipartRequest builds a multipart POST with plain fields and files.
func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
