package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/dewhitt/dashboard-api/internal/handler"
	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/middleware"
	"github.com/dewhitt/dashboard-api/internal/model"
	"github.com/dewhitt/dashboard-api/internal/queue"
	"github.com/dewhitt/dashboard-api/internal/repository"
	"github.com/dewhitt/dashboard-api/internal/router"
	"github.com/dewhitt/dashboard-api/internal/service"
	"github.com/dewhitt/dashboard-api/internal/utils"
)

// memUsers is an in-memory credential store satisfying every user-facing
// interface the handlers and services need.
type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]*model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.SubscriptionStatus = model.SubscriptionInactive
	u.PlanTier = model.PlanFree
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	cp := *u
	cp.PasswordHash = ""
	cp.VerificationToken = nil
	return cp, nil
}

func (m *memUsers) ConfirmEmail(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			u.IsVerified = true
			u.VerificationToken = nil
			return nil
		}
	}
	return repository.ErrVerificationTokenNotFound
}

func (m *memUsers) UpdateProfile(_ context.Context, id uint64, p model.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	return nil
}

func (m *memUsers) UpdateMetrics(_ context.Context, id uint64, p model.MetricsPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if p.Height != nil {
		u.Height = p.Height
	}
	if p.CurrentWeight != nil {
		u.CurrentWeight = p.CurrentWeight
	}
	if p.GoalWeight != nil {
		u.GoalWeight = p.GoalWeight
	}
	if p.Unit != nil {
		u.Unit = p.Unit
	}
	return nil
}

func (m *memUsers) ListMembersWithProjects(_ context.Context) ([]model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Client{}
	for id := uint64(1); id <= m.nextID; id++ {
		if u, ok := m.byID[id]; ok && u.Role == model.RoleMember {
			cp := *u
			cp.PasswordHash = ""
			out = append(out, model.Client{User: cp})
		}
	}
	return out, nil
}

func (m *memUsers) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) tokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email && u.VerificationToken != nil {
			return *u.VerificationToken
		}
	}
	return ""
}

// seed stores a verified user with the given password and role.
func (m *memUsers) seed(t *testing.T, email, password, role string) uint64 {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	u := model.User{Email: email, PasswordHash: hash, FirstName: "Test", LastName: role, Role: role, IsVerified: true}
	require.NoError(t, m.Create(context.Background(), &u))
	return u.ID
}

type nopNotifier struct{}

func (nopNotifier) SendVerification(context.Context, queue.VerificationRequested) error { return nil }

type app struct {
	e     *echo.Echo
	users *memUsers
	auth  *service.AuthService
	mock  sqlmock.Sqlmock
}

// newApp wires the full HTTP surface over an in-memory user store and a
// sqlmock database for goals, logs and projects.
func newApp(t *testing.T) *app {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return buildApp(t, db, mock)
}

func buildApp(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *app {
	t.Helper()
	log := logging.Discard()
	users := newMemUsers()
	codec := utils.NewTokenCodec("test-secret", time.Hour)
	authSvc := service.NewAuthService(users, codec, nopNotifier{}, service.AuthConfig{
		BcryptCost: 4,
		ClientURL:  "http://localhost:5173",
	}, log)
	t.Cleanup(authSvc.Wait)

	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	passThrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	auth := middleware.JWTAuth(codec, users, log)
	projects := repository.NewProjectRepo(db)

	router.RegisterRoutes(e, nil)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), passThrough)
	router.RegisterMember(e, router.MemberHandlers{
		Users:    handler.NewUserHandler(service.NewUserService(users, 4)),
		Goals:    handler.NewGoalHandler(repository.NewGoalRepo(db)),
		Logs:     handler.NewLogHandler(repository.NewExerciseLogRepo(db)),
		Projects: handler.NewProjectHandler(projects),
	}, auth)
	router.RegisterAdmin(e, handler.NewAdminHandler(users, projects, log), auth)

	return &app{e: e, users: users, auth: authSvc, mock: mock}
}

func (a *app) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

// login returns a session token for an existing verified user.
func (a *app) login(t *testing.T, email, password string) string {
	t.Helper()
	rec, body := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}
