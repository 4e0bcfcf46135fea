package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/authz"
	"gigmarket/internal/handlers"
	"gigmarket/internal/models"
	"gigmarket/internal/routes"
	"gigmarket/internal/security"
	"gigmarket/internal/services"
)

// stubTaskService answers every call with canned data or a canned error,
// so these tests exercise only the HTTP mapping.
type stubTaskService struct {
	tasks   []models.Task
	details *services.TaskDetails
	err     error

	lastCaller authz.Caller
	lastTaskID string
	lastWorker string
}

func (s *stubTaskService) Create(ctx context.Context, caller authz.Caller, task *models.Task) (*models.Task, error) {
	s.lastCaller = caller
	if s.err != nil {
		return nil, s.err
	}
	task.ID = "t-created"
	return task, nil
}

func (s *stubTaskService) ListAll(ctx context.Context) ([]models.Task, error) {
	return s.tasks, s.err
}

func (s *stubTaskService) ListByCreator(ctx context.Context, creatorID string) ([]models.Task, error) {
	return s.tasks, s.err
}

func (s *stubTaskService) Details(ctx context.Context, caller authz.Caller, taskID string) (*services.TaskDetails, error) {
	s.lastCaller, s.lastTaskID = caller, taskID
	return s.details, s.err
}

func (s *stubTaskService) Assign(ctx context.Context, caller authz.Caller, taskID, workerID string) error {
	s.lastCaller, s.lastTaskID, s.lastWorker = caller, taskID, workerID
	return s.err
}

func (s *stubTaskService) transition(caller authz.Caller, taskID string) error {
	s.lastCaller, s.lastTaskID = caller, taskID
	return s.err
}

func (s *stubTaskService) Complete(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(caller, taskID)
}
func (s *stubTaskService) Approve(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(caller, taskID)
}
func (s *stubTaskService) Cancel(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(caller, taskID)
}
func (s *stubTaskService) Reopen(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(caller, taskID)
}
func (s *stubTaskService) Unassign(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(caller, taskID)
}
func (s *stubTaskService) Delete(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(caller, taskID)
}

type stubApplicationService struct {
	apps []models.Application
	bids []models.Bid
	err  error

	lastTaskID string
	lastBid    float64
}

func (s *stubApplicationService) Submit(ctx context.Context, caller authz.Caller, taskID string, bidPrice float64) error {
	s.lastTaskID, s.lastBid = taskID, bidPrice
	return s.err
}

func (s *stubApplicationService) CountsByTasks(ctx context.Context, taskIDs []string) (map[string]int, error) {
	return map[string]int{}, s.err
}

func (s *stubApplicationService) ListByTask(ctx context.Context, taskID string) ([]models.Application, error) {
	s.lastTaskID = taskID
	return s.apps, s.err
}

func (s *stubApplicationService) ListByWorker(ctx context.Context, userID string) ([]models.Bid, error) {
	return s.bids, s.err
}

type stubAuthService struct {
	user *models.User
	err  error
}

func (s *stubAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	return s.user, "token-123", s.err
}

func (s *stubAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	return s.user, "token-123", s.err
}

func (s *stubAuthService) Me(ctx context.Context, uid string) (*models.User, error) {
	return s.user, s.err
}

type stubUserService struct{ err error }

func (s *stubUserService) SetRole(ctx context.Context, uid, role string) error { return s.err }
func (s *stubUserService) GetUsernameByEmail(ctx context.Context, email string) (string, error) {
	return "anna", s.err
}

var (
	_ services.TaskService        = (*stubTaskService)(nil)
	_ services.ApplicationService = (*stubApplicationService)(nil)
	_ services.AuthService        = (*stubAuthService)(nil)
	_ services.UserService        = (*stubUserService)(nil)
)

type httpEnv struct {
	router *gin.Engine
	tokens *security.JWTProvider
	tasks  *stubTaskService
	apps   *stubApplicationService
}

func newHTTPEnv(t *testing.T) *httpEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tasks := &stubTaskService{}
	apps := &stubApplicationService{}
	tokens := security.NewJWTProvider("test-secret", time.Hour)

	r := gin.New()
	routes.SetupRoutes(r, tokens,
		handlers.NewAuthHandler(&stubAuthService{user: &models.User{UID: "u-1", Username: "anna"}}),
		handlers.NewUserHandler(&stubUserService{}),
		handlers.NewTaskHandler(tasks, apps),
		routes.RateLimitConfig{},
	)
	return &httpEnv{router: r, tokens: tokens, tasks: tasks, apps: apps}
}

func (e *httpEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *httpEnv) tokenFor(t *testing.T, uid, role string) string {
	t.Helper()
	token, err := e.tokens.Issue(uid, role)
	require.NoError(t, err)
	return token
}

func TestListTasksIsPublic(t *testing.T) {
	env := newHTTPEnv(t)
	env.tasks.tasks = []models.Task{{ID: "t-1", Title: "walk the dog", Status: models.StatusApplied}}

	w := env.do(t, http.MethodGet, "/tasks", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Tasks []models.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, models.StatusApplied, got.Tasks[0].Status)
}

func TestCreateTaskRequiresToken(t *testing.T) {
	env := newHTTPEnv(t)

	w := env.do(t, http.MethodPost, "/tasks", "", `{"title":"x","price":10}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTaskCreated(t *testing.T) {
	env := newHTTPEnv(t)
	token := env.tokenFor(t, "u-1", authz.RoleCustomer)

	w := env.do(t, http.MethodPost, "/tasks", token,
		`{"title":"walk the dog","price":25,"place":"park","day":"Mon","time":"10:00","type":"errand"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"Task created successfully"}`, w.Body.String())
	assert.Equal(t, authz.Caller{UID: "u-1", Role: authz.RoleCustomer}, env.tasks.lastCaller)
}

func TestApplyResponses(t *testing.T) {
	env := newHTTPEnv(t)
	token := env.tokenFor(t, "w-1", authz.RoleWorker)

	w := env.do(t, http.MethodPost, "/tasks/t-1/apply", token, `{"bid_price":15}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Application submitted"}`, w.Body.String())
	assert.Equal(t, "t-1", env.apps.lastTaskID)
	assert.Equal(t, 15.0, env.apps.lastBid)

	env.apps.err = fmt.Errorf("already applied to this task: %w", apperrors.ErrConflict)
	w = env.do(t, http.MethodPost, "/tasks/t-1/apply", token, `{"bid_price":15}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestErrorTaxonomyMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", fmt.Errorf("only the task creator may do this: %w", apperrors.ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("task t-1: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{"invalid state", fmt.Errorf("cannot assign a task in status Canceled: %w", apperrors.ErrInvalidState), http.StatusBadRequest},
		{"validation", fmt.Errorf("worker has no application for this task: %w", apperrors.ErrValidation), http.StatusBadRequest},
		{"upstream", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newHTTPEnv(t)
			env.tasks.err = tc.err
			token := env.tokenFor(t, "u-1", authz.RoleCustomer)

			w := env.do(t, http.MethodPatch, "/tasks/t-1/assign", token, `{"user_id":"w-1"}`)
			assert.Equal(t, tc.want, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tc.want == http.StatusInternalServerError {
				assert.Equal(t, "Internal server error", body["error"], "internal details stay opaque")
			} else {
				assert.Equal(t, tc.err.Error(), body["error"])
			}
		})
	}
}

func TestAssignPassesWorkerID(t *testing.T) {
	env := newHTTPEnv(t)
	token := env.tokenFor(t, "u-1", authz.RoleCustomer)

	w := env.do(t, http.MethodPatch, "/tasks/t-9/assign", token, `{"user_id":"w-2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Worker assigned successfully"}`, w.Body.String())
	assert.Equal(t, "t-9", env.tasks.lastTaskID)
	assert.Equal(t, "w-2", env.tasks.lastWorker)
}

func TestLifecycleEndpointMessages(t *testing.T) {
	cases := []struct {
		method, path, wantBody string
	}{
		{http.MethodPatch, "/tasks/t-1/complete", `{"success":true,"message":"Task marked as done"}`},
		{http.MethodPatch, "/tasks/t-1/approve", `{"message":"Task confirmed as completed"}`},
		{http.MethodPatch, "/tasks/t-1/cancel", `{"message":"Task canceled"}`},
		{http.MethodPatch, "/tasks/t-1/reopen", `{"message":"Task reopened successfully"}`},
		{http.MethodPatch, "/tasks/t-1/unassign", `{"message":"Assignment cancelled successfully"}`},
		{http.MethodDelete, "/tasks/t-1", `{"message":"Task deleted successfully"}`},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			env := newHTTPEnv(t)
			token := env.tokenFor(t, "u-1", authz.RoleCustomer)

			w := env.do(t, tc.method, tc.path, token, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tc.wantBody, w.Body.String())
			assert.Equal(t, "t-1", env.tasks.lastTaskID)
		})
	}
}

func TestApplicationsReturnsBareArray(t *testing.T) {
	env := newHTTPEnv(t)
	token := env.tokenFor(t, "u-1", authz.RoleCustomer)

	w := env.do(t, http.MethodGet, "/tasks/t-1/applications", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	env.apps.apps = []models.Application{{TaskID: "t-1", UserID: "w-1", BidPrice: 20}}
	w = env.do(t, http.MethodGet, "/tasks/t-1/applications", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "w-1", got[0].UserID)
}

func TestDetailsResponseShape(t *testing.T) {
	env := newHTTPEnv(t)
	env.tasks.details = &services.TaskDetails{
		Task:         models.Task{ID: "t-1", Title: "walk the dog", Status: models.StatusApplied},
		Applications: []models.Application{{TaskID: "t-1", UserID: "w-1", BidPrice: 20}},
		Meta:         services.TaskDetailsMeta{HasApplied: true},
	}
	token := env.tokenFor(t, "w-1", authz.RoleWorker)

	w := env.do(t, http.MethodGet, "/tasks/t-1/details", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Task models.Task `json:"task"`
		Meta struct {
			HasApplied       bool `json:"hasApplied"`
			IsAssignedToUser bool `json:"isAssignedToUser"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "t-1", got.Task.ID)
	assert.True(t, got.Meta.HasApplied)
	assert.False(t, got.Meta.IsAssignedToUser)
}

func TestRegisterAndMe(t *testing.T) {
	env := newHTTPEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", "",
		`{"email":"anna@example.com","password":"secret99","username":"anna"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Contains(t, got, "user")
	assert.Contains(t, got, "token")

	token := env.tokenFor(t, "u-1", authz.RoleCustomer)
	w = env.do(t, http.MethodGet, "/auth/me", token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
