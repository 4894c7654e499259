package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/BradenHooton/taskvault/internal/services"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds access token claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Type:   auth.TokenTypeAccess,
	}
	claims.ID = "jti-" + userID
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockLoginGuard implements LoginGuardService for testing
type MockLoginGuard struct {
	InitiateLoginFunc func(ctx context.Context, email, password string, client services.ClientContext) (*services.LoginChallenge, error)
	VerifyOTPFunc     func(ctx context.Context, email, code string, client services.ClientContext) (*models.AccountProfile, error)
	ResendOTPFunc     func(ctx context.Context, email string, client services.ClientContext) (*services.LoginChallenge, error)
}

func (m *MockLoginGuard) InitiateLogin(ctx context.Context, email, password string, client services.ClientContext) (*services.LoginChallenge, error) {
	if m.InitiateLoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.InitiateLoginFunc(ctx, email, password, client)
}

func (m *MockLoginGuard) VerifyOTP(ctx context.Context, email, code string, client services.ClientContext) (*models.AccountProfile, error) {
	if m.VerifyOTPFunc == nil {
		return nil, models.ErrInvalidOrExpiredOTP
	}
	return m.VerifyOTPFunc(ctx, email, code, client)
}

func (m *MockLoginGuard) ResendOTP(ctx context.Context, email string, client services.ClientContext) (*services.LoginChallenge, error) {
	if m.ResendOTPFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ResendOTPFunc(ctx, email, client)
}

// MockAccountRegistrar implements AccountRegistrar for testing
type MockAccountRegistrar struct {
	RegisterFunc func(ctx context.Context, email, password, displayName, avatarURL string, client services.ClientContext) (*models.AccountProfile, error)
}

func (m *MockAccountRegistrar) Register(ctx context.Context, email, password, displayName, avatarURL string, client services.ClientContext) (*models.AccountProfile, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, email, password, displayName, avatarURL, client)
}

// MockSessionBinder implements SessionBinder for testing
type MockSessionBinder struct {
	BindFunc    func(ctx context.Context, profile *models.AccountProfile) (*auth.TokenPair, error)
	RefreshFunc func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	LogoutFunc  func(ctx context.Context, access *models.TokenClaims, refreshToken string, client services.ClientContext) error
}

func (m *MockSessionBinder) Bind(ctx context.Context, profile *models.AccountProfile) (*auth.TokenPair, error) {
	if m.BindFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.BindFunc(ctx, profile)
}

func (m *MockSessionBinder) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockSessionBinder) Logout(ctx context.Context, access *models.TokenClaims, refreshToken string, client services.ClientContext) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, access, refreshToken, client)
}

// MockRateLimiter implements LoginRateLimiter for testing
type MockRateLimiter struct {
	CheckRateLimitFunc func(ctx context.Context, client services.ClientContext) error
}

func (m *MockRateLimiter) CheckRateLimit(ctx context.Context, client services.ClientContext) error {
	if m.CheckRateLimitFunc == nil {
		return nil
	}
	return m.CheckRateLimitFunc(ctx, client)
}

// MockTaskService implements TaskServiceInterface for testing
type MockTaskService struct {
	CreateFunc func(ctx context.Context, accountID string, task *models.Task) (*models.Task, error)
	GetFunc    func(ctx context.Context, accountID, id string) (*models.Task, error)
	ListFunc   func(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error)
	UpdateFunc func(ctx context.Context, accountID, id string, patch services.TaskPatch) (*models.Task, error)
	DeleteFunc func(ctx context.Context, accountID, id string) error
	StatsFunc  func(ctx context.Context, accountID string) (*models.TaskStats, error)
}

func (m *MockTaskService) Create(ctx context.Context, accountID string, task *models.Task) (*models.Task, error) {
	if m.CreateFunc == nil {
		return task, nil
	}
	return m.CreateFunc(ctx, accountID, task)
}

func (m *MockTaskService) Get(ctx context.Context, accountID, id string) (*models.Task, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, accountID, id)
}

func (m *MockTaskService) List(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error) {
	if m.ListFunc == nil {
		return []*models.Task{}, nil
	}
	return m.ListFunc(ctx, accountID, filter)
}

func (m *MockTaskService) Update(ctx context.Context, accountID, id string, patch services.TaskPatch) (*models.Task, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateFunc(ctx, accountID, id, patch)
}

func (m *MockTaskService) Delete(ctx context.Context, accountID, id string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, accountID, id)
}

func (m *MockTaskService) Stats(ctx context.Context, accountID string) (*models.TaskStats, error) {
	if m.StatsFunc == nil {
		return &models.TaskStats{}, nil
	}
	return m.StatsFunc(ctx, accountID)
}

// MockSecurityEventLister implements SecurityEventLister for testing
type MockSecurityEventLister struct {
	ListForAccountFunc func(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error)
}

func (m *MockSecurityEventLister) ListForAccount(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error) {
	if m.ListForAccountFunc == nil {
		return []*models.SecurityEvent{}, nil
	}
	return m.ListForAccountFunc(ctx, email, limit, offset)
}
