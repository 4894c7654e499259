package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/taskvault/internal/models"
)

// MockAccountStore implements AccountStore for testing
type MockAccountStore struct {
	FindByEmailFunc             func(ctx context.Context, email string) (*models.Account, error)
	GetByIDFunc                 func(ctx context.Context, id string) (*models.Account, error)
	CreateFunc                  func(ctx context.Context, account *models.Account) (*models.Account, error)
	IncrementFailedAttemptsFunc func(ctx context.Context, id string, maxAttempts int, at time.Time) (*models.Account, error)
	ClearLockAndFailuresFunc    func(ctx context.Context, id string) error
	TouchLastLoginFunc          func(ctx context.Context, id string, at time.Time) (*models.Account, error)
}

func (m *MockAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountStore) IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int, at time.Time) (*models.Account, error) {
	if m.IncrementFailedAttemptsFunc != nil {
		return m.IncrementFailedAttemptsFunc(ctx, id, maxAttempts, at)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountStore) ClearLockAndFailures(ctx context.Context, id string) error {
	if m.ClearLockAndFailuresFunc != nil {
		return m.ClearLockAndFailuresFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountStore) TouchLastLogin(ctx context.Context, id string, at time.Time) (*models.Account, error) {
	if m.TouchLastLoginFunc != nil {
		return m.TouchLastLoginFunc(ctx, id, at)
	}
	return nil, models.ErrInternalServer
}

// MockOTPStore implements OTPStore for testing
type MockOTPStore struct {
	CreateFunc            func(ctx context.Context, email, codeHash string, expiresAt time.Time) (*models.OTPChallenge, error)
	FindValidFunc         func(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error)
	IncrementAttemptsFunc func(ctx context.Context, email string) (int, error)
	MarkUsedFunc          func(ctx context.Context, id string) error
	PurgeExpiredFunc      func(ctx context.Context) (int64, error)
}

func (m *MockOTPStore) Create(ctx context.Context, email, codeHash string, expiresAt time.Time) (*models.OTPChallenge, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, email, codeHash, expiresAt)
	}
	return &models.OTPChallenge{ID: "challenge-1", Email: email, CodeHash: codeHash, ExpiresAt: expiresAt}, nil
}

func (m *MockOTPStore) FindValid(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error) {
	if m.FindValidFunc != nil {
		return m.FindValidFunc(ctx, email, codeHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockOTPStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	if m.IncrementAttemptsFunc != nil {
		return m.IncrementAttemptsFunc(ctx, email)
	}
	return 0, models.ErrNotFound
}

func (m *MockOTPStore) MarkUsed(ctx context.Context, id string) error {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, id)
	}
	return nil
}

func (m *MockOTPStore) PurgeExpired(ctx context.Context) (int64, error) {
	if m.PurgeExpiredFunc != nil {
		return m.PurgeExpiredFunc(ctx)
	}
	return 0, nil
}

// MockAuditSink records every event it receives
type MockAuditSink struct {
	mu     sync.Mutex
	Events []*models.SecurityEvent
}

func (m *MockAuditSink) Record(ctx context.Context, event *models.SecurityEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// Last returns the most recent event, or nil
func (m *MockAuditSink) Last() *models.SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Events) == 0 {
		return nil
	}
	return m.Events[len(m.Events)-1]
}

func (m *MockAuditSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

// MockCodeSender implements CodeSender for testing
type MockCodeSender struct {
	SendCodeFunc func(ctx context.Context, email, code string, expiresAt time.Time) error
	Sent         []string
}

func (m *MockCodeSender) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	if m.SendCodeFunc != nil {
		if err := m.SendCodeFunc(ctx, email, code, expiresAt); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, code)
	return nil
}

// MockSecurityEventRepository implements SecurityEventRepository for testing
type MockSecurityEventRepository struct {
	CreateFunc                func(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
	ListByEmailFunc           func(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error)
	CountFailuresByIPFunc     func(ctx context.Context, ipAddress string, since time.Time) (int, error)
	CountFailuresByDeviceFunc func(ctx context.Context, fingerprint string, since time.Time) (int, error)
}

func (m *MockSecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	return event, nil
}

func (m *MockSecurityEventRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error) {
	if m.ListByEmailFunc != nil {
		return m.ListByEmailFunc(ctx, email, limit, offset)
	}
	return []*models.SecurityEvent{}, nil
}

func (m *MockSecurityEventRepository) CountFailuresByIP(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	if m.CountFailuresByIPFunc != nil {
		return m.CountFailuresByIPFunc(ctx, ipAddress, since)
	}
	return 0, nil
}

func (m *MockSecurityEventRepository) CountFailuresByDevice(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	if m.CountFailuresByDeviceFunc != nil {
		return m.CountFailuresByDeviceFunc(ctx, fingerprint, since)
	}
	return 0, nil
}

// MockTaskRepository implements TaskRepository for testing
type MockTaskRepository struct {
	CreateFunc  func(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByIDFunc func(ctx context.Context, accountID, id string) (*models.Task, error)
	ListFunc    func(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error)
	UpdateFunc  func(ctx context.Context, task *models.Task) (*models.Task, error)
	DeleteFunc  func(ctx context.Context, accountID, id string) error
	StatsFunc   func(ctx context.Context, accountID string) (*models.TaskStats, error)
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, task)
	}
	task.ID = "task-1"
	return task, nil
}

func (m *MockTaskRepository) GetByID(ctx context.Context, accountID, id string) (*models.Task, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, accountID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTaskRepository) List(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, accountID, filter)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, task)
	}
	return task, nil
}

func (m *MockTaskRepository) Delete(ctx context.Context, accountID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, accountID, id)
	}
	return nil
}

func (m *MockTaskRepository) Stats(ctx context.Context, accountID string) (*models.TaskStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, accountID)
	}
	return &models.TaskStats{ByStatus: map[string]int{}, ByPriority: map[string]int{}}, nil
}

// NewTestAccount creates an account whose password is "SecureP@ss123"
func NewTestAccount(id, email, passwordHash string) *models.Account {
	now := time.Now()
	return &models.Account{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  "Test Account",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
