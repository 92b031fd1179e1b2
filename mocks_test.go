package accounts_test

import (
	"context"
	"sync"

	accounts "github.com/calder-io/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserStore implements accounts.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	args := m.Called(ctx, email)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*accounts.User, error) {
	args := m.Called(ctx, id)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) ListPending(ctx context.Context) ([]*accounts.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounts.User), args.Error(1)
}

func (m *MockUserStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockUserStore) Insert(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(*accounts.User) *accounts.User); ok {
		return fn(user), args.Error(1)
	}
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(*accounts.User) *accounts.User); ok {
		return fn(user), args.Error(1)
	}
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserStore) IncrementTokenVersion(ctx context.Context, id uuid.UUID) (*accounts.User, error) {
	args := m.Called(ctx, id)
	return userArg(args.Get(0)), args.Error(1)
}

func userArg(v any) *accounts.User {
	if v == nil {
		return nil
	}
	return v.(*accounts.User)
}

// MockMailer implements accounts.ResetMailer and records deliveries so tests
// can wait for the async send
type MockMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	err    error
	signal chan struct{}
}

type sentMail struct {
	email string
	token string
}

func NewMockMailer() *MockMailer {
	return &MockMailer{signal: make(chan struct{}, 8)}
}

func (m *MockMailer) FailWith(err error) *MockMailer {
	m.err = err
	return m
}

func (m *MockMailer) SendResetEmail(email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		m.signal <- struct{}{}
		return m.err
	}

	m.sent = append(m.sent, sentMail{email: email, token: token})
	m.signal <- struct{}{}
	return nil
}

func (m *MockMailer) Wait() {
	<-m.signal
}

func (m *MockMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

// MockLogger implements accounts.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// quietLogger discards everything; used where log assertions add noise
type quietLogger struct{}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
func (quietLogger) Warn(format string, args ...any)  {}
func (quietLogger) Error(format string, args ...any) {}
