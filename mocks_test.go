package accounts_test

import (
	"context"
	"sync"
	"time"

	accounts "github.com/goliatone/go-accounts"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements accounts.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	if rec := args.Get(0); rec != nil {
		return rec.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) GetByToken(ctx context.Context, token string) (*accounts.Account, error) {
	args := m.Called(ctx, token)
	if rec := args.Get(0); rec != nil {
		return rec.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) Register(ctx context.Context, record *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, record)
	if rec := args.Get(0); rec != nil {
		return rec.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*accounts.Account, error) {
	args := m.Called(ctx, token, now)
	if rec := args.Get(0); rec != nil {
		return rec.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) (*accounts.Account, error) {
	args := m.Called(ctx, id, now)
	if rec := args.Get(0); rec != nil {
		return rec.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCredentialProvider implements accounts.CredentialProvider
type MockCredentialProvider struct {
	mock.Mock
}

func (m *MockCredentialProvider) Create(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialProvider) Authenticate(ctx context.Context, email, password string) (*accounts.ProviderSession, error) {
	args := m.Called(ctx, email, password)
	if sess := args.Get(0); sess != nil {
		return sess.(*accounts.ProviderSession), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNotifier implements accounts.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerification(ctx context.Context, email, token, baseLink string) error {
	args := m.Called(ctx, email, token, baseLink)
	return args.Error(0)
}

type capturingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt accounts.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) Events() []accounts.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]accounts.ActivityEvent, len(c.events))
	copy(out, c.events)
	return out
}

func notFound() error {
	return repository.NewRecordNotFound()
}
