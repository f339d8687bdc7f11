package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/sqlite"
)

var testStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store      repository.Store
	clock      *clock.FakeClock
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
	auth       *AuthService
	tickets    *TicketService
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
	}
}

func newFixture(t *testing.T, revocations *mockRevocations) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.NewSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "svc.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, persistence.RunSQLiteMigrations(ctx, db.DB, zap.NewNop()))

	f := &fixture{
		store:      sqlite.NewStore(db.DB),
		clock:      clock.Fake(testStart),
		metrics:    observability.NewMetrics(),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	NewActivityRecorder(f.dispatcher, zap.NewNop(), f.metrics).RegisterHandlers()

	deps := AuthDependencies{UserRepo: f.store.Users, Clock: f.clock}
	if revocations != nil {
		deps.Revocations = revocations
	}
	f.auth = NewAuthService(testConfig(), deps)
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo: f.store.Tickets,
		UserRepo:   f.store.Users,
		Dispatcher: f.dispatcher,
		Clock:      f.clock,
		Logger:     zap.NewNop(),
	})
	return f
}

// member registers a member and returns its session.
func (f *fixture) member(t *testing.T, name, email string) *domain.Session {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "pa55word"})
	require.NoError(t, err)
	return f.session(t, res.User.ID)
}

// admin creates an admin account and returns its session.
func (f *fixture) admin(t *testing.T, name, email string) *domain.Session {
	t.Helper()
	user, created, err := f.auth.EnsureAdmin(context.Background(), RegisterInput{Name: name, Email: email, Password: "pa55word"})
	require.NoError(t, err)
	require.True(t, created)
	return f.session(t, user.ID)
}

func (f *fixture) session(t *testing.T, userID string) *domain.Session {
	t.Helper()
	user, err := f.store.Users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return &domain.Session{User: user, TokenID: "tok-" + userID, ExpiresAt: f.clock.Now().Add(time.Hour)}
}

type mockRevocations struct {
	mock.Mock
}

func (m *mockRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *mockRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}
