package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/course_enrollment/internal/db/dbtest"
	"github.com/Skotchmaster/course_enrollment/internal/repo"
	"github.com/Skotchmaster/course_enrollment/internal/tokens"
	"github.com/Skotchmaster/course_enrollment/internal/transport"
)

type fakeDomains struct {
	mu      sync.Mutex
	invalid map[string]bool
	calls   int
}

func (f *fakeDomains) CanReceiveMail(_ context.Context, email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return !f.invalid[email]
}

type sentMail struct {
	To   string
	Code string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) SendVerification(_ context.Context, to, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Code: code})
	return nil
}

func (f *fakeNotifier) Sent() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sent...)
}

type seqCodes struct {
	mu sync.Mutex
	n  int
}

func (s *seqCodes) NewCode() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%08d", 12345677+s.n), nil
}

type failingCodes struct{}

func (failingCodes) NewCode() (string, error) { return "", errors.New("entropy exhausted") }

type testEnv struct {
	db       *gorm.DB
	repo     *repo.GormRepo
	domains  *fakeDomains
	notifier *fakeNotifier
	svc      *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := dbtest.New(t)
	env := &testEnv{
		db:       gdb,
		repo:     repo.New(gdb),
		domains:  &fakeDomains{invalid: map[string]bool{}},
		notifier: &fakeNotifier{},
	}
	env.svc = &AuthService{
		Repo: env.repo,
		Tokens: &tokens.Issuer{
			AccessSecret:  []byte("test-access-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
			AccessTTL:     10 * time.Second,
			RefreshTTL:    24 * time.Hour,
		},
		Domains:     env.domains,
		Notifier:    env.notifier,
		Codes:       &seqCodes{},
		MailTimeout: time.Second,
	}
	t.Cleanup(env.svc.WaitDispatches)
	return env
}

func validRegistration(email string) transport.RegisterRequest {
	return transport.RegisterRequest{
		FirstName: "Tony",
		LastName:  "Hawk",
		Email:     email,
		Password:  "longenough1",
		Age:       "21",
		Gender:    "male",
		Telephone: "0512345678",
	}
}

func (env *testEnv) register(t *testing.T, email string) {
	t.Helper()
	_, err := env.svc.Register(context.Background(), validRegistration(email))
	require.NoError(t, err)
	env.svc.WaitDispatches()
}
