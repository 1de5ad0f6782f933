package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/course_enrollment/internal/logging"
	"github.com/Skotchmaster/course_enrollment/internal/models"
	"github.com/Skotchmaster/course_enrollment/internal/tokens"
)

const defaultMailTimeout = 30 * time.Second

// Store is the credential store the flows depend on; *repo.GormRepo implements it.
type Store interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserProfile(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetVerificationCode(ctx context.Context, id uuid.UUID, code string) error
	ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code string) (bool, error)
	EnrolledCourses(ctx context.Context, userID uuid.UUID) ([]models.Course, error)

	AddRefreshToken(ctx context.Context, token string, rec *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	PurgeExpiredRefreshTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

type DomainChecker interface {
	CanReceiveMail(ctx context.Context, email string) bool
}

type Notifier interface {
	SendVerification(ctx context.Context, to, code string) error
}

type CodeGenerator interface {
	NewCode() (string, error)
}

type AuthService struct {
	Repo     Store
	Tokens   *tokens.Issuer
	Domains  DomainChecker
	Notifier Notifier
	Codes    CodeGenerator

	MailTimeout time.Duration

	mail sync.WaitGroup
}

// Session is what a successful login or refresh hands back to the transport.
type Session struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
	User         *models.User
}

// dispatchVerification sends the code in the background. The caller's
// response never waits for it and never sees its failure.
func (s *AuthService) dispatchVerification(ctx context.Context, email, code string) {
	l := logging.FromContext(ctx).With("svc", "auth.notify", "to", email)
	timeout := s.MailTimeout
	if timeout <= 0 {
		timeout = defaultMailTimeout
	}
	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	s.mail.Add(1)
	go func() {
		defer s.mail.Done()
		defer cancel()
		if err := s.Notifier.SendVerification(mailCtx, email, code); err != nil {
			l.Error("verification_email_failed", "error", err)
			return
		}
		l.Info("verification_email_dispatched")
	}()
}

// WaitDispatches blocks until every background email dispatch has returned.
func (s *AuthService) WaitDispatches() {
	s.mail.Wait()
}
