package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/course_enrollment/internal/logging"
	"github.com/Skotchmaster/course_enrollment/internal/models"
	"github.com/Skotchmaster/course_enrollment/internal/repo"
)

// VerifyEmail consumes the user's verification code. A code works once.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	l := logging.FromContext(ctx).With("svc", "auth.verify")

	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return missingData()
	}

	user, err := s.unverifiedUser(ctx, email)
	if err != nil {
		return err
	}

	ok, err := s.Repo.ConsumeVerificationCode(ctx, user.ID, code)
	if err != nil {
		l.Error("verify_error", "status", 400, "error", err)
		return fmt.Errorf("%w: consume code: %w", ErrUpstream, err)
	}
	if !ok {
		l.Warn("verify_rejected", "status", 409, "reason", "code mismatch")
		return &ValidationError{Msg: "Invalid verification code"}
	}

	l.Info("email_verified", "user_id", user.ID.String())
	return nil
}

// ResendVerification replaces the pending code and sends the new one.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.resend")

	if email == "" {
		return missingData()
	}

	user, err := s.unverifiedUser(ctx, email)
	if err != nil {
		return err
	}

	code, err := s.Codes.NewCode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if err := s.Repo.SetVerificationCode(ctx, user.ID, code); err != nil {
		l.Error("resend_error", "status", 400, "error", err)
		return fmt.Errorf("%w: store code: %w", ErrUpstream, err)
	}

	s.dispatchVerification(ctx, user.Email, code)
	return nil
}

func (s *AuthService) unverifiedUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: find user: %w", ErrUpstream, err)
	}
	if user.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}
	return user, nil
}
