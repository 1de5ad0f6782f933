package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/course_enrollment/internal/hash"
	"github.com/Skotchmaster/course_enrollment/internal/logging"
	"github.com/Skotchmaster/course_enrollment/internal/models"
	"github.com/Skotchmaster/course_enrollment/internal/repo"
)

// Refresh exchanges a stored refresh token for a new access token. The token
// must be in the store and its signed user id must equal the stored owner.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		l.Warn("refresh_rejected", "status", 401, "reason", "refresh cookie missing")
		return nil, ErrMissingToken
	}

	stored, err := s.Repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_rejected", "status", 403, "reason", "refresh token not found")
			return nil, ErrRefreshNotFound
		}
		l.Error("refresh_error", "status", 400, "reason", "cannot look up refresh token", "error", err)
		return nil, fmt.Errorf("%w: find refresh token: %w", ErrUpstream, err)
	}

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		l.Warn("refresh_rejected", "status", 403, "reason", "bad signature or expired", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}
	if claims.UserID != stored.UserID.String() {
		l.Warn("refresh_rejected", "status", 403, "reason", "user id mismatch")
		return nil, ErrInvalidRefreshToken
	}

	accessToken, accessExp, err := s.Tokens.IssueAccess(claims.UserID)
	if err != nil {
		l.Error("refresh_error", "status", 400, "reason", "cannot sign access token", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	user, err := s.loadProfile(ctx, stored.UserID)
	if err != nil {
		l.Warn("refresh_failed", "reason", "cannot load user", "error", err)
		return nil, err
	}

	l.Info("refresh_successful", "user_id", claims.UserID)
	return &Session{
		AccessToken: accessToken,
		AccessExp:   accessExp,
		User:        user,
	}, nil
}

// Login checks the password and opens a session: a fresh access token plus a
// refresh token whose record is persisted so it can later be revoked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, missingData()
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "status", 400, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	userID := user.ID.String()
	accessToken, accessExp, err := s.Tokens.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	refreshToken, refreshClaims, err := s.Tokens.IssueRefresh(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	// Expired records can never be redeemed; drop them while the user is here.
	if n, err := s.Repo.PurgeExpiredRefreshTokens(ctx, user.ID, time.Now()); err != nil {
		l.Warn("refresh_purge_failed", "user_id", userID, "error", err)
	} else if n > 0 {
		l.Debug("refresh_purged", "user_id", userID, "count", n)
	}

	refreshExp := refreshClaims.ExpiresAt.Time
	rec := &models.RefreshToken{
		UserID:    user.ID,
		JTI:       refreshClaims.ID,
		ExpiresAt: refreshExp,
	}
	if err := s.Repo.AddRefreshToken(ctx, refreshToken, rec); err != nil {
		l.Error("login_error", "status", 400, "reason", "cannot store refresh token", "error", err)
		return nil, fmt.Errorf("%w: store refresh token: %w", ErrUpstream, err)
	}

	profile, err := s.loadProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	l.Info("login_successful", "user_id", userID)
	return &Session{
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshToken,
		RefreshExp:   refreshExp,
		User:         profile,
	}, nil
}

// LogOut revokes the refresh token by deleting its record.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.Repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		logging.FromContext(ctx).Error("logout_error", "svc", "auth.logout", "error", err)
		return fmt.Errorf("%w: revoke refresh token: %w", ErrUpstream, err)
	}
	return nil
}

func (s *AuthService) loadProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: load user: %w", ErrUpstream, err)
	}
	return user, nil
}

