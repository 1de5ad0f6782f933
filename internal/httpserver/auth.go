package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_enrollment/internal/logging"
	"github.com/Skotchmaster/course_enrollment/internal/service"
	"github.com/Skotchmaster/course_enrollment/internal/transport"
)

type AuthHTTP struct {
	Svc                *service.AuthService
	AccessCookieMaxAge time.Duration
}

// validationJSON renders a rejected input: "missing data" keeps its historical
// {message} body, every other rule answers {error}.
func validationJSON(c echo.Context, ve *service.ValidationError) error {
	if ve.Missing {
		return c.JSON(http.StatusConflict, echo.Map{"message": ve.Msg})
	}
	return c.JSON(http.StatusConflict, echo.Map{"error": ve.Msg})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"err": "invalid body"})
	}

	_, err := h.Svc.Register(ctx, req)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			return validationJSON(c, ve)
		case errors.Is(err, service.ErrConflict):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Email already exists"})
		default:
			l.Error("register_failed", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, echo.Map{"err": "registration failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Account Created Successfully"})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var token string
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		token = ck.Value
	}

	res, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Refresh cookie is missing"})
		case errors.Is(err, service.ErrRefreshNotFound):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "Refresh Token not found in the database"})
		case errors.Is(err, service.ErrInvalidRefreshToken):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "fail to verify jwt, refresh token does not match"})
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		default:
			l.Error("refresh_failed", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh failed"})
		}
	}

	c.SetCookie(CreateCookie(accessCookieName, res.AccessToken, "/", h.AccessCookieMaxAge))
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Access token refreshed successfully",
		"userData": transport.NewUserData(res.User),
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			return validationJSON(c, ve)
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
		default:
			l.Error("login_failed", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "login failed"})
		}
	}

	c.SetCookie(CreateCookie(accessCookieName, res.AccessToken, "/", h.AccessCookieMaxAge))
	c.SetCookie(CreateCookie(refreshCookieName, res.RefreshToken, "/", time.Until(res.RefreshExp)))
	l.Info("login_successful")

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Logged in successfully",
		"userData": transport.NewUserData(res.User),
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var token string
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		token = ck.Value
	}

	err := h.Svc.LogOut(ctx, token)
	c.SetCookie(DeleteCookie(refreshCookieName, "/"))
	c.SetCookie(DeleteCookie(accessCookieName, "/"))
	if err != nil {
		l.Error("logout_failed", "status", 400, "reason", "cannot revoke refreshToken", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "logout failed"})
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

func (h *AuthHTTP) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_verify")

	var req transport.VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.Svc.VerifyEmail(ctx, req.Email, string(req.Code)); err != nil {
		return h.verificationError(c, l, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Email verified successfully"})
}

func (h *AuthHTTP) ResendVerification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_resend")

	var req transport.ResendVerificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.Svc.ResendVerification(ctx, req.Email); err != nil {
		return h.verificationError(c, l, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Verification code sent"})
}

func (h *AuthHTTP) verificationError(c echo.Context, l *slog.Logger, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return validationJSON(c, ve)
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
	case errors.Is(err, service.ErrAlreadyVerified):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already verified"})
	default:
		l.Error("verification_failed", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification failed"})
	}
}
