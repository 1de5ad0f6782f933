package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_enrollment/internal/logging"
	"github.com/Skotchmaster/course_enrollment/internal/tokens"
)

const (
	AccessCookie = "accessToken"
	UserIDKey    = "user_id"
)

// Guard lets a request through only with a valid access token, taken from
// the Authorization bearer header or the accessToken cookie. Nothing behind it
// runs, including store access, when the token is absent or fails verification.
type Guard struct {
	Tokens *tokens.Issuer
}

func NewGuard(issuer *tokens.Issuer) *Guard {
	return &Guard{Tokens: issuer}
}

func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("mw", "access_guard")

		token := accessToken(c)
		if token == "" {
			l.Warn("unauthorized", "status", 401, "reason", "missing access token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized: missing token"})
		}

		claims, err := g.Tokens.VerifyAccess(token)
		if err != nil {
			l.Warn("unauthorized", "status", 401, "reason", "invalid access token", "error", err)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized: Invalid token"})
		}

		c.Set(UserIDKey, claims.UserID)
		return next(c)
	}
}

func accessToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

// UserID returns the id stored by RequireAuth.
func UserID(c echo.Context) string {
	s, _ := c.Get(UserIDKey).(string)
	return s
}
