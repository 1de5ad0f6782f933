package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/course_enrollment/internal/db/dbtest"
	middleware "github.com/Skotchmaster/course_enrollment/internal/middleware/auth"
	"github.com/Skotchmaster/course_enrollment/internal/models"
	"github.com/Skotchmaster/course_enrollment/internal/repo"
	"github.com/Skotchmaster/course_enrollment/internal/service"
	"github.com/Skotchmaster/course_enrollment/internal/tokens"
	"github.com/Skotchmaster/course_enrollment/internal/verification"
)

type allowDomains struct{ deny string }

func (a allowDomains) CanReceiveMail(_ context.Context, email string) bool { return email != a.deny }

type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (n *captureNotifier) SendVerification(_ context.Context, to, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.codes[to] = code
	return nil
}

func (n *captureNotifier) code(to string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[to]
}

type testEnv struct {
	t        *testing.T
	e        *echo.Echo
	db       *gorm.DB
	repo     *repo.GormRepo
	svc      *service.AuthService
	issuer   *tokens.Issuer
	notifier *captureNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := dbtest.New(t)
	issuer := &tokens.Issuer{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     10 * time.Second,
		RefreshTTL:    24 * time.Hour,
	}
	notifier := &captureNotifier{codes: map[string]string{}}
	r := repo.New(gdb)
	svc := &service.AuthService{
		Repo:     r,
		Tokens:   issuer,
		Domains:  allowDomains{deny: "rider@nomail.example"},
		Notifier: notifier,
		Codes:    verification.Generator{},
	}
	t.Cleanup(svc.WaitDispatches)

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: svc, AccessCookieMaxAge: time.Hour},
		CoursesHandler: &CoursesHTTP{Svc: svc},
		Guard:          middleware.NewGuard(issuer),
	})

	return &testEnv{t: t, e: e, db: gdb, repo: r, svc: svc, issuer: issuer, notifier: notifier}
}

func (env *testEnv) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"FirstName": "Tony",
		"LastName":  "Hawk",
		"Email":     email,
		"Password":  "longenough1",
		"Age":       21,
		"Gender":    "male",
		"Telephone": "0512345678",
	}
}

func (env *testEnv) registerAndLogin(email string) (*httptest.ResponseRecorder, *http.Cookie) {
	env.t.Helper()

	rec := env.do(http.MethodPost, "/Register", registerBody(email))
	require.Equal(env.t, http.StatusOK, rec.Code, rec.Body.String())
	env.svc.WaitDispatches()

	rec = env.do(http.MethodPost, "/Login", map[string]string{"Email": email, "Password": "longenough1"})
	require.Equal(env.t, http.StatusOK, rec.Code, rec.Body.String())
	refresh := cookieByName(rec, "refreshToken")
	require.NotNil(env.t, refresh)
	return rec, refresh
}

func TestRegister_Responses(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/Register", registerBody("rider@mail.example"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Account Created Successfully", decode(t, rec)["message"])

	rec = env.do(http.MethodPost, "/Register", registerBody("rider@mail.example"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email already exists", decode(t, rec)["error"])

	missing := registerBody("other@mail.example")
	delete(missing, "Telephone")
	rec = env.do(http.MethodPost, "/Register", missing)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Missing Data", decode(t, rec)["message"])

	short := registerBody("other@mail.example")
	short["Password"] = "short1"
	rec = env.do(http.MethodPost, "/Register", short)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Password must be at least 8 characters", decode(t, rec)["error"])

	phone := registerBody("other@mail.example")
	phone["Telephone"] = "1512345678"
	rec = env.do(http.MethodPost, "/Register", phone)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Telephone must be a number", decode(t, rec)["error"])

	rec = env.do(http.MethodPost, "/Register", registerBody("rider@nomail.example"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Invalid email domain", decode(t, rec)["error"])

	req := httptest.NewRequest(http.MethodPost, "/Register", bytes.NewBufferString("{broken"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	bad := httptest.NewRecorder()
	env.e.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestRegister_MailFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.err = errors.New("relay refused")

	rec := env.do(http.MethodPost, "/Register", registerBody("rider@mail.example"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_StatusCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.do(http.MethodPost, "/Refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	unknown, _, err := env.issuer.IssueRefresh(uuid.NewString())
	require.NoError(t, err)
	rec = env.do(http.MethodPost, "/Refresh", nil, &http.Cookie{Name: "refreshToken", Value: unknown})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Refresh Token not found in the database", decode(t, rec)["message"])

	mismatched, claims, err := env.issuer.IssueRefresh(uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, env.repo.AddRefreshToken(ctx, mismatched, &models.RefreshToken{
		UserID: uuid.New(), JTI: claims.ID, ExpiresAt: claims.ExpiresAt.Time,
	}))
	rec = env.do(http.MethodPost, "/Refresh", nil, &http.Cookie{Name: "refreshToken", Value: mismatched})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, cookieByName(rec, "accessToken"))
}

func TestRefresh_Success(t *testing.T) {
	env := newTestEnv(t)
	_, refresh := env.registerAndLogin("rider@mail.example")

	rec := env.do(http.MethodPost, "/Refresh", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	access := cookieByName(rec, "accessToken")
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteNoneMode, access.SameSite)
	assert.Equal(t, 3600, access.MaxAge)
	assert.True(t, env.issuer.Trusted(access.Value))

	body := decode(t, rec)
	assert.Equal(t, "Access token refreshed successfully", body["message"])
	userData, ok := body["userData"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rider@mail.example", userData["Email"])
	assert.Equal(t, false, userData["IsEmailVerified"])
	for _, secret := range []string{"Password", "PasswordHash", "EmailVerificationToken"} {
		assert.NotContains(t, userData, secret)
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	_, refresh := env.registerAndLogin("rider@mail.example")

	rec := env.do(http.MethodPost, "/Logout", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookieByName(rec, "refreshToken")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	rec = env.do(http.MethodPost, "/Refresh", nil, refresh)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/Logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin("rider@mail.example")

	rec := env.do(http.MethodPost, "/Login", map[string]string{"Email": "rider@mail.example", "Password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, cookieByName(rec, "accessToken"))

	rec = env.do(http.MethodPost, "/Login", map[string]string{"Email": "rider@mail.example"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVerifyEmail_Endpoints(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin("rider@mail.example")
	code := env.notifier.code("rider@mail.example")
	require.Len(t, code, 8)

	rec := env.do(http.MethodPost, "/Verify", map[string]string{"Email": "rider@mail.example", "Code": "00000000"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/Verify", map[string]string{"Email": "ghost@mail.example", "Code": code})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/Verify", map[string]string{"Email": "rider@mail.example", "Code": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/Verify/Resend", map[string]string{"Email": "rider@mail.example"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already verified", decode(t, rec)["error"])
}

func TestGuardedRoutes(t *testing.T) {
	env := newTestEnv(t)
	loginRec, _ := env.registerAndLogin("rider@mail.example")
	access := cookieByName(loginRec, "accessToken")
	require.NotNil(t, access)

	user, err := env.repo.GetUserByEmail(context.Background(), "rider@mail.example")
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/check_Auth", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/check_Auth", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID.String(), decode(t, rec)["userId"])

	rec = env.do(http.MethodGet, "/Courses/User/"+user.ID.String(), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/Courses/User/"+uuid.NewString(), nil, access)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	course := &models.Course{Title: "Drop-in basics"}
	require.NoError(t, env.db.Create(course).Error)
	require.NoError(t, env.repo.Enroll(context.Background(), user.ID, course))

	rec = env.do(http.MethodGet, "/Courses/User/"+user.ID.String(), nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	var courses []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "Drop-in basics", courses[0]["Title"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/ready", nil).Code)
}
