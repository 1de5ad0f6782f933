package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/course_enrollment/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CoursesHandler *CoursesHTTP
	Guard          *middleware.Guard
	Ready          func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	e.POST("/Register", d.AuthHandler.Register)
	e.POST("/Login", d.AuthHandler.Login)
	e.POST("/Logout", d.AuthHandler.LogOut)
	e.POST("/Refresh", d.AuthHandler.Refresh)
	e.POST("/Verify", d.AuthHandler.VerifyEmail)
	e.POST("/Verify/Resend", d.AuthHandler.ResendVerification)

	private := e.Group("")
	private.Use(d.Guard.RequireAuth)

	private.GET("/check_Auth", d.CoursesHandler.CheckAuth)
	private.GET("/Courses/User/:id", d.CoursesHandler.EnrolledCourses)
}
