package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_enrollment/internal/logging"
	middleware "github.com/Skotchmaster/course_enrollment/internal/middleware/auth"
	"github.com/Skotchmaster/course_enrollment/internal/service"
	"github.com/Skotchmaster/course_enrollment/internal/transport"
)

type CoursesHTTP struct {
	Svc *service.AuthService
}

func (h *CoursesHTTP) CheckAuth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Authorized",
		"userId":  middleware.UserID(c),
	})
}

func (h *CoursesHTTP) EnrolledCourses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "courses_by_user")

	courses, err := h.Svc.EnrolledCourses(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid user id."})
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden"})
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found."})
		default:
			l.Error("courses_by_user_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error."})
		}
	}

	return c.JSON(http.StatusOK, transport.NewCoursesData(courses))
}
