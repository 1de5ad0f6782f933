package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/course_enrollment/internal/models"
	"github.com/Skotchmaster/course_enrollment/internal/repo"
)

// EnrolledCourses lists the courses of userID. The caller, already
// authenticated as requesterID, may only read its own enrolment.
func (s *AuthService) EnrolledCourses(ctx context.Context, requesterID, userID string) ([]models.Course, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, &ValidationError{Msg: "Invalid user id"}
	}
	if requesterID != id.String() {
		return nil, ErrForbidden
	}

	courses, err := s.Repo.EnrolledCourses(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: list courses: %w", ErrUpstream, err)
	}
	return courses, nil
}
