package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/course_enrollment/internal/models"
)

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser relies on the unique index on email: two concurrent inserts of the
// same address leave exactly one row and the loser gets ErrUserAlreadyExist.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrUserAlreadyExist, u.Email)
		}
		return err
	}
	return nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserProfile loads the user together with enrolled courses and notifications.
func (r *GormRepo) GetUserProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).
		Preload("Courses").
		Preload("Notifications").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) SetVerificationCode(ctx context.Context, id uuid.UUID, code string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("email_verification_token", code)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeVerificationCode flips the verified flag and clears the code in one
// statement, only when the stored code still matches. It reports whether a row
// was changed.
func (r *GormRepo) ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND email_verification_token = ? AND is_email_verified = ?", id, code, false).
		Updates(map[string]any{
			"is_email_verified":        true,
			"email_verification_token": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) EnrolledCourses(ctx context.Context, userID uuid.UUID) ([]models.Course, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Select("id").Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}

	courses := make([]models.Course, 0)
	if err := r.DB.WithContext(ctx).Model(&user).Association("Courses").Find(&courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *GormRepo) Enroll(ctx context.Context, userID uuid.UUID, course *models.Course) error {
	user := models.User{ID: userID}
	return r.DB.WithContext(ctx).Model(&user).Association("Courses").Append(course)
}
