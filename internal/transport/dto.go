package transport

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/course_enrollment/internal/models"
)

// LooseString accepts a JSON string or a bare JSON scalar (number, bool) and
// keeps its text, so `"Age": 21` and `"Age": "21"` bind the same way.
type LooseString string

func (s *LooseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	*s = LooseString(b)
	return nil
}

type RegisterRequest struct {
	FirstName string      `json:"FirstName"`
	LastName  string      `json:"LastName"`
	Email     string      `json:"Email"`
	Password  string      `json:"Password"`
	Age       LooseString `json:"Age"`
	Gender    string      `json:"Gender"`
	Telephone LooseString `json:"Telephone"`
}

type LoginRequest struct {
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

type VerifyEmailRequest struct {
	Email string      `json:"Email"`
	Code  LooseString `json:"Code"`
}

type ResendVerificationRequest struct {
	Email string `json:"Email"`
}

type NotificationData struct {
	ID      uuid.UUID `json:"_id"`
	Message string    `json:"Message"`
	Date    time.Time `json:"Date"`
}

type CourseData struct {
	ID          uuid.UUID `json:"_id"`
	Title       string    `json:"Title"`
	Description string    `json:"Description"`
	Image       string    `json:"Image"`
}

// UserData is the only shape of a user that leaves the server: no password
// hash, no verification code.
type UserData struct {
	ID              uuid.UUID          `json:"_id"`
	Email           string             `json:"Email"`
	FirstName       string             `json:"FirstName"`
	LastName        string             `json:"LastName"`
	Notifications   []NotificationData `json:"Notifications"`
	Courses         []CourseData       `json:"Courses"`
	Gender          models.Gender      `json:"Gender"`
	IsEmailVerified bool               `json:"IsEmailVerified"`
}

func NewUserData(u *models.User) UserData {
	return UserData{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Notifications:   NewNotificationsData(u.Notifications),
		Courses:         NewCoursesData(u.Courses),
		Gender:          u.Gender,
		IsEmailVerified: u.IsEmailVerified,
	}
}

func NewCoursesData(courses []models.Course) []CourseData {
	out := make([]CourseData, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseData{ID: c.ID, Title: c.Title, Description: c.Description, Image: c.Image})
	}
	return out
}

func NewNotificationsData(ns []models.Notification) []NotificationData {
	out := make([]NotificationData, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationData{ID: n.ID, Message: n.Message, Date: n.CreatedAt})
	}
	return out
}
