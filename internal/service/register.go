package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/course_enrollment/internal/hash"
	"github.com/Skotchmaster/course_enrollment/internal/logging"
	"github.com/Skotchmaster/course_enrollment/internal/models"
	"github.com/Skotchmaster/course_enrollment/internal/repo"
	"github.com/Skotchmaster/course_enrollment/internal/transport"
)

const (
	minPasswordLen  = 8
	minTelephoneLen = 9
)

var (
	emailRe     = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	telephoneRe = regexp.MustCompile(`^0[567][0-9]{8}$`)
)

type registration struct {
	firstName string
	lastName  string
	email     string
	password  string
	age       *float64
	gender    models.Gender
	telephone string
}

// validateRegistration applies the shape rules in order; the first one that
// fails decides the message.
func validateRegistration(req transport.RegisterRequest) (*registration, error) {
	telephone := string(req.Telephone)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" ||
		req.Password == "" || req.Gender == "" || telephone == "" {
		return nil, missingData()
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		return nil, &ValidationError{Msg: "Password must be at least 8 characters"}
	}
	if !emailRe.MatchString(req.Email) {
		return nil, &ValidationError{Msg: "Invalid Email"}
	}
	gender := models.Gender(req.Gender)
	if gender != models.GenderMale && gender != models.GenderFemale {
		return nil, &ValidationError{Msg: "Invalid Gender, accepted values: male or female"}
	}
	if utf8.RuneCountInString(telephone) < minTelephoneLen {
		return nil, &ValidationError{Msg: "Telephone must be at least 9 characters"}
	}
	if !telephoneRe.MatchString(telephone) {
		return nil, &ValidationError{Msg: "Telephone must be a number"}
	}

	var age *float64
	if raw := strings.TrimSpace(string(req.Age)); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ValidationError{Msg: "Age must be a number"}
		}
		age = &v
	}

	return &registration{
		firstName: req.FirstName,
		lastName:  req.LastName,
		email:     req.Email,
		password:  req.Password,
		age:       age,
		gender:    gender,
		telephone: telephone,
	}, nil
}

// Register creates an unverified account and sends its verification code.
func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in, err := validateRegistration(req)
	if err != nil {
		l.Warn("register_rejected", "status", 409, "reason", err.Error())
		return nil, err
	}

	if !s.Domains.CanReceiveMail(ctx, in.email) {
		l.Warn("register_rejected", "status", 409, "reason", "invalid email domain")
		return nil, &ValidationError{Msg: "Invalid email domain"}
	}

	// Fast path only; the unique index on email is what actually decides a race.
	taken, err := s.Repo.EmailTaken(ctx, in.email)
	if err != nil {
		l.Error("register_error", "status", 400, "reason", "cannot check email", "error", err)
		return nil, fmt.Errorf("%w: check email: %w", ErrUpstream, err)
	}
	if taken {
		l.Warn("register_rejected", "status", 401, "reason", "email already exists")
		return nil, ErrConflict
	}

	pwHash, err := hash.HashPassword(in.password)
	if err != nil {
		l.Error("register_error", "status", 400, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("%w: hash password: %w", ErrUpstream, err)
	}

	code, err := s.Codes.NewCode()
	if err != nil {
		l.Error("register_error", "status", 400, "reason", "cannot generate code", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	user := &models.User{
		Email:                  in.email,
		FirstName:              in.firstName,
		LastName:               in.lastName,
		PasswordHash:           pwHash,
		Age:                    in.age,
		Gender:                 in.gender,
		Telephone:              in.telephone,
		EmailVerificationToken: &code,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_rejected", "status", 401, "reason", "email already exists")
			return nil, ErrConflict
		}
		l.Error("register_error", "status", 400, "reason", "cannot create user", "error", err)
		return nil, fmt.Errorf("%w: create user: %w", ErrUpstream, err)
	}

	s.dispatchVerification(ctx, user.Email, code)
	l.Info("register_successful", "user_id", user.ID.String())
	return user, nil
}
