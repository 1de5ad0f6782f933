package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// wrong algorithm or malformed payload.
var ErrInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// IssueAccess signs a short-lived token carrying only the user id.
func (i *Issuer) IssueAccess(userID string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.AccessTTL)
	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.AccessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// IssueRefresh signs a long-lived token. The jti keeps two tokens issued to the
// same user within one second distinct.
func (i *Issuer) IssueRefresh(userID string) (string, *RefreshClaims, error) {
	now := i.now()
	claims := &RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.RefreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.RefreshSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, claims, nil
}

func (i *Issuer) VerifyAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := i.parse(token, &claims, i.AccessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidToken)
	}
	return &claims, nil
}

func (i *Issuer) VerifyRefresh(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := i.parse(token, &claims, i.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidToken)
	}
	return &claims, nil
}

// Trusted is the access guard's yes/no decision.
func (i *Issuer) Trusted(token string) bool {
	if token == "" {
		return false
	}
	_, err := i.VerifyAccess(token)
	return err == nil
}

func (i *Issuer) parse(token string, claims jwt.Claims, secret []byte) error {
	if len(secret) == 0 {
		return fmt.Errorf("%w: signing secret not configured", ErrInvalidToken)
	}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return ErrInvalidToken
	}
	return nil
}
