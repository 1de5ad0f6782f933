package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	ID                     uuid.UUID      `gorm:"type:uuid;primaryKey"        json:"_id"`
	Email                  string         `gorm:"uniqueIndex;not null"        json:"Email"`
	FirstName              string         `gorm:"not null"                    json:"FirstName"`
	LastName               string         `gorm:"not null"                    json:"LastName"`
	PasswordHash           string         `gorm:"not null"                    json:"-"`
	Age                    *float64       `                                   json:"Age,omitempty"`
	Gender                 Gender         `gorm:"not null"                    json:"Gender"`
	Telephone              string         `gorm:"not null"                    json:"Telephone"`
	IsEmailVerified        bool           `gorm:"default:false"               json:"IsEmailVerified"`
	EmailVerificationToken *string        `                                   json:"-"`
	Courses                []Course       `gorm:"many2many:user_courses"      json:"Courses"`
	Notifications          []Notification `gorm:"foreignKey:UserID"           json:"Notifications"`
	CreatedAt              time.Time      `                                   json:"-"`
	UpdatedAt              time.Time      `                                   json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Title       string    `gorm:"not null"             json:"Title"`
	Description string    `                            json:"Description"`
	Image       string    `                            json:"Image"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"      json:"_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"  json:"-"`
	Message   string    `gorm:"not null"                  json:"Message"`
	CreatedAt time.Time `                                 json:"Date"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// RefreshToken is the server-side record of an issued refresh token. Only the
// sha256 digest of the token string is stored; deleting the row revokes it.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	TokenHash string    `gorm:"uniqueIndex;not null"       json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"   json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"       json:"jti"`
	ExpiresAt time.Time `gorm:"not null"                   json:"expires_at"`
	CreatedAt time.Time `                                  json:"issued_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
