package models

import (
	"errors"
	"time"
)

type Role string

const (
	RoleUser         Role = "user"
	RoleAdmin        Role = "admin"
	RoleEntrepreneur Role = "entrepreneur"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts only the canonical lowercase spelling.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleEntrepreneur:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

type Account struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	Role         Role      `gorm:"size:32;not null;default:user" json:"role"`
	CreatedAt    time.Time `                                     json:"created_at"`

	Profile *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Account) TableName() string { return "users" }

type Profile struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null"     json:"user_id"`
	DisplayName  string    `gorm:"size:100"                 json:"display_name"`
	ContactEmail string    `gorm:"size:100"                 json:"contact_email"`
	PhoneNumber  string    `gorm:"size:32"                  json:"phone_number"`
	AvatarURL    string    `                                json:"avatar_url"`
	CreatedAt    time.Time `                                json:"created_at"`
	UpdatedAt    time.Time `                                json:"updated_at"`

	User *Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Profile) TableName() string { return "user_profiles" }

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"            json:"id"`
	Token     string `gorm:"uniqueIndex;not null"  json:"-"`
	UserID    uint   `gorm:"index;not null"        json:"user_id"`
	JTI       string `gorm:"uniqueIndex;not null"  json:"jti"`
	ExpiresAt int64  `gorm:"not null"              json:"expires_at"`
	Revoked   bool   `gorm:"not null;default:false" json:"revoked"`

	User *Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
