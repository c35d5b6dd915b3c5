package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrUserDisabled       = errors.New("user_disabled")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrInvalidID          = errors.New("invalid_id")
)

const (
	RoleAdmin   = "admin"
	RoleEditor  = "editor"
	RoleSupport = "support"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleSupport:
		return true
	}
	return false
}

type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Email        string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string       `json:"-" gorm:"type:text;not null"`
	Name         string       `json:"name" gorm:"type:text;not null;default:''"`
	Role         string       `json:"role" gorm:"type:text;not null"`
	Active       bool         `json:"active" gorm:"not null;default:true"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null"`
}

func (User) TableName() string { return "users" }

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, user *User) error
	Update(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	List(ctx context.Context, db *gorm.DB) ([]User, error)
}

// Claims is what a verified access token carries.
type Claims struct {
	UserID snowflake.ID
	Email  string
	Role   string
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	VerifyToken(ctx context.Context, token string) (*Claims, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	SetActive(ctx context.Context, id string, active bool) error
	ChangePassword(ctx context.Context, id string, password string) error
	ListUsers(ctx context.Context) ([]User, error)
}
