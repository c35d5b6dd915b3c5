package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrNotFound          = errors.New("subscriber_not_found")
	ErrAlreadySubscribed = errors.New("already_subscribed")
	ErrInvalidCSV        = errors.New("invalid_csv")
)

type Subscriber struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	Email          string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
	Source         string       `json:"source" gorm:"type:text;not null;default:''"`
	SubscribedAt   time.Time    `json:"subscribed_at" gorm:"not null"`
	UnsubscribedAt *time.Time   `json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`
}

func (Subscriber) TableName() string { return "newsletter_subscribers" }

func (s *Subscriber) Active() bool { return s.UnsubscribedAt == nil }

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, sub *Subscriber) error
	Update(ctx context.Context, db *gorm.DB, sub *Subscriber) error
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Subscriber, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Subscriber, error)
}

type ListFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ImportSummary reports the outcome of a CSV import line by line.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

type Service interface {
	Subscribe(ctx context.Context, email, source string) (*Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, filter ListFilter) ([]Subscriber, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	ImportCSV(ctx context.Context, r io.Reader, source string) (*ImportSummary, error)
}
