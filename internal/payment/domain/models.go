package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type EventStatus string

const (
	EventStatusReceived  EventStatus = "RECEIVED"
	EventStatusProcessed EventStatus = "PROCESSED"
	EventStatusError     EventStatus = "ERROR"
)

var (
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrOrderNotResolved      = errors.New("order_not_resolved")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrWebhookNotConfigured  = errors.New("webhook_not_configured")
)

// EventLog records every webhook delivery. The unique event_id column is
// what makes concurrent redeliveries safe: only one insert wins.
type EventLog struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	EventID      string         `json:"event_id" gorm:"type:text;not null;uniqueIndex"`
	EventType    string         `json:"event_type" gorm:"type:text;not null"`
	Status       EventStatus    `json:"status" gorm:"type:text;not null"`
	OrderID      *snowflake.ID  `json:"order_id,omitempty" gorm:"index"`
	Payload      datatypes.JSON `json:"payload,omitempty"`
	ErrorMessage string         `json:"error_message" gorm:"type:text;not null;default:''"`
	ReceivedAt   time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
}

func (EventLog) TableName() string { return "webhook_event_logs" }
