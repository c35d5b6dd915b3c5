package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertIfAbsent creates the log row, doing nothing when an entry for
	// the same event_id already exists. The bool reports whether this call
	// inserted the row.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, log *EventLog) (bool, error)
	FindByEventID(ctx context.Context, db *gorm.DB, eventID string) (*EventLog, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, log *EventLog) error
	MarkError(ctx context.Context, db *gorm.DB, log *EventLog, message string) error
	List(ctx context.Context, db *gorm.DB, limit int) ([]EventLog, error)
}
