package repository

import (
	"context"
	"time"

	"github.com/comptaline/backoffice/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, log *domain.EventLog) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(log)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByEventID(ctx context.Context, db *gorm.DB, eventID string) (*domain.EventLog, error) {
	var entry domain.EventLog
	err := db.WithContext(ctx).Where("event_id = ?", eventID).Take(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, log *domain.EventLog) error {
	now := time.Now().UTC()
	log.Status = domain.EventStatusProcessed
	log.ProcessedAt = &now
	return db.WithContext(ctx).
		Model(&domain.EventLog{}).
		Where("event_id = ?", log.EventID).
		Updates(map[string]any{
			"status":        domain.EventStatusProcessed,
			"order_id":      log.OrderID,
			"error_message": "",
			"processed_at":  now,
		}).Error
}

func (r *repo) MarkError(ctx context.Context, db *gorm.DB, log *domain.EventLog, message string) error {
	now := time.Now().UTC()
	log.Status = domain.EventStatusError
	log.ProcessedAt = &now
	log.ErrorMessage = message
	return db.WithContext(ctx).
		Model(&domain.EventLog{}).
		Where("event_id = ?", log.EventID).
		Updates(map[string]any{
			"status":        domain.EventStatusError,
			"order_id":      log.OrderID,
			"error_message": message,
			"processed_at":  now,
		}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, limit int) ([]domain.EventLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var items []domain.EventLog
	err := db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
