package repository

import (
	"github.com/ManuelReschke/RecurFox/app/models"
	"gorm.io/gorm"
)

// webhookEventRepository implements the WebhookEventRepository interface
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook event repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// GetByEventID retrieves one delivery-log entry by its dedup key
func (r *webhookEventRepository) GetByEventID(eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// List retrieves delivery-log entries with pagination, newest first
func (r *webhookEventRepository) List(offset, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Order("id DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

// CountFailed returns the number of deliveries whose processing errored
func (r *webhookEventRepository) CountFailed() (int64, error) {
	var count int64
	err := r.db.Model(&models.WebhookEvent{}).Where("processing_error <> ''").Count(&count).Error
	return count, err
}
