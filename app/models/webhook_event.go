package models

import "time"

// WebhookEvent stores provider push-notification payloads with deduplication
// metadata for idempotent processing.
type WebhookEvent struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	EventID   string     `gorm:"type:varchar(191);not null;default:'';uniqueIndex" json:"event_id"`
	EventType string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Payload   string     `gorm:"type:longtext;not null" json:"payload"`

	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
