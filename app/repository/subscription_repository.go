package repository

import (
	"github.com/ManuelReschke/RecurFox/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByUUID retrieves a subscription by its remote uuid
func (r *subscriptionRepository) GetByUUID(uuid string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("AddOns").Where("uuid = ?", uuid).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByAccountID retrieves all subscriptions of an account
func (r *subscriptionRepository) GetByAccountID(accountID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("AddOns").Where("account_id = ?", accountID).
		Order("activated_at DESC").Find(&subs).Error
	return subs, err
}

// GetLiveByAccountID retrieves the subscriptions of an account that still
// grant service
func (r *subscriptionRepository) GetLiveByAccountID(accountID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("AddOns").
		Where("account_id = ? AND state IN ?", accountID, models.SubscriptionLiveStates).
		Order("activated_at DESC").Find(&subs).Error
	return subs, err
}

// List retrieves subscriptions with pagination
func (r *subscriptionRepository) List(offset, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Order("id DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, err
}

// Count returns the total number of mirrored subscriptions
func (r *subscriptionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Count(&count).Error
	return count, err
}

// CountByState returns the number of subscriptions in the given remote state
func (r *subscriptionRepository) CountByState(state string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Where("state = ?", state).Count(&count).Error
	return count, err
}
