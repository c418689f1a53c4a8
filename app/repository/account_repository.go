package repository

import (
	"time"

	"github.com/ManuelReschke/RecurFox/app/models"
	"gorm.io/gorm"
)

// accountRepository implements the AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// GetByID retrieves an account by its local ID
func (r *accountRepository) GetByID(id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.Preload("BillingInfo").Preload("Subscriptions").First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByCode retrieves an account by its remote account code
func (r *accountRepository) GetByCode(accountCode string) (*models.Account, error) {
	var account models.Account
	err := r.db.Preload("BillingInfo").Preload("Subscriptions").
		Where("account_code = ?", accountCode).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID retrieves the account linked to a local user
func (r *accountRepository) GetByUserID(userID uint) (*models.Account, error) {
	var account models.Account
	err := r.db.Preload("BillingInfo").Preload("Subscriptions").
		Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// List retrieves accounts with pagination
func (r *accountRepository) List(offset, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Order("account_code ASC").Offset(offset).Limit(limit).Find(&accounts).Error
	return accounts, err
}

// Count returns the total number of mirrored accounts
func (r *accountRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Account{}).Count(&count).Error
	return count, err
}

// CountByState returns the number of accounts in the given remote state
func (r *accountRepository) CountByState(state string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Account{}).Where("state = ?", state).Count(&count).Error
	return count, err
}

// ListStale returns accounts whose last successful sync is older than the
// given instant (or that have never been synced), oldest first.
func (r *accountRepository) ListStale(olderThan time.Time, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Where("last_synced_at IS NULL OR last_synced_at < ?", olderThan).
		Order("last_synced_at ASC").Limit(limit).Find(&accounts).Error
	return accounts, err
}
