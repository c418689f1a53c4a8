package mirror

import (
	"errors"
	"time"

	"github.com/ManuelReschke/RecurFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the reconciliation engine.
type Repository interface {
	AccountByCode(accountCode string) (*models.Account, error)
	SaveAccount(account *models.Account) error
	TouchAccountSynced(accountID uint, at time.Time) error

	BillingInfoByAccountID(accountID uint) (*models.BillingInfo, error)
	SaveBillingInfo(info *models.BillingInfo) error
	DeleteBillingInfoByAccountID(accountID uint) error

	SubscriptionByUUID(uuid string) (*models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error
	SubscriptionsByAccountID(accountID uint) ([]models.Subscription, error)
	DeleteSubscription(id uint) error

	AddOnsBySubscriptionID(subscriptionID uint) ([]models.SubscriptionAddOn, error)
	SaveAddOn(addOn *models.SubscriptionAddOn) error
	DeleteAddOn(id uint) error

	PaymentByTransactionID(transactionID string) (*models.Payment, error)
	SavePayment(payment *models.Payment) error

	UserByName(name string) (*models.User, error)
	UserByEmail(email string) (*models.User, error)
	SaveUser(user *models.User) error

	SaveToken(token *models.Token) error

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookEventProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an engine repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// firstOrNil maps gorm's not-found error to a nil row so the mapper can
// distinguish "create" from real failures.
func firstOrNil[T any](tx *gorm.DB, dst *T) (*T, error) {
	err := tx.First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func (r *gormRepository) AccountByCode(accountCode string) (*models.Account, error) {
	var account models.Account
	return firstOrNil(r.db.Where("account_code = ?", accountCode), &account)
}

func (r *gormRepository) SaveAccount(account *models.Account) error {
	return r.db.Save(account).Error
}

func (r *gormRepository) TouchAccountSynced(accountID uint, at time.Time) error {
	return r.db.Model(&models.Account{}).Where("id = ?", accountID).
		Update("last_synced_at", at).Error
}

func (r *gormRepository) BillingInfoByAccountID(accountID uint) (*models.BillingInfo, error) {
	var info models.BillingInfo
	return firstOrNil(r.db.Where("account_id = ?", accountID), &info)
}

func (r *gormRepository) SaveBillingInfo(info *models.BillingInfo) error {
	return r.db.Save(info).Error
}

func (r *gormRepository) DeleteBillingInfoByAccountID(accountID uint) error {
	return r.db.Where("account_id = ?", accountID).Delete(&models.BillingInfo{}).Error
}

func (r *gormRepository) SubscriptionByUUID(uuid string) (*models.Subscription, error) {
	var sub models.Subscription
	return firstOrNil(r.db.Where("uuid = ?", uuid), &sub)
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) SubscriptionsByAccountID(accountID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("account_id = ?", accountID).Find(&subs).Error
	return subs, err
}

func (r *gormRepository) DeleteSubscription(id uint) error {
	if err := r.db.Where("subscription_id = ?", id).Delete(&models.SubscriptionAddOn{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Subscription{}, id).Error
}

func (r *gormRepository) AddOnsBySubscriptionID(subscriptionID uint) ([]models.SubscriptionAddOn, error) {
	var addOns []models.SubscriptionAddOn
	err := r.db.Where("subscription_id = ?", subscriptionID).Find(&addOns).Error
	return addOns, err
}

func (r *gormRepository) SaveAddOn(addOn *models.SubscriptionAddOn) error {
	return r.db.Save(addOn).Error
}

func (r *gormRepository) DeleteAddOn(id uint) error {
	return r.db.Delete(&models.SubscriptionAddOn{}, id).Error
}

func (r *gormRepository) PaymentByTransactionID(transactionID string) (*models.Payment, error) {
	var payment models.Payment
	return firstOrNil(r.db.Where("transaction_id = ?", transactionID), &payment)
}

func (r *gormRepository) SavePayment(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

func (r *gormRepository) UserByName(name string) (*models.User, error) {
	var user models.User
	return firstOrNil(r.db.Where("name = ?", name), &user)
}

func (r *gormRepository) UserByEmail(email string) (*models.User, error) {
	var user models.User
	return firstOrNil(r.db.Where("email = ?", email), &user)
}

func (r *gormRepository) SaveUser(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *gormRepository) SaveToken(token *models.Token) error {
	return r.db.Save(token).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookEventProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
