package repository

import (
	"time"

	"github.com/ManuelReschke/RecurFox/app/models"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for mirrored-account queries
type AccountRepository interface {
	GetByID(id uint) (*models.Account, error)
	GetByCode(accountCode string) (*models.Account, error)
	GetByUserID(userID uint) (*models.Account, error)
	List(offset, limit int) ([]models.Account, error)
	Count() (int64, error)
	CountByState(state string) (int64, error)
	ListStale(olderThan time.Time, limit int) ([]models.Account, error)
}

// SubscriptionRepository defines the interface for mirrored-subscription queries
type SubscriptionRepository interface {
	GetByUUID(uuid string) (*models.Subscription, error)
	GetByAccountID(accountID uint) ([]models.Subscription, error)
	GetLiveByAccountID(accountID uint) ([]models.Subscription, error)
	List(offset, limit int) ([]models.Subscription, error)
	Count() (int64, error)
	CountByState(state string) (int64, error)
}

// PaymentRepository defines the interface for mirrored-payment queries
type PaymentRepository interface {
	GetByTransactionID(transactionID string) (*models.Payment, error)
	GetByAccountID(accountID uint, offset, limit int) ([]models.Payment, error)
	GetByInvoiceID(invoiceID string) ([]models.Payment, error)
	List(offset, limit int) ([]models.Payment, error)
	Count() (int64, error)
}

// TokenRepository defines the interface for form-result token queries
type TokenRepository interface {
	GetByToken(token string) (*models.Token, error)
	GetByAccountID(accountID uint) ([]models.Token, error)
}

// WebhookEventRepository defines the interface for webhook delivery-log queries
type WebhookEventRepository interface {
	GetByEventID(eventID string) (*models.WebhookEvent, error)
	List(offset, limit int) ([]models.WebhookEvent, error)
	CountFailed() (int64, error)
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByName(name string) (*models.User, error)
	Update(user *models.User) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Account      AccountRepository
	Subscription SubscriptionRepository
	Payment      PaymentRepository
	Token        TokenRepository
	WebhookEvent WebhookEventRepository
	User         UserRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Account:      NewAccountRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Payment:      NewPaymentRepository(db),
		Token:        NewTokenRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
		User:         NewUserRepository(db),
	}
}
