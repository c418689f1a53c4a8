package repository

import (
	"github.com/ManuelReschke/RecurFox/app/models"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByTransactionID retrieves a payment by its remote transaction id
func (r *paymentRepository) GetByTransactionID(transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("transaction_id = ?", transactionID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByAccountID retrieves the payments of an account, newest first
func (r *paymentRepository) GetByAccountID(accountID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("account_id = ?", accountID).
		Order("remote_created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// GetByInvoiceID retrieves all payments billed on one invoice
func (r *paymentRepository) GetByInvoiceID(invoiceID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("invoice_id = ?", invoiceID).
		Order("remote_created_at ASC").Find(&payments).Error
	return payments, err
}

// List retrieves payments with pagination, newest first
func (r *paymentRepository) List(offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Order("remote_created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// Count returns the total number of mirrored payments
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}
