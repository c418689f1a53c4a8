package repository

import (
	"github.com/ManuelReschke/RecurFox/app/models"
	"gorm.io/gorm"
)

// tokenRepository implements the TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository instance
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// GetByToken retrieves a stored form-result token
func (r *tokenRepository) GetByToken(token string) (*models.Token, error) {
	var row models.Token
	err := r.db.Where("token = ?", token).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByAccountID retrieves all tokens recorded for an account
func (r *tokenRepository) GetByAccountID(accountID uint) ([]models.Token, error) {
	var tokens []models.Token
	err := r.db.Where("account_id = ?", accountID).Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}
