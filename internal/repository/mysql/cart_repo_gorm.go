package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"orderflow/internal/domain"
	"orderflow/internal/repository"
)

type cartRepo struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) repository.CartRepository {
	return &cartRepo{db: db}
}

func (r *cartRepo) FindByUserID(ctx context.Context, userID uint64) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) ClearItems(ctx context.Context, cartID uint64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&domain.CartItem{}).Error
}
