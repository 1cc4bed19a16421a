package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"orderflow/internal/domain"
	"orderflow/internal/repository"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
