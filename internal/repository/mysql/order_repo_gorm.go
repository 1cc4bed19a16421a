package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"orderflow/internal/domain"
	"orderflow/internal/repository"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) CreateWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if order.ID == 0 {
			return errors.New("order insert did not assign an id")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.CreateInBatches(items, 100).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindForUser(ctx context.Context, id, userID uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, filter repository.OrderListFilter) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *orderRepo) SetTxnID(ctx context.Context, orderID uint64, txnID string) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("payu_txn_id", txnID).Error
}

func (r *orderRepo) MarkPaid(ctx context.Context, orderID uint64, meta domain.PaymentMeta) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, domain.StatusPending).
		Updates(map[string]any{
			"status":          domain.StatusPaid,
			"payu_payment_id": meta.PaymentID,
			"payment_mode":    meta.Mode,
			"bank_ref_no":     meta.BankRefNo,
			"payu_status":     meta.Status,
			"payu_error":      "",
			"payu_response":   meta.RawResponse,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepo) RecordPaymentFailure(ctx context.Context, orderID uint64, meta domain.PaymentMeta) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"payu_payment_id": meta.PaymentID,
			"payment_mode":    meta.Mode,
			"bank_ref_no":     meta.BankRefNo,
			"payu_status":     meta.Status,
			"payu_error":      meta.Error,
			"payu_response":   meta.RawResponse,
		}).Error
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID uint64, status domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) UpdateStatusIf(ctx context.Context, orderID uint64, from, to domain.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepo) UpdateShipment(ctx context.Context, orderID uint64, meta domain.ShipmentMeta) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"shipment_id":        meta.ShipmentID,
			"awb_code":           meta.AwbCode,
			"courier_name":       meta.Courier,
			"shipping_label_url": meta.LabelURL,
			"shipment_status":    meta.Status,
		}).Error
}
