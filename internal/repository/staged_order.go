package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Peterboktor1993/replate-checkout/internal/model"
)

type StagedOrderRepository interface {
	Upsert(ctx context.Context, order *model.StagedOrder) error
	FindByRestaurant(ctx context.Context, restaurantID string) (*model.StagedOrder, error)
	FindByInvoice(ctx context.Context, invoiceNumber string) (*model.StagedOrder, error)
	BindUID(ctx context.Context, restaurantID, uid string) error
	Delete(ctx context.Context, tx *gorm.DB, restaurantID string) error
}

type stagedOrderRepoImpl struct {
	db *gorm.DB
}

func NewStagedOrderRepository(db *gorm.DB) StagedOrderRepository {
	return &stagedOrderRepoImpl{
		db: db,
	}
}

// Upsert replaces the staged order for the restaurant scope. One staged
// order per restaurant at a time.
func (r *stagedOrderRepoImpl) Upsert(ctx context.Context, order *model.StagedOrder) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "restaurant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"invoice_number": order.InvoiceNumber,
			"uid":            order.UID,
			"amount":         order.Amount,
			"payload":        order.Payload,
			"updated_at":     time.Now(),
		}),
	}).Create(order).Error
}

func (r *stagedOrderRepoImpl) FindByRestaurant(ctx context.Context, restaurantID string) (*model.StagedOrder, error) {
	var order model.StagedOrder
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *stagedOrderRepoImpl) FindByInvoice(ctx context.Context, invoiceNumber string) (*model.StagedOrder, error) {
	var order model.StagedOrder
	err := r.db.WithContext(ctx).
		Where("invoice_number = ?", invoiceNumber).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *stagedOrderRepoImpl) BindUID(ctx context.Context, restaurantID, uid string) error {
	return r.db.WithContext(ctx).Model(&model.StagedOrder{}).
		Where("restaurant_id = ?", restaurantID).
		Updates(map[string]interface{}{
			"uid":        uid,
			"updated_at": time.Now(),
		}).Error
}

func (r *stagedOrderRepoImpl) Delete(ctx context.Context, tx *gorm.DB, restaurantID string) error {
	return tx.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Delete(&model.StagedOrder{}).Error
}
