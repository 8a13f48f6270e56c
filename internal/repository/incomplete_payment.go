package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Peterboktor1993/replate-checkout/internal/model"
)

type IncompletePaymentRepository interface {
	Upsert(ctx context.Context, record *model.IncompletePayment) error
	Find(ctx context.Context, restaurantID string) (*model.IncompletePayment, error)
	SetOrderID(ctx context.Context, restaurantID, orderID string, status model.IncompleteStatus) error
	Delete(ctx context.Context, tx *gorm.DB, restaurantID string) error
}

type incompletePaymentRepoImpl struct {
	db *gorm.DB
}

func NewIncompletePaymentRepository(db *gorm.DB) IncompletePaymentRepository {
	return &incompletePaymentRepoImpl{
		db: db,
	}
}

// Upsert writes the record for the restaurant scope, replacing any existing
// one. A new session while one is pending resolves the old record instead of
// accumulating.
func (r *incompletePaymentRepoImpl) Upsert(ctx context.Context, record *model.IncompletePayment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "restaurant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"order_id":       record.OrderID,
			"uid":            record.UID,
			"invoice_number": record.InvoiceNumber,
			"amount":         record.Amount,
			"status":         record.Status,
			"updated_at":     time.Now(),
		}),
	}).Create(record).Error
}

func (r *incompletePaymentRepoImpl) Find(ctx context.Context, restaurantID string) (*model.IncompletePayment, error) {
	var record model.IncompletePayment
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *incompletePaymentRepoImpl) SetOrderID(ctx context.Context, restaurantID, orderID string, status model.IncompleteStatus) error {
	return r.db.WithContext(ctx).Model(&model.IncompletePayment{}).
		Where("restaurant_id = ?", restaurantID).
		Updates(map[string]interface{}{
			"order_id":   orderID,
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *incompletePaymentRepoImpl) Delete(ctx context.Context, tx *gorm.DB, restaurantID string) error {
	return tx.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Delete(&model.IncompletePayment{}).Error
}
