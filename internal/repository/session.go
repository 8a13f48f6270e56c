package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Peterboktor1993/replate-checkout/internal/model"
)

type PaymentSessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *model.PaymentSession) error
	FindByUID(ctx context.Context, uid string) (*model.PaymentSession, error)
	FindByInvoice(ctx context.Context, invoiceNumber string) (*model.PaymentSession, error)
	SetStatus(ctx context.Context, tx *gorm.DB, uid string, from []model.SessionStatus, to model.SessionStatus) error
	MarkSucceeded(ctx context.Context, tx *gorm.DB, uid, orderID string) error
}

type sessionRepoImpl struct {
	db *gorm.DB
}

func NewPaymentSessionRepository(db *gorm.DB) PaymentSessionRepository {
	return &sessionRepoImpl{
		db: db,
	}
}

func (r *sessionRepoImpl) Create(ctx context.Context, tx *gorm.DB, session *model.PaymentSession) error {
	return tx.WithContext(ctx).Create(session).Error
}

func (r *sessionRepoImpl) FindByUID(ctx context.Context, uid string) (*model.PaymentSession, error) {
	var session model.PaymentSession
	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepoImpl) FindByInvoice(ctx context.Context, invoiceNumber string) (*model.PaymentSession, error) {
	var session model.PaymentSession
	err := r.db.WithContext(ctx).
		Where("invoice_number = ?", invoiceNumber).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// SetStatus applies a guarded transition: the row is updated only while its
// current status is in the allowed set, so a duplicate confirmation cannot
// move a terminal session.
func (r *sessionRepoImpl) SetStatus(ctx context.Context, tx *gorm.DB, uid string, from []model.SessionStatus, to model.SessionStatus) error {
	result := tx.WithContext(ctx).Model(&model.PaymentSession{}).
		Where("uid = ? AND status IN ?", uid, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkSucceeded records the placed backend order id alongside the terminal
// status. Abandoned sessions are resumable, so they may still succeed; only
// SUCCEEDED and FAILED are final.
func (r *sessionRepoImpl) MarkSucceeded(ctx context.Context, tx *gorm.DB, uid, orderID string) error {
	result := tx.WithContext(ctx).Model(&model.PaymentSession{}).
		Where("uid = ? AND status IN ?", uid, []model.SessionStatus{
			model.SessionCreated, model.SessionPending,
			model.SessionAbandoned, model.SessionFinalizeFailed,
		}).
		Updates(map[string]interface{}{
			"status":     model.SessionSucceeded,
			"order_id":   orderID,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
