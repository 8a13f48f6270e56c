package repository

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Peterboktor1993/replate-checkout/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.PaymentSession{}, &model.StagedOrder{}, &model.IncompletePayment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSessionStatusGuardedTransition(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentSessionRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, db, &model.PaymentSession{
		UID:           "uid-1",
		InvoiceNumber: "INV-1",
		CustomerName:  "Jane",
		Amount:        "25.50",
		RedirectURL:   "https://pay.valor.test/x?uid=uid-1",
		Status:        model.SessionCreated,
		RestaurantID:  "rest-1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.SetStatus(ctx, db, "uid-1",
		[]model.SessionStatus{model.SessionCreated, model.SessionPending},
		model.SessionFailed)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}

	// a terminal session cannot transition again
	err = repo.SetStatus(ctx, db, "uid-1",
		[]model.SessionStatus{model.SessionCreated, model.SessionPending},
		model.SessionAbandoned)
	if err != gorm.ErrRecordNotFound {
		t.Fatalf("err = %v, want ErrRecordNotFound for guarded transition", err)
	}

	session, err := repo.FindByUID(ctx, "uid-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if session.Status != model.SessionFailed {
		t.Errorf("status = %s, want FAILED untouched", session.Status)
	}
}

func TestSessionMarkSucceededRecordsOrderID(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentSessionRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, db, &model.PaymentSession{
		UID: "uid-2", InvoiceNumber: "INV-2", CustomerName: "Jane",
		Amount: "10.00", RedirectURL: "u", Status: model.SessionPending, RestaurantID: "rest-1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.MarkSucceeded(ctx, db, "uid-2", "ord-9"); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	session, _ := repo.FindByUID(ctx, "uid-2")
	if session.Status != model.SessionSucceeded || session.OrderID != "ord-9" {
		t.Errorf("session = %+v", session)
	}

	// succeeding twice is a guarded no-op
	if err := repo.MarkSucceeded(ctx, db, "uid-2", "ord-10"); err != gorm.ErrRecordNotFound {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestSessionMarkSucceededFromAbandoned(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentSessionRepository(db)
	ctx := context.Background()

	// an abandoned session is resumable: a later verified payment succeeds
	if err := repo.Create(ctx, db, &model.PaymentSession{
		UID: "uid-3", InvoiceNumber: "INV-3", CustomerName: "Jane",
		Amount: "10.00", RedirectURL: "u", Status: model.SessionAbandoned, RestaurantID: "rest-1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.MarkSucceeded(ctx, db, "uid-3", "ord-11"); err != nil {
		t.Fatalf("mark succeeded from abandoned: %v", err)
	}

	session, _ := repo.FindByUID(ctx, "uid-3")
	if session.Status != model.SessionSucceeded || session.OrderID != "ord-11" {
		t.Errorf("session = %+v", session)
	}
}

func TestFindByUIDMissingReturnsNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentSessionRepository(db)

	session, err := repo.FindByUID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil", session)
	}
}

func TestStagedOrderUpsertReplacesPerRestaurant(t *testing.T) {
	db := newTestDB(t)
	repo := NewStagedOrderRepository(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, &model.StagedOrder{
		RestaurantID: "rest-1", InvoiceNumber: "INV-1", Amount: "25.50", Payload: []byte(`{"a":1}`),
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, &model.StagedOrder{
		RestaurantID: "rest-1", InvoiceNumber: "INV-2", Amount: "30.00", Payload: []byte(`{"a":2}`),
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	db.Model(&model.StagedOrder{}).Where("restaurant_id = ?", "rest-1").Count(&count)
	if count != 1 {
		t.Fatalf("count = %d, want single staged order per restaurant", count)
	}

	order, _ := repo.FindByRestaurant(ctx, "rest-1")
	if order.InvoiceNumber != "INV-2" || order.Amount != "30.00" {
		t.Errorf("order = %+v, want replaced values", order)
	}
}

func TestIncompletePaymentSingleRecordPerRestaurant(t *testing.T) {
	db := newTestDB(t)
	repo := NewIncompletePaymentRepository(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, &model.IncompletePayment{
		RestaurantID: "rest-1", UID: "uid-1", InvoiceNumber: "INV-1",
		Amount: "25.50", Status: model.IncompletePending,
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, &model.IncompletePayment{
		RestaurantID: "rest-1", UID: "uid-2", InvoiceNumber: "INV-2",
		Amount: "12.00", Status: model.IncompletePending,
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	db.Model(&model.IncompletePayment{}).Count(&count)
	if count != 1 {
		t.Fatalf("count = %d, want one record per restaurant scope", count)
	}

	record, _ := repo.Find(ctx, "rest-1")
	if record.UID != "uid-2" {
		t.Errorf("record = %+v, want replaced by newest session", record)
	}

	if err := repo.Delete(ctx, db, "rest-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if record, _ := repo.Find(ctx, "rest-1"); record != nil {
		t.Errorf("record = %+v, want nil after delete", record)
	}
}
