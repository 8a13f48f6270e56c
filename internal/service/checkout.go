package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Peterboktor1993/replate-checkout/internal/client"
	"github.com/Peterboktor1993/replate-checkout/internal/config"
	"github.com/Peterboktor1993/replate-checkout/internal/dto"
	"github.com/Peterboktor1993/replate-checkout/internal/model"
	"github.com/Peterboktor1993/replate-checkout/internal/repository"
)

type VerifyStatus string

const (
	VerifyApproved   VerifyStatus = "approved"
	VerifyDeclined   VerifyStatus = "declined"
	VerifyProcessing VerifyStatus = "processing"
)

type CheckoutService interface {
	StageOrder(ctx context.Context, req *dto.StageOrderRequest) (string, error)
	InitiatePayment(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	Verify(ctx context.Context, uid, invoiceNumber string) (VerifyStatus, error)
	HandleSignal(ctx context.Context, uid, invoiceNumber, signal, token string) (*dto.PayResponse, error)
	FinalizeOrder(ctx context.Context, uid, invoiceNumber, token string) (string, error)
	OnPaymentOutcome(uid string, fn func(Outcome))
	ResumeIncompletePayment(ctx context.Context, restaurantID string) (*model.IncompletePayment, error)
	CancelIncompletePayment(ctx context.Context, restaurantID string) error
}

type checkoutServiceImpl struct {
	db             *gorm.DB
	valorClient    client.ValorClient
	orderClient    client.OrderClient
	sessionRepo    repository.PaymentSessionRepository
	stagedRepo     repository.StagedOrderRepository
	incompleteRepo repository.IncompletePaymentRepository
	hub            *ConfirmationHub
	defaults       config.Checkout
	logger         *zap.SugaredLogger

	// guards against a second concurrent finalize/verify for the same uid
	inflightMu sync.Mutex
	inflight   map[string]bool
}

func NewCheckoutService(
	db *gorm.DB,
	valorClient client.ValorClient,
	orderClient client.OrderClient,
	sessionRepo repository.PaymentSessionRepository,
	stagedRepo repository.StagedOrderRepository,
	incompleteRepo repository.IncompletePaymentRepository,
	defaults config.Checkout,
	logger *zap.SugaredLogger,
) CheckoutService {
	s := &checkoutServiceImpl{
		db:             db,
		valorClient:    valorClient,
		orderClient:    orderClient,
		sessionRepo:    sessionRepo,
		stagedRepo:     stagedRepo,
		incompleteRepo: incompleteRepo,
		defaults:       defaults,
		logger:         logger,
		inflight:       make(map[string]bool),
	}
	confirmWait := time.Duration(defaults.ConfirmWaitSecs) * time.Second
	if confirmWait <= 0 {
		confirmWait = 3 * time.Minute
	}
	s.hub = NewConfirmationHub(confirmWait, s.markAbandoned)
	return s
}

func (s *checkoutServiceImpl) StageOrder(ctx context.Context, req *dto.StageOrderRequest) (string, error) {
	if req.RestaurantID == "" || req.Amount == "" || len(req.Payload) == 0 {
		return "", ErrMissingFields
	}
	if _, err := decimal.NewFromString(req.Amount); err != nil {
		return "", fmt.Errorf("%w: invalid amount %q", ErrMissingFields, req.Amount)
	}

	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = "INV-" + strings.ToUpper(uuid.NewString()[:8])
	}

	err := s.stagedRepo.Upsert(ctx, &model.StagedOrder{
		RestaurantID:  req.RestaurantID,
		InvoiceNumber: invoiceNumber,
		Amount:        req.Amount,
		Payload:       []byte(req.Payload),
	})
	if err != nil {
		return "", fmt.Errorf("store staged order: %w", err)
	}

	return invoiceNumber, nil
}

func (s *checkoutServiceImpl) InitiatePayment(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	if req.Amount == "" || req.InvoiceNumber == "" || req.CustomerName == "" || req.RestaurantID == "" {
		return nil, ErrMissingFields
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %q", ErrMissingFields, req.Amount)
	}
	fixedAmount := amount.StringFixed(2)

	result, err := s.valorClient.CreateSession(ctx, client.SessionParams{
		Amount:        fixedAmount,
		InvoiceNumber: req.InvoiceNumber,
		CustomerName:  req.CustomerName,
	})
	if err != nil {
		return nil, fmt.Errorf("valor create session: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.Create(ctx, tx, &model.PaymentSession{
			UID:           result.UID,
			InvoiceNumber: req.InvoiceNumber,
			CustomerName:  req.CustomerName,
			Amount:        fixedAmount,
			RedirectURL:   result.URL,
			Status:        model.SessionCreated,
			RestaurantID:  req.RestaurantID,
		}); err != nil {
			return fmt.Errorf("store payment session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.stagedRepo.BindUID(ctx, req.RestaurantID, result.UID); err != nil {
		return nil, fmt.Errorf("bind uid to staged order: %w", err)
	}

	// outcome unknown from here until a confirmation signal arrives
	if err := s.incompleteRepo.Upsert(ctx, &model.IncompletePayment{
		RestaurantID:  req.RestaurantID,
		UID:           result.UID,
		InvoiceNumber: req.InvoiceNumber,
		Amount:        fixedAmount,
		Status:        model.IncompletePending,
	}); err != nil {
		return nil, fmt.Errorf("store incomplete payment: %w", err)
	}

	// the bounded confirmation wait starts now
	if err := s.sessionRepo.SetStatus(ctx, s.db, result.UID,
		[]model.SessionStatus{model.SessionCreated}, model.SessionPending); err != nil {
		return nil, fmt.Errorf("mark session pending: %w", err)
	}
	s.hub.Track(result.UID)
	s.OnPaymentOutcome(result.UID, func(out Outcome) {
		s.logger.Infow("payment outcome",
			"uid", result.UID, "status", out.Status, "order_id", out.OrderID)
	})
	s.logger.Infow("payment session created",
		"uid", result.UID, "invoice_number", req.InvoiceNumber, "amount", fixedAmount)

	return &dto.CreateSessionResponse{
		Success:       true,
		URL:           result.URL,
		UID:           result.UID,
		Amount:        fixedAmount,
		InvoiceNumber: req.InvoiceNumber,
		CustomerName:  req.CustomerName,
	}, nil
}

// Verify asks the gateway for the transaction's real status. Client-reported
// status never reaches this decision; the gateway's answer is authoritative.
func (s *checkoutServiceImpl) Verify(ctx context.Context, uid, invoiceNumber string) (VerifyStatus, error) {
	if uid == "" && invoiceNumber == "" {
		return "", ErrMissingFields
	}

	txn, err := s.valorClient.VerifyTransaction(ctx, uid, invoiceNumber)
	if err != nil {
		return "", fmt.Errorf("verify transaction: %w", err)
	}
	return classifyTransaction(txn), nil
}

func classifyTransaction(txn *model.ValorTransaction) VerifyStatus {
	if txn == nil {
		return VerifyProcessing
	}

	switch strings.ToUpper(txn.Status) {
	case "FAILED", "DECLINED", "TIMEOUT", "CANCELLED":
		return VerifyDeclined
	}

	if txn.IsVoid {
		return VerifyDeclined
	}

	codeOK := txn.ResponseCode == "00" || txn.ResponseCode == "S00"
	if !codeOK {
		if txn.ResponseCode == "" {
			return VerifyProcessing
		}
		return VerifyDeclined
	}

	switch strings.ToUpper(txn.TxnType) {
	case "SALE", "AUTH":
		return VerifyApproved
	}
	// a record with a success code and an explicit approved status is
	// approved even when the gateway omits the transaction type
	if strings.ToUpper(txn.Status) == "APPROVED" {
		return VerifyApproved
	}
	return VerifyProcessing
}

// HandleSignal consumes one confirmation signal from either delivery path.
// success/failed are hints to verify: the hub entry is only consumed once
// verification reaches a terminal answer, so a "processing" result leaves
// the manual-retry path open. closed is terminal by itself.
func (s *checkoutServiceImpl) HandleSignal(ctx context.Context, uid, invoiceNumber, signal, token string) (*dto.PayResponse, error) {
	if uid == "" && invoiceNumber == "" {
		return nil, ErrMissingFields
	}

	var session *model.PaymentSession
	var err error
	if uid != "" {
		session, err = s.sessionRepo.FindByUID(ctx, uid)
	} else {
		session, err = s.sessionRepo.FindByInvoice(ctx, invoiceNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	uid = session.UID

	if signal == string(OutcomeClosed) {
		if first := s.hub.Resolve(uid, Outcome{Status: OutcomeClosed}); first {
			s.markAbandoned(uid)
		}
		return &dto.PayResponse{Success: false, Status: string(OutcomeClosed)}, nil
	}

	status, err := s.Verify(ctx, uid, session.InvoiceNumber)
	if err != nil {
		return nil, err
	}

	switch status {
	case VerifyProcessing:
		return &dto.PayResponse{Success: false, Status: string(VerifyProcessing)}, ErrVerificationPending

	case VerifyDeclined:
		if first := s.hub.Resolve(uid, Outcome{Status: OutcomeFailed}); first {
			if err := s.sessionRepo.SetStatus(ctx, s.db, uid,
				[]model.SessionStatus{model.SessionCreated, model.SessionPending, model.SessionAbandoned},
				model.SessionFailed); err != nil && err != gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("mark session failed: %w", err)
			}
			s.logger.Infow("payment declined", "uid", uid, "signal", signal)
		}
		return &dto.PayResponse{Success: false, Status: string(VerifyDeclined)}, ErrPaymentDeclined

	case VerifyApproved:
		if first := s.hub.Resolve(uid, Outcome{Status: OutcomeSuccess}); !first {
			// duplicate signal: report a terminal session as-is. A resumable
			// one (abandoned, or finalize failed) still goes through
			// finalization below since the money is confirmed captured.
			current, err := s.sessionRepo.FindByUID(ctx, uid)
			if err != nil || current == nil {
				return nil, fmt.Errorf("load payment session: %w", err)
			}
			if current.Status == model.SessionSucceeded || current.Status == model.SessionFailed {
				return &dto.PayResponse{
					Success: current.Status == model.SessionSucceeded,
					Status:  strings.ToLower(string(current.Status)),
					OrderID: current.OrderID,
				}, nil
			}
		}

		orderID, err := s.FinalizeOrder(ctx, uid, session.InvoiceNumber, token)
		if err != nil {
			return nil, err
		}
		return &dto.PayResponse{Success: true, Status: string(OutcomeSuccess), OrderID: orderID}, nil
	}

	return nil, fmt.Errorf("unexpected verification status %q", status)
}

// FinalizeOrder places the backend order for a verified-approved payment
// exactly once. Verification runs again here regardless of what the caller
// already saw.
func (s *checkoutServiceImpl) FinalizeOrder(ctx context.Context, uid, invoiceNumber, token string) (string, error) {
	if uid == "" {
		return "", ErrMissingFields
	}

	s.inflightMu.Lock()
	if s.inflight[uid] {
		s.inflightMu.Unlock()
		return "", ErrFinalizeInFlight
	}
	s.inflight[uid] = true
	s.inflightMu.Unlock()
	defer func() {
		s.inflightMu.Lock()
		delete(s.inflight, uid)
		s.inflightMu.Unlock()
	}()

	session, err := s.sessionRepo.FindByUID(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("load payment session: %w", err)
	}
	if session == nil {
		return "", ErrSessionNotFound
	}
	if session.Status == model.SessionSucceeded {
		return session.OrderID, nil
	}
	if invoiceNumber != "" && invoiceNumber != session.InvoiceNumber {
		return "", fmt.Errorf("%w: invoice %s does not belong to uid %s", ErrStagedOrderMissing, invoiceNumber, uid)
	}

	staged, err := s.stagedRepo.FindByInvoice(ctx, session.InvoiceNumber)
	if err != nil {
		return "", fmt.Errorf("load staged order: %w", err)
	}
	if staged == nil {
		return "", ErrStagedOrderMissing
	}

	sessionAmount, err := decimal.NewFromString(session.Amount)
	if err != nil {
		return "", fmt.Errorf("parse session amount: %w", err)
	}
	stagedAmount, err := decimal.NewFromString(staged.Amount)
	if err != nil {
		return "", fmt.Errorf("parse staged amount: %w", err)
	}
	if !sessionAmount.Equal(stagedAmount) {
		return "", ErrAmountMismatch
	}

	txn, err := s.valorClient.VerifyTransaction(ctx, uid, session.InvoiceNumber)
	if err != nil {
		return "", fmt.Errorf("verify transaction: %w", err)
	}
	switch classifyTransaction(txn) {
	case VerifyProcessing:
		return "", ErrVerificationPending
	case VerifyDeclined:
		if err := s.sessionRepo.SetStatus(ctx, s.db, uid,
			[]model.SessionStatus{model.SessionCreated, model.SessionPending, model.SessionAbandoned},
			model.SessionFailed); err != nil && err != gorm.ErrRecordNotFound {
			return "", fmt.Errorf("mark session failed: %w", err)
		}
		return "", ErrPaymentDeclined
	}

	payload, err := mergeOrderPayload(staged.Payload, session, s.defaults)
	if err != nil {
		return "", fmt.Errorf("build order payload: %w", err)
	}

	result, err := s.orderClient.PlaceOrder(ctx, payload, token)
	if err == nil && !result.Success {
		err = fmt.Errorf("order backend rejected placement: %s", result.Error)
	}
	if err != nil {
		// money captured, order not recorded; keep every record for recovery
		if serr := s.sessionRepo.SetStatus(ctx, s.db, uid,
			[]model.SessionStatus{
				model.SessionCreated, model.SessionPending,
				model.SessionAbandoned, model.SessionFinalizeFailed,
			},
			model.SessionFinalizeFailed); serr != nil && serr != gorm.ErrRecordNotFound {
			s.logger.Errorw("mark session finalize_failed", "uid", uid, "error", serr)
		}
		if serr := s.incompleteRepo.SetOrderID(ctx, session.RestaurantID, "", model.IncompleteCaptured); serr != nil {
			s.logger.Errorw("mark incomplete payment captured", "uid", uid, "error", serr)
		}
		s.logger.Errorw("payment captured but order placement failed",
			"uid", uid, "invoice_number", session.InvoiceNumber, "error", err)
		return "", &FinalizationError{
			UID:           uid,
			InvoiceNumber: session.InvoiceNumber,
			RestaurantID:  session.RestaurantID,
			Err:           err,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.MarkSucceeded(ctx, tx, uid, result.OrderID); err != nil {
			return fmt.Errorf("mark session succeeded: %w", err)
		}
		if err := s.stagedRepo.Delete(ctx, tx, session.RestaurantID); err != nil {
			return fmt.Errorf("clear staged order: %w", err)
		}
		if err := s.incompleteRepo.Delete(ctx, tx, session.RestaurantID); err != nil {
			return fmt.Errorf("clear incomplete payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.hub.Cancel(uid)
	s.logger.Infow("order placed",
		"uid", uid, "invoice_number", session.InvoiceNumber, "order_id", result.OrderID)

	return result.OrderID, nil
}

func (s *checkoutServiceImpl) OnPaymentOutcome(uid string, fn func(Outcome)) {
	s.hub.OnOutcome(uid, fn)
}

func (s *checkoutServiceImpl) ResumeIncompletePayment(ctx context.Context, restaurantID string) (*model.IncompletePayment, error) {
	if restaurantID == "" {
		return nil, ErrMissingFields
	}
	return s.incompleteRepo.Find(ctx, restaurantID)
}

func (s *checkoutServiceImpl) CancelIncompletePayment(ctx context.Context, restaurantID string) error {
	if restaurantID == "" {
		return ErrMissingFields
	}

	record, err := s.incompleteRepo.Find(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("load incomplete payment: %w", err)
	}
	if record == nil {
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.incompleteRepo.Delete(ctx, tx, restaurantID); err != nil {
			return fmt.Errorf("clear incomplete payment: %w", err)
		}
		if err := s.stagedRepo.Delete(ctx, tx, restaurantID); err != nil {
			return fmt.Errorf("clear staged order: %w", err)
		}
		if err := s.sessionRepo.SetStatus(ctx, tx, record.UID,
			[]model.SessionStatus{model.SessionCreated, model.SessionPending},
			model.SessionAbandoned); err != nil && err != gorm.ErrRecordNotFound {
			return fmt.Errorf("mark session abandoned: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Cancel(record.UID)
	s.logger.Infow("incomplete payment cancelled", "restaurant_id", restaurantID, "uid", record.UID)
	return nil
}

// markAbandoned runs when the bounded confirmation wait expires. The
// incomplete record stays so the user can resume later.
func (s *checkoutServiceImpl) markAbandoned(uid string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.sessionRepo.SetStatus(ctx, s.db, uid,
		[]model.SessionStatus{model.SessionCreated, model.SessionPending},
		model.SessionAbandoned)
	if err != nil && err != gorm.ErrRecordNotFound {
		s.logger.Errorw("mark session abandoned", "uid", uid, "error", err)
		return
	}
	s.logger.Infow("payment session abandoned", "uid", uid)
}

// mergeOrderPayload joins the staged form data with the server-confirmed
// payment fields. The staged payload wins on everything except the payment
// amount and references, which come from the session the gateway verified.
// Delivery defaults fill in only when the storefront left them out.
func mergeOrderPayload(staged []byte, session *model.PaymentSession, defaults config.Checkout) (json.RawMessage, error) {
	var payload map[string]any
	if err := json.Unmarshal(staged, &payload); err != nil {
		return nil, fmt.Errorf("decode staged payload: %w", err)
	}

	payload["order_amount"] = session.Amount
	payload["payment_method"] = "valor"
	payload["transaction_reference"] = session.UID
	payload["invoicenumber"] = session.InvoiceNumber

	fillDefault(payload, "delivery_charge", defaults.DeliveryCharge)
	fillDefault(payload, "distance", defaults.DeliveryKM)
	fillDefault(payload, "latitude", defaults.FallbackLat)
	fillDefault(payload, "longitude", defaults.FallbackLng)

	merged, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode order payload: %w", err)
	}
	return merged, nil
}

func fillDefault(payload map[string]any, key, value string) {
	if _, ok := payload[key]; !ok && value != "" {
		payload[key] = value
	}
}
