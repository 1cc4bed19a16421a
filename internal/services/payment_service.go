package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"orderflow/internal/domain"
	"orderflow/internal/infra/mailer"
	"orderflow/internal/infra/payu"
	"orderflow/internal/infra/rabbitmq"
	"orderflow/internal/repository"
)

// PaymentService owns the payment leg of the order lifecycle: building the
// outbound gateway request, verifying callbacks, applying the pending→paid
// transition exactly once, and scheduling side effects after the response.
type PaymentService struct {
	orders      repository.OrderRepository
	gateway     *payu.Client
	shipments   *ShipmentService
	mail        mailer.Mailer
	publisher   rabbitmq.PublisherInterface
	dispatcher  Dispatcher
	frontendURL string
	publicURL   string
	log         *zap.Logger
}

func NewPaymentService(
	orders repository.OrderRepository,
	gateway *payu.Client,
	shipments *ShipmentService,
	mail mailer.Mailer,
	publisher rabbitmq.PublisherInterface,
	dispatcher Dispatcher,
	frontendURL, publicURL string,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		orders:      orders,
		gateway:     gateway,
		shipments:   shipments,
		mail:        mail,
		publisher:   publisher,
		dispatcher:  dispatcher,
		frontendURL: frontendURL,
		publicURL:   publicURL,
		log:         log,
	}
}

// CreatePayment builds the signed gateway form for an order. The generated
// transaction id is persisted before the form is returned, so a callback
// can always be correlated even if it races the HTTP response.
func (s *PaymentService) CreatePayment(ctx context.Context, userID, orderID uint64) (payu.PaymentForm, error) {
	order, err := s.orders.FindForUser(ctx, orderID, userID)
	if err != nil {
		return payu.PaymentForm{}, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return payu.PaymentForm{}, domain.ErrOrderNotFound
	}
	if order.Status == domain.StatusPaid {
		return payu.PaymentForm{}, domain.ErrAlreadyPaid
	}

	txnID := payu.GenerateTxnID(order.ID)
	if err := s.orders.SetTxnID(ctx, order.ID, txnID); err != nil {
		return payu.PaymentForm{}, fmt.Errorf("persist txn id: %w", err)
	}
	order.PayuTxnID = txnID

	surl := s.publicURL + "/payment/callback-success"
	furl := s.publicURL + "/payment/callback-failure"
	return s.gateway.BuildPaymentRequest(order, txnID, surl, furl), nil
}

// HandleCallback verifies a gateway callback and returns the frontend URL
// the gateway's browser redirect must land on. Every outcome redirects;
// even a panic mid-verification yields the generic failure page.
func (s *PaymentService) HandleCallback(ctx context.Context, values url.Values) (redirect string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("callback handling panicked", zap.Any("panic", r))
			redirect = s.failureRedirect(0, string(payu.ReasonInternalError))
		}
	}()

	cb := payu.CallbackFromValues(values)

	// Merchant key first, before anything is even looked up.
	if !s.gateway.MerchantKeyMatches(cb.Key) {
		s.log.Warn("callback rejected: merchant key mismatch", zap.String("txnid", cb.TxnID))
		return s.failureRedirect(0, string(payu.ReasonInvalidMerchantKey))
	}

	// Correlate via udf1 and load the order.
	orderID, ok := cb.OrderID()
	if !ok {
		s.log.Warn("callback rejected: no order id in udf1", zap.String("txnid", cb.TxnID))
		return s.failureRedirect(0, string(payu.ReasonOrderNotFound))
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		s.log.Error("callback: order lookup failed", zap.Uint64("orderId", orderID), zap.Error(err))
		return s.failureRedirect(orderID, string(payu.ReasonInternalError))
	}
	if order == nil {
		return s.failureRedirect(0, string(payu.ReasonOrderNotFound))
	}

	// Txn match, hash, declared outcome.
	v := s.gateway.VerifyCallback(cb, order.PayuTxnID)
	if !v.Verified {
		s.log.Warn("callback rejected",
			zap.Uint64("orderId", orderID), zap.String("reason", string(v.Reason)))
		return s.failureRedirect(orderID, string(v.Reason))
	}

	if !v.Paid {
		// Verified failure: keep status pending, persist what the gateway
		// told us for later retry or cancellation.
		meta := domain.PaymentMeta{
			PaymentID:   cb.MihPayID,
			Mode:        cb.Mode,
			BankRefNo:   cb.BankRefNum,
			Status:      cb.Status,
			Error:       v.Message,
			RawResponse: cb.RawJSON(),
		}
		if err := s.orders.RecordPaymentFailure(ctx, orderID, meta); err != nil {
			s.log.Error("callback: persist failure metadata failed",
				zap.Uint64("orderId", orderID), zap.Error(err))
		}
		return s.failureRedirect(orderID, v.Message)
	}

	// Replay of an already-applied success: respond success, no side effects.
	if order.Status == domain.StatusPaid {
		return s.successRedirect(orderID, cb.MihPayID)
	}

	meta := domain.PaymentMeta{
		PaymentID:   cb.MihPayID,
		Mode:        cb.Mode,
		BankRefNo:   cb.BankRefNum,
		Status:      cb.Status,
		RawResponse: cb.RawJSON(),
	}
	applied, err := s.orders.MarkPaid(ctx, orderID, meta)
	if err != nil {
		s.log.Error("callback: mark paid failed", zap.Uint64("orderId", orderID), zap.Error(err))
		return s.failureRedirect(orderID, string(payu.ReasonInternalError))
	}
	if !applied {
		// Lost the race to a concurrent callback, or the order left pending
		// some other way. Paid now means the replay already won.
		current, err := s.orders.FindByID(ctx, orderID)
		if err == nil && current != nil && current.Status == domain.StatusPaid {
			return s.successRedirect(orderID, cb.MihPayID)
		}
		s.log.Error("callback: order no longer payable",
			zap.Uint64("orderId", orderID))
		return s.failureRedirect(orderID, string(payu.ReasonInternalError))
	}

	s.log.Info("payment verified",
		zap.Uint64("orderId", orderID), zap.String("paymentId", cb.MihPayID))

	go s.publishOrderPaid(orderID, cb, order.TotalAmount.StringFixed(2))
	s.scheduleSideEffects(orderID)

	return s.successRedirect(orderID, cb.MihPayID)
}

// VerifyPayment is the client-side re-check; the callback stays the
// authoritative mechanism.
type VerifyResult struct {
	OrderID   uint64             `json:"orderId"`
	Status    domain.OrderStatus `json:"status"`
	Paid      bool               `json:"paid"`
	PaymentID string             `json:"paymentId,omitempty"`
}

func (s *PaymentService) VerifyPayment(ctx context.Context, userID, orderID uint64, txnID string) (VerifyResult, error) {
	order, err := s.orders.FindForUser(ctx, orderID, userID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return VerifyResult{}, domain.ErrOrderNotFound
	}
	if txnID != "" && order.PayuTxnID != txnID {
		return VerifyResult{}, domain.ErrOrderNotFound
	}
	return VerifyResult{
		OrderID:   order.ID,
		Status:    order.Status,
		Paid:      order.Status != domain.StatusPending && order.Status != domain.StatusCancelled,
		PaymentID: order.PayuPaymentID,
	}, nil
}

func (s *PaymentService) successRedirect(orderID uint64, paymentID string) string {
	q := url.Values{}
	q.Set("orderId", strconv.FormatUint(orderID, 10))
	if paymentID != "" {
		q.Set("paymentId", paymentID)
	}
	return s.frontendURL + "/payment/success?" + q.Encode()
}

func (s *PaymentService) failureRedirect(orderID uint64, message string) string {
	q := url.Values{}
	if orderID != 0 {
		q.Set("orderId", strconv.FormatUint(orderID, 10))
	}
	if message != "" {
		q.Set("message", message)
	}
	return s.frontendURL + "/payment/failure?" + q.Encode()
}

// scheduleSideEffects defers emails and shipment provisioning so the
// gateway's callback round-trip returns immediately.
func (s *PaymentService) scheduleSideEffects(orderID uint64) {
	s.dispatcher.Enqueue("order-emails", func(ctx context.Context) {
		s.sendOrderEmails(ctx, orderID)
	})
	if s.shipments.CarrierConfigured() {
		s.dispatcher.Enqueue("provision-shipment", func(ctx context.Context) {
			s.provisionShipment(ctx, orderID)
		})
	}
}

func (s *PaymentService) sendOrderEmails(ctx context.Context, orderID uint64) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil || order == nil {
		s.log.Error("order emails: load order failed", zap.Uint64("orderId", orderID), zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.mail.SendOrderConfirmation(gctx, order); err != nil {
			s.log.Error("confirmation email failed", zap.Uint64("orderId", orderID), zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := s.mail.SendOperatorNotification(gctx, order); err != nil {
			s.log.Error("operator email failed", zap.Uint64("orderId", orderID), zap.Error(err))
		}
		return nil
	})
	_ = g.Wait()
}

func (s *PaymentService) provisionShipment(ctx context.Context, orderID uint64) {
	result := s.shipments.CreateOrderShipment(ctx, orderID, ShipmentOptions{})
	if !result.Success {
		s.log.Error("automatic shipment provisioning failed",
			zap.Uint64("orderId", orderID), zap.String("error", result.Error))
		return
	}
	if result.AlreadyExisted {
		return
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil || order == nil {
		s.log.Error("shipment email: load order failed", zap.Uint64("orderId", orderID), zap.Error(err))
		return
	}
	trackURL := fmt.Sprintf("%s/order/%d/track", s.frontendURL, orderID)
	if err := s.mail.SendShipmentNotification(ctx, order, result.AwbCode, trackURL); err != nil {
		s.log.Error("shipment email failed", zap.Uint64("orderId", orderID), zap.Error(err))
	}
}

func (s *PaymentService) publishOrderPaid(orderID uint64, cb payu.Callback, amount string) {
	evt := domain.OrderPaidEvent{
		OrderID:   orderID,
		TxnID:     cb.TxnID,
		PaymentID: cb.MihPayID,
		Amount:    amount,
		PaidAt:    time.Now(),
	}
	if err := s.publisher.Publish(context.Background(), domain.EventOrderPaid, evt); err != nil {
		s.log.Error("publish order.paid failed", zap.Uint64("orderId", orderID), zap.Error(err))
	}
}
