package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/domain"
	"orderflow/internal/infra/delhivery"
	"orderflow/internal/infra/rabbitmq"
	"orderflow/internal/repository"
)

// ShipmentOptions tune one provisioning run.
type ShipmentOptions struct {
	// FetchWaybill pre-allocates a tracking number instead of letting the
	// manifest call assign one dynamically.
	FetchWaybill bool
	WeightGrams  int
}

// ShipmentResult is the structured outcome surfaced to manual triggers and
// logged for automatic ones. It never carries a panic across the job
// boundary.
type ShipmentResult struct {
	Success        bool   `json:"success"`
	AlreadyExisted bool   `json:"alreadyExisted,omitempty"`
	AwbCode        string `json:"awbCode,omitempty"`
	ShipmentID     string `json:"shipmentId,omitempty"`
	LabelURL       string `json:"labelUrl,omitempty"`
	TATDays        int    `json:"tatDays,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ShipmentService drives the carrier provisioning pipeline, from the
// idempotency check through serviceability, waybill, manifest and persistence.
type ShipmentService struct {
	orders    repository.OrderRepository
	carrier   delhivery.API
	publisher rabbitmq.PublisherInterface
	log       *zap.Logger
}

func NewShipmentService(
	orders repository.OrderRepository,
	carrier delhivery.API,
	publisher rabbitmq.PublisherInterface,
	log *zap.Logger,
) *ShipmentService {
	return &ShipmentService{
		orders:    orders,
		carrier:   carrier,
		publisher: publisher,
		log:       log,
	}
}

func (s *ShipmentService) CarrierConfigured() bool {
	return s.carrier.Configured()
}

func fail(msg string) ShipmentResult {
	return ShipmentResult{Success: false, Error: msg}
}

// CreateOrderShipment runs the pipeline for one paid order. Re-invocation
// for an order that already has an AWB returns the existing identifiers;
// a duplicate shipment is never created.
func (s *ShipmentService) CreateOrderShipment(ctx context.Context, orderID uint64, opts ShipmentOptions) (result ShipmentResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("shipment pipeline panicked",
				zap.Uint64("orderId", orderID), zap.Any("panic", r))
			result = fail("internal error")
		}
	}()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		s.log.Error("shipment: load order failed", zap.Uint64("orderId", orderID), zap.Error(err))
		return fail("failed to load order")
	}
	if order == nil {
		return fail("order not found")
	}

	if order.AwbCode != "" {
		return ShipmentResult{
			Success:        true,
			AlreadyExisted: true,
			AwbCode:        order.AwbCode,
			ShipmentID:     order.ShipmentID,
			LabelURL:       order.ShippingLabelURL,
		}
	}

	if !s.carrier.Configured() {
		return fail("carrier not configured")
	}

	sv, err := s.carrier.PincodeServiceability(ctx, order.PinCode)
	if err != nil {
		s.log.Warn("shipment: serviceability check failed",
			zap.Uint64("orderId", orderID), zap.String("pin", order.PinCode), zap.Error(err))
		return fail("pincode serviceability check failed")
	}
	if !sv.Serviceable {
		s.log.Warn("shipment: pincode not serviceable",
			zap.Uint64("orderId", orderID), zap.String("pin", order.PinCode))
		return fail("pincode not serviceable by carrier")
	}

	// Advisory only: a broken TAT endpoint must not stop shipping.
	tatDays, err := s.carrier.TAT(ctx, s.carrier.OriginPin(), order.PinCode)
	if err != nil || tatDays <= 0 {
		tatDays = delhivery.DefaultTATDays
	}

	var waybill string
	if opts.FetchWaybill {
		wbs, err := s.carrier.BulkWaybill(ctx, 1)
		if err != nil {
			s.log.Warn("shipment: waybill prefetch failed, using dynamic allocation",
				zap.Uint64("orderId", orderID), zap.Error(err))
		} else if len(wbs) > 0 {
			waybill = wbs[0]
		}
	}

	req := delhivery.ShipmentRequest{
		OrderID:     order.ID,
		Name:        order.BuyerName(),
		Address:     order.FullAddress + ", " + order.TownOrCity + ", " + order.State,
		Pin:         order.PinCode,
		Phone:       order.MobileNumber,
		PaymentMode: order.PaymentMode,
		WeightGrams: opts.WeightGrams,
		Waybill:     waybill,
	}
	if order.IsCOD() {
		req.CODAmount = order.TotalAmount
	}

	created, err := s.carrier.CreateShipment(ctx, req)
	if err != nil {
		s.log.Error("shipment: carrier create failed",
			zap.Uint64("orderId", orderID), zap.Error(err))
		return fail(err.Error())
	}

	meta := domain.ShipmentMeta{
		ShipmentID: created.ShipmentID,
		AwbCode:    created.Waybill,
		Courier:    "Delhivery",
		LabelURL:   created.LabelURL,
		Status:     domain.ShipmentCreated,
	}
	if err := s.orders.UpdateShipment(ctx, orderID, meta); err != nil {
		s.log.Error("shipment: persist carrier identifiers failed",
			zap.Uint64("orderId", orderID), zap.String("awb", created.Waybill), zap.Error(err))
		return fail("failed to persist shipment identifiers")
	}

	go s.publishShipmentCreated(orderID, meta)

	return ShipmentResult{
		Success:    true,
		AwbCode:    created.Waybill,
		ShipmentID: created.ShipmentID,
		LabelURL:   created.LabelURL,
		TATDays:    tatDays,
	}
}

func (s *ShipmentService) publishShipmentCreated(orderID uint64, meta domain.ShipmentMeta) {
	evt := domain.ShipmentCreatedEvent{
		OrderID:    orderID,
		AwbCode:    meta.AwbCode,
		ShipmentID: meta.ShipmentID,
		CreatedAt:  time.Now(),
	}
	if err := s.publisher.Publish(context.Background(), domain.EventShipmentCreated, evt); err != nil {
		s.log.Error("publish shipment.created failed",
			zap.Uint64("orderId", orderID), zap.Error(err))
	}
}

// Track proxies a waybill lookup to the carrier.
func (s *ShipmentService) Track(ctx context.Context, awb string) (delhivery.Tracking, error) {
	return s.carrier.Track(ctx, awb)
}

// CancelShipment cancels an un-dispatched package at the carrier.
func (s *ShipmentService) CancelShipment(ctx context.Context, awb string) error {
	return s.carrier.CancelShipment(ctx, awb)
}

// LabelURL synthesizes the packing-slip URL for a waybill.
func (s *ShipmentService) LabelURL(awb string) string {
	return s.carrier.LabelURL(awb)
}

// Serviceability exposes the normalized pincode check for admin tooling.
func (s *ShipmentService) Serviceability(ctx context.Context, pincode string) (delhivery.Serviceability, error) {
	return s.carrier.PincodeServiceability(ctx, pincode)
}
