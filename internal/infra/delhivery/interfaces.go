package delhivery

import "context"

// API is the carrier surface the shipment pipeline depends on.
type API interface {
	Configured() bool
	OriginPin() string
	PincodeServiceability(ctx context.Context, pincode string) (Serviceability, error)
	TAT(ctx context.Context, originPin, destPin string) (int, error)
	BulkWaybill(ctx context.Context, count int) ([]string, error)
	CreateShipment(ctx context.Context, req ShipmentRequest) (ShipmentResponse, error)
	CancelShipment(ctx context.Context, waybill string) error
	Track(ctx context.Context, waybill string) (Tracking, error)
	LabelURL(waybill string) string
}

var _ API = (*Client)(nil)
