package delhivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultWeightGrams = 500
	defaultHSNCode     = "998399"
	defaultSellerGST   = "URP"
)

// ShipmentRequest is everything the carrier needs to manifest one package.
type ShipmentRequest struct {
	OrderID     uint64
	Name        string
	Address     string
	Pin         string
	Phone       string
	PaymentMode string // "Pre-paid" or "COD"
	CODAmount   decimal.Decimal
	WeightGrams int
	Waybill     string // optional pre-allocated waybill
}

type ShipmentResponse struct {
	Waybill    string
	ShipmentID string
	LabelURL   string
}

// CreateShipment manifests one package. The carrier reports per-package
// rejection inside an HTTP 200 body, so the response is inspected for
// explicit failure markers before anything is trusted.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (ShipmentResponse, error) {
	if !c.configured {
		return ShipmentResponse{}, errNotConfigured
	}

	payload, err := json.Marshal([]map[string]any{c.shipmentPayload(req)})
	if err != nil {
		return ShipmentResponse{}, err
	}
	body := []byte("format=json&data=" + url.QueryEscape(string(payload)))

	u := c.baseURL + "/api/cmu/create.json"
	data, err := c.do(ctx, http.MethodPost, u, body, "application/x-www-form-urlencoded")
	if err != nil {
		c.log.Error("shipment creation failed",
			zap.Uint64("orderId", req.OrderID), zap.Error(err))
		return ShipmentResponse{}, err
	}

	resp, err := parseCreateResponse(data)
	if err != nil {
		c.log.Error("shipment rejected by carrier",
			zap.Uint64("orderId", req.OrderID), zap.Error(err))
		return ShipmentResponse{}, err
	}
	if resp.ShipmentID == "" {
		resp.ShipmentID = strconv.FormatUint(req.OrderID, 10)
	}
	resp.LabelURL = c.LabelURL(resp.Waybill)

	c.log.Info("shipment created",
		zap.Uint64("orderId", req.OrderID), zap.String("waybill", resp.Waybill))
	return resp, nil
}

func (c *Client) shipmentPayload(req ShipmentRequest) map[string]any {
	weight := req.WeightGrams
	if weight <= 0 {
		weight = defaultWeightGrams
	}
	mode := "Pre-paid"
	if strings.Contains(strings.ToLower(req.PaymentMode), "cod") {
		mode = "COD"
	}

	phone := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, req.Phone)
	if len(phone) > 10 {
		phone = phone[len(phone)-10:]
	}

	shipment := map[string]any{
		"name":            truncate(req.Name, 100),
		"add":             truncate(req.Address, 500),
		"pin":             normalizePin(req.Pin),
		"phone":           phone,
		"order":           strconv.FormatUint(req.OrderID, 10),
		"payment_mode":    mode,
		"weight":          weight,
		"seller_gst_tin":  defaultSellerGST,
		"hsn_code":        defaultHSNCode,
		"pickup_location": map[string]string{"name": c.pickupLocation},
		"client":          c.clientName,
	}
	if mode == "COD" && req.CODAmount.IsPositive() {
		shipment["cod_amount"] = req.CODAmount.StringFixed(2)
	}
	if req.Waybill != "" {
		shipment["waybill"] = req.Waybill
	}
	return shipment
}

// parseCreateResponse handles the manifest response: a packages array, a
// single package object, or a bare array. A package whose status says Fail
// is a rejection even though the HTTP status was 200.
func parseCreateResponse(data []byte) (ShipmentResponse, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ShipmentResponse{}, fmt.Errorf("unparseable carrier response: %w", err)
	}

	var pkg map[string]any
	switch v := raw.(type) {
	case map[string]any:
		if errFlag, ok := v["error"].(bool); ok && errFlag {
			return ShipmentResponse{}, fmt.Errorf("carrier rejected manifest: %s", stringField(v, "rmk", "remarks", "message"))
		}
		pkg = firstPackage(v["packages"])
		if pkg == nil {
			pkg = firstPackage(v["package"])
		}
		if pkg == nil {
			pkg = v
		}
	case []any:
		if len(v) > 0 {
			pkg, _ = v[0].(map[string]any)
		}
	}
	if pkg == nil {
		return ShipmentResponse{}, fmt.Errorf("no package in carrier response")
	}

	if status := stringField(pkg, "status"); strings.EqualFold(status, "Fail") {
		return ShipmentResponse{}, fmt.Errorf("carrier rejected package: %s", stringField(pkg, "remarks", "rmk", "message"))
	}

	waybill := stringField(pkg, "waybill", "awb", "wb")
	if waybill == "" {
		return ShipmentResponse{}, fmt.Errorf("carrier response carries no waybill")
	}
	return ShipmentResponse{
		Waybill:    waybill,
		ShipmentID: stringField(pkg, "reference_id", "ref_id", "order"),
	}, nil
}

func firstPackage(v any) map[string]any {
	switch p := v.(type) {
	case []any:
		if len(p) > 0 {
			m, _ := p[0].(map[string]any)
			return m
		}
	case map[string]any:
		return p
	}
	return nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			// remarks sometimes arrive as a list of strings
			var parts []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// CancelShipment cancels an un-dispatched package by waybill.
func (c *Client) CancelShipment(ctx context.Context, waybill string) error {
	if !c.configured {
		return errNotConfigured
	}
	params := url.Values{"waybill": {waybill}, "cancellation": {"true"}}
	u := c.baseURL + "/api/p/edit?" + params.Encode()
	_, err := c.do(ctx, http.MethodPost, u, nil, "")
	return err
}

// LabelURL synthesizes the packing-slip URL for a waybill.
func (c *Client) LabelURL(waybill string) string {
	if waybill == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/p/packing_slip?wbns=%s", c.baseURL, url.QueryEscape(waybill))
}
