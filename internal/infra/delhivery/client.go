// Package delhivery wraps the carrier's HTTP API: serviceability, transit
// estimates, waybill allocation, shipment lifecycle and tracking. Response
// shapes vary wildly between environments, so every parser here normalizes
// defensively before anything reaches business logic.
package delhivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/config"
)

// DefaultTATDays is the advisory fallback when the carrier gives no usable
// transit estimate.
const DefaultTATDays = 5

type Client struct {
	baseURL        string
	apiKey         string
	clientName     string
	pickupLocation string
	originPin      string
	configured     bool

	http     *http.Client
	log      *zap.Logger
	attempts int
	backoff  time.Duration
}

func New(cfg config.DelhiveryConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		clientName:     cfg.Client(),
		pickupLocation: cfg.PickupLocation,
		originPin:      cfg.OriginPin,
		configured:     cfg.Configured(),
		http:           &http.Client{Timeout: 30 * time.Second},
		log:            log,
		attempts:       defaultAttempts,
		backoff:        defaultBackoff,
	}
}

func (c *Client) Configured() bool { return c.configured }

func (c *Client) OriginPin() string { return c.originPin }

// Serviceability is the normalized answer to "will the carrier deliver to
// this pincode, and under which payment modes".
type Serviceability struct {
	Serviceable bool `json:"serviceable"`
	Prepaid     bool `json:"prepaid"`
	COD         bool `json:"cod"`
}

// PincodeServiceability checks the destination pincode. Absent, empty and
// malformed carrier responses all normalize to "not serviceable" rather
// than an error.
func (c *Client) PincodeServiceability(ctx context.Context, pincode string) (Serviceability, error) {
	if !c.configured {
		return Serviceability{}, errNotConfigured
	}
	pin := normalizePin(pincode)
	if len(pin) != 6 {
		return Serviceability{}, fmt.Errorf("invalid pincode %q", pincode)
	}

	u := fmt.Sprintf("%s/c/api/pin-codes/json/?filter_codes=%s", c.baseURL, pin)
	body, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return Serviceability{}, err
	}
	return parseServiceability(body, pin), nil
}

// TAT estimates delivery days to the destination pincode. Best-effort: the
// caller should fall back to DefaultTATDays on error.
func (c *Client) TAT(ctx context.Context, originPin, destPin string) (int, error) {
	if !c.configured {
		return 0, errNotConfigured
	}
	d := normalizePin(destPin)
	if len(d) != 6 {
		return 0, fmt.Errorf("invalid pincode %q", destPin)
	}

	u := fmt.Sprintf("%s/c/api/pin-codes/json/?filter_codes=%s", c.baseURL, d)
	body, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return 0, err
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, k := range []string{"expected_delivery_days", "tat"} {
			if v, ok := obj[k]; ok {
				if days := asInt(v); days > 0 {
					return days, nil
				}
			}
		}
	}
	return DefaultTATDays, nil
}

// BulkWaybill pre-fetches tracking numbers. The response is either a bare
// array, a comma-joined string, or an object with a waybills key.
func (c *Client) BulkWaybill(ctx context.Context, count int) ([]string, error) {
	if !c.configured {
		return nil, errNotConfigured
	}
	if count < 1 {
		count = 1
	}

	u := fmt.Sprintf("%s/waybill/api/bulk/json/?cl=%s&count=%d",
		c.baseURL, url.QueryEscape(c.clientName), count)
	body, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}

	var list []string
	var arr []any
	if err := json.Unmarshal(body, &arr); err == nil {
		for _, v := range arr {
			if s := asWaybill(v); s != "" {
				list = append(list, s)
			}
		}
	} else {
		var obj struct {
			Waybills []string `json:"waybills"`
		}
		if err := json.Unmarshal(body, &obj); err == nil && len(obj.Waybills) > 0 {
			list = obj.Waybills
		} else {
			var joined string
			if err := json.Unmarshal(body, &joined); err == nil && joined != "" {
				list = strings.Split(joined, ",")
			}
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no waybills in carrier response")
	}
	return list, nil
}

func normalizePin(pin string) string {
	var b strings.Builder
	for _, r := range pin {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > 6 {
		s = s[:6]
	}
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		var days int
		fmt.Sscanf(n, "%d", &days)
		return days
	}
	return 0
}

func asWaybill(v any) string {
	switch w := v.(type) {
	case string:
		return w
	case map[string]any:
		if s, ok := w["waybill"].(string); ok {
			return s
		}
	}
	return ""
}
