// Package payu builds signed outbound payment requests and verifies inbound
// gateway callbacks. The hash salt never leaves this package.
package payu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderflow/internal/config"
	"orderflow/internal/domain"
)

type Client struct {
	key        string
	salt       string
	paymentURL string
	log        *zap.Logger
}

func New(cfg config.PayUConfig, log *zap.Logger) *Client {
	return &Client{
		key:        cfg.Key,
		salt:       cfg.Salt,
		paymentURL: cfg.PaymentURL(),
		log:        log,
	}
}

// MerchantKeyMatches reports whether a callback-supplied merchant key is
// ours. An absent key passes; the hash check still covers it.
func (c *Client) MerchantKeyMatches(key string) bool {
	return key == "" || key == c.key
}

// GenerateTxnID produces a transaction id unique to this payment attempt.
// The order id prefix keeps gateway dashboards correlatable by eye; the
// random suffix makes retried attempts distinct.
func GenerateTxnID(orderID uint64) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return fmt.Sprintf("TXN%d%s", orderID, suffix)
}

// PaymentForm is what the frontend auto-submits to the gateway's hosted page.
type PaymentForm struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
}

// BuildPaymentRequest assembles the signed form for an order. The txn id must
// already be persisted on the order before this form reaches a browser.
// surl/furl are the callback URLs the gateway will invoke.
func (c *Client) BuildPaymentRequest(order *domain.Order, txnID, surl, furl string) PaymentForm {
	amount := order.TotalAmount.StringFixed(2)
	productInfo := fmt.Sprintf("Order #%d", order.ID)
	// udf1 carries the order id; it round-trips through the gateway untouched
	// and is the correlation key on the way back.
	udf1 := strconv.FormatUint(order.ID, 10)

	fields := map[string]string{
		"key":         c.key,
		"txnid":       txnID,
		"amount":      amount,
		"productinfo": productInfo,
		"firstname":   order.FirstName,
		"lastname":    order.LastName,
		"email":       order.EmailAddress,
		"phone":       order.MobileNumber,
		"surl":        surl,
		"furl":        furl,
		"udf1":        udf1,
		"hash": c.requestHash(hashInput{
			TxnID:       txnID,
			Amount:      amount,
			ProductInfo: productInfo,
			Firstname:   order.FirstName,
			Email:       order.EmailAddress,
			UDF:         [5]string{udf1},
		}),
	}

	return PaymentForm{Action: c.paymentURL, Fields: fields}
}
