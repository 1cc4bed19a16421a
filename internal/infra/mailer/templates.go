package mailer

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"orderflow/internal/domain"
)

func qty(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

func itemRows(items []domain.OrderItem) string {
	var b strings.Builder
	for _, it := range items {
		lineTotal := it.PriceAtPurchase.Mul(qty(it.Quantity))
		fmt.Fprintf(&b, `<tr>
  <td style="padding:8px;border-bottom:1px solid #e0e0e0;">%s</td>
  <td style="padding:8px;border-bottom:1px solid #e0e0e0;text-align:center;">%d</td>
  <td style="padding:8px;border-bottom:1px solid #e0e0e0;text-align:right;">₹%s</td>
  <td style="padding:8px;border-bottom:1px solid #e0e0e0;text-align:right;">₹%s</td>
</tr>`,
			html.EscapeString(it.ProductTitle), it.Quantity,
			it.PriceAtPurchase.StringFixed(2), lineTotal.StringFixed(2))
	}
	return b.String()
}

func customerConfirmationHTML(order *domain.Order) string {
	paymentRef := order.PayuPaymentID
	if paymentRef == "" {
		paymentRef = order.PayuTxnID
	}
	return fmt.Sprintf(`<html><body style="font-family:sans-serif;color:#333;">
<h2>Order Confirmed!</h2>
<p>Hi <strong>%s</strong>,</p>
<p>Your order has been placed and payment received. We're preparing it for shipment.</p>
<p>Order Number: <strong>#%d</strong><br>Payment Reference: %s</p>
<table style="width:100%%;border-collapse:collapse;">
<tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
%s
</table>
<p style="font-size:16px;">Order Total: <strong>₹%s</strong></p>
<p>Shipping to:<br>%s<br>%s, %s %s</p>
</body></html>`,
		html.EscapeString(order.FirstName), order.ID, html.EscapeString(paymentRef),
		itemRows(order.Items), order.TotalAmount.StringFixed(2),
		html.EscapeString(order.FullAddress), html.EscapeString(order.TownOrCity),
		html.EscapeString(order.State), html.EscapeString(order.PinCode))
}

func operatorNotificationHTML(order *domain.Order) string {
	return fmt.Sprintf(`<html><body style="font-family:sans-serif;color:#333;">
<h2>New Paid Order</h2>
<p>Order <strong>#%d</strong> for ₹%s has been paid.</p>
<p>Buyer: %s &lt;%s&gt;, %s</p>
<p>Ship to: %s, %s, %s %s</p>
<table style="width:100%%;border-collapse:collapse;">
<tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
%s
</table>
</body></html>`,
		order.ID, order.TotalAmount.StringFixed(2),
		html.EscapeString(order.BuyerName()), html.EscapeString(order.EmailAddress),
		html.EscapeString(order.MobileNumber),
		html.EscapeString(order.FullAddress), html.EscapeString(order.TownOrCity),
		html.EscapeString(order.State), html.EscapeString(order.PinCode),
		itemRows(order.Items))
}

func shipmentNotificationHTML(order *domain.Order, awb, trackURL string) string {
	trackLine := ""
	if trackURL != "" {
		trackLine = fmt.Sprintf(`<p><a href="%s">Track your shipment</a></p>`, trackURL)
	}
	return fmt.Sprintf(`<html><body style="font-family:sans-serif;color:#333;">
<h2>Your Order Has Shipped</h2>
<p>Hi <strong>%s</strong>,</p>
<p>Order <strong>#%d</strong> is on its way.</p>
<p>Tracking Number (AWB): <strong>%s</strong></p>
%s
</body></html>`,
		html.EscapeString(order.FirstName), order.ID, html.EscapeString(awb), trackLine)
}
