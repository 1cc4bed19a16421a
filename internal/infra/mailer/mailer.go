package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"orderflow/internal/config"
	"orderflow/internal/domain"
)

// Mailer sends the transactional emails fired after payment and shipment.
// Every send is best-effort; callers log failures and move on.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
	SendOperatorNotification(ctx context.Context, order *domain.Order) error
	SendShipmentNotification(ctx context.Context, order *domain.Order, awb, trackURL string) error
}

type smtpMailer struct {
	dialer   *gomail.Dialer
	from     string
	operator string
}

func NewSMTP(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:     cfg.From,
		operator: cfg.OperatorEmail,
	}
}

func (m *smtpMailer) send(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return m.dialer.DialAndSend(msg)
}

func (m *smtpMailer) SendOrderConfirmation(_ context.Context, order *domain.Order) error {
	subject := fmt.Sprintf("Order Confirmed - #%d", order.ID)
	return m.send(order.EmailAddress, subject, customerConfirmationHTML(order))
}

func (m *smtpMailer) SendOperatorNotification(_ context.Context, order *domain.Order) error {
	if m.operator == "" {
		return nil
	}
	subject := fmt.Sprintf("New Paid Order #%d", order.ID)
	return m.send(m.operator, subject, operatorNotificationHTML(order))
}

func (m *smtpMailer) SendShipmentNotification(_ context.Context, order *domain.Order, awb, trackURL string) error {
	subject := fmt.Sprintf("Your Order #%d Has Shipped", order.ID)
	return m.send(order.EmailAddress, subject, shipmentNotificationHTML(order, awb, trackURL))
}
