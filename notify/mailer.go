// Package notify sends customer email.
package notify

import (
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/freshcatch/seafood-api/config"
	"github.com/freshcatch/seafood-api/models"
)

// Mailer sends order mail over SMTP. Without SMTP settings it only logs.
type Mailer struct {
	from     string
	currency string
	log      *zap.Logger
	send     func(*gomail.Message) error
}

func NewMailer(cfg *config.Config, log *zap.Logger) *Mailer {
	m := &Mailer{from: cfg.MailFrom, currency: cfg.Currency, log: log}
	if cfg.MailEnabled() {
		dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
		m.send = func(msg *gomail.Message) error { return dialer.DialAndSend(msg) }
	} else {
		log.Info("SMTP not configured, order mail disabled")
	}
	return m
}

func (m *Mailer) Enabled() bool {
	return m.send != nil
}

// SendOrderConfirmation mails the order summary to the customer.
func (m *Mailer) SendOrderConfirmation(to string, order models.Order) error {
	if to == "" {
		return nil
	}
	if !m.Enabled() {
		m.log.Info("order mail skipped", zap.String("to", to), zap.String("order_ref", order.OrderRef))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Order %s received", order.OrderRef))
	msg.SetBody("text/html", m.orderBody(order))

	if err := m.send(msg); err != nil {
		m.log.Error("order mail failed", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send order mail: %w", err)
	}
	m.log.Info("order mail sent", zap.String("to", to), zap.String("order_ref", order.OrderRef))
	return nil
}

// SendStatusUpdate tells the customer their order moved to a new status.
func (m *Mailer) SendStatusUpdate(to string, order models.Order) error {
	if to == "" || !m.Enabled() {
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Order %s is %s", order.OrderRef, order.Status))
	msg.SetBody("text/plain", fmt.Sprintf("Your order %s is now %s.", order.OrderRef, order.Status))
	if err := m.send(msg); err != nil {
		return fmt.Errorf("send status mail: %w", err)
	}
	return nil
}

func (m *Mailer) orderBody(order models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thank you for your order</h2>\n<p>Order <b>%s</b></p>\n<table>\n", html.EscapeString(order.OrderRef))
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d x %s</td><td>%s %s</td></tr>\n",
			html.EscapeString(item.ProductName), item.Quantity, item.UnitPrice.StringFixed(2),
			m.currency, item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "</table>\n<p>Subtotal: %s %s<br>\nShipping: %s %s<br>\n<b>Total: %s %s</b></p>\n",
		m.currency, order.Subtotal.StringFixed(2),
		m.currency, order.ShippingFee.StringFixed(2),
		m.currency, order.Total.StringFixed(2))
	a := order.Address
	fmt.Fprintf(&b, "<p>Delivering to %s,\n%s, %s %s</p>\n",
		html.EscapeString(a.RecipientName), html.EscapeString(a.StreetAddress),
		html.EscapeString(a.City), html.EscapeString(a.ZipCode))
	return b.String()
}
