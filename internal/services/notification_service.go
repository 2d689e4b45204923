// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	texttemplate "text/template"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/auroraatelier/aurora-backend/internal/config"
	"github.com/auroraatelier/aurora-backend/internal/metrics"
	"github.com/auroraatelier/aurora-backend/internal/models"
)

// Email events recorded on the order's notification history.
const (
	EmailEventOrderReceived   = "order_received"
	EmailEventOrderAccepted   = "order_accepted"
	EmailEventOrderRejected   = "order_rejected"
	EmailEventTaxAdjusted     = "tax_adjusted"
	EmailEventPaymentLink     = "payment_link"
	EmailEventPaymentReceived = "payment_received"
	EmailEventOrderShipped    = "order_shipped"
	EmailEventOrderDelivered  = "order_delivered"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

// ComposedEmail is a fully rendered message with an HTML body and a
// plain-text alternative, separated from delivery so composition is testable
// without an SMTP server.
type ComposedEmail struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

func (s *NotificationService) ComposeOrderReceived(order *models.Order) (*ComposedEmail, error) {
	return s.compose(order, EmailEventOrderReceived,
		fmt.Sprintf("We received your order %s", order.OrderNumber),
		s.orderTemplateData(order))
}

func (s *NotificationService) ComposeOrderAccepted(order *models.Order) (*ComposedEmail, error) {
	return s.compose(order, EmailEventOrderAccepted,
		fmt.Sprintf("Your order %s was accepted", order.OrderNumber),
		s.orderTemplateData(order))
}

func (s *NotificationService) ComposeOrderRejected(order *models.Order, reason string) (*ComposedEmail, error) {
	data := s.orderTemplateData(order)
	data["Reason"] = reason
	return s.compose(order, EmailEventOrderRejected,
		fmt.Sprintf("About your order %s", order.OrderNumber), data)
}

// ComposeTaxAdjusted covers both tax entry and admin repricing; either way
// the customer sees the updated totals before any payment link goes out.
func (s *NotificationService) ComposeTaxAdjusted(order *models.Order) (*ComposedEmail, error) {
	return s.compose(order, EmailEventTaxAdjusted,
		fmt.Sprintf("Updated total for order %s", order.OrderNumber),
		s.orderTemplateData(order))
}

func (s *NotificationService) ComposePaymentLink(order *models.Order, paymentURL string, expiresAt time.Time) (*ComposedEmail, error) {
	data := s.orderTemplateData(order)
	data["PaymentURL"] = paymentURL
	data["ExpiresAt"] = expiresAt.Format("January 2, 2006 at 3:04 PM MST")
	return s.compose(order, EmailEventPaymentLink,
		fmt.Sprintf("Payment link for order %s", order.OrderNumber), data)
}

func (s *NotificationService) ComposePaymentReceived(order *models.Order) (*ComposedEmail, error) {
	return s.compose(order, EmailEventPaymentReceived,
		fmt.Sprintf("Payment received for order %s", order.OrderNumber),
		s.orderTemplateData(order))
}

func (s *NotificationService) ComposeOrderShipped(order *models.Order) (*ComposedEmail, error) {
	data := s.orderTemplateData(order)
	data["Carrier"] = order.Shipment.Carrier
	data["TrackingNumber"] = order.Shipment.TrackingNumber
	data["TrackingURL"] = order.Shipment.TrackingURL
	return s.compose(order, EmailEventOrderShipped,
		fmt.Sprintf("Your order %s has shipped", order.OrderNumber), data)
}

func (s *NotificationService) ComposeOrderDelivered(order *models.Order) (*ComposedEmail, error) {
	return s.compose(order, EmailEventOrderDelivered,
		fmt.Sprintf("Your order %s was delivered", order.OrderNumber),
		s.orderTemplateData(order))
}

// SendOrderEvent composes, delivers and records the notification for an
// order event. Delivery failures are logged, not propagated; the order flow
// never blocks on email.
func (s *NotificationService) SendOrderEvent(order *models.Order, event string, composeArgs ...interface{}) {
	email, err := s.composeForEvent(order, event, composeArgs...)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("failed to compose order email")
		return
	}

	if err := s.sendEmail(email.To, email.Subject, email.HTML, email.Text); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event": event,
			"order": order.OrderNumber,
		}).Error("failed to send order email")
		return
	}

	metrics.EmailsSentCounter.WithLabelValues(event).Inc()

	record := &models.EmailRecord{
		OrderID: order.ID,
		Event:   event,
		To:      email.To,
		Subject: email.Subject,
		SentAt:  time.Now(),
	}
	if err := s.db.Create(record).Error; err != nil {
		logrus.WithError(err).Error("failed to record sent email")
	}
}

func (s *NotificationService) composeForEvent(order *models.Order, event string, args ...interface{}) (*ComposedEmail, error) {
	switch event {
	case EmailEventOrderReceived:
		return s.ComposeOrderReceived(order)
	case EmailEventOrderAccepted:
		return s.ComposeOrderAccepted(order)
	case EmailEventOrderRejected:
		reason := ""
		if len(args) > 0 {
			reason, _ = args[0].(string)
		}
		return s.ComposeOrderRejected(order, reason)
	case EmailEventTaxAdjusted:
		return s.ComposeTaxAdjusted(order)
	case EmailEventPaymentLink:
		if len(args) < 2 {
			return nil, fmt.Errorf("payment link event requires url and expiry")
		}
		url, _ := args[0].(string)
		expiry, _ := args[1].(time.Time)
		return s.ComposePaymentLink(order, url, expiry)
	case EmailEventPaymentReceived:
		return s.ComposePaymentReceived(order)
	case EmailEventOrderShipped:
		return s.ComposeOrderShipped(order)
	case EmailEventOrderDelivered:
		return s.ComposeOrderDelivered(order)
	}
	return nil, fmt.Errorf("unknown email event %q", event)
}

func (s *NotificationService) compose(order *models.Order, event, subject string, data map[string]interface{}) (*ComposedEmail, error) {
	body, err := renderTemplate(emailTemplates[event], data)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	text, err := renderTextTemplate(textTemplates[event], data)
	if err != nil {
		return nil, fmt.Errorf("failed to render text email template: %w", err)
	}

	return &ComposedEmail{
		To:      order.CustomerEmail,
		Subject: subject,
		HTML:    body,
		Text:    text,
	}, nil
}

func (s *NotificationService) orderTemplateData(order *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"CustomerName": order.ShippingAddress.Name,
		"OrderNumber":  order.OrderNumber,
		"Items":        order.Items,
		"Subtotal":     fmt.Sprintf("%.2f", order.Subtotal),
		"ShippingCost": fmt.Sprintf("%.2f", order.ShippingCost),
		"Tax":          fmt.Sprintf("%.2f", order.Tax),
		"Total":        fmt.Sprintf("%.2f", order.Total),
		"StoreName":    s.config.Email.FromName,
		"StoreURL":     s.config.Frontend.BaseURL,
	}
}

// sendEmail delivers a multipart/alternative message so text-only clients
// get the plain body.
func (s *NotificationService) sendEmail(to, subject, htmlBody, textBody string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("email delivery skipped, SMTP not configured")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=\"UTF-8\""},
	})
	if err != nil {
		return fmt.Errorf("failed to build email body: %w", err)
	}
	if _, err := textPart.Write([]byte(textBody)); err != nil {
		return fmt.Errorf("failed to build email body: %w", err)
	}

	htmlPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=\"UTF-8\""},
	})
	if err != nil {
		return fmt.Errorf("failed to build email body: %w", err)
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return fmt.Errorf("failed to build email body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build email body: %w", err)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/alternative; boundary=%q\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, writer.Boundary(), body.String()))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func renderTextTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := texttemplate.New("email_text").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const itemsTableFragment = `
	<table>
		{{range .Items}}
		<tr>
			<td>{{.Name}}{{if .Size}} ({{.Size}}{{if .Color}}, {{.Color}}{{end}}){{end}}</td>
			<td>x{{.Quantity}}</td>
			<td>${{printf "%.2f" .Price}}</td>
		</tr>
		{{end}}
	</table>`

var emailTemplates = map[string]string{
	EmailEventOrderReceived: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thank you, {{.CustomerName}}!</h2>
	<p>We received your order <strong>{{.OrderNumber}}</strong> and will review it shortly.</p>` + itemsTableFragment + `
	<p>Subtotal: ${{.Subtotal}}</p>
	<p>We will email you once your order is accepted.</p>
	<p>{{.StoreName}}</p>
</body>
</html>`,

	EmailEventOrderAccepted: `
<!DOCTYPE html>
<html>
<body>
	<h2>Good news, {{.CustomerName}}!</h2>
	<p>Your order <strong>{{.OrderNumber}}</strong> was accepted and is being prepared.</p>
	<p>You will receive a payment link once shipping and tax are finalized.</p>
	<p>{{.StoreName}}</p>
</body>
</html>`,

	EmailEventOrderRejected: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.CustomerName}},</h2>
	<p>Unfortunately we cannot fulfill your order <strong>{{.OrderNumber}}</strong>.</p>
	{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
	<p>You have not been charged. Please reach out if you have questions.</p>
	<p>{{.StoreName}}</p>
</body>
</html>`,

	EmailEventTaxAdjusted: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.CustomerName}},</h2>
	<p>The total for your order <strong>{{.OrderNumber}}</strong> was updated.</p>` + itemsTableFragment + `
	<p>Subtotal: ${{.Subtotal}}<br>Shipping: ${{.ShippingCost}}<br>Tax: ${{.Tax}}<br><strong>Total: ${{.Total}}</strong></p>
	<p>No payment is due yet; we will send a payment link separately.</p>
	<p>{{.StoreName}}</p>
</body>
</html>`,

	EmailEventPaymentLink: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.CustomerName}},</h2>
	<p>Your order <strong>{{.OrderNumber}}</strong> is ready for payment.</p>` + itemsTableFragment + `
	<p>Subtotal: ${{.Subtotal}}<br>Shipping: ${{.ShippingCost}}<br>Tax: ${{.Tax}}<br><strong>Total: ${{.Total}}</strong></p>
	<p><a href="{{.PaymentURL}}">Pay now</a></p>
	<p>This link expires on {{.ExpiresAt}}.</p>
	<p>{{.StoreName}}</p>
</body>
</html>`,

	EmailEventPaymentReceived: `
<!DOCTYPE html>
<html>
<body>
	<h2>Payment received</h2>
	<p>Hello {{.CustomerName}}, we received your payment of <strong>${{.Total}}</strong> for order <strong>{{.OrderNumber}}</strong>.</p>
	<p>Your pieces are now in production and will ship soon.</p>
	<p>{{.StoreName}}</p>
</body>
</html>`,

	EmailEventOrderShipped: `
<!DOCTYPE html>
<html>
<body>
	<h2>Your order is on its way!</h2>
	<p>Hello {{.CustomerName}}, order <strong>{{.OrderNumber}}</strong> has shipped via {{.Carrier}}.</p>
	<p>Tracking number: {{.TrackingNumber}}</p>
	{{if .TrackingURL}}<p><a href="{{.TrackingURL}}">Track your package</a></p>{{end}}
	<p>{{.StoreName}}</p>
</body>
</html>`,

	EmailEventOrderDelivered: `
<!DOCTYPE html>
<html>
<body>
	<h2>Delivered!</h2>
	<p>Hello {{.CustomerName}}, order <strong>{{.OrderNumber}}</strong> was delivered.</p>
	<p>We hope you love your pieces. Thank you for supporting handmade work.</p>
	<p>{{.StoreName}}</p>
</body>
</html>`,
}

const itemsTextFragment = `{{range .Items}}  - {{.Name}}{{if .Size}} ({{.Size}}{{if .Color}}, {{.Color}}{{end}}){{end}} x{{.Quantity}} ${{printf "%.2f" .Price}}
{{end}}`

var textTemplates = map[string]string{
	EmailEventOrderReceived: `Thank you, {{.CustomerName}}!

We received your order {{.OrderNumber}} and will review it shortly.

` + itemsTextFragment + `
Subtotal: ${{.Subtotal}}

We will email you once your order is accepted.

{{.StoreName}}`,

	EmailEventOrderAccepted: `Good news, {{.CustomerName}}!

Your order {{.OrderNumber}} was accepted and is being prepared.
You will receive a payment link once shipping and tax are finalized.

{{.StoreName}}`,

	EmailEventOrderRejected: `Hello {{.CustomerName}},

Unfortunately we cannot fulfill your order {{.OrderNumber}}.
{{if .Reason}}Reason: {{.Reason}}
{{end}}You have not been charged. Please reach out if you have questions.

{{.StoreName}}`,

	EmailEventTaxAdjusted: `Hello {{.CustomerName}},

The total for your order {{.OrderNumber}} was updated.

` + itemsTextFragment + `
Subtotal: ${{.Subtotal}}
Shipping: ${{.ShippingCost}}
Tax: ${{.Tax}}
Total: ${{.Total}}

No payment is due yet; we will send a payment link separately.

{{.StoreName}}`,

	EmailEventPaymentLink: `Hello {{.CustomerName}},

Your order {{.OrderNumber}} is ready for payment.

` + itemsTextFragment + `
Subtotal: ${{.Subtotal}}
Shipping: ${{.ShippingCost}}
Tax: ${{.Tax}}
Total: ${{.Total}}

Pay now: {{.PaymentURL}}

This link expires on {{.ExpiresAt}}.

{{.StoreName}}`,

	EmailEventPaymentReceived: `Payment received

Hello {{.CustomerName}}, we received your payment of ${{.Total}} for order {{.OrderNumber}}.
Your pieces are now in production and will ship soon.

{{.StoreName}}`,

	EmailEventOrderShipped: `Your order is on its way!

Hello {{.CustomerName}}, order {{.OrderNumber}} has shipped via {{.Carrier}}.
Tracking number: {{.TrackingNumber}}
{{if .TrackingURL}}Track your package: {{.TrackingURL}}
{{end}}
{{.StoreName}}`,

	EmailEventOrderDelivered: `Delivered!

Hello {{.CustomerName}}, order {{.OrderNumber}} was delivered.
We hope you love your pieces. Thank you for supporting handmade work.

{{.StoreName}}`,
}
