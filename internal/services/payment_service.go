// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"

	"github.com/auroraatelier/aurora-backend/internal/config"
	"github.com/auroraatelier/aurora-backend/internal/models"
)

type PaymentService struct {
	cfg *config.Config
}

type CheckoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type PaymentVerification struct {
	Paid             bool   `json:"paid"`
	PaymentReference string `json:"payment_reference"`
}

func NewPaymentService(cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{cfg: cfg}
}

// PaymentLinkURL is the customer-facing link embedded in payment emails. The
// token authenticates the bearer; no login is required to pay.
func (s *PaymentService) PaymentLinkURL(token string) string {
	return fmt.Sprintf("%s/pay/%s", s.cfg.Frontend.BaseURL, token)
}

// CreateCheckoutSession opens a Stripe Checkout session for the order's
// final total. The order must already carry its shipping cost and tax.
func (s *PaymentService) CreateCheckoutSession(order *models.Order, token string) (*CheckoutSessionResponse, error) {
	if order.Total <= 0 {
		return nil, errors.New("order total must be positive")
	}

	amountInCents := int64(math.Round(order.Total * 100))

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(order.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(amountInCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Order " + order.OrderNumber),
						Description: stripe.String(orderLineSummary(order)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/pay/%s/success?session_id={CHECKOUT_SESSION_ID}", s.cfg.Frontend.BaseURL, token)),
		CancelURL:  stripe.String(s.PaymentLinkURL(token)),
	}
	params.AddMetadata("order_number", order.OrderNumber)
	params.AddMetadata("order_id", order.ID.String())

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSessionResponse{
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

// VerifySession confirms with Stripe whether a checkout session was paid.
func (s *PaymentService) VerifySession(sessionID string) (*PaymentVerification, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	verification := &PaymentVerification{
		Paid: sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if sess.PaymentIntent != nil {
		verification.PaymentReference = sess.PaymentIntent.ID
	} else {
		verification.PaymentReference = sess.ID
	}
	return verification, nil
}

func orderLineSummary(order *models.Order) string {
	pieces := 0
	for i := range order.Items {
		pieces += order.Items[i].Quantity
	}
	return fmt.Sprintf("%d piece(s), including shipping and tax", pieces)
}
