// internal/models/lifecycle.go
package models

import (
	"errors"
	"fmt"
	"time"
)

// OrderAction is a discrete admin or customer action that advances an order.
type OrderAction string

const (
	ActionAccept            OrderAction = "accept"
	ActionReject            OrderAction = "reject"
	ActionSetTax            OrderAction = "set_tax"
	ActionPurchaseLabel     OrderAction = "purchase_label"
	ActionGenerateLink      OrderAction = "generate_payment_link"
	ActionRegenerateLink    OrderAction = "regenerate_payment_link"
	ActionPay               OrderAction = "pay"
	ActionRequestAdjustment OrderAction = "request_adjustment"
	ActionMarkShipped       OrderAction = "mark_shipped"
	ActionMarkDelivered     OrderAction = "mark_delivered"
	ActionRemove            OrderAction = "remove"
	ActionCancel            OrderAction = "cancel"
)

// Transition errors. Services wrap these; handlers map them to 4xx.
var (
	ErrTransitionNotAllowed    = errors.New("transition not allowed")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrTaxLockedByToken        = errors.New("tax cannot change after a payment link was issued")
	ErrParcelAndRateRequired   = errors.New("weight, dimensions and a selected rate are required")
	ErrLabelRequired           = errors.New("shipping label must be purchased first")
	ErrTaxNotSet               = errors.New("tax must be set before generating a payment link")
	ErrTokenAlreadyIssued      = errors.New("a payment link already exists; regenerate it instead")
	ErrNoTokenToRegenerate     = errors.New("no payment link exists yet")
	ErrPaymentTokenInvalid     = errors.New("payment token is invalid or expired")
	ErrPaymentNotCaptured      = errors.New("payment has not been captured")
)

// transitions is the single authority for order-status changes. An action
// absent from a status's row is illegal from that status, full stop.
var transitions = map[OrderStatus]map[OrderAction]OrderStatus{
	OrderStatusPendingApproval: {
		ActionAccept: OrderStatusAccepted,
		ActionReject: OrderStatusRejected,
		ActionSetTax: OrderStatusPendingApproval,
		ActionRemove: OrderStatusRemoved,
		ActionCancel: OrderStatusCancelled,
	},
	OrderStatusAccepted: {
		ActionSetTax:        OrderStatusAccepted,
		ActionPurchaseLabel: OrderStatusAccepted,
		ActionGenerateLink:  OrderStatusPendingPayment,
		ActionRemove:        OrderStatusRemoved,
		ActionCancel:        OrderStatusCancelled,
	},
	OrderStatusPendingPayment: {
		ActionRegenerateLink:    OrderStatusPendingPayment,
		ActionPay:               OrderStatusProcessing,
		ActionRequestAdjustment: OrderStatusPendingPaymentAdjustment,
		ActionCancel:            OrderStatusCancelled,
	},
	OrderStatusPendingPaymentAdjustment: {
		ActionSetTax:       OrderStatusPendingPaymentAdjustment,
		ActionGenerateLink: OrderStatusPendingPayment,
		ActionCancel:       OrderStatusCancelled,
	},
	OrderStatusProcessing: {
		ActionMarkShipped: OrderStatusShipped,
	},
	OrderStatusShipped: {
		ActionMarkDelivered: OrderStatusDelivered,
	},
}

// TransitionInput carries the action parameters the guards need.
type TransitionInput struct {
	Reason string    // reject
	Token  string    // pay
	Now    time.Time // token expiry checks
}

// NextStatus validates an action against the transition table and the
// per-action guards and returns the resulting status. It does not mutate
// the order.
func NextStatus(o *Order, action OrderAction, in TransitionInput) (OrderStatus, error) {
	row, ok := transitions[o.Status]
	if !ok {
		return "", fmt.Errorf("%w: order is %s", ErrTransitionNotAllowed, o.Status)
	}
	next, ok := row[action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s an order that is %s", ErrTransitionNotAllowed, action, o.Status)
	}

	if err := checkGuard(o, action, in); err != nil {
		return "", err
	}
	return next, nil
}

func checkGuard(o *Order, action OrderAction, in TransitionInput) error {
	switch action {
	case ActionReject:
		if in.Reason == "" {
			return ErrRejectionReasonRequired
		}

	case ActionSetTax:
		if o.PaymentToken != "" {
			return ErrTaxLockedByToken
		}

	case ActionPurchaseLabel:
		if !o.Parcel.IsSet() || o.Shipment.RateID == "" {
			return ErrParcelAndRateRequired
		}

	case ActionGenerateLink:
		if o.Shipment.LabelURL == "" {
			return ErrLabelRequired
		}
		if !o.IsTaxSet {
			return ErrTaxNotSet
		}
		if o.HasLiveToken(in.Now) {
			return ErrTokenAlreadyIssued
		}

	case ActionRegenerateLink:
		if o.PaymentToken == "" {
			return ErrNoTokenToRegenerate
		}

	case ActionPay:
		if !o.TokenMatches(in.Token, in.Now) {
			return ErrPaymentTokenInvalid
		}

	case ActionMarkShipped:
		if o.PaymentStatus != PaymentStatusCaptured {
			return ErrPaymentNotCaptured
		}
		if o.Shipment.LabelURL == "" {
			return ErrLabelRequired
		}
	}
	return nil
}
