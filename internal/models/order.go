// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a postal address embedded on orders and saved user profiles.
// US-only for now; State is a two-letter code.
type Address struct {
	Name    string `json:"name" gorm:"size:255"`
	Street1 string `json:"street1" gorm:"size:255"`
	Street2 string `json:"street2,omitempty" gorm:"size:255"`
	City    string `json:"city" gorm:"size:100"`
	State   string `json:"state" gorm:"size:2"`
	Zip     string `json:"zip" gorm:"size:10"`
	Country string `json:"country" gorm:"size:2;default:'US'"`
	Phone   string `json:"phone,omitempty" gorm:"size:20"`
}

// ShippoShipment holds the purchased-label state from the shipping provider.
type ShippoShipment struct {
	RateID         string  `json:"rate_id,omitempty" gorm:"size:64"`
	Carrier        string  `json:"carrier,omitempty" gorm:"size:50"`
	Service        string  `json:"service,omitempty" gorm:"size:100"`
	Amount         float64 `json:"amount,omitempty" gorm:"type:decimal(10,2)"`
	TransactionID  string  `json:"transaction_id,omitempty" gorm:"size:64"`
	TrackingNumber string  `json:"tracking_number,omitempty" gorm:"size:100"`
	TrackingURL    string  `json:"tracking_url,omitempty" gorm:"size:512"`
	LabelURL       string  `json:"label_url,omitempty" gorm:"size:512"`
}

// AdminApproval records the accept/reject decision on an order.
type AdminApproval struct {
	IsApproved      bool       `json:"is_approved" gorm:"default:false"`
	RejectionReason string     `json:"rejection_reason,omitempty" gorm:"type:text"`
	AdminNotes      string     `json:"admin_notes,omitempty" gorm:"type:text"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty" gorm:"type:uuid"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
}

// ShippingParcel is the admin-entered package weight and dimensions, kept in
// whatever units the admin typed them in.
type ShippingParcel struct {
	Weight       float64      `json:"weight" gorm:"type:decimal(10,2)"`
	WeightUnit   WeightUnit   `json:"weight_unit" gorm:"type:varchar(2)"`
	Length       float64      `json:"length" gorm:"type:decimal(10,2)"`
	Width        float64      `json:"width" gorm:"type:decimal(10,2)"`
	Height       float64      `json:"height" gorm:"type:decimal(10,2)"`
	DistanceUnit DistanceUnit `json:"distance_unit" gorm:"type:varchar(2)"`
}

func (p ShippingParcel) IsSet() bool {
	return p.Weight > 0 && p.Length > 0 && p.Width > 0 && p.Height > 0
}

type Order struct {
	BaseModel
	OrderNumber   string     `json:"order_number" gorm:"size:20;uniqueIndex;not null"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty" gorm:"type:uuid;index"`
	CustomerEmail string     `json:"customer_email" gorm:"size:255;not null;index"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`

	Subtotal     float64 `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	ShippingCost float64 `json:"shipping_cost" gorm:"type:decimal(10,2);default:0"`
	Tax          float64 `json:"tax" gorm:"type:decimal(10,2);default:0"`
	Total        float64 `json:"total" gorm:"type:decimal(10,2);not null"`

	Status        OrderStatus   `json:"status" gorm:"type:varchar(30);default:'pending_approval';index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending';index"`
	IsCustomOrder bool          `json:"is_custom_order" gorm:"default:false"`

	ShippingAddress Address `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	BillingAddress  Address `json:"billing_address,omitempty" gorm:"embedded;embeddedPrefix:bill_"`

	Parcel   ShippingParcel `json:"shipping_parcel" gorm:"embedded;embeddedPrefix:parcel_"`
	Shipment ShippoShipment `json:"shippo_shipment" gorm:"embedded;embeddedPrefix:shippo_"`
	Approval AdminApproval  `json:"admin_approval" gorm:"embedded;embeddedPrefix:approval_"`

	PaymentToken       string     `json:"-" gorm:"size:64;index"`
	PaymentTokenExpiry *time.Time `json:"payment_token_expiry,omitempty"`
	PaymentReference   string     `json:"payment_reference,omitempty" gorm:"size:255"`

	IsTaxSet        bool `json:"is_tax_set" gorm:"default:false"`
	IsPriceAdjusted bool `json:"is_price_adjusted" gorm:"default:false"`

	// Optimistic concurrency token; every mutating call must match it.
	Version int `json:"version" gorm:"not null;default:1"`

	EmailHistory []EmailRecord `json:"email_history,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is a point-in-time snapshot, deliberately decoupled from the
// live Product so historical orders stay stable under catalog edits.
type OrderItem struct {
	BaseModel
	OrderID       uuid.UUID  `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID     *uuid.UUID `json:"product_id,omitempty" gorm:"type:uuid"`
	UnitID        *uuid.UUID `json:"unit_id,omitempty" gorm:"type:uuid"`
	Name          string     `json:"name" gorm:"size:255;not null"`
	Price         float64    `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity      int        `json:"quantity" gorm:"not null"`
	Size          string     `json:"size" gorm:"size:50"`
	Color         string     `json:"color" gorm:"size:50"`
	EngravingText string     `json:"engraving_text,omitempty" gorm:"size:255"`
	IsCustom      bool       `json:"is_custom" gorm:"default:false"`
}

// EmailRecord is the audit trail of notifications sent for an order.
type EmailRecord struct {
	BaseModel
	OrderID uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	Event   string    `json:"event" gorm:"size:50;not null"`
	To      string    `json:"to" gorm:"size:255;not null"`
	Subject string    `json:"subject" gorm:"size:255;not null"`
	SentAt  time.Time `json:"sent_at"`
}

// HasLiveToken reports whether an unexpired payment token exists at the
// given instant.
func (o *Order) HasLiveToken(now time.Time) bool {
	return o.PaymentToken != "" && o.PaymentTokenExpiry != nil && now.Before(*o.PaymentTokenExpiry)
}

// TokenMatches checks a presented bearer token against the order. Expired
// tokens never match.
func (o *Order) TokenMatches(token string, now time.Time) bool {
	if token == "" || o.PaymentToken == "" {
		return false
	}
	return o.PaymentToken == token && o.HasLiveToken(now)
}

// RecomputeTotal derives total from the money fields.
func (o *Order) RecomputeTotal() {
	o.Total = o.Subtotal + o.ShippingCost + o.Tax
}
