// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeAdmin    UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type ProductCategory string

const (
	CategoryRing     ProductCategory = "ring"
	CategoryEarring  ProductCategory = "earring"
	CategoryBracelet ProductCategory = "bracelet"
	CategoryNecklace ProductCategory = "necklace"
	CategoryCustom   ProductCategory = "custom"
)

func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryRing, CategoryEarring, CategoryBracelet, CategoryNecklace, CategoryCustom:
		return true
	}
	return false
}

type SaleType string

const (
	SaleTypePercentage SaleType = "percentage"
	SaleTypeAmount     SaleType = "amount"
)

type OrderStatus string

const (
	OrderStatusPendingApproval          OrderStatus = "pending_approval"
	OrderStatusAccepted                 OrderStatus = "accepted"
	OrderStatusPendingPayment           OrderStatus = "pending_payment"
	OrderStatusPendingPaymentAdjustment OrderStatus = "pending_payment_adjustment"
	OrderStatusProcessing               OrderStatus = "processing"
	OrderStatusShipped                  OrderStatus = "shipped"
	OrderStatusDelivered                OrderStatus = "delivered"
	OrderStatusRejected                 OrderStatus = "rejected"
	OrderStatusCancelled                OrderStatus = "cancelled"
	OrderStatusRemoved                  OrderStatus = "removed"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type WeightUnit string

const (
	WeightUnitPound    WeightUnit = "lb"
	WeightUnitKilogram WeightUnit = "kg"
)

type DistanceUnit string

const (
	DistanceUnitInch       DistanceUnit = "in"
	DistanceUnitCentimeter DistanceUnit = "cm"
)
