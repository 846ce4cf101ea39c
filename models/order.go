package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ParseOrderStatus accepts any status, in any case. Moves between statuses
// are not restricted.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipping, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return st, nil
	}
	return "", fmt.Errorf("invalid payment status %q", s)
}

// ShippingAddress is the address copied into the order at checkout.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	StreetAddress string `json:"street_address"`
	Apartment     string `json:"apartment,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
}

func (a Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		StreetAddress: a.StreetAddress,
		Apartment:     a.Apartment,
		City:          a.City,
		State:         a.State,
		ZipCode:       a.ZipCode,
	}
}

type Order struct {
	ID            string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrderRef      string          `gorm:"uniqueIndex;not null" json:"order_ref"`
	UserID        string          `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	User          *User           `json:"user,omitempty"`
	AddressID     string          `gorm:"type:varchar(64)" json:"address_id"`
	Address       ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"address"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingFee   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_fee"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status        OrderStatus     `gorm:"type:varchar(20);default:'pending'" json:"order_status"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);default:'unpaid'" json:"payment_status"`
	PaymentMethod string          `json:"payment_method"` // "card" or "cod"
	PaymentRef    string          `json:"payment_ref,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderRef == "" {
		o.OrderRef = time.Now().Format("20060102150405") + "-" + o.ID[:8]
	}
	return nil
}

// OrderItem keeps the name and price charged at checkout so later product
// edits do not rewrite history.
type OrderItem struct {
	ID          string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrderID     string          `gorm:"index;not null;type:varchar(64)" json:"order_id"`
	ProductID   string          `gorm:"index;type:varchar(64)" json:"product_id"`
	Product     *Product        `json:"product,omitempty"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
