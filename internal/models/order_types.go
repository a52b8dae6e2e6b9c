package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	// Online payment pre-states
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"

	// Fulfilment
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPaymentPending, OrderStatusPaid, OrderStatusPaymentFailed,
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions under the strict table.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// orderTransitions lists the moves allowed when strict transitions are on.
// Forward jumps along the fulfilment chain are allowed; cancelled is
// reachable from every non-terminal status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPaymentPending: {OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusPaymentFailed:  {OrderStatusPaymentPending, OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:           {OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusPending:        {OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusDelivered, OrderStatusCancelled},
}

// CanTransition reports whether from -> to is in the transition table.
// Setting a status to itself is always allowed.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ItemStatus tracks one order line independently of the order.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusShipped    ItemStatus = "shipped"
	ItemStatusDelivered  ItemStatus = "delivered"
	ItemStatusCancelled  ItemStatus = "cancelled"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusProcessing, ItemStatusShipped, ItemStatusDelivered, ItemStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentOnline         PaymentMethod = "Online Payment"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentOnline
}

// InitialStatus is the status a new order starts in for this method.
func (m PaymentMethod) InitialStatus() OrderStatus {
	if m == PaymentOnline {
		return OrderStatusPaymentPending
	}
	return OrderStatusPending
}

// DeliveryInfo is the shipping address captured at checkout. Every field is required.
type DeliveryInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

// Trimmed returns d with surrounding whitespace removed from every field,
// so a blank field fails the required check.
func (d DeliveryInfo) Trimmed() DeliveryInfo {
	for _, f := range []*string{
		&d.FirstName, &d.LastName, &d.Email, &d.Address, &d.City,
		&d.State, &d.ZipCode, &d.Country, &d.Phone,
	} {
		*f = strings.TrimSpace(*f)
	}
	return d
}

// OrderItem is the denormalized copy of a cart line taken at checkout.
// Only Status changes after creation.
type OrderItem struct {
	ProductID string          `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Size      string          `json:"size" db:"size"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"price" db:"unit_price"`
	Image     string          `json:"image" db:"image"`
	Status    ItemStatus      `json:"status" db:"status"`
}

func (i OrderItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.Size}
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the model for the 'orders' table. Orders are never deleted.
type Order struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"userId" db:"user_id"`
	DeliveryInfo  DeliveryInfo    `json:"deliveryInfo" db:"delivery_info"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	Items         []OrderItem     `json:"items" db:"-"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Status        OrderStatus     `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// ItemSubtotal recomputes Σ unitPrice × quantity over the items.
func (o *Order) ItemSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// FindItem returns the index of the item with key, or -1.
func (o *Order) FindItem(key LineKey) int {
	for i, it := range o.Items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	return &cp
}

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusPending PaymentStatus = "pending"
)

// PaymentRequest is what the gateway needs to open a hosted checkout.
// Reference is the order id.
type PaymentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	Email       string
	FirstName   string
	LastName    string
	CallbackURL string
	ReturnURL   string
}
