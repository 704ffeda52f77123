package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

type OrderStatus string

const (
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
)

var statusRank = map[OrderStatus]int{
	StatusConfirmed: 0,
	StatusPreparing: 1,
	StatusReady:     2,
	StatusDelivered: 3,
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether an order may move from s to next. Status only
// moves forward.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

type Order struct {
	ID            int64         `json:"id"`
	Items         []OrderItem   `json:"items"`
	Subtotal      int           `json:"subtotal"`
	Taxes         int           `json:"taxes"`
	DeliveryFee   int           `json:"deliveryFee"`
	Total         int           `json:"total"`
	Customer      Customer      `json:"customer"`
	PaymentMethod string        `json:"paymentMethod"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TransactionID string        `json:"transactionId,omitempty"`
	Date          time.Time     `json:"date"`
	Status        OrderStatus   `json:"status"`
}

type OrderItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image,omitempty"`
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Address string `json:"address,omitempty"`
}

// TaxRate is expressed in percent of the subtotal.
const TaxRate = 5

// Pricing is the breakdown shown at checkout and stored on the order.
type Pricing struct {
	Subtotal    int `json:"subtotal"`
	Taxes       int `json:"taxes"`
	DeliveryFee int `json:"deliveryFee"`
	Total       int `json:"total"`
}

// PriceFor computes taxes (rounded half up) and the total for a subtotal.
// Delivery is free.
func PriceFor(subtotal int) Pricing {
	taxes := (subtotal*TaxRate + 50) / 100
	return Pricing{
		Subtotal:    subtotal,
		Taxes:       taxes,
		DeliveryFee: 0,
		Total:       subtotal + taxes,
	}
}

// Clone returns a deep copy of o.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]OrderItem(nil), o.Items...)
	return out
}
