package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/persist"
)

const OrdersKey = "startup-kafe-orders"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

type OrdersState struct {
	Orders []models.Order `json:"orders"`
}

func defaultOrdersState() OrdersState {
	return OrdersState{Orders: []models.Order{}}
}

// OrderDraft is everything about an order except what the store assigns.
type OrderDraft struct {
	Items         []models.OrderItem
	Pricing       models.Pricing
	Customer      models.Customer
	PaymentMethod string
	PaymentStatus models.PaymentStatus
	TransactionID string
	Status        models.OrderStatus
}

type Orders struct {
	mu     sync.Mutex
	orders []models.Order
	ids    idClock
	saver  *persist.Store[OrdersState]
	hub    *Hub
}

func NewOrders(ctx context.Context, p *persist.Store[OrdersState]) *Orders {
	state := p.Load(ctx)
	o := &Orders{
		orders: state.Orders,
		ids:    idClock{now: time.Now},
		saver:  p,
		hub:    NewHub(NameOrders),
	}
	for _, order := range o.orders {
		o.ids.observe(order.ID)
	}
	return o
}

func (o *Orders) Hub() *Hub {
	return o.hub
}

func (o *Orders) commit(action string) {
	o.saver.Save(context.Background(), OrdersState{Orders: o.orders})
	o.hub.record(action)
}

// AddOrder assigns a unique id and the creation date, defaults the status
// to confirmed and prepends the order to the history.
func (o *Orders) AddOrder(draft OrderDraft) models.Order {
	o.mu.Lock()
	order := models.Order{
		ID:            o.ids.next(),
		Items:         append([]models.OrderItem{}, draft.Items...),
		Subtotal:      draft.Pricing.Subtotal,
		Taxes:         draft.Pricing.Taxes,
		DeliveryFee:   draft.Pricing.DeliveryFee,
		Total:         draft.Pricing.Total,
		Customer:      draft.Customer,
		PaymentMethod: draft.PaymentMethod,
		PaymentStatus: draft.PaymentStatus,
		TransactionID: draft.TransactionID,
		Date:          o.ids.now().UTC(),
		Status:        draft.Status,
	}
	if !order.Status.Valid() {
		order.Status = models.StatusConfirmed
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentPending
	}
	o.orders = append([]models.Order{order}, o.orders...)
	o.commit("add_order")
	o.mu.Unlock()
	o.hub.flush()
	return order.Clone()
}

// Orders returns the history, most recent first.
func (o *Orders) Orders() []models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Order, len(o.orders))
	for i, order := range o.orders {
		out[i] = order.Clone()
	}
	return out
}

func (o *Orders) OrderByID(id int64) (models.Order, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, order := range o.orders {
		if order.ID == id {
			return order.Clone(), true
		}
	}
	return models.Order{}, false
}

// AdvanceStatus moves an order forward through the kitchen statuses.
func (o *Orders) AdvanceStatus(id int64, status models.OrderStatus) (models.Order, error) {
	o.mu.Lock()
	i := -1
	for idx := range o.orders {
		if o.orders[idx].ID == id {
			i = idx
			break
		}
	}
	if i < 0 {
		o.mu.Unlock()
		return models.Order{}, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}
	if !o.orders[i].Status.CanAdvanceTo(status) {
		from := o.orders[i].Status
		o.mu.Unlock()
		return models.Order{}, fmt.Errorf("%s -> %s: %w", from, status, ErrInvalidTransition)
	}
	o.orders[i].Status = status
	order := o.orders[i].Clone()
	o.commit("advance_status")
	o.mu.Unlock()
	o.hub.flush()
	return order, nil
}
