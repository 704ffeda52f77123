package store

import (
	"context"
	"sync"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/persist"
)

const CartKey = "startup-kafe-cart"

// MaxQuantityPerItem is the per-line cap the storefront UI shows. The cart
// itself does not enforce it.
const MaxQuantityPerItem = 10

type CartState struct {
	Items []models.CartLine `json:"items"`
}

func defaultCartState() CartState {
	return CartState{Items: []models.CartLine{}}
}

type Cart struct {
	mu    sync.Mutex
	lines []models.CartLine
	saver *persist.Store[CartState]
	hub   *Hub
}

// NewCart loads the cart from p. Lines with a non-positive quantity and
// repeated ids are dropped on load.
func NewCart(ctx context.Context, p *persist.Store[CartState]) *Cart {
	state := p.Load(ctx)
	c := &Cart{saver: p, hub: NewHub(NameCart)}
	seen := make(map[int]bool, len(state.Items))
	for _, line := range state.Items {
		if line.Quantity <= 0 || seen[line.ID] {
			continue
		}
		seen[line.ID] = true
		c.lines = append(c.lines, line)
	}
	return c
}

func (c *Cart) Hub() *Hub {
	return c.hub
}

// commit persists the lines and queues an event. Caller holds c.mu.
func (c *Cart) commit(action string) {
	c.saver.Save(context.Background(), CartState{Items: c.copyLines()})
	c.hub.record(action)
}

func (c *Cart) copyLines() []models.CartLine {
	return append([]models.CartLine{}, c.lines...)
}

func (c *Cart) index(id int) int {
	for i, line := range c.lines {
		if line.ID == id {
			return i
		}
	}
	return -1
}

// AddItem adds one of item, appending a new line with a snapshot of the item
// when it is not in the cart yet.
func (c *Cart) AddItem(item models.MenuItem) {
	c.mu.Lock()
	if i := c.index(item.ID); i >= 0 {
		c.lines[i].Quantity++
	} else {
		c.lines = append(c.lines, models.CartLine{MenuItem: item, Quantity: 1})
	}
	c.commit("add_item")
	c.mu.Unlock()
	c.hub.flush()
}

func (c *Cart) RemoveItem(id int) {
	c.mu.Lock()
	c.removeLocked(id)
	c.mu.Unlock()
	c.hub.flush()
}

func (c *Cart) removeLocked(id int) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.commit("remove_item")
}

// UpdateQuantity sets the quantity of the line for id. A quantity of zero
// or less removes the line.
func (c *Cart) UpdateQuantity(id, quantity int) {
	c.mu.Lock()
	c.setQuantityLocked(id, quantity)
	c.mu.Unlock()
	c.hub.flush()
}

func (c *Cart) setQuantityLocked(id, quantity int) {
	if quantity <= 0 {
		c.removeLocked(id)
		return
	}
	i := c.index(id)
	if i < 0 {
		return
	}
	c.lines[i].Quantity = quantity
	c.commit("update_quantity")
}

func (c *Cart) IncrementQuantity(id int) {
	c.step(id, 1)
}

func (c *Cart) DecrementQuantity(id int) {
	c.step(id, -1)
}

func (c *Cart) step(id, delta int) {
	c.mu.Lock()
	if i := c.index(id); i >= 0 {
		c.setQuantityLocked(id, c.lines[i].Quantity+delta)
	}
	c.mu.Unlock()
	c.hub.flush()
}

// ItemQuantity returns the quantity of id in the cart, or 0.
func (c *Cart) ItemQuantity(id int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, line := range c.lines {
		total += line.Amount()
	}
	return total
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.commit("clear")
	c.mu.Unlock()
	c.hub.flush()
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLines()
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}
