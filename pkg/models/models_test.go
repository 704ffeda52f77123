package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPriceForRoundsHalfUp(t *testing.T) {
	cases := []struct {
		subtotal int
		taxes    int
	}{
		{0, 0},
		{80, 4},
		{130, 7}, // 6.5 rounds up
		{129, 6}, // 6.45 rounds down
		{450, 23},
	}
	for _, c := range cases {
		p := PriceFor(c.subtotal)
		if p.Taxes != c.taxes {
			t.Fatalf("taxes for %d = %d, want %d", c.subtotal, p.Taxes, c.taxes)
		}
		if p.Total != c.subtotal+c.taxes || p.DeliveryFee != 0 {
			t.Fatalf("unexpected pricing %+v", p)
		}
	}
}

func TestOrderStatusOnlyMovesForward(t *testing.T) {
	if !StatusConfirmed.CanAdvanceTo(StatusPreparing) {
		t.Fatalf("confirmed -> preparing should be allowed")
	}
	if !StatusConfirmed.CanAdvanceTo(StatusDelivered) {
		t.Fatalf("confirmed -> delivered should be allowed")
	}
	if StatusReady.CanAdvanceTo(StatusPreparing) {
		t.Fatalf("ready -> preparing should be rejected")
	}
	if StatusReady.CanAdvanceTo(StatusReady) {
		t.Fatalf("same status should be rejected")
	}
	if StatusConfirmed.CanAdvanceTo(OrderStatus("cancelled")) {
		t.Fatalf("unknown status should be rejected")
	}
}

func TestCartLineEncodesFlat(t *testing.T) {
	line := CartLine{MenuItem: MenuItem{ID: 3, Name: "Cappuccino", Price: 120}, Quantity: 2}
	data, err := json.Marshal(line)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"id":3`) || !strings.Contains(string(data), `"quantity":2`) {
		t.Fatalf("unexpected encoding %s", data)
	}
	if line.Amount() != 240 {
		t.Fatalf("amount = %d", line.Amount())
	}
	if item := line.OrderItem(); item.ID != 3 || item.Quantity != 2 || item.Price != 120 {
		t.Fatalf("unexpected order item %+v", item)
	}
}

func TestUserPreferencesCloneIsIndependent(t *testing.T) {
	p := UserPreferences{FavoriteItems: []int{1, 2}}
	c := p.Clone()
	c.FavoriteItems[0] = 9
	if p.FavoriteItems[0] != 1 {
		t.Fatalf("clone shares favorites")
	}
}
