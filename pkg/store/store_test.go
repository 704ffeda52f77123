package store

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/repository"
)

var (
	espresso   = models.MenuItem{ID: 1, Name: "Espresso", Price: 80, Category: "hot-beverages"}
	cappuccino = models.MenuItem{ID: 3, Name: "Cappuccino", Price: 120, Category: "hot-beverages"}
	vegBurger  = models.MenuItem{ID: 30, Name: "Veg Burger", Price: 110, Category: "burgers", IsVeg: true}
)

func openStores(t *testing.T, backend repository.Backend) *Stores {
	t.Helper()
	s := Open(context.Background(), backend, Options{})
	t.Cleanup(s.Close)
	return s
}

func TestCartAddItemMergesLines(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	s.Cart.AddItem(espresso)
	s.Cart.AddItem(espresso)

	lines := s.Cart.Lines()
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", lines)
	}
}

func TestCartTotalsUnderRandomOperations(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	items := []models.MenuItem{espresso, cappuccino, vegBurger}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		item := items[rng.Intn(len(items))]
		switch rng.Intn(5) {
		case 0, 1:
			s.Cart.AddItem(item)
		case 2:
			s.Cart.RemoveItem(item.ID)
		case 3:
			s.Cart.UpdateQuantity(item.ID, rng.Intn(6)-2)
		case 4:
			s.Cart.DecrementQuantity(item.ID)
		}

		totalItems, totalPrice := 0, 0
		for _, line := range s.Cart.Lines() {
			if line.Quantity <= 0 {
				t.Fatalf("step %d: line %d has quantity %d", i, line.ID, line.Quantity)
			}
			totalItems += line.Quantity
			totalPrice += line.Price * line.Quantity
		}
		if got := s.Cart.TotalItems(); got != totalItems {
			t.Fatalf("step %d: TotalItems = %d, want %d", i, got, totalItems)
		}
		if got := s.Cart.TotalPrice(); got != totalPrice {
			t.Fatalf("step %d: TotalPrice = %d, want %d", i, got, totalPrice)
		}
	}
}

func TestCartQuantityEdges(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	s.Cart.UpdateQuantity(99, 3)
	s.Cart.IncrementQuantity(99)
	if s.Cart.ItemQuantity(99) != 0 || !s.Cart.IsEmpty() {
		t.Fatalf("operations on absent items must be no-ops")
	}

	s.Cart.AddItem(cappuccino)
	s.Cart.UpdateQuantity(cappuccino.ID, 25)
	if got := s.Cart.ItemQuantity(cappuccino.ID); got != 25 {
		t.Fatalf("store must not cap quantity, got %d", got)
	}
	s.Cart.UpdateQuantity(cappuccino.ID, 0)
	if s.Cart.ItemQuantity(cappuccino.ID) != 0 {
		t.Fatalf("quantity 0 should remove the line")
	}

	s.Cart.AddItem(espresso)
	s.Cart.DecrementQuantity(espresso.ID)
	if !s.Cart.IsEmpty() {
		t.Fatalf("decrement to zero should remove the line")
	}
}

func TestCartLinesAreCopies(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	s.Cart.AddItem(espresso)
	lines := s.Cart.Lines()
	lines[0].Quantity = 50
	if s.Cart.ItemQuantity(espresso.ID) != 1 {
		t.Fatalf("Lines leaked internal state")
	}
}

func TestFavorites(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	s.User.AddToFavorites(7)
	s.User.AddToFavorites(7)
	if !s.User.IsFavorite(7) {
		t.Fatalf("expected 7 to be a favorite")
	}
	if n := len(s.User.Preferences().FavoriteItems); n != 1 {
		t.Fatalf("duplicate favorite, size %d", n)
	}
	s.User.RemoveFromFavorites(7)
	if s.User.IsFavorite(7) {
		t.Fatalf("expected 7 removed")
	}
}

func TestUserLoginLogout(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	name := "Asha"
	s.User.UpdatePreferences(models.PreferencesPatch{Name: &name})
	s.User.AddToFavorites(4)
	s.User.Login(models.Profile{UID: "u1", Phone: "+919876543210"})

	prefs := s.User.Preferences()
	if !s.User.IsLoggedIn() || prefs.Name != "Asha" || prefs.Phone != "+919876543210" {
		t.Fatalf("unexpected state after login: %+v", prefs)
	}
	if p, ok := s.User.Profile(); !ok || p.UID != "u1" {
		t.Fatalf("profile not stored: %+v", p)
	}

	s.User.Logout()
	prefs = s.User.Preferences()
	if s.User.IsLoggedIn() || prefs.Name != "" || len(prefs.FavoriteItems) != 0 {
		t.Fatalf("logout should reset preferences, got %+v", prefs)
	}
	if _, ok := s.User.Profile(); ok {
		t.Fatalf("profile should be cleared")
	}
}

func TestUserOrderHistoryIsCapped(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	for i := 0; i < MaxOrderHistory+3; i++ {
		s.User.AddOrder(models.Order{Total: i})
	}
	history := s.User.OrderHistory()
	if len(history) != MaxOrderHistory {
		t.Fatalf("history length %d", len(history))
	}
	if history[0].Total != MaxOrderHistory+2 {
		t.Fatalf("newest order should come first, got total %d", history[0].Total)
	}
}

func TestOrderIDsUniqueWithinSameMillisecond(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.Orders.ids.now = func() time.Time { return fixed }

	var last int64
	for i := 0; i < 50; i++ {
		order := s.Orders.AddOrder(OrderDraft{PaymentMethod: "cod"})
		if order.ID <= last {
			t.Fatalf("id %d not greater than %d", order.ID, last)
		}
		last = order.ID
		if order.Status != models.StatusConfirmed || order.PaymentStatus != models.PaymentPending {
			t.Fatalf("unexpected defaults %+v", order)
		}
	}
	orders := s.Orders.Orders()
	if len(orders) != 50 || orders[0].ID != last {
		t.Fatalf("orders should be most recent first")
	}
}

func TestOrderByIDAndAdvanceStatus(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	order := s.Orders.AddOrder(OrderDraft{Pricing: models.PriceFor(200)})

	if _, ok := s.Orders.OrderByID(order.ID + 1); ok {
		t.Fatalf("expected miss")
	}
	got, ok := s.Orders.OrderByID(order.ID)
	if !ok || got.Total != 210 {
		t.Fatalf("unexpected order %+v", got)
	}

	if _, err := s.Orders.AdvanceStatus(order.ID, models.StatusReady); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := s.Orders.AdvanceStatus(order.ID, models.StatusPreparing); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := s.Orders.AdvanceStatus(1, models.StatusReady); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestStoresRoundTrip(t *testing.T) {
	backend := repository.NewMemoryBackend()
	s := openStores(t, backend)
	s.Cart.AddItem(espresso)
	s.Cart.AddItem(espresso)
	s.Cart.AddItem(vegBurger)
	name, table := "Asha", "12"
	s.User.UpdatePreferences(models.PreferencesPatch{Name: &name, TableNumber: &table})
	s.User.AddToFavorites(30)
	s.User.SetHasSeenWelcome(true)
	order := s.Orders.AddOrder(OrderDraft{
		Items:         []models.OrderItem{{ID: 1, Name: "Espresso", Price: 80, Quantity: 2}},
		Pricing:       models.PriceFor(160),
		Customer:      models.Customer{Name: "Asha", Phone: "9876543210"},
		PaymentMethod: "cod",
	})

	reloaded := openStores(t, backend)
	if reloaded.Cart.ItemQuantity(espresso.ID) != 2 || reloaded.Cart.ItemQuantity(vegBurger.ID) != 1 {
		t.Fatalf("cart not restored: %+v", reloaded.Cart.Lines())
	}
	if lines := reloaded.Cart.Lines(); lines[0].ID != espresso.ID || lines[1].Name != "Veg Burger" {
		t.Fatalf("cart order or snapshot lost: %+v", lines)
	}
	prefs := reloaded.User.Preferences()
	if prefs.Name != "Asha" || prefs.TableNumber != "12" || !reloaded.User.IsFavorite(30) || !reloaded.User.HasSeenWelcome() {
		t.Fatalf("user not restored: %+v", reloaded.User.State())
	}
	got, ok := reloaded.Orders.OrderByID(order.ID)
	if !ok || got.Total != order.Total || len(got.Items) != 1 || got.Customer.Phone != "9876543210" {
		t.Fatalf("order not restored: %+v", got)
	}

	next := reloaded.Orders.AddOrder(OrderDraft{})
	if next.ID <= order.ID {
		t.Fatalf("reloaded store reissued an old id")
	}
}

func TestLegacyCartBlobLoads(t *testing.T) {
	backend := repository.NewMemoryBackend()
	legacy := `{"state":{"items":[{"id":1,"name":"Espresso","price":80,"category":"hot-beverages","quantity":3},{"id":2,"name":"Bad","price":10,"quantity":0}]},"version":0}`
	_ = backend.Save(context.Background(), CartKey, []byte(legacy))

	s := openStores(t, backend)
	if s.Cart.TotalItems() != 3 || len(s.Cart.Lines()) != 1 {
		t.Fatalf("unexpected cart from legacy blob: %+v", s.Cart.Lines())
	}
}

func TestUIDefaultsAndItemDetail(t *testing.T) {
	ui := NewUI()
	if snap := ui.Snapshot(); snap.ActiveCategory != DefaultCategory || snap.IsCartOpen {
		t.Fatalf("unexpected defaults %+v", snap)
	}
	ui.ToggleCart()
	ui.OpenItemDetail(cappuccino)
	snap := ui.Snapshot()
	if !snap.IsCartOpen || !snap.IsItemDetailOpen || snap.SelectedItem == nil || snap.SelectedItem.ID != cappuccino.ID {
		t.Fatalf("unexpected state %+v", snap)
	}
	ui.CloseItemDetail()
	if snap := ui.Snapshot(); snap.IsItemDetailOpen || snap.SelectedItem != nil {
		t.Fatalf("item detail should be cleared")
	}
	if err := ui.Open(SurfaceItemDetail); err == nil {
		t.Fatalf("opening item detail without an item should fail")
	}
	if err := ui.Close(Surface("drawer")); err == nil {
		t.Fatalf("unknown surface should fail")
	}
}

func TestToastExpires(t *testing.T) {
	toasts := NewToasts(20*time.Millisecond, 0)
	defer toasts.Close()
	toasts.Add("x", "", 0)
	if n := len(toasts.Active()); n != 1 {
		t.Fatalf("expected one toast, got %d", n)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(toasts.Active()) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("toast did not expire")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestToastRemoveIsImmediate(t *testing.T) {
	toasts := NewToasts(time.Hour, 0)
	defer toasts.Close()
	toast := toasts.Add("Payment successful!", models.SeveritySuccess, 0)
	if !toasts.Remove(toast.ID) {
		t.Fatalf("expected removal")
	}
	if len(toasts.Active()) != 0 || toasts.Remove(toast.ID) {
		t.Fatalf("toast should be gone")
	}
}

func TestToastCapDropsOldest(t *testing.T) {
	toasts := NewToasts(time.Hour, 3)
	defer toasts.Close()
	first := toasts.Add("1", models.SeverityInfo, 0)
	for _, text := range []string{"2", "3", "4"} {
		toasts.Add(text, models.SeverityInfo, 0)
	}
	active := toasts.Active()
	if len(active) != 3 || active[0].Text != "2" || active[2].Text != "4" {
		t.Fatalf("unexpected queue %+v", active)
	}
	if toasts.Remove(first.ID) {
		t.Fatalf("oldest toast should have been dropped")
	}
}

func TestHubDeliversInOrderAndUnsubscribes(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	var events []Event
	unsubscribe := s.Subscribe(func(e Event) { events = append(events, e) })

	s.Cart.AddItem(espresso)
	s.Cart.IncrementQuantity(espresso.ID)
	s.UI.OpenCart()
	s.Cart.RemoveItem(42)

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %+v", events)
	}
	if events[0].Action != "add_item" || events[1].Action != "update_quantity" || events[2].Store != NameUI {
		t.Fatalf("unexpected events %+v", events)
	}
	if events[1].Seq <= events[0].Seq {
		t.Fatalf("sequence not increasing")
	}

	unsubscribe()
	s.Cart.Clear()
	if len(events) != 3 {
		t.Fatalf("listener called after unsubscribe")
	}
}

func TestListenerMayMutate(t *testing.T) {
	s := openStores(t, repository.NewMemoryBackend())
	s.Cart.Hub().Subscribe(func(e Event) {
		if e.Action == "add_item" {
			s.Cart.IncrementQuantity(espresso.ID)
		}
	})
	s.Cart.AddItem(espresso)
	if got := s.Cart.ItemQuantity(espresso.ID); got != 2 {
		t.Fatalf("expected nested mutation to apply, got %d", got)
	}
}
