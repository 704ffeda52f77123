package store

import (
	"fmt"
	"sync"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
)

const DefaultCategory = "hot-beverages"

// Surface names a modal or drawer the UI can open.
type Surface string

const (
	SurfaceCart        Surface = "cart"
	SurfaceSearch      Surface = "search"
	SurfaceItemDetail  Surface = "item-detail"
	SurfaceUserProfile Surface = "user"
	SurfaceAuth        Surface = "auth"
)

type UIState struct {
	IsCartOpen       bool             `json:"isCartOpen"`
	IsSearchOpen     bool             `json:"isSearchOpen"`
	IsItemDetailOpen bool             `json:"isItemDetailOpen"`
	SelectedItem     *models.MenuItem `json:"selectedItem"`
	ActiveCategory   string           `json:"activeCategory"`
	SearchQuery      string           `json:"searchQuery"`
	IsUserModalOpen  bool             `json:"isUserModalOpen"`
	IsAuthModalOpen  bool             `json:"isAuthModalOpen"`
}

// UI is ephemeral: it starts from defaults on every run.
type UI struct {
	mu    sync.Mutex
	state UIState
	hub   *Hub
}

func NewUI() *UI {
	return &UI{
		state: UIState{ActiveCategory: DefaultCategory},
		hub:   NewHub(NameUI),
	}
}

func (u *UI) Hub() *Hub {
	return u.hub
}

func (u *UI) mutate(action string, fn func(*UIState)) {
	u.mu.Lock()
	fn(&u.state)
	u.hub.record(action)
	u.mu.Unlock()
	u.hub.flush()
}

func (u *UI) Snapshot() UIState {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := u.state
	if u.state.SelectedItem != nil {
		item := *u.state.SelectedItem
		out.SelectedItem = &item
	}
	return out
}

func (u *UI) OpenCart()   { u.mutate("open_cart", func(s *UIState) { s.IsCartOpen = true }) }
func (u *UI) CloseCart()  { u.mutate("close_cart", func(s *UIState) { s.IsCartOpen = false }) }
func (u *UI) ToggleCart() { u.mutate("toggle_cart", func(s *UIState) { s.IsCartOpen = !s.IsCartOpen }) }

func (u *UI) OpenSearch()  { u.mutate("open_search", func(s *UIState) { s.IsSearchOpen = true }) }
func (u *UI) CloseSearch() { u.mutate("close_search", func(s *UIState) { s.IsSearchOpen = false }) }

func (u *UI) OpenUserModal()  { u.mutate("open_user_modal", func(s *UIState) { s.IsUserModalOpen = true }) }
func (u *UI) CloseUserModal() { u.mutate("close_user_modal", func(s *UIState) { s.IsUserModalOpen = false }) }

func (u *UI) OpenAuthModal()  { u.mutate("open_auth_modal", func(s *UIState) { s.IsAuthModalOpen = true }) }
func (u *UI) CloseAuthModal() { u.mutate("close_auth_modal", func(s *UIState) { s.IsAuthModalOpen = false }) }

func (u *UI) OpenItemDetail(item models.MenuItem) {
	u.mutate("open_item_detail", func(s *UIState) {
		s.IsItemDetailOpen = true
		s.SelectedItem = &item
	})
}

func (u *UI) CloseItemDetail() {
	u.mutate("close_item_detail", func(s *UIState) {
		s.IsItemDetailOpen = false
		s.SelectedItem = nil
	})
}

func (u *UI) SetActiveCategory(id string) {
	u.mutate("set_active_category", func(s *UIState) { s.ActiveCategory = id })
}

func (u *UI) SetSearchQuery(query string) {
	u.mutate("set_search_query", func(s *UIState) { s.SearchQuery = query })
}

// Open opens the named surface. The item detail surface needs an item and
// goes through OpenItemDetail instead.
func (u *UI) Open(surface Surface) error {
	switch surface {
	case SurfaceCart:
		u.OpenCart()
	case SurfaceSearch:
		u.OpenSearch()
	case SurfaceUserProfile:
		u.OpenUserModal()
	case SurfaceAuth:
		u.OpenAuthModal()
	default:
		return fmt.Errorf("cannot open surface %q", surface)
	}
	return nil
}

func (u *UI) Close(surface Surface) error {
	switch surface {
	case SurfaceCart:
		u.CloseCart()
	case SurfaceSearch:
		u.CloseSearch()
	case SurfaceItemDetail:
		u.CloseItemDetail()
	case SurfaceUserProfile:
		u.CloseUserModal()
	case SurfaceAuth:
		u.CloseAuthModal()
	default:
		return fmt.Errorf("unknown surface %q", surface)
	}
	return nil
}
