package store

import (
	"context"
	"sync"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/persist"
)

const UserKey = "startup-kafe-user"

// MaxOrderHistory bounds the user's own recent-orders list.
const MaxOrderHistory = 10

type UserState struct {
	User           *models.Profile        `json:"user"`
	IsLoggedIn     bool                   `json:"isLoggedIn"`
	HasSeenWelcome bool                   `json:"hasSeenWelcome"`
	Preferences    models.UserPreferences `json:"preferences"`
	OrderHistory   []models.Order         `json:"orderHistory"`
}

func defaultUserState() UserState {
	return UserState{
		Preferences:  models.UserPreferences{FavoriteItems: []int{}},
		OrderHistory: []models.Order{},
	}
}

func (s UserState) clone() UserState {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Preferences = s.Preferences.Clone()
	out.OrderHistory = make([]models.Order, len(s.OrderHistory))
	for i, o := range s.OrderHistory {
		out.OrderHistory[i] = o.Clone()
	}
	return out
}

type User struct {
	mu    sync.Mutex
	state UserState
	ids   idClock
	saver *persist.Store[UserState]
	hub   *Hub
}

func NewUser(ctx context.Context, p *persist.Store[UserState]) *User {
	u := &User{
		state: p.Load(ctx),
		ids:   idClock{now: time.Now},
		saver: p,
		hub:   NewHub(NameUser),
	}
	u.state.Preferences.FavoriteItems = dedupe(u.state.Preferences.FavoriteItems)
	for _, o := range u.state.OrderHistory {
		u.ids.observe(o.ID)
	}
	return u
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (u *User) Hub() *Hub {
	return u.hub
}

func (u *User) mutate(action string, fn func(*UserState) bool) {
	u.mu.Lock()
	if fn(&u.state) {
		u.saver.Save(context.Background(), u.state)
		u.hub.record(action)
	}
	u.mu.Unlock()
	u.hub.flush()
}

// State returns a copy of the whole user slice.
func (u *User) State() UserState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.clone()
}

func (u *User) SetHasSeenWelcome(seen bool) {
	u.mutate("set_has_seen_welcome", func(s *UserState) bool {
		s.HasSeenWelcome = seen
		return true
	})
}

func (u *User) HasSeenWelcome() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.HasSeenWelcome
}

// Login stores the profile, marks the user logged in and copies the
// profile's non-empty name, phone and table number into the preferences.
func (u *User) Login(profile models.Profile) {
	u.mutate("login", func(s *UserState) bool {
		p := profile
		s.User = &p
		s.IsLoggedIn = true
		if profile.Name != "" {
			s.Preferences.Name = profile.Name
		}
		if profile.Phone != "" {
			s.Preferences.Phone = profile.Phone
		}
		if profile.TableNumber != "" {
			s.Preferences.TableNumber = profile.TableNumber
		}
		return true
	})
}

// Logout clears the profile and resets preferences to empty defaults.
func (u *User) Logout() {
	u.mutate("logout", func(s *UserState) bool {
		s.User = nil
		s.IsLoggedIn = false
		s.Preferences = models.UserPreferences{FavoriteItems: []int{}}
		return true
	})
}

func (u *User) IsLoggedIn() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.IsLoggedIn
}

// Profile returns the logged-in profile, if any.
func (u *User) Profile() (models.Profile, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state.User == nil {
		return models.Profile{}, false
	}
	return *u.state.User, true
}

func (u *User) UpdatePreferences(patch models.PreferencesPatch) {
	u.mutate("update_preferences", func(s *UserState) bool {
		if patch.Name != nil {
			s.Preferences.Name = *patch.Name
		}
		if patch.Phone != nil {
			s.Preferences.Phone = *patch.Phone
		}
		if patch.TableNumber != nil {
			s.Preferences.TableNumber = *patch.TableNumber
		}
		return true
	})
}

func (u *User) Preferences() models.UserPreferences {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.Preferences.Clone()
}

// AddToFavorites is a no-op when id is already a favorite.
func (u *User) AddToFavorites(id int) {
	u.mutate("add_favorite", func(s *UserState) bool {
		for _, fav := range s.Preferences.FavoriteItems {
			if fav == id {
				return false
			}
		}
		s.Preferences.FavoriteItems = append(s.Preferences.FavoriteItems, id)
		return true
	})
}

func (u *User) RemoveFromFavorites(id int) {
	u.mutate("remove_favorite", func(s *UserState) bool {
		favs := s.Preferences.FavoriteItems[:0]
		for _, fav := range s.Preferences.FavoriteItems {
			if fav != id {
				favs = append(favs, fav)
			}
		}
		s.Preferences.FavoriteItems = favs
		return true
	})
}

func (u *User) IsFavorite(id int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, fav := range u.state.Preferences.FavoriteItems {
		if fav == id {
			return true
		}
	}
	return false
}

// AddOrder prepends order to the user's recent-orders list with a fresh id
// and date, keeping the newest MaxOrderHistory entries.
func (u *User) AddOrder(order models.Order) models.Order {
	var added models.Order
	u.mutate("add_order", func(s *UserState) bool {
		added = order.Clone()
		added.ID = u.ids.next()
		added.Date = u.ids.now().UTC()
		history := append([]models.Order{added}, s.OrderHistory...)
		if len(history) > MaxOrderHistory {
			history = history[:MaxOrderHistory]
		}
		s.OrderHistory = history
		return true
	})
	return added
}

func (u *User) OrderHistory() []models.Order {
	return u.State().OrderHistory
}
