package store

import (
	"context"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/persist"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/repository"
	"go.uber.org/zap"
)

type Options struct {
	Logger        *zap.Logger
	Timeout       time.Duration
	ToastDuration time.Duration
	MaxToasts     int
}

// Stores is the set of containers one kiosk session works with.
type Stores struct {
	Cart   *Cart
	User   *User
	Orders *Orders
	UI     *UI
	Toasts *Toasts
}

// Open loads the persisted stores from backend and creates the ephemeral
// ones.
func Open(ctx context.Context, backend repository.Backend, opts Options) *Stores {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("store")

	return &Stores{
		Cart: NewCart(ctx, persist.New(backend, CartKey, defaultCartState,
			persist.WithLogger[CartState](logger), persist.WithTimeout[CartState](opts.Timeout))),
		User: NewUser(ctx, persist.New(backend, UserKey, defaultUserState,
			persist.WithLogger[UserState](logger), persist.WithTimeout[UserState](opts.Timeout))),
		Orders: NewOrders(ctx, persist.New(backend, OrdersKey, defaultOrdersState,
			persist.WithLogger[OrdersState](logger), persist.WithTimeout[OrdersState](opts.Timeout))),
		UI:     NewUI(),
		Toasts: NewToasts(opts.ToastDuration, opts.MaxToasts),
	}
}

func (s *Stores) Hubs() []*Hub {
	return []*Hub{s.Cart.Hub(), s.User.Hub(), s.Orders.Hub(), s.UI.Hub(), s.Toasts.Hub()}
}

// Subscribe registers fn on every hub.
func (s *Stores) Subscribe(fn Listener) func() {
	hubs := s.Hubs()
	cancels := make([]func(), 0, len(hubs))
	for _, h := range hubs {
		cancels = append(cancels, h.Subscribe(fn))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func (s *Stores) Close() {
	s.Toasts.Close()
}
