// Package checkout drives one customer through details, payment method
// selection, processing and confirmation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/payment"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Step string

const (
	StepDetails    Step = "details"
	StepPayment    Step = "payment"
	StepProcessing Step = "processing"
	StepSuccess    Step = "success"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrWrongStep     = errors.New("action not allowed at this checkout step")
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrPaymentFailed = errors.New("payment failed")
)

const (
	msgRedirecting    = "Redirecting to payment..."
	msgPaid           = "Payment successful!"
	msgPayAtCounter   = "Order placed! Pay at counter."
	msgPaymentFailed  = "Payment failed. Please try again."
	msgPaymentTimeout = "Payment timed out. Please try again."
)

// Delays simulate the gateway round trip for each settlement kind.
type Delays struct {
	Gateway time.Duration
	Counter time.Duration
	Card    time.Duration
}

type Deps struct {
	Cart    *store.Cart
	Orders  *store.Orders
	User    *store.User
	Toasts  *store.Toasts
	Gateway payment.Gateway
	Delays  Delays
	Logger  *zap.Logger
}

// Prefill carries values known from outside the stores: the verified phone
// number and the cached delivery address.
type Prefill struct {
	AuthPhone string
	Address   string
}

type Session struct {
	id   string
	deps Deps
	log  *zap.Logger

	mu     sync.Mutex
	step   Step
	form   Form
	errs   ValidationErrors
	method payment.Method
	order  *models.Order
}

// NewSession starts checkout for the current cart. It fails with
// ErrEmptyCart when there is nothing to buy.
func NewSession(deps Deps, prefill Prefill) (*Session, error) {
	if deps.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	s := &Session{
		id:   id,
		deps: deps,
		log:  logger.Named("checkout").With(zap.String("session_id", id)),
		step: StepDetails,
	}

	if deps.User != nil {
		prefs := deps.User.Preferences()
		s.form.Name = prefs.Name
		s.form.Phone = localPhone(prefs.Phone)
	}
	if phone := localPhone(prefill.AuthPhone); phone != "" {
		s.form.Phone = phone
	}
	s.form.Address = prefill.Address
	return s, nil
}

func localPhone(phone string) string {
	return strings.Replace(phone, "+91", "", 1)
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Errors returns the field errors from the last submission.
func (s *Session) Errors() ValidationErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := ValidationErrors{}
	for k, v := range s.errs {
		out[k] = v
	}
	return out
}

// Order returns the placed order once checkout has succeeded.
func (s *Session) Order() (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return models.Order{}, false
	}
	return s.order.Clone(), true
}

// Method returns the selected payment method, if any.
func (s *Session) Method() (payment.Method, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method, s.method.ID != ""
}

// Totals prices the cart. After success it reports the placed order.
func (s *Session) Totals() models.Pricing {
	s.mu.Lock()
	order := s.order
	s.mu.Unlock()
	if order != nil {
		return models.Pricing{
			Subtotal:    order.Subtotal,
			Taxes:       order.Taxes,
			DeliveryFee: order.DeliveryFee,
			Total:       order.Total,
		}
	}
	return models.PriceFor(s.deps.Cart.TotalPrice())
}

// Guard reports ErrEmptyCart when the cart has been emptied before the
// order was placed.
func (s *Session) Guard() error {
	if s.Step() != StepSuccess && s.deps.Cart.IsEmpty() {
		return ErrEmptyCart
	}
	return nil
}

// UpdateField edits one form field and clears its error.
func (s *Session) UpdateField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepDetails {
		return ErrWrongStep
	}
	if err := s.form.set(field, value); err != nil {
		return err
	}
	delete(s.errs, field)
	return nil
}

// SubmitDetails validates form and moves to payment selection. On failure
// it returns ValidationErrors and stays on the details step.
func (s *Session) SubmitDetails(form Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepDetails {
		return ErrWrongStep
	}
	s.form = form
	if errs := form.Validate(); errs != nil {
		s.errs = errs
		return errs
	}
	s.errs = nil
	s.step = StepPayment
	return nil
}

// Back returns from payment selection to the details step.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPayment {
		return ErrWrongStep
	}
	s.step = StepDetails
	return nil
}

// SelectPayment settles the order with the chosen method. It blocks until
// the order is placed or the attempt fails; on failure the session returns
// to the payment step with the cart untouched.
func (s *Session) SelectPayment(ctx context.Context, methodID string) (models.Order, error) {
	method, ok := payment.MethodByID(methodID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %q", ErrUnknownMethod, methodID)
	}

	s.mu.Lock()
	if s.step != StepPayment {
		s.mu.Unlock()
		return models.Order{}, ErrWrongStep
	}
	s.step = StepProcessing
	s.method = method
	customer := s.form.Customer()
	s.mu.Unlock()

	order, err := s.process(ctx, method, customer)
	if err != nil {
		s.fail(err)
		return models.Order{}, err
	}

	s.mu.Lock()
	s.order = &order
	s.step = StepSuccess
	s.mu.Unlock()
	return order, nil
}

func (s *Session) process(ctx context.Context, method payment.Method, customer models.Customer) (models.Order, error) {
	lines := s.deps.Cart.Lines()
	if len(lines) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	items := make([]models.OrderItem, 0, len(lines))
	subtotal := 0
	for _, line := range lines {
		items = append(items, line.OrderItem())
		subtotal += line.Amount()
	}
	draft := store.OrderDraft{
		Items:         items,
		Pricing:       models.PriceFor(subtotal),
		Customer:      customer,
		PaymentMethod: method.Name,
	}

	switch method.Kind {
	case payment.KindUPI:
		result, err := s.deps.Gateway.Initiate(ctx, payment.Draft{
			OrderID: time.Now().UnixMilli(),
			Total:   draft.Pricing.Total,
			Items:   items,
		}, customer)
		if err != nil {
			return models.Order{}, err
		}
		if !result.Success {
			if result.Error != "" {
				return models.Order{}, errors.New(result.Error)
			}
			return models.Order{}, ErrPaymentFailed
		}
		s.toast(msgRedirecting, models.SeverityInfo)
		if err := wait(ctx, s.deps.Delays.Gateway); err != nil {
			return models.Order{}, err
		}
		draft.PaymentStatus = models.PaymentCompleted
		draft.TransactionID = result.TransactionID
		return s.commit(draft, msgPaid), nil

	case payment.KindCounter:
		if err := wait(ctx, s.deps.Delays.Counter); err != nil {
			return models.Order{}, err
		}
		draft.PaymentStatus = models.PaymentPending
		return s.commit(draft, msgPayAtCounter), nil

	default:
		if err := wait(ctx, s.deps.Delays.Card); err != nil {
			return models.Order{}, err
		}
		draft.PaymentStatus = models.PaymentCompleted
		return s.commit(draft, msgPaid), nil
	}
}

func (s *Session) commit(draft store.OrderDraft, message string) models.Order {
	order := s.deps.Orders.AddOrder(draft)
	s.deps.Cart.Clear()
	s.toast(message, models.SeveritySuccess)
	s.log.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("payment_method", order.PaymentMethod),
		zap.String("payment_status", string(order.PaymentStatus)),
		zap.Int("total", order.Total))
	return order
}

func (s *Session) fail(err error) {
	s.log.Warn("Payment failed", zap.Error(err))

	message := err.Error()
	switch {
	case errors.Is(err, payment.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		message = msgPaymentTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, ErrPaymentFailed), message == "":
		message = msgPaymentFailed
	}
	s.toast(message, models.SeverityError)

	s.mu.Lock()
	s.step = StepPayment
	s.mu.Unlock()
}

func (s *Session) toast(message string, severity models.Severity) {
	if s.deps.Toasts != nil {
		s.deps.Toasts.Add(message, severity, 0)
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
