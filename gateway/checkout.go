package gateway

import (
	"errors"
	"net/http"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/checkout"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/payment"
	"github.com/gin-gonic/gin"
)

var errNoCheckout = errors.New("no checkout in progress")

type checkoutView struct {
	ID     string                    `json:"id"`
	Step   checkout.Step             `json:"step"`
	Form   checkout.Form             `json:"form"`
	Errors checkout.ValidationErrors `json:"errors,omitempty"`
	Totals models.Pricing            `json:"totals"`
	Method *payment.Method           `json:"method,omitempty"`
	Order  *models.Order             `json:"order,omitempty"`
}

func viewOf(s *checkout.Session) checkoutView {
	v := checkoutView{
		ID:     s.ID(),
		Step:   s.Step(),
		Form:   s.Form(),
		Totals: s.Totals(),
	}
	if errs := s.Errors(); len(errs) > 0 {
		v.Errors = errs
	}
	if m, ok := s.Method(); ok {
		v.Method = &m
	}
	if o, ok := s.Order(); ok {
		v.Order = &o
	}
	return v
}

func (g *Gateway) currentSession(c *gin.Context) (*checkout.Session, bool) {
	g.mu.Lock()
	s := g.session
	g.mu.Unlock()
	if s == nil {
		abort(c, http.StatusNotFound, errNoCheckout)
		return nil, false
	}
	return s, true
}

// startCheckout replaces any previous session with one for the current
// cart.
func (g *Gateway) startCheckout(c *gin.Context) {
	var prefill checkout.Prefill
	if g.deps.Auth != nil {
		prefill.AuthPhone = g.deps.Auth.State().PhoneNumber()
	}
	if g.deps.Location != nil {
		prefill.Address = g.deps.Location.Current().Address
	}

	s, err := checkout.NewSession(checkout.Deps{
		Cart:    g.deps.Stores.Cart,
		Orders:  g.deps.Stores.Orders,
		User:    g.deps.Stores.User,
		Toasts:  g.deps.Stores.Toasts,
		Gateway: g.deps.Payments,
		Delays:  g.deps.Delays,
		Logger:  g.logger,
	}, prefill)
	if err != nil {
		abort(c, http.StatusConflict, err)
		return
	}

	g.mu.Lock()
	g.session = s
	g.mu.Unlock()
	c.JSON(http.StatusCreated, viewOf(s))
}

func (g *Gateway) getCheckout(c *gin.Context) {
	s, ok := g.currentSession(c)
	if !ok {
		return
	}
	if err := s.Guard(); err != nil {
		abort(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

func (g *Gateway) submitDetails(c *gin.Context) {
	s, ok := g.currentSession(c)
	if !ok {
		return
	}
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	err := s.SubmitDetails(form)
	var invalid checkout.ValidationErrors
	switch {
	case err == nil:
		c.JSON(http.StatusOK, viewOf(s))
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, viewOf(s))
	default:
		abort(c, http.StatusConflict, err)
	}
}

func (g *Gateway) checkoutBack(c *gin.Context) {
	s, ok := g.currentSession(c)
	if !ok {
		return
	}
	if err := s.Back(); err != nil {
		abort(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

type fieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// updateField edits a single form field as the customer types.
func (g *Gateway) updateField(c *gin.Context) {
	s, ok := g.currentSession(c)
	if !ok {
		return
	}
	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := s.UpdateField(req.Field, req.Value); err != nil {
		if errors.Is(err, checkout.ErrWrongStep) {
			abort(c, http.StatusConflict, err)
			return
		}
		abort(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

type paymentRequest struct {
	Method string `json:"method" binding:"required"`
}

// selectPayment blocks until the order is placed or payment fails.
func (g *Gateway) selectPayment(c *gin.Context) {
	s, ok := g.currentSession(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := s.Guard(); err != nil {
		abort(c, http.StatusConflict, err)
		return
	}

	_, err := s.SelectPayment(c.Request.Context(), req.Method)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, viewOf(s))
	case errors.Is(err, checkout.ErrUnknownMethod):
		abort(c, http.StatusBadRequest, err)
	case errors.Is(err, checkout.ErrWrongStep):
		abort(c, http.StatusConflict, err)
	case errors.Is(err, payment.ErrTimeout):
		abort(c, http.StatusGatewayTimeout, err)
	default:
		abort(c, http.StatusPaymentRequired, err)
	}
}
