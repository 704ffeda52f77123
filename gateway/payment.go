package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/payment"
	"github.com/gin-gonic/gin"
)

var errSandboxDisabled = errors.New("payment sandbox is not configured")

func (g *Gateway) listPaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": payment.Methods()})
}

func (g *Gateway) sandbox(c *gin.Context) (*payment.Sandbox, bool) {
	if g.deps.Sandbox == nil {
		abort(c, http.StatusServiceUnavailable, errSandboxDisabled)
		return nil, false
	}
	return g.deps.Sandbox, true
}

// upiIntent returns a upi://pay link for the current cart total.
func (g *Gateway) upiIntent(c *gin.Context) {
	sb, ok := g.sandbox(c)
	if !ok {
		return
	}
	cart := g.deps.Stores.Cart
	if cart.IsEmpty() {
		abort(c, http.StatusConflict, errors.New("cart is empty"))
		return
	}
	lines := cart.Lines()
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.OrderItem())
	}
	c.JSON(http.StatusOK, sb.UPIIntent(payment.Draft{
		OrderID: time.Now().UnixMilli(),
		Total:   models.PriceFor(cart.TotalPrice()).Total,
		Items:   items,
	}))
}

func (g *Gateway) paymentStatus(c *gin.Context) {
	sb, ok := g.sandbox(c)
	if !ok {
		return
	}
	status := sb.Status(c.Param("txn"))
	if !status.Success {
		c.JSON(http.StatusNotFound, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

type callbackRequest struct {
	Code          string `json:"code" binding:"required"`
	TransactionID string `json:"transactionId" binding:"required"`
}

func (g *Gateway) paymentCallback(c *gin.Context) {
	sb, ok := g.sandbox(c)
	if !ok {
		return
	}
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, sb.HandleCallback(req.Code, req.TransactionID))
}
