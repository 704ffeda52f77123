package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/store"
	"github.com/gin-gonic/gin"
)

var errItemNotFound = errors.New("menu item not found")

type cartView struct {
	Items      []models.CartLine `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice int               `json:"totalPrice"`
}

func (g *Gateway) cartView() cartView {
	cart := g.deps.Stores.Cart
	return cartView{
		Items:      cart.Lines(),
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("invalid "+name))
		return 0, false
	}
	return id, true
}

func (g *Gateway) getMenu(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		if _, ok := g.deps.Catalog.CategoryByID(category); !ok {
			abort(c, http.StatusNotFound, errors.New("category not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": g.deps.Catalog.ItemsByCategory(category)})
		return
	}
	if c.Query("popular") == "true" {
		c.JSON(http.StatusOK, gin.H{"items": g.deps.Catalog.Popular()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": g.deps.Catalog.Categories(),
		"items":      g.deps.Catalog.Items(),
	})
}

func (g *Gateway) getCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": g.deps.Catalog.Categories()})
}

func (g *Gateway) searchMenu(c *gin.Context) {
	query := c.Query("q")
	g.deps.Stores.UI.SetSearchQuery(query)
	c.JSON(http.StatusOK, gin.H{"query": query, "items": g.deps.Catalog.Search(query)})
}

func (g *Gateway) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, g.cartView())
}

func (g *Gateway) clearCart(c *gin.Context) {
	g.deps.Stores.Cart.Clear()
	c.JSON(http.StatusOK, g.cartView())
}

type addItemRequest struct {
	ItemID int `json:"itemId" binding:"required"`
}

func (g *Gateway) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	item, ok := g.deps.Catalog.ItemByID(req.ItemID)
	if !ok {
		abort(c, http.StatusNotFound, errItemNotFound)
		return
	}
	g.deps.Stores.Cart.AddItem(item)
	c.JSON(http.StatusOK, g.cartView())
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (g *Gateway) updateCartItem(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	g.deps.Stores.Cart.UpdateQuantity(id, *req.Quantity)
	c.JSON(http.StatusOK, g.cartView())
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	g.deps.Stores.Cart.RemoveItem(id)
	c.JSON(http.StatusOK, g.cartView())
}

func (g *Gateway) stepCartItem(delta int) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		if delta > 0 {
			g.deps.Stores.Cart.IncrementQuantity(id)
		} else {
			g.deps.Stores.Cart.DecrementQuantity(id)
		}
		c.JSON(http.StatusOK, g.cartView())
	}
}

func (g *Gateway) getUser(c *gin.Context) {
	c.JSON(http.StatusOK, g.deps.Stores.User.State())
}

func (g *Gateway) loginUser(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	g.deps.Stores.User.Login(profile)
	c.JSON(http.StatusOK, g.deps.Stores.User.State())
}

func (g *Gateway) logoutUser(c *gin.Context) {
	g.deps.Stores.User.Logout()
	c.JSON(http.StatusOK, g.deps.Stores.User.State())
}

func (g *Gateway) markWelcome(c *gin.Context) {
	g.deps.Stores.User.SetHasSeenWelcome(true)
	c.JSON(http.StatusOK, gin.H{"hasSeenWelcome": true})
}

func (g *Gateway) updatePreferences(c *gin.Context) {
	var patch models.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	g.deps.Stores.User.UpdatePreferences(patch)
	c.JSON(http.StatusOK, g.deps.Stores.User.Preferences())
}

func (g *Gateway) addFavorite(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if _, found := g.deps.Catalog.ItemByID(id); !found {
		abort(c, http.StatusNotFound, errItemNotFound)
		return
	}
	g.deps.Stores.User.AddToFavorites(id)
	c.JSON(http.StatusOK, g.deps.Stores.User.Preferences())
}

func (g *Gateway) removeFavorite(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	g.deps.Stores.User.RemoveFromFavorites(id)
	c.JSON(http.StatusOK, g.deps.Stores.User.Preferences())
}

func (g *Gateway) listOrders(c *gin.Context) {
	orders := g.deps.Stores.Orders.Orders()
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (g *Gateway) getOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("invalid id"))
		return
	}
	order, ok := g.deps.Stores.Orders.OrderByID(id)
	if !ok {
		abort(c, http.StatusNotFound, store.ErrOrderNotFound)
		return
	}
	c.JSON(http.StatusOK, order)
}

// reorder puts every line of a past order back in the cart.
func (g *Gateway) reorder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("invalid id"))
		return
	}
	order, ok := g.deps.Stores.Orders.OrderByID(id)
	if !ok {
		abort(c, http.StatusNotFound, store.ErrOrderNotFound)
		return
	}
	added := 0
	for _, item := range order.Items {
		for i := 0; i < item.Quantity; i++ {
			g.deps.Stores.Cart.AddItem(models.MenuItem{
				ID:    item.ID,
				Name:  item.Name,
				Price: item.Price,
				Image: item.Image,
			})
			added++
		}
	}
	g.deps.Stores.Toasts.Add(fmt.Sprintf("%d items added to cart", added), models.SeveritySuccess, 0)
	c.JSON(http.StatusOK, g.cartView())
}

func (g *Gateway) getUI(c *gin.Context) {
	c.JSON(http.StatusOK, g.deps.Stores.UI.Snapshot())
}

type uiRequest struct {
	Surface  store.Surface `json:"surface"`
	ItemID   int           `json:"itemId"`
	Category string        `json:"category"`
	Query    string        `json:"query"`
}

// uiAction applies one of open, close, toggle-cart, item-detail, category
// or search.
func (g *Gateway) uiAction(c *gin.Context) {
	var req uiRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
	}

	ui := g.deps.Stores.UI
	var err error
	switch c.Param("action") {
	case "open":
		err = ui.Open(req.Surface)
	case "close":
		err = ui.Close(req.Surface)
	case "toggle-cart":
		ui.ToggleCart()
	case "item-detail":
		item, ok := g.deps.Catalog.ItemByID(req.ItemID)
		if !ok {
			abort(c, http.StatusNotFound, errItemNotFound)
			return
		}
		ui.OpenItemDetail(item)
	case "category":
		if _, ok := g.deps.Catalog.CategoryByID(req.Category); !ok {
			abort(c, http.StatusNotFound, errors.New("category not found"))
			return
		}
		ui.SetActiveCategory(req.Category)
	case "search":
		ui.SetSearchQuery(req.Query)
	default:
		abort(c, http.StatusNotFound, errors.New("unknown ui action"))
		return
	}
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, ui.Snapshot())
}

func (g *Gateway) listToasts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"toasts": g.deps.Stores.Toasts.Active()})
}

type toastRequest struct {
	Message    string          `json:"message" binding:"required"`
	Type       models.Severity `json:"type"`
	DurationMs int             `json:"durationMs"`
}

func (g *Gateway) addToast(c *gin.Context) {
	var req toastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if req.Type != "" && !req.Type.Valid() {
		abort(c, http.StatusBadRequest, errors.New("unknown toast type"))
		return
	}
	toast := g.deps.Stores.Toasts.Add(req.Message, req.Type, time.Duration(req.DurationMs)*time.Millisecond)
	c.JSON(http.StatusCreated, toast)
}

func (g *Gateway) removeToast(c *gin.Context) {
	if !g.deps.Stores.Toasts.Remove(c.Param("id")) {
		abort(c, http.StatusNotFound, errors.New("toast not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
