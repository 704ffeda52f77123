// Package gateway serves the kiosk over HTTP: the menu, the five stores,
// checkout, phone sign-in, the delivery address and a websocket change feed.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/auth"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/catalog"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/checkout"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	kgrpc "github.com/a61119129-svg/startupkafe-digital-menu/pkg/grpc"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/location"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/payment"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the components the gateway serves. Sandbox, Auth, Location and
// Peers may be nil; their routes then answer 503.
type Deps struct {
	Stores   *store.Stores
	Catalog  *catalog.Catalog
	Payments payment.Gateway
	Sandbox  *payment.Sandbox
	Delays   checkout.Delays
	Auth     *auth.Authenticator
	Location *location.Service
	Peers    *kgrpc.ClientManager
}

type Gateway struct {
	config *config.GatewayConfig
	deps   Deps
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
	feed   *feed

	mu      sync.Mutex
	session *checkout.Session
}

func NewGateway(cfg *config.GatewayConfig, deps Deps, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gateway")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	g := &Gateway{
		config: cfg,
		deps:   deps,
		logger: logger,
		router: router,
		feed:   newFeed(logger),
	}
	g.SetupRoutes()
	g.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: router,
	}
	g.feed.attach(deps.Stores, deps.Auth)
	return g
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	g.router.GET("/ws", g.serveWS)

	v1 := g.router.Group("/api/v1")
	{
		menu := v1.Group("/menu")
		{
			menu.GET("", g.getMenu)
			menu.GET("/categories", g.getCategories)
			menu.GET("/search", g.searchMenu)
		}

		cart := v1.Group("/cart")
		{
			cart.GET("", g.getCart)
			cart.DELETE("", g.clearCart)
			cart.POST("/items", g.addCartItem)
			cart.PUT("/items/:id", g.updateCartItem)
			cart.DELETE("/items/:id", g.removeCartItem)
			cart.POST("/items/:id/increment", g.stepCartItem(1))
			cart.POST("/items/:id/decrement", g.stepCartItem(-1))
		}

		user := v1.Group("/user")
		{
			user.GET("", g.getUser)
			user.POST("/login", g.loginUser)
			user.POST("/logout", g.logoutUser)
			user.POST("/welcome", g.markWelcome)
			user.PATCH("/preferences", g.updatePreferences)
			user.PUT("/favorites/:id", g.addFavorite)
			user.DELETE("/favorites/:id", g.removeFavorite)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", g.listOrders)
			orders.GET("/:id", g.getOrder)
			orders.POST("/:id/reorder", g.reorder)
		}

		v1.GET("/ui", g.getUI)
		v1.POST("/ui/:action", g.uiAction)

		toasts := v1.Group("/toasts")
		{
			toasts.GET("", g.listToasts)
			toasts.POST("", g.addToast)
			toasts.DELETE("/:id", g.removeToast)
		}

		co := v1.Group("/checkout")
		{
			co.POST("", g.startCheckout)
			co.GET("", g.getCheckout)
			co.PUT("/details", g.submitDetails)
			co.PATCH("/details", g.updateField)
			co.POST("/back", g.checkoutBack)
			co.POST("/payment", g.selectPayment)
		}

		pay := v1.Group("/payment")
		{
			pay.GET("/methods", g.listPaymentMethods)
			pay.POST("/upi-intent", g.upiIntent)
			pay.GET("/status/:txn", g.paymentStatus)
			pay.POST("/callback", g.paymentCallback)
		}

		a := v1.Group("/auth")
		{
			a.GET("", g.getAuth)
			a.POST("/otp", g.sendOTP)
			a.POST("/verify", g.verifyOTP)
			a.POST("/logout", g.authLogout)
		}

		v1.GET("/location", g.getLocation)
		v1.POST("/location/refresh", g.refreshLocation)
		v1.DELETE("/location", g.forgetLocation)

		v1.GET("/peers", g.listPeers)
	}
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Start serves until Shutdown.
func (g *Gateway) Start() error {
	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve gateway: %w", err)
	}
	return nil
}

// Shutdown detaches the change feed and drains in-flight requests.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.feed.close()
	return g.server.Shutdown(ctx)
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
