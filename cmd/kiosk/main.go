package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/gateway"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/auth"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/catalog"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/checkout"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/discovery"
	kgrpc "github.com/a61119129-svg/startupkafe-digital-menu/pkg/grpc"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/location"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/payment"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/repository"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting kiosk",
		zap.String("name", cfg.Server.Name),
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("gateway_port", cfg.Gateway.Port))

	ctx := context.Background()

	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer backend.Close()

	stores := store.Open(ctx, backend, store.Options{
		Logger:        logger,
		Timeout:       cfg.Storage.Timeout,
		ToastDuration: cfg.Toast.Duration,
		MaxToasts:     cfg.Toast.MaxActive,
	})
	defer stores.Close()

	menu, err := catalog.Embedded()
	if err != nil {
		logger.Fatal("Failed to load menu", zap.Error(err))
	}

	sandbox := payment.NewSandbox(cfg.Payment, logger)
	payments, err := payment.NewCaller(sandbox, cfg.Payment.Timeout, logger)
	if err != nil {
		logger.Fatal("Failed to start payment caller", zap.Error(err))
	}
	defer payments.Stop()

	authenticator := auth.NewAuthenticator(auth.NewDevProvider(5*time.Minute, logger), auth.Options{
		CountryCode: cfg.Auth.CountryCode,
		Timeout:     cfg.Auth.Timeout,
		ResendAfter: cfg.Auth.ResendAfter,
		Logger:      logger,
	})

	locator := location.StaticLocator{Coords: location.Coords{
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
	}}
	locations := location.NewService(ctx, locator,
		location.NewNominatimClient(cfg.Location.GeocoderURL, cfg.Location.Timeout),
		location.NewCache(backend, logger), cfg.Location.CacheTTL, logger)
	if !locations.Fresh() {
		go func() {
			refreshCtx, cancel := context.WithTimeout(ctx, cfg.Location.Timeout)
			defer cancel()
			state := locations.Refresh(refreshCtx)
			logger.Info("Location resolved", zap.String("address", state.Address), zap.String("error", state.Error))
		}()
	}

	// Health service
	health := kgrpc.NewHealthServer(&cfg.Server, logger)
	healthErr := make(chan error, 1)
	go func() {
		if err := health.Start(); err != nil {
			healthErr <- err
		}
	}()

	// Service discovery is optional
	var (
		sd       *discovery.ServiceDiscovery
		instance *discovery.ServiceInstance
		peers    *kgrpc.ClientManager
	)
	if cfg.Etcd.Enabled() {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			instance = &discovery.ServiceInstance{
				ID:          uuid.NewString(),
				Name:        cfg.Server.Name,
				Host:        cfg.Server.Host,
				Port:        cfg.Server.Port,
				GatewayPort: cfg.Gateway.Port,
				StartedAt:   time.Now().UTC(),
			}
			if err := sd.Register(ctx, instance); err != nil {
				logger.Warn("Failed to register kiosk", zap.Error(err))
				instance = nil
			}
			peers = kgrpc.NewClientManager(sd, cfg.Server.Name, 2*time.Second, logger)
		}
	}

	gw := gateway.NewGateway(&cfg.Gateway, gateway.Deps{
		Stores:   stores,
		Catalog:  menu,
		Payments: payments,
		Sandbox:  sandbox,
		Delays: checkout.Delays{
			Gateway: cfg.Checkout.GatewayDelay,
			Counter: cfg.Checkout.CounterDelay,
			Card:    cfg.Checkout.CardDelay,
		},
		Auth:     authenticator,
		Location: locations,
		Peers:    peers,
	}, logger)

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	health.SetServing(true)
	logger.Info("Kiosk started successfully")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Error("Gateway error", zap.Error(err))
	case err := <-healthErr:
		logger.Error("Health server error", zap.Error(err))
	}

	health.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if sd != nil {
		if instance != nil {
			if err := sd.Deregister(shutdownCtx, instance); err != nil {
				logger.Warn("Failed to deregister kiosk", zap.Error(err))
			}
		}
		sd.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Gateway shutdown failed", zap.Error(err))
	}
	health.Stop()

	logger.Info("Kiosk stopped")
}
