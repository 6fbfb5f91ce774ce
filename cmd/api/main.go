package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-inventory-pos/internal/app"
	"go-inventory-pos/internal/config"
	"go-inventory-pos/internal/handler"
	"go-inventory-pos/internal/obs"
	"go-inventory-pos/internal/service"
	"go-inventory-pos/internal/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load config
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)

	// 2. Live event hub
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	hub := ws.NewHub(obs.Logger)
	go hub.Run(ctx)

	// 3. Database + services
	core, err := app.Connect(app.Options{
		Config:   cfg,
		Logger:   obs.Logger,
		Notifier: service.MultiNotifier{service.LogNotifier{Logger: obs.Logger}, hub},
		Events:   hub,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer core.Close()

	// 4. Setup Fiber
	api := fiber.New(fiber.Config{
		AppName: "Inventory POS v1.0",
	})
	api.Use(logger.New())
	api.Use(recover.New())
	api.Use(cors.New())

	handler.RegisterRoutes(api, handler.Services{
		Stock:        core.Stock,
		Sessions:     core.Sessions,
		Transactions: core.Transactions,
		Settlements:  core.Settlements,
		Audit:        core.Audit,
		Reports:      core.Reports,
	}, hub)

	// 5. Graceful shutdown
	go func() {
		obs.Logger.Info("listening", "addr", cfg.HTTPAddr, "db_driver", cfg.DB.Driver)
		if err := api.Listen(cfg.HTTPAddr); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	obs.Logger.Info("shutting down server")
	if err := api.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		obs.Logger.Error("server forced to shutdown", "error", err)
	}
	stop()
	obs.Logger.Info("server exited")
}
