package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Almacen-api/internal/application/audit"
	"github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/application/syncgw"
	"github.com/jhoicas/Almacen-api/internal/domain/projection"
	infrapdf "github.com/jhoicas/Almacen-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Almacen-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Almacen-api/internal/interfaces/http"
	"github.com/jhoicas/Almacen-api/pkg/config"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	redisClient, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer redisClient.Close()

	ledgerRepo := postgres.NewLedgerRepo(pool)
	sessionRepo := postgres.NewSessionRepo(pool)
	txRunner := postgres.NewTxRunner(pool)

	notifier := infraredis.NewNotifier(redisClient, log)
	go notifier.Listen(ctx)

	lockCoordinator := infraredis.NewLockCoordinator(redisClient)

	// Proyección vigente: pull del libro desde postgres, señales vía redis.
	gateway := syncgw.NewStoreGateway(ledgerRepo, notifier)
	refresher := syncgw.NewRefresher(gateway, projection.Options{
		AccountedWarehouses: cfg.Inventory.AccountedWarehouses,
		SentinelActor:       cfg.Inventory.SentinelActor,
		MaxAttachments:      cfg.Inventory.MaxAttachments,
	}, log)
	refresher.Start(ctx)

	ledgerUC := ledger.NewLedgerUseCase(txRunner, ledgerRepo, notifier, ledger.Config{
		SentinelActor: cfg.Inventory.SentinelActor,
	})
	stockUC := stock.NewStockUseCase(refresher)
	auditMgr := audit.NewManager(sessionRepo, lockCoordinator,
		time.Duration(cfg.Inventory.StaleLockMinutes)*time.Minute)
	reportGen := infrapdf.NewMarotoReportGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacén API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:    ledgerUC,
		StockUC:     stockUC,
		AuditMgr:    auditMgr,
		Reports:     reportGen,
		Broadcaster: notifier,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
