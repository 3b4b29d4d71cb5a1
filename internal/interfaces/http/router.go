package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/audit"
	"github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC    *ledger.LedgerUseCase
	StockUC     *stock.StockUseCase
	AuditMgr    *audit.Manager
	Reports     audit.ReportGenerator
	Broadcaster LogoutBroadcaster
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Libro de movimientos
	ledgerGroup := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.LedgerUC)
	ledgerGroup.Post("/movements", ledgerHandler.RegisterMovement)
	ledgerGroup.Post("/counts", ledgerHandler.RegisterCount)
	ledgerGroup.Post("/metadata", ledgerHandler.AttachMetadata)
	ledgerGroup.Get("/records", ledgerHandler.ListRecords)
	ledgerGroup.Get("/records/:id", ledgerHandler.GetRecord)
	ledgerGroup.Put("/records/:id", ledgerHandler.CorrectRecord)
	ledgerGroup.Delete("/records/:id", ledgerHandler.DeleteRecord)

	// Proyección de saldos
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC)
	stockGroup.Get("/", stockHandler.GetStock)
	stockGroup.Post("/refresh", stockHandler.RefreshStock)

	// Sesiones de toma de inventario
	sessions := protected.Group("/audit/sessions")
	sessionHandler := NewSessionHandler(deps.AuditMgr, deps.StockUC, deps.Reports)
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/", sessionHandler.List)
	sessions.Get("/:id", sessionHandler.GetByID)
	sessions.Delete("/:id", sessionHandler.Delete)
	sessions.Post("/:id/lock", sessionHandler.AcquireLock)
	sessions.Post("/:id/unlock", sessionHandler.ReleaseLock)
	sessions.Post("/:id/force-unlock", RequireRole("admin"), sessionHandler.ForceUnlock)
	sessions.Put("/:id/items/:itemId/count", sessionHandler.RecordCount)
	sessions.Post("/:id/items/:itemId/toggle", sessionHandler.ToggleChecked)
	sessions.Post("/:id/finalize", sessionHandler.Finalize)
	sessions.Get("/:id/report", sessionHandler.Report)

	// Cierre de sesión global
	authGroup := protected.Group("/auth")
	authHandler := NewAuthHandler(deps.Broadcaster)
	authGroup.Post("/logout", authHandler.Logout)
}
