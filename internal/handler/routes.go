package handler

import (
	"go-inventory-pos/internal/middleware"
	"go-inventory-pos/internal/service"
	"go-inventory-pos/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Services is what the HTTP adapter needs from the core.
type Services struct {
	Stock        service.StockService
	Sessions     service.SessionService
	Transactions service.TransactionService
	Settlements  service.SettlementService
	Audit        service.AuditService
	Reports      service.ReportService
}

// RegisterRoutes mounts the API under /api/v1 and the event stream under /ws.
// hub may be nil when no live listeners are wanted.
func RegisterRoutes(app *fiber.App, svc Services, hub *ws.Hub) {
	stockH := NewStockHandler(svc.Stock)
	settlementH := NewSettlementHandler(svc.Settlements, svc.Transactions)
	sessionH := NewSessionHandler(svc.Sessions)
	auditH := NewAuditHandler(svc.Audit)
	reportH := NewReportHandler(svc.Reports)

	api := app.Group("/api/v1", middleware.Actor())

	// Stock
	api.Get("/stores/:storeId/stocks", stockH.ListByStore)
	stock := api.Group("/stores/:storeId/products/:productId")
	stock.Get("/stock", stockH.GetStock)
	stock.Post("/stock", stockH.AddStock)
	stock.Put("/stock", stockH.UpdateStock)
	stock.Delete("/stock", stockH.RemoveStock)
	stock.Post("/stock/increase", stockH.IncreaseStock)
	stock.Post("/stock/decrease", stockH.DecreaseStock)
	stock.Post("/transfer", stockH.TransferStock)

	// Settlements
	till := api.Group("/stores/:storeId/pos/:posId")
	till.Post("/sales", settlementH.CreateSale)
	till.Post("/purchases", settlementH.CreatePurchase)
	till.Post("/transactions", settlementH.CreateTransaction)

	api.Get("/transactions", settlementH.ListTransactions)
	api.Get("/transactions/:id", settlementH.GetTransaction)
	api.Patch("/transactions/:id", settlementH.UpdateTransaction)
	api.Get("/sales", settlementH.ListSales)
	api.Get("/sales/:id", settlementH.GetSale)
	api.Put("/sales/:id/client", settlementH.ReassignClient)
	api.Get("/purchases", settlementH.ListPurchases)
	api.Get("/purchases/:id", settlementH.GetPurchase)
	api.Put("/purchases/:id/provider", settlementH.ReassignProvider)

	// Sessions
	api.Post("/pos/:posId/sessions", sessionH.Open)
	api.Get("/pos/:posId/sessions", sessionH.ListByPos)
	api.Get("/pos/:posId/sessions/current", sessionH.Current)
	api.Post("/sessions/:id/close", sessionH.Close)
	api.Get("/sessions/:id", sessionH.Get)
	api.Get("/sessions/:id/summary", sessionH.Summary)

	// Reports
	api.Get("/stores/:storeId/stats", reportH.GetStockStats)
	api.Get("/stores/:storeId/movement", reportH.GetMovement)

	// Audit
	api.Get("/audits/:entityType", auditH.List)
	api.Get("/audits/:entityType/:id", auditH.History)

	if hub == nil {
		return
	}
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !hub.Attach(c) {
			return
		}
		defer hub.Detach(c)

		for {
			// clients only listen; reads keep the connection alive
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
