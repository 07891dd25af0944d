package http

import (
	nethttp "net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/notify"
	"github.com/jhoicas/stockledger-api/internal/application/reporting"
	"github.com/jhoicas/stockledger-api/internal/application/snapshot"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC     *usecase.CompanyUseCase
	ProductUC     *usecase.ProductUseCase
	Ledger        *ledger.Ledger
	Reports       *reporting.Service
	Exporter      *reporting.Exporter
	Notifications *notify.Service
	Dispatcher    notify.Dispatcher
	Snapshots     *snapshot.Aggregator
	SnapshotLoc   *time.Location
	Metrics       nethttp.Handler // nil: sin /metrics
	Log           *logger.Logger
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	events := eventDispatcher{d: deps.Dispatcher, log: deps.Log.Component("http")}
	managers := RequireRole(entity.RoleOwner, entity.RoleAdmin)

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Crear empresa: basta con estar autenticado.
	companyHandler := NewCompanyHandler(deps.CompanyUC, events)
	api.Post("/companies", companyHandler.Create)

	// Todo lo demás exige membresía vigente en la empresa del token.
	member := api.Group("/", RequireMembership(deps.CompanyUC))

	company := member.Group("/company")
	company.Get("/", companyHandler.GetCurrent)
	company.Get("/members", companyHandler.ListMembers)
	company.Post("/members", managers, companyHandler.AddMember)

	productHandler := NewProductHandler(deps.ProductUC, events)
	ledgerHandler := NewLedgerHandler(deps.Ledger)
	products := member.Group("/products")
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Get("/:id/stock", ledgerHandler.CurrentStock)
	products.Get("/:id/records", ledgerHandler.ListRecords)

	stock := member.Group("/stock")
	stock.Get("/", ledgerHandler.CompanyStock)
	stock.Post("/in", ledgerHandler.RecordInbound)
	stock.Post("/out", ledgerHandler.RecordOutbound)
	stock.Delete("/records/:id", managers, ledgerHandler.ReverseRecord)

	reportHandler := NewReportHandler(deps.Reports, deps.Exporter)
	reports := member.Group("/reports")
	reports.Get("/weekly-flow", reportHandler.WeeklyFlow)
	reports.Get("/weekly-flow.xlsx", reportHandler.WeeklyFlowXLSX)
	reports.Get("/categories", reportHandler.Categories)
	reports.Get("/products", reportHandler.Products)
	reports.Get("/products.xlsx", reportHandler.ProductsXLSX)
	reports.Get("/stock.pdf", reportHandler.StockPDF)

	notificationHandler := NewNotificationHandler(deps.Notifications)
	notifications := member.Group("/notifications", managers)
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	snapshotHandler := NewSnapshotHandler(deps.Snapshots, deps.SnapshotLoc)
	member.Post("/snapshots/run", managers, snapshotHandler.Run)
}
