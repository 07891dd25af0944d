package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/notify"
	"github.com/jhoicas/stockledger-api/internal/application/reporting"
	"github.com/jhoicas/stockledger-api/internal/application/snapshot"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/export"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const ownerUserID = "owner-user"

type api struct {
	app       *fiber.App
	companyID string
}

// newAPI arma la app completa sobre el almacén en memoria y despacho inline.
// Crea una empresa cuyo owner es ownerUserID.
func newAPI(t *testing.T) *api {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	companyRepo := memory.NewCompanyRepository(store)
	membershipRepo := memory.NewMembershipRepository(store)
	productRepo := memory.NewProductRepository(store)
	recordRepo := memory.NewStockRecordRepository(store)
	notificationRepo := memory.NewNotificationRepository(store)
	c := cache.NewLocalCache(1000, time.Hour)
	m := metrics.New()

	l := ledger.NewLedger(memory.NewTxRunner(store), productRepo, recordRepo, c, m, log, ledger.Config{})
	reports := reporting.NewService(memory.NewReportRepository(store), l, c, m, log, reporting.Config{})
	companyUC := usecase.NewCompanyUseCase(companyRepo, membershipRepo)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		CompanyUC:     companyUC,
		ProductUC:     usecase.NewProductUseCase(productRepo, recordRepo, companyRepo),
		Ledger:        l,
		Reports:       reports,
		Exporter:      reporting.NewExporter(reports, companyRepo, export.NewExcelWriter(), export.NewPDFWriter()),
		Notifications: notify.NewService(notificationRepo, time.UTC),
		Dispatcher:    notify.NewInlineDispatcher(notify.NewHandler(membershipRepo, notificationRepo, log)),
		Snapshots: snapshot.NewAggregator(companyRepo, productRepo, memory.NewSnapshotRepository(store), l, c,
			cache.NewLocalJobLock(), m, log, snapshot.Config{}),
		Metrics:   m.Handler(),
		Log:       log,
		JWTSecret: testJWTSecret,
	})

	a := &api{app: app}
	resp, body := a.do(t, http.MethodPost, "/api/companies", a.token(t, ownerUserID, "", "owner"),
		dto.CreateCompanyRequest{Name: "Acme", Username: "ana"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var company dto.CompanyResponse
	require.NoError(t, json.Unmarshal(body, &company))
	a.companyID = company.ID
	return a
}

func (a *api) token(t *testing.T, userID, companyID, role string) string {
	t.Helper()
	return signToken(t, userID, companyID, role)
}

func (a *api) owner(t *testing.T) string {
	return a.token(t, ownerUserID, a.companyID, "owner")
}

func (a *api) do(t *testing.T, method, path, auth string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (a *api) createProduct(t *testing.T) dto.ProductResponse {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/api/products", a.owner(t), dto.CreateProductRequest{
		Name: "Guantes", Category: "insumos", Unit: "count", PiecesPerBox: 10, StorageMonths: 6,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p dto.ProductResponse
	require.NoError(t, json.Unmarshal(body, &p))
	return p
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Code
}

// ──────────────────────────────────────────────────────────────────────────────
// Ledger vía HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestStock_EntradaSalidaYStockInsuficiente(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct(t)

	resp, body := a.do(t, http.MethodPost, "/api/stock/in", a.owner(t),
		dto.StockRecordRequest{ProductID: p.ID, BoxQuantity: 5})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = a.do(t, http.MethodPost, "/api/stock/out", a.owner(t),
		dto.StockRecordRequest{ProductID: p.ID, BoxQuantity: 5, PieceQuantity: 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, body))

	resp, body = a.do(t, http.MethodPost, "/api/stock/out", a.owner(t),
		dto.StockRecordRequest{ProductID: p.ID, PieceQuantity: 30})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = a.do(t, http.MethodGet, "/api/products/"+p.ID+"/stock", a.owner(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var level dto.StockLevelResponse
	require.NoError(t, json.Unmarshal(body, &level))
	assert.Equal(t, int64(20), level.TotalPieces)
	assert.Equal(t, int64(2), level.BoxQuantity)
}

func TestStock_CantidadNegativaEs400(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct(t)

	resp, body := a.do(t, http.MethodPost, "/api/stock/in", a.owner(t),
		dto.StockRecordRequest{ProductID: p.ID, BoxQuantity: -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, body))
}

func TestIDsNoUUIDSonRechazadosEnElBorde(t *testing.T) {
	a := newAPI(t)
	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/products/abc"},
		{http.MethodPut, "/api/products/abc"},
		{http.MethodGet, "/api/products/abc/stock"},
		{http.MethodGet, "/api/products/abc/records"},
		{http.MethodDelete, "/api/stock/records/abc"},
		{http.MethodPost, "/api/notifications/abc/read"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, body := a.do(t, tc.method, tc.path, a.owner(t), dto.UpdateProductRequest{})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "INVALID_ID", errorCode(t, body))
		})
	}
}

func TestStock_ReversionSoloParaResponsables(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct(t)
	resp, body := a.do(t, http.MethodPost, "/api/company/members", a.owner(t),
		dto.AddMemberRequest{UserID: "emp-1", Username: "beto", Role: "employee"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = a.do(t, http.MethodPost, "/api/stock/in", a.owner(t),
		dto.StockRecordRequest{ProductID: p.ID, PieceQuantity: 7})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rec dto.StockRecordResponse
	require.NoError(t, json.Unmarshal(body, &rec))

	employee := a.token(t, "emp-1", a.companyID, "employee")
	resp, _ = a.do(t, http.MethodDelete, "/api/stock/records/"+rec.ID, employee, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = a.do(t, http.MethodDelete, "/api/stock/records/"+rec.ID, a.owner(t), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = a.do(t, http.MethodDelete, "/api/stock/records/"+rec.ID, a.owner(t), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Membresía y notificaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestMembership_UsuarioAjenoBloqueado(t *testing.T) {
	a := newAPI(t)
	stranger := a.token(t, "intruso", a.companyID, "owner")

	resp, body := a.do(t, http.MethodGet, "/api/products", stranger, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_A_MEMBER", errorCode(t, body))
}

func TestNotifications_ProductoCreadoAvisaAResponsables(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct(t)

	resp, body := a.do(t, http.MethodGet, "/api/notifications", a.owner(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inbox dto.NotificationListResponse
	require.NoError(t, json.Unmarshal(body, &inbox))
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, "product_added", inbox.Items[0].Type)
	assert.Equal(t, p.ID, inbox.Items[0].RelatedObjectID)
	assert.False(t, inbox.Items[0].IsRead)

	resp, _ = a.do(t, http.MethodPost, "/api/notifications/"+inbox.Items[0].ID+"/read", a.owner(t), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestNotifications_FiltrosFechaYLeidas(t *testing.T) {
	a := newAPI(t)
	a.createProduct(t)

	resp, body := a.do(t, http.MethodGet, "/api/notifications?date=today&is_read=new", a.owner(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var inbox dto.NotificationListResponse
	require.NoError(t, json.Unmarshal(body, &inbox))
	assert.Len(t, inbox.Items, 1)

	resp, body = a.do(t, http.MethodGet, "/api/notifications?date=older", a.owner(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	inbox = dto.NotificationListResponse{}
	require.NoError(t, json.Unmarshal(body, &inbox))
	assert.Empty(t, inbox.Items)

	resp, body = a.do(t, http.MethodGet, "/api/notifications?date=tomorrow", a.owner(t), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, body))

	resp, _ = a.do(t, http.MethodGet, "/api/notifications?is_read=true", a.owner(t), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotifications_SoloResponsables(t *testing.T) {
	a := newAPI(t)
	resp, body := a.do(t, http.MethodPost, "/api/company/members", a.owner(t),
		dto.AddMemberRequest{UserID: "emp-1", Username: "beto", Role: "employee"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	employee := a.token(t, "emp-1", a.companyID, "employee")
	resp, body = a.do(t, http.MethodGet, "/api/notifications", employee, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))
}

// ──────────────────────────────────────────────────────────────────────────────
// Reportes
// ──────────────────────────────────────────────────────────────────────────────

func TestReports_FiltroDesconocidoEs400(t *testing.T) {
	a := newAPI(t)
	resp, body := a.do(t, http.MethodGet, "/api/reports/products?filter_type=interested", a.owner(t), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, body))
}

func TestReports_FlujoSemanalYExportaciones(t *testing.T) {
	a := newAPI(t)
	a.createProduct(t)

	resp, body := a.do(t, http.MethodGet, "/api/reports/weekly-flow?date=2024-06-05", a.owner(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var flow reporting.WeeklyFlow
	require.NoError(t, json.Unmarshal(body, &flow))
	assert.Equal(t, "2024-06-03", flow.WeekStart)
	assert.Len(t, flow.Days, 7)

	resp, _ = a.do(t, http.MethodGet, "/api/reports/weekly-flow?date=05-06-2024", a.owner(t), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, "/api/reports/products.xlsx", a.owner(t), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

	resp, body = a.do(t, http.MethodGet, "/api/reports/stock.pdf", a.owner(t), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestSnapshots_DisparoManual(t *testing.T) {
	a := newAPI(t)
	a.createProduct(t)

	resp, body := a.do(t, http.MethodPost, "/api/snapshots/run", a.owner(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var run dto.SnapshotRunResponse
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, 1, run.Processed)
	assert.False(t, run.Partial)
}

func TestMetrics_Expuestas(t *testing.T) {
	a := newAPI(t)
	resp, body := a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "stockledger_")
}

// ──────────────────────────────────────────────────────────────────────────────
// OpenAPI
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_TodasLasRutasDocumentadas(t *testing.T) {
	raw, err := os.ReadFile("../../../docs/swagger.json")
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))

	a := newAPI(t)
	param := regexp.MustCompile(`:(\w+)`)
	routes := a.app.GetRoutes(true)
	require.NotEmpty(t, routes)
	for _, r := range routes {
		if r.Method == http.MethodHead {
			continue
		}
		path := strings.TrimSuffix(param.ReplaceAllString(r.Path, "{$1}"), "/")
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "ruta sin documentar: %s", path) {
			continue
		}
		_, ok = ops[strings.ToLower(r.Method)]
		assert.True(t, ok, "método sin documentar: %s %s", r.Method, path)
	}
}
