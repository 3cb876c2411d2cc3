package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/auth"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	appinv "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const (
	tiendaNorte = "tienda-norte"
	tiendaSur   = "tienda-sur"
	producto    = "prod-1"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	st := memory.NewStore()
	st.AddStore(testCompanyID, tiendaNorte)
	st.AddStore(testCompanyID, tiendaSur)
	st.AddProduct(testCompanyID, producto)

	m := metrics.New()
	log := logger.Nop()
	coord := appinv.NewCoordinator(st, appinv.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond}, log, m)
	uc := appinv.NewMovementUseCase(coord, st.Movements(), st.Products(), st.Stores(), appinv.NewCodeSequencer(st.Counter()), log).
		WithClock(func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) })

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Movements:   uc,
		Projector:   appinv.NewStockProjector(st.Positions(), st.Ledger(), st.Stores(), st.Products()),
		Ledger:      appinv.NewStockLedger(st.Ledger(), st.Positions(), st.Stores(), st.Products(), coord),
		Permissions: auth.DefaultMatrix(),
		Metrics:     m,
		Logger:      log,
		JWTSecret:   testJWTSecret,
		JWTIssuer:   testIssuer,
	})
	return &apiFixture{app: app, store: st}
}

func (f *apiFixture) call(t *testing.T, method, path, role string, body any) (int, []byte) {
	t.Helper()
	return f.callAs(t, method, path, testCompanyID, role, body)
}

// callAs firma la petición con un token de la empresa indicada.
func (f *apiFixture) callAs(t *testing.T, method, path, companyID, role string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenFor(t, companyID, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func receiptBody(qty, value, total string) fiber.Map {
	return fiber.Map{
		"type":         "RECEIPT",
		"store_id":     tiendaNorte,
		"total_amount": total,
		"lines":        []fiber.Map{{"line_no": 1, "product_id": producto, "quantity": qty, "unit_value": value}},
	}
}

func (f *apiFixture) postedReceipt(t *testing.T, qty, value, total string) dto.MovementResponse {
	t.Helper()
	status, raw := f.call(t, http.MethodPost, "/api/movements", "bodeguero", receiptBody(qty, value, total))
	require.Equal(t, http.StatusCreated, status, string(raw))
	draft := decode[dto.MovementResponse](t, raw)

	status, raw = f.call(t, http.MethodPost, "/api/movements/"+draft.ID+"/commit", "bodeguero", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	return decode[dto.MovementResponse](t, raw)
}

func TestHealth_SinToken(t *testing.T) {
	f := newAPI(t)
	status, raw := f.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"status":"ok"`)
}

func TestMovements_RequiereToken(t *testing.T) {
	f := newAPI(t)
	status, raw := f.call(t, http.MethodGet, "/api/movements", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(raw), "MISSING_TOKEN")
}

func TestReceipt_CommitActualizaStockYCodigo(t *testing.T) {
	f := newAPI(t)
	posted := f.postedReceipt(t, "10", "3.50", "35.00")

	assert.Equal(t, "POSTED", posted.State)
	assert.Equal(t, "ING-202610-000001", posted.Code)
	assert.NotNil(t, posted.PostedAt)

	status, raw := f.call(t, http.MethodGet, "/api/stock/positions?store_id="+tiendaNorte, "vendedor", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	page := decode[struct {
		Items []dto.StockPositionResponse `json:"items"`
	}](t, raw)
	require.Len(t, page.Items, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(page.Items[0].Available))
}

func TestReceipt_TotalNoCuadra_422(t *testing.T) {
	f := newAPI(t)
	status, raw := f.call(t, http.MethodPost, "/api/movements", "bodeguero", receiptBody("10", "3.50", "40.00"))
	require.Equal(t, http.StatusCreated, status, string(raw))
	draft := decode[dto.MovementResponse](t, raw)

	status, raw = f.call(t, http.MethodPost, "/api/movements/"+draft.ID+"/commit", "bodeguero", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "AMOUNT_MISMATCH", decode[dto.ErrorResponse](t, raw).Code)

	// El documento sigue en borrador y se puede corregir.
	status, raw = f.call(t, http.MethodPut, "/api/movements/"+draft.ID, "bodeguero", fiber.Map{
		"total_amount": "35.00",
		"lines":        []fiber.Map{{"line_no": 1, "product_id": producto, "quantity": "10", "unit_value": "3.50"}},
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, 2, decode[dto.MovementResponse](t, raw).Version)

	status, raw = f.call(t, http.MethodPost, "/api/movements/"+draft.ID+"/commit", "bodeguero", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "ING-202610-000001", decode[dto.MovementResponse](t, raw).Code)
}

func TestCreate_BodyInvalido_400(t *testing.T) {
	f := newAPI(t)
	status, raw := f.call(t, http.MethodPost, "/api/movements", "bodeguero", fiber.Map{"type": "TRANSFER", "origin_store_id": tiendaNorte})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, raw).Code)
}

func TestCreate_TiendaDesconocida_404(t *testing.T) {
	f := newAPI(t)
	body := receiptBody("1", "1", "1")
	body["store_id"] = "tienda-fantasma"
	status, raw := f.call(t, http.MethodPost, "/api/movements", "bodeguero", body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UNKNOWN_REFERENCE", decode[dto.ErrorResponse](t, raw).Code)
}

func TestIssue_SinStock_409(t *testing.T) {
	f := newAPI(t)
	f.postedReceipt(t, "5", "2", "10")

	status, raw := f.call(t, http.MethodPost, "/api/movements", "bodeguero", fiber.Map{
		"type": "ISSUE", "store_id": tiendaNorte, "total_amount": "12",
		"lines": []fiber.Map{{"line_no": 1, "product_id": producto, "quantity": "6", "unit_value": "2"}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	draft := decode[dto.MovementResponse](t, raw)

	status, raw = f.call(t, http.MethodPost, "/api/movements/"+draft.ID+"/commit", "bodeguero", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, raw).Code)
}

func TestCommit_VendedorNoPuede_403(t *testing.T) {
	f := newAPI(t)
	status, raw := f.call(t, http.MethodPost, "/api/movements", "vendedor", receiptBody("1", "1", "1"))
	require.Equal(t, http.StatusCreated, status, string(raw))
	draft := decode[dto.MovementResponse](t, raw)

	status, raw = f.call(t, http.MethodPost, "/api/movements/"+draft.ID+"/commit", "vendedor", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, string(raw), "FORBIDDEN")
}

func TestGet_OtraEmpresa_404(t *testing.T) {
	f := newAPI(t)
	posted := f.postedReceipt(t, "1", "1", "1")

	status, _ := f.callAs(t, http.MethodGet, "/api/movements/"+posted.ID, "otra-empresa", "admin", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStock_OtraEmpresaNoVeNiReconstruye(t *testing.T) {
	f := newAPI(t)
	f.postedReceipt(t, "7", "1", "7")

	reads := []string{
		"/api/stock/positions?store_id=" + tiendaNorte,
		"/api/stock/pivot/" + producto,
		"/api/stock/kardex/" + producto,
		"/api/stock/kardex/" + producto + "?store_id=" + tiendaNorte,
		"/api/stock/audit?store_id=" + tiendaNorte + "&product_id=" + producto,
	}
	for _, path := range reads {
		status, raw := f.callAs(t, http.MethodGet, path, "otra-empresa", "admin", nil)
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.NotContains(t, string(raw), `"available"`, path)
	}
	status, _ := f.callAs(t, http.MethodPost, "/api/stock/rebuild", "otra-empresa", "admin",
		fiber.Map{"store_id": tiendaNorte, "product_id": producto})
	assert.Equal(t, http.StatusNotFound, status)

	// La empresa dueña sigue viendo su posición.
	status, raw := f.call(t, http.MethodGet, "/api/stock/pivot/"+producto, "vendedor", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.True(t, decimal.NewFromInt(7).Equal(decode[dto.PivotResponse](t, raw).TotalAvailable))
}

func TestCreate_LineaRepetida_400(t *testing.T) {
	f := newAPI(t)
	body := fiber.Map{
		"type": "RECEIPT", "store_id": tiendaNorte, "total_amount": "2",
		"lines": []fiber.Map{
			{"line_no": 1, "product_id": producto, "quantity": "1", "unit_value": "1"},
			{"line_no": 1, "product_id": producto, "quantity": "1", "unit_value": "1"},
		},
	}
	status, raw := f.call(t, http.MethodPost, "/api/movements", "bodeguero", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_LINE", decode[dto.ErrorResponse](t, raw).Code)

	status, raw = f.call(t, http.MethodPost, "/api/movements", "bodeguero", receiptBody("1.00005", "1", "1"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", decode[dto.ErrorResponse](t, raw).Code)
}

func TestTransfer_EnvioYRecepcion(t *testing.T) {
	f := newAPI(t)
	f.postedReceipt(t, "20", "1", "20")

	status, raw := f.call(t, http.MethodPost, "/api/movements", "bodeguero", fiber.Map{
		"type": "TRANSFER", "origin_store_id": tiendaNorte, "destination_store_id": tiendaSur, "total_amount": "5",
		"lines": []fiber.Map{{"line_no": 1, "product_id": producto, "quantity": "5", "unit_value": "1"}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	draft := decode[dto.MovementResponse](t, raw)

	status, raw = f.call(t, http.MethodPost, "/api/movements/"+draft.ID+"/send", "bodeguero", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	sent := decode[dto.MovementResponse](t, raw)
	assert.Equal(t, "SENT", sent.State)
	assert.Equal(t, "TRF-202610-000001", sent.Code)

	status, raw = f.call(t, http.MethodGet, "/api/stock/pivot/"+producto, "vendedor", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	pivot := decode[dto.PivotResponse](t, raw)
	assert.True(t, decimal.NewFromInt(15).Equal(pivot.TotalAvailable), pivot.TotalAvailable.String())
	assert.True(t, decimal.NewFromInt(5).Equal(pivot.TotalInTransit), pivot.TotalInTransit.String())

	status, raw = f.call(t, http.MethodPost, "/api/movements/"+draft.ID+"/receive", "bodeguero", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "RECEIVED", decode[dto.MovementResponse](t, raw).State)

	status, raw = f.call(t, http.MethodGet, "/api/stock/pivot/"+producto, "vendedor", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	pivot = decode[dto.PivotResponse](t, raw)
	assert.True(t, decimal.NewFromInt(20).Equal(pivot.TotalAvailable))
	assert.True(t, pivot.TotalInTransit.IsZero())

	// Recibir dos veces no es una transición válida.
	status, raw = f.call(t, http.MethodPost, "/api/movements/"+draft.ID+"/receive", "bodeguero", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE_TRANSITION", decode[dto.ErrorResponse](t, raw).Code)
}

func TestKardex_SaldosYFechaInvalida(t *testing.T) {
	f := newAPI(t)
	f.postedReceipt(t, "8", "2", "16")

	status, raw := f.call(t, http.MethodGet, "/api/stock/kardex/"+producto+"?store_id="+tiendaNorte+"&to=2026-10-19", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	k := decode[dto.KardexResponse](t, raw)
	require.Len(t, k.Rows, 1)
	assert.True(t, k.Opening.IsZero())
	assert.True(t, decimal.NewFromInt(8).Equal(k.Closing))
	assert.Equal(t, "ING-202610-000001", k.Rows[0].DocumentCode)

	status, _ = f.call(t, http.MethodGet, "/api/stock/kardex/"+producto+"?from=ayer", "vendedor", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuditYRebuild_SoloAdmin(t *testing.T) {
	f := newAPI(t)
	f.postedReceipt(t, "3", "1", "3")
	q := "/api/stock/audit?store_id=" + tiendaNorte + "&product_id=" + producto

	status, _ := f.call(t, http.MethodGet, q, "bodeguero", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw := f.call(t, http.MethodGet, q, "admin", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	audit := decode[dto.AuditResponse](t, raw)
	assert.True(t, audit.Consistent)
	assert.Equal(t, 1, audit.Entries)

	status, raw = f.call(t, http.MethodPost, "/api/stock/rebuild", "admin", fiber.Map{"store_id": tiendaNorte, "product_id": producto})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.True(t, decimal.NewFromInt(3).Equal(decode[dto.StockPositionResponse](t, raw).Available))

	status, _ = f.call(t, http.MethodPost, "/api/stock/rebuild", "admin", fiber.Map{"store_id": tiendaNorte})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestList_FiltraPorEstado(t *testing.T) {
	f := newAPI(t)
	f.postedReceipt(t, "1", "1", "1")
	status, raw := f.call(t, http.MethodPost, "/api/movements", "bodeguero", receiptBody("2", "1", "2"))
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = f.call(t, http.MethodGet, "/api/movements?state=DRAFT", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	page := decode[struct {
		Items []dto.MovementResponse `json:"items"`
		Page  dto.PageResponse       `json:"page"`
	}](t, raw)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "DRAFT", page.Items[0].State)
	assert.Equal(t, 20, page.Page.Limit)

	status, _ = f.call(t, http.MethodGet, "/api/movements?state=PERDIDO", "vendedor", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMetrics_ExponeContadores(t *testing.T) {
	f := newAPI(t)
	f.postedReceipt(t, "1", "1", "1")

	status, raw := f.call(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `inventario_unit_commits_total{operation="commit"} 1`)
	assert.Contains(t, string(raw), "inventario_http_requests_total")
}
