package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"inventory-manager/internal/middleware"
	"inventory-manager/internal/products"
	"inventory-manager/internal/products/service"
	"inventory-manager/internal/products/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type stubService struct {
	listFn   func(ctx context.Context) ([]products.Product, error)
	getFn    func(ctx context.Context, id int64) (products.Product, error)
	createFn func(ctx context.Context, in products.Input) (products.Product, error)
	updateFn func(ctx context.Context, id int64, in products.Input) (products.Product, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubService) ListProducts(ctx context.Context) ([]products.Product, error) {
	return s.listFn(ctx)
}
func (s *stubService) GetProduct(ctx context.Context, id int64) (products.Product, error) {
	return s.getFn(ctx, id)
}
func (s *stubService) CreateProduct(ctx context.Context, in products.Input) (products.Product, error) {
	return s.createFn(ctx, in)
}
func (s *stubService) UpdateProduct(ctx context.Context, id int64, in products.Input) (products.Product, error) {
	return s.updateFn(ctx, id, in)
}
func (s *stubService) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func setupRouter(svc ProductService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Recovery(discardLogger(), InternalError))
	h := NewHandler(svc, discardLogger())
	r.GET("/", h.Index)
	r.GET("/api/productos", h.ListProducts)
	r.POST("/api/productos", h.CreateProduct)
	r.GET("/api/productos/:id", h.GetProduct)
	r.PUT("/api/productos/:id", h.UpdateProduct)
	r.DELETE("/api/productos/:id", h.DeleteProduct)
	r.GET("/boom", func(*gin.Context) { panic("unexpected") })
	r.NoRoute(EndpointNotFound)
	return r
}

func do(r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHandler_CreateProduct(t *testing.T) {
	verr := &products.ValidationError{Errors: products.ValidationErrors{
		{Field: products.FieldNombre, Code: products.CodeRequired, Message: "name is required"},
		{Field: products.FieldPrecio, Code: products.CodeInvalid, Message: "price must be a valid number"},
	}}

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantError  string
		wantErrLen int
	}{
		{name: "success", body: `{"nombre":"Milk"}`, wantStatus: http.StatusCreated},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantError: "no data"},
		{name: "empty object", body: `{}`, wantStatus: http.StatusBadRequest, wantError: "no data"},
		{name: "invalid json", body: `not json`, wantStatus: http.StatusBadRequest, wantError: "no data"},
		{name: "array body", body: `[1,2]`, wantStatus: http.StatusBadRequest, wantError: "no data"},
		{name: "validation errors", body: `{"x":1}`, svcErr: verr, wantStatus: http.StatusBadRequest, wantErrLen: 2},
		{name: "store failure", body: `{"x":1}`, svcErr: errors.New("disk"), wantStatus: http.StatusInternalServerError, wantError: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				createFn: func(_ context.Context, in products.Input) (products.Product, error) {
					if tt.svcErr != nil {
						return products.Product{}, tt.svcErr
					}
					return products.Product{ID: 1, Nombre: "Milk"}, nil
				},
			}

			w := do(setupRouter(svc), http.MethodPost, "/api/productos", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("want status %d, got %d, body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			resp := decodeBody(t, w)
			if tt.wantStatus == http.StatusCreated {
				if resp["success"] != true || resp["mensaje"] == "" || resp["data"] == nil {
					t.Fatalf("unexpected success body: %v", resp)
				}
				return
			}
			if resp["success"] != false {
				t.Fatalf("want success=false, got %v", resp)
			}
			if tt.wantError != "" && resp["error"] != tt.wantError {
				t.Fatalf("want error %q, got %v", tt.wantError, resp["error"])
			}
			if tt.wantErrLen > 0 {
				errs, _ := resp["errores"].([]any)
				if len(errs) != tt.wantErrLen {
					t.Fatalf("want %d errores, got %v", tt.wantErrLen, resp["errores"])
				}
			}
		})
	}
}

func TestHandler_GetProduct(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		svcErr     error
		wantStatus int
		wantError  string
	}{
		{name: "success", url: "/api/productos/1", wantStatus: http.StatusOK},
		{name: "not found", url: "/api/productos/999", svcErr: products.ErrNotFound, wantStatus: http.StatusNotFound, wantError: "not found"},
		{name: "non-integer id is not a route", url: "/api/productos/abc", wantStatus: http.StatusNotFound, wantError: "endpoint not found"},
		{name: "negative id is not a route", url: "/api/productos/-1", wantStatus: http.StatusNotFound, wantError: "endpoint not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				getFn: func(_ context.Context, id int64) (products.Product, error) {
					if tt.svcErr != nil {
						return products.Product{}, tt.svcErr
					}
					return products.Product{ID: id, Nombre: "Milk"}, nil
				},
			}

			w := do(setupRouter(svc), http.MethodGet, tt.url, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("want status %d, got %d, body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			resp := decodeBody(t, w)
			if tt.wantError != "" && resp["error"] != tt.wantError {
				t.Fatalf("want error %q, got %v", tt.wantError, resp["error"])
			}
		})
	}
}

func TestHandler_UpdateProduct(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		body       string
		svcErr     error
		wantStatus int
	}{
		{name: "success", url: "/api/productos/1", body: `{"nombre":"Milk"}`, wantStatus: http.StatusOK},
		{name: "no data", url: "/api/productos/1", body: "", wantStatus: http.StatusBadRequest},
		{name: "not found", url: "/api/productos/999", body: `{"nombre":"Milk"}`, svcErr: products.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "bad id", url: "/api/productos/x", body: `{"nombre":"Milk"}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				updateFn: func(_ context.Context, id int64, _ products.Input) (products.Product, error) {
					if tt.svcErr != nil {
						return products.Product{}, tt.svcErr
					}
					return products.Product{ID: id}, nil
				},
			}

			w := do(setupRouter(svc), http.MethodPut, tt.url, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("want status %d, got %d, body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandler_DeleteProduct(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		svcErr     error
		wantStatus int
	}{
		{name: "success", url: "/api/productos/1", wantStatus: http.StatusOK},
		{name: "not found", url: "/api/productos/999", svcErr: products.ErrNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				deleteFn: func(_ context.Context, _ int64) error {
					return tt.svcErr
				},
			}

			w := do(setupRouter(svc), http.MethodDelete, tt.url, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("want status %d, got %d, body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			resp := decodeBody(t, w)
			if tt.svcErr == nil && (resp["success"] != true || resp["mensaje"] == nil) {
				t.Fatalf("unexpected body: %v", resp)
			}
		})
	}
}

func TestHandler_ListProducts(t *testing.T) {
	tests := []struct {
		name       string
		items      []products.Product
		svcErr     error
		wantStatus int
		wantTotal  float64
	}{
		{
			name:       "returns items",
			items:      []products.Product{{ID: 2}, {ID: 1}},
			wantStatus: http.StatusOK,
			wantTotal:  2,
		},
		{
			name:       "nil list is rendered as empty array",
			wantStatus: http.StatusOK,
			wantTotal:  0,
		},
		{
			name:       "store failure",
			svcErr:     errors.New("permission denied"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				listFn: func(_ context.Context) ([]products.Product, error) {
					return tt.items, tt.svcErr
				},
			}

			w := do(setupRouter(svc), http.MethodGet, "/api/productos", "")

			if w.Code != tt.wantStatus {
				t.Fatalf("want status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.svcErr != nil {
				return
			}
			resp := decodeBody(t, w)
			data, ok := resp["data"].([]any)
			if !ok {
				t.Fatalf("want data array, got %v", resp["data"])
			}
			if resp["total"] != tt.wantTotal || float64(len(data)) != tt.wantTotal {
				t.Fatalf("want total %v, got %v (%d items)", tt.wantTotal, resp["total"], len(data))
			}
		})
	}
}

func TestHandler_FallbackRoutes(t *testing.T) {
	r := setupRouter(&stubService{})

	w := do(r, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want index 200, got %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["endpoints"] == nil {
		t.Fatalf("index must list endpoints, got %v", resp)
	}

	w = do(r, http.MethodGet, "/nowhere", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["error"] != "endpoint not found" || resp["success"] != false {
		t.Fatalf("unexpected body %v", resp)
	}

	w = do(r, http.MethodGet, "/boom", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["error"] != "internal server error" {
		t.Fatalf("unexpected body %v", resp)
	}
}

func TestAPI_EndToEnd(t *testing.T) {
	st := store.NewMemory()
	svc := service.New(st, noopPublisher{}, discardLogger(), service.Metrics{
		Created: prometheus.NewCounter(prometheus.CounterOpts{Name: "e2e_created", Help: "t"}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{Name: "e2e_updated", Help: "t"}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "e2e_deleted", Help: "t"}),
	})
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/api/productos", `{"nombre":"Milk","categoria":"Dairy","precio":"2.5","cantidad":"10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: want 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)["data"].(map[string]any)
	if created["id"] != float64(1) {
		t.Fatalf("want id 1, got %v", created["id"])
	}
	if _, ok := created["fecha_actualizacion"]; ok {
		t.Fatalf("fecha_actualizacion must be absent after create: %v", created)
	}

	w = do(r, http.MethodPut, "/api/productos/1", `{"nombre":"Milk","categoria":"Dairy","precio":3,"cantidad":8}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: want 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := decodeBody(t, w)["data"].(map[string]any)
	if updated["precio"] != float64(3) || updated["fecha_actualizacion"] == nil {
		t.Fatalf("unexpected updated product %v", updated)
	}

	w = do(r, http.MethodPut, "/api/productos/999", `{"nombre":"Milk","categoria":"Dairy","precio":"1","cantidad":"1"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("update missing: want 404, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/productos", `{"nombre":"","categoria":"","precio":"-5","cantidad":"abc"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid create: want 400, got %d", w.Code)
	}
	if errs := decodeBody(t, w)["errores"].([]any); len(errs) < 4 {
		t.Fatalf("want at least 4 errores, got %v", errs)
	}

	if w = do(r, http.MethodDelete, "/api/productos/1", ""); w.Code != http.StatusOK {
		t.Fatalf("delete: want 200, got %d", w.Code)
	}
	if w = do(r, http.MethodDelete, "/api/productos/1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: want 404, got %d", w.Code)
	}
	if w = do(r, http.MethodGet, "/api/productos/1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted: want 404, got %d", w.Code)
	}
	if st.Saves() != 3 {
		t.Fatalf("want 3 saves (create, update, delete), got %d", st.Saves())
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, products.ProductEvent) error { return nil }

func TestAPI_CreateRejectsUnstorablePrices(t *testing.T) {
	st := store.NewFile(filepath.Join(t.TempDir(), "inventario.json"), discardLogger())
	svc := service.New(st, noopPublisher{}, discardLogger(), service.Metrics{
		Created: prometheus.NewCounter(prometheus.CounterOpts{Name: "price_created", Help: "t"}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{Name: "price_updated", Help: "t"}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "price_deleted", Help: "t"}),
	})
	r := setupRouter(svc)

	for _, price := range []string{`"NaN"`, `"Inf"`, `"-Infinity"`, `"0x1p-2"`, `1e400`} {
		t.Run(price, func(t *testing.T) {
			body := `{"nombre":"Milk","categoria":"Dairy","precio":` + price + `,"cantidad":"10"}`

			w := do(r, http.MethodPost, "/api/productos", body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d: %s", w.Code, w.Body.String())
			}
			errs, _ := decodeBody(t, w)["errores"].([]any)
			if len(errs) != 1 || errs[0] != "price must be a valid number" {
				t.Fatalf("want price error only, got %v", errs)
			}
		})
	}

	w := do(r, http.MethodGet, "/api/productos", "")
	if total := decodeBody(t, w)["total"]; total != float64(0) {
		t.Fatalf("rejected products must not be stored, total %v", total)
	}
}
