package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"inventory-manager/internal/products"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

const (
	msgNotFound         = "not found"
	msgNoData           = "no data"
	msgEndpointNotFound = "endpoint not found"
	msgInternalError    = "internal server error"

	msgCreated = "product created successfully"
	msgUpdated = "product updated successfully"
	msgDeleted = "product deleted successfully"
)

type ProductService interface {
	ListProducts(ctx context.Context) ([]products.Product, error)
	GetProduct(ctx context.Context, id int64) (products.Product, error)
	CreateProduct(ctx context.Context, in products.Input) (products.Product, error)
	UpdateProduct(ctx context.Context, id int64, in products.Input) (products.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type Handler struct {
	service ProductService
	logger  *slog.Logger
}

func NewHandler(svc ProductService, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"not found"`
}

type validationErrorResponse struct {
	Success bool     `json:"success" example:"false"`
	Errores []string `json:"errores"`
}

type listProductsResponse struct {
	Success bool               `json:"success" example:"true"`
	Data    []products.Product `json:"data"`
	Total   int                `json:"total" example:"2"`
}

type productResponse struct {
	Success bool             `json:"success" example:"true"`
	Data    products.Product `json:"data"`
}

type mutationResponse struct {
	Success bool             `json:"success" example:"true"`
	Mensaje string           `json:"mensaje" example:"product created successfully"`
	Data    products.Product `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success" example:"true"`
	Mensaje string `json:"mensaje" example:"product deleted successfully"`
}

type indexResponse struct {
	Mensaje   string            `json:"mensaje"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// Index godoc
// @Summary      Describe the API
// @Tags         meta
// @Produce      json
// @Success      200  {object}  indexResponse
// @Router       / [get]
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, indexResponse{
		Mensaje: "Inventory Management API",
		Version: "1.0",
		Endpoints: map[string]string{
			"GET /api/productos":         "List all products",
			"GET /api/productos/<id>":    "Get one product",
			"POST /api/productos":        "Create a product",
			"PUT /api/productos/<id>":    "Update a product",
			"DELETE /api/productos/<id>": "Delete a product",
		},
	})
}

// ListProducts godoc
// @Summary      List every product
// @Tags         productos
// @Produce      json
// @Success      200  {object}  listProductsResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/productos [get]
func (h *Handler) ListProducts(c *gin.Context) {
	items, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if items == nil {
		items = []products.Product{}
	}

	c.JSON(http.StatusOK, listProductsResponse{
		Success: true,
		Data:    items,
		Total:   len(items),
	})
}

// GetProduct godoc
// @Summary      Get a product by ID
// @Tags         productos
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  productResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/productos/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		EndpointNotFound(c)
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, productResponse{Success: true, Data: product})
}

// CreateProduct godoc
// @Summary      Create a product
// @Tags         productos
// @Accept       json
// @Produce      json
// @Param        body  body      object  true  "Product fields"
// @Success      201   {object}  mutationResponse
// @Failure      400   {object}  validationErrorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/productos [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	in, ok := readInput(c)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgNoData})
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mutationResponse{Success: true, Mensaje: msgCreated, Data: product})
}

// UpdateProduct godoc
// @Summary      Replace a product's fields
// @Tags         productos
// @Accept       json
// @Produce      json
// @Param        id    path      int     true  "Product ID"
// @Param        body  body      object  true  "Product fields"
// @Success      200   {object}  mutationResponse
// @Failure      400   {object}  validationErrorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/productos/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		EndpointNotFound(c)
		return
	}

	in, ok := readInput(c)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgNoData})
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, mutationResponse{Success: true, Mensaje: msgUpdated, Data: product})
}

// DeleteProduct godoc
// @Summary      Delete a product by ID
// @Tags         productos
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/productos/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		EndpointNotFound(c)
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Mensaje: msgDeleted})
}

func EndpointNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{Error: msgEndpointNotFound})
}

// InternalError answers unexpected failures and recovered panics.
func InternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *products.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, validationErrorResponse{Errores: verr.Errors.Messages()})
	case errors.Is(err, products.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
	default:
		h.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		InternalError(c)
	}
}

// readInput decodes the body as a JSON object. An empty body, invalid JSON,
// a non-object value or an empty object all count as no data.
func readInput(c *gin.Context) (products.Input, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var in map[string]any
	if err := dec.Decode(&in); err != nil || len(in) == 0 {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}

	return products.Input(in), true
}

// parseID accepts unsigned decimal ids only; anything else is not a route.
func parseID(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
