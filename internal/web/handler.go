package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"inventory-manager/internal/products"

	"github.com/gin-gonic/gin"
)

const (
	tmplList     = "lista_productos.html"
	tmplDetail   = "detalle_producto.html"
	tmplCreate   = "crear_producto.html"
	tmplEdit     = "editar_producto.html"
	tmplNotFound = "not_found.html"
	tmplError    = "error.html"

	basePath = "/productos"
	listPath = basePath + "/"
)

type API interface {
	List(ctx context.Context) ([]products.Product, error)
	Get(ctx context.Context, id int64) (products.Product, error)
	Create(ctx context.Context, f Form) (products.Product, error)
	Update(ctx context.Context, id int64, f Form) (products.Product, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	api    API
	apiURL string
	logger *slog.Logger
}

// NewHandler builds the page handlers. apiURL only appears in the message
// shown when the API cannot be reached.
func NewHandler(api API, apiURL string, logger *slog.Logger) *Handler {
	return &Handler{api: api, apiURL: apiURL, logger: logger}
}

type page struct {
	Title     string
	Flashes   []Flash
	Productos []products.Product
	Total     int
	Producto  products.Product
	ID        int64
	Form      Form
}

// RegisterRoutes mounts the pages under /productos/ and sends the site root
// there.
func RegisterRoutes(router *gin.Engine, h *Handler) {
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, listPath) })

	pages := router.Group(basePath)
	pages.GET("/", h.List)
	pages.GET("/crear/", h.NewForm)
	pages.POST("/crear/", h.Create)
	pages.GET("/:id/", h.Detail)
	pages.GET("/:id/editar/", h.EditForm)
	pages.POST("/:id/editar/", h.Update)
	pages.GET("/:id/eliminar/", func(c *gin.Context) { redirect(c, listPath) })
	pages.POST("/:id/eliminar/", h.Delete)

	router.NoRoute(h.NotFound)
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.api.List(c.Request.Context())
	if err != nil {
		addFlash(c, levelError, h.describe("could not load products", err))
		h.render(c, http.StatusOK, tmplList, page{Title: "Products", Productos: []products.Product{}})
		return
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	h.render(c, http.StatusOK, tmplList, page{Title: "Products", Productos: items, Total: len(items)})
}

func (h *Handler) Detail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.NotFound(c)
		return
	}

	p, err := h.api.Get(c.Request.Context(), id)
	if err != nil {
		h.failToList(c, "could not load product", err)
		return
	}
	h.render(c, http.StatusOK, tmplDetail, page{Title: p.Nombre, Producto: p, ID: p.ID})
}

func (h *Handler) NewForm(c *gin.Context) {
	h.render(c, http.StatusOK, tmplCreate, page{Title: "New product"})
}

func (h *Handler) Create(c *gin.Context) {
	form := readForm(c)

	if _, err := h.api.Create(c.Request.Context(), form); err != nil {
		addFlash(c, levelError, h.describe("could not create product", err))
		h.render(c, http.StatusOK, tmplCreate, page{Title: "New product", Form: form})
		return
	}

	addFlash(c, levelSuccess, "product created successfully")
	redirect(c, listPath)
}

func (h *Handler) EditForm(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.NotFound(c)
		return
	}

	p, err := h.api.Get(c.Request.Context(), id)
	if err != nil {
		h.failToList(c, "could not load product", err)
		return
	}
	h.render(c, http.StatusOK, tmplEdit, page{Title: "Edit " + p.Nombre, ID: id, Form: formFromProduct(p)})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	form := readForm(c)

	_, err := h.api.Update(c.Request.Context(), id, form)
	var apiErr *APIError
	switch {
	case err == nil:
		addFlash(c, levelSuccess, "product updated successfully")
		redirect(c, detailPath(id))
	case errors.As(err, &apiErr):
		addFlash(c, levelError, h.describe("could not update product", err))
		h.render(c, http.StatusOK, tmplEdit, page{Title: "Edit product", ID: id, Form: form})
	default:
		addFlash(c, levelError, h.describe("could not update product", err))
		redirect(c, listPath)
	}
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.NotFound(c)
		return
	}

	if err := h.api.Delete(c.Request.Context(), id); err != nil {
		h.failToList(c, "could not delete product", err)
		return
	}

	addFlash(c, levelSuccess, "product deleted successfully")
	redirect(c, listPath)
}

func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, tmplNotFound, page{Title: "Page not found"})
}

// InternalError renders the error page. It answers recovered panics.
func (h *Handler) InternalError(c *gin.Context) {
	c.HTML(http.StatusInternalServerError, tmplError, page{Title: "Something went wrong"})
}

func (h *Handler) failToList(c *gin.Context, action string, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.NotFound() {
		addFlash(c, levelError, "product not found")
	} else {
		addFlash(c, levelError, h.describe(action, err))
	}
	redirect(c, listPath)
}

// describe turns a client error into the message shown to the user.
func (h *Handler) describe(action string, err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%s: %s", action, apiErr.Message)
	case errors.Is(err, ErrTimeout):
		return "the inventory API took too long to respond"
	case errors.Is(err, ErrUnavailable):
		return fmt.Sprintf("could not connect to the inventory API at %s, make sure it is running", h.apiURL)
	default:
		h.logger.Error("unexpected API client error", "action", action, "error", err)
		return fmt.Sprintf("unexpected error: %v", err)
	}
}

func (h *Handler) render(c *gin.Context, status int, name string, p page) {
	p.Flashes = takeFlashes(c)
	c.HTML(status, name, p)
}

func readForm(c *gin.Context) Form {
	return Form{
		Nombre:           strings.TrimSpace(c.PostForm("nombre")),
		Categoria:        strings.TrimSpace(c.PostForm("categoria")),
		Descripcion:      strings.TrimSpace(c.PostForm("descripcion")),
		Precio:           c.PostForm("precio"),
		Cantidad:         c.PostForm("cantidad"),
		FechaVencimiento: strings.TrimSpace(c.PostForm("fecha_vencimiento")),
	}
}

func pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

func detailPath(id int64) string {
	return listPath + strconv.FormatInt(id, 10) + "/"
}
