package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inventory-manager/internal/products"
)

const maxResponseBytes = 4 << 20

var (
	ErrUnavailable = errors.New("inventory API unavailable")
	ErrTimeout     = errors.New("inventory API timed out")
)

// APIError is a non-success answer from the inventory API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inventory API status %d: %s", e.Status, e.Message)
}

func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Form is a product as typed into the HTML form. Values are sent verbatim
// and validated by the API.
type Form struct {
	Nombre           string `json:"nombre"`
	Categoria        string `json:"categoria"`
	Descripcion      string `json:"descripcion"`
	Precio           string `json:"precio"`
	Cantidad         string `json:"cantidad"`
	FechaVencimiento string `json:"fecha_vencimiento"`
}

func formFromProduct(p products.Product) Form {
	return Form{
		Nombre:           p.Nombre,
		Categoria:        p.Categoria,
		Descripcion:      p.Descripcion,
		Precio:           strconv.FormatFloat(p.Precio, 'f', -1, 64),
		Cantidad:         strconv.Itoa(p.Cantidad),
		FechaVencimiento: p.FechaVencimiento,
	}
}

// Client calls the inventory HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Errores []string        `json:"errores"`
}

func (c *Client) List(ctx context.Context) ([]products.Product, error) {
	var items []products.Product
	if err := c.do(ctx, http.MethodGet, "", nil, http.StatusOK, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []products.Product{}
	}
	return items, nil
}

func (c *Client) Get(ctx context.Context, id int64) (products.Product, error) {
	var p products.Product
	if err := c.do(ctx, http.MethodGet, idPath(id), nil, http.StatusOK, &p); err != nil {
		return products.Product{}, err
	}
	return p, nil
}

func (c *Client) Create(ctx context.Context, f Form) (products.Product, error) {
	var p products.Product
	if err := c.do(ctx, http.MethodPost, "", f, http.StatusCreated, &p); err != nil {
		return products.Product{}, err
	}
	return p, nil
}

func (c *Client) Update(ctx context.Context, id int64, f Form) (products.Product, error) {
	var p products.Product
	if err := c.do(ctx, http.MethodPut, idPath(id), f, http.StatusOK, &p); err != nil {
		return products.Product{}, err
	}
	return p, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath(id), nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode != wantStatus {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// errorMessage picks the human readable part of an error body: the error
// field, else the validation messages, else a generic text.
func errorMessage(status int, raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Sprintf("API connection error (status %d)", status)
	}
	switch {
	case env.Error != nil:
		return *env.Error
	case env.Errores != nil:
		return strings.Join(env.Errores, ", ")
	default:
		return "unknown API error"
	}
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func idPath(id int64) string {
	return "/" + strconv.FormatInt(id, 10)
}
