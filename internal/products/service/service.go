package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inventory-manager/internal/products"

	"github.com/prometheus/client_golang/prometheus"
)

// Store loads and saves the whole inventory document.
type Store interface {
	Load(ctx context.Context) ([]products.Product, error)
	Save(ctx context.Context, inventory []products.Product) error
}

type Publisher interface {
	Publish(ctx context.Context, event products.ProductEvent) error
}

type Metrics struct {
	Created prometheus.Counter
	Updated prometheus.Counter
	Deleted prometheus.Counter
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   Metrics
	now       func() time.Time

	// mu serialises read-modify-write cycles inside this process only.
	mu sync.Mutex
}

func New(store Store, publisher Publisher, logger *slog.Logger, metrics Metrics) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]products.Product, error) {
	inventory, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("store load: %w", err)
	}
	return inventory, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (products.Product, error) {
	inventory, err := s.store.Load(ctx)
	if err != nil {
		return products.Product{}, fmt.Errorf("store load: %w", err)
	}

	i := products.IndexOf(inventory, id)
	if i < 0 {
		return products.Product{}, products.ErrNotFound
	}
	return inventory[i], nil
}

func (s *Service) CreateProduct(ctx context.Context, in products.Input) (products.Product, error) {
	fields, err := products.Parse(in)
	if err != nil {
		return products.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inventory, err := s.store.Load(ctx)
	if err != nil {
		return products.Product{}, fmt.Errorf("store load: %w", err)
	}

	product := products.Product{
		ID:            products.NextID(inventory),
		FechaCreacion: s.timestamp(),
	}
	apply(&product, fields)

	inventory = append(inventory, product)
	if err := s.store.Save(ctx, inventory); err != nil {
		return products.Product{}, fmt.Errorf("store save: %w", err)
	}

	s.publish(ctx, products.EventCreated, product)
	s.metrics.Created.Inc()
	return product, nil
}

// UpdateProduct replaces every field of the product except id and
// fecha_creacion. The input is validated before the product is looked up.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in products.Input) (products.Product, error) {
	fields, err := products.Parse(in)
	if err != nil {
		return products.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inventory, err := s.store.Load(ctx)
	if err != nil {
		return products.Product{}, fmt.Errorf("store load: %w", err)
	}

	i := products.IndexOf(inventory, id)
	if i < 0 {
		return products.Product{}, products.ErrNotFound
	}

	product := &inventory[i]
	apply(product, fields)
	product.FechaActualizacion = s.timestamp()

	if err := s.store.Save(ctx, inventory); err != nil {
		return products.Product{}, fmt.Errorf("store save: %w", err)
	}

	s.publish(ctx, products.EventUpdated, *product)
	s.metrics.Updated.Inc()
	return *product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inventory, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("store load: %w", err)
	}

	i := products.IndexOf(inventory, id)
	if i < 0 {
		return products.ErrNotFound
	}
	removed := inventory[i]

	kept := make([]products.Product, 0, len(inventory)-1)
	for _, p := range inventory {
		if p.ID != id {
			kept = append(kept, p)
		}
	}

	if err := s.store.Save(ctx, kept); err != nil {
		return fmt.Errorf("store save: %w", err)
	}

	s.publish(ctx, products.EventDeleted, removed)
	s.metrics.Deleted.Inc()
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, product products.Product) {
	if err := s.publisher.Publish(ctx, products.ProductEvent{
		EventType: eventType,
		ProductID: product.ID,
		Nombre:    product.Nombre,
		Timestamp: s.now().UTC(),
	}); err != nil {
		s.logger.Error("publish "+eventType+" event failed",
			"product_id", product.ID,
			"error", err,
		)
	}
}

func (s *Service) timestamp() string {
	return s.now().Format(products.TimestampLayout)
}

func apply(p *products.Product, f products.Fields) {
	p.Nombre = f.Nombre
	p.Categoria = f.Categoria
	p.Descripcion = f.Descripcion
	p.Precio = f.Precio
	p.Cantidad = f.Cantidad
	p.FechaVencimiento = f.FechaVencimiento
}
