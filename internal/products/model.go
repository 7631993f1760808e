package products

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("product not found")

const (
	EventsQueue  = "inventory.events"
	EventCreated = "product_created"
	EventUpdated = "product_updated"
	EventDeleted = "product_deleted"
)

// TimestampLayout is the layout of fecha_creacion and fecha_actualizacion.
const TimestampLayout = "2006-01-02 15:04:05"

// Product is one inventory record as stored in the JSON document.
type Product struct {
	ID                 int64   `json:"id" example:"1"`
	Nombre             string  `json:"nombre" example:"Milk"`
	Categoria          string  `json:"categoria" example:"Dairy"`
	Descripcion        string  `json:"descripcion" example:"Whole milk 1L"`
	Precio             float64 `json:"precio" example:"2.5"`
	Cantidad           int     `json:"cantidad" example:"10"`
	FechaVencimiento   string  `json:"fecha_vencimiento" example:"2026-12-31"`
	FechaCreacion      string  `json:"fecha_creacion" example:"2026-10-18 09:30:00"`
	FechaActualizacion string  `json:"fecha_actualizacion,omitempty" example:"2026-10-19 11:00:00"`
}

// Input is a raw product payload as decoded from a JSON request body.
type Input map[string]any

type ProductEvent struct {
	EventType string    `json:"event_type"`
	ProductID int64     `json:"product_id"`
	Nombre    string    `json:"nombre,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NextID returns 1 + the highest id in inventory, or 1 when it is empty.
func NextID(inventory []Product) int64 {
	var max int64
	for _, p := range inventory {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

// IndexOf returns the position of the product with the given id, or -1.
func IndexOf(inventory []Product, id int64) int {
	for i, p := range inventory {
		if p.ID == id {
			return i
		}
	}
	return -1
}
