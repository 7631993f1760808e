package notifications

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"inventory-manager/internal/products"
)

func TestConsumer_Handle(t *testing.T) {
	valid, _ := json.Marshal(products.ProductEvent{
		EventType: products.EventUpdated,
		ProductID: 7,
		Nombre:    "Queso",
		Timestamp: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	})

	tests := []struct {
		name          string
		body          []byte
		wantMalformed bool
		wantLog       string
	}{
		{name: "known event is logged", body: valid, wantLog: `"product_id":7`},
		{name: "invalid json", body: []byte("{"), wantMalformed: true},
		{name: "unknown event type", body: []byte(`{"event_type":"product_sold"}`), wantMalformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := &Consumer{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

			err := c.Handle(tt.body)

			if tt.wantMalformed {
				if !errors.Is(err, errMalformed) {
					t.Fatalf("want malformed error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.wantLog) {
				t.Fatalf("want log containing %s, got %s", tt.wantLog, buf.String())
			}
		})
	}
}
