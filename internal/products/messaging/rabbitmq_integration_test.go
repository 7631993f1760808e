//go:build integration

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"inventory-manager/internal/products"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	rabbitImage = "rabbitmq:3.13-alpine"
	amqpPort    = "5672/tcp"
	testQueue   = "inventory.events.test"
)

func setupRabbit(t *testing.T) *amqp.Connection {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        rabbitImage,
			ExposedPorts: []string{amqpPort},
			WaitingFor: wait.ForLog("Server startup complete").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start rabbitmq container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, amqpPort)
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	conn, err := amqp.Dial(fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port()))
	if err != nil {
		t.Fatalf("dial rabbitmq: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestRabbitPublisher_PublishDeliversEvent(t *testing.T) {
	conn := setupRabbit(t)

	publisher, err := NewRabbitPublisher(conn, testQueue)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	t.Cleanup(func() { _ = publisher.Close() })

	event := products.ProductEvent{
		EventType: products.EventCreated,
		ProductID: 7,
		Nombre:    "Leche",
		Timestamp: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("open channel: %v", err)
	}
	defer ch.Close()

	var msg amqp.Delivery
	deadline := time.Now().Add(5 * time.Second)
	for {
		var ok bool
		msg, ok, err = ch.Get(testQueue, true)
		if err != nil {
			t.Fatalf("get message: %v", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no message delivered")
		}
		time.Sleep(50 * time.Millisecond)
	}

	if msg.Type != products.EventCreated {
		t.Fatalf("want message type %q, got %q", products.EventCreated, msg.Type)
	}
	if msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("want persistent delivery, got %d", msg.DeliveryMode)
	}

	var got products.ProductEvent
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.EventType != event.EventType || got.ProductID != event.ProductID ||
		got.Nombre != event.Nombre || !got.Timestamp.Equal(event.Timestamp) {
		t.Fatalf("want %+v, got %+v", event, got)
	}
}
