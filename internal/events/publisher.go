package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"product-import-service/internal/models"
)

// DefaultNATSURL is the in-cluster NATS service
const DefaultNATSURL = "nats://nats.nats.svc.cluster.local:4222"

// Actor identifies who caused a product change
type Actor struct {
	ID        string
	Name      string
	Email     string
	ClientIP  string
	UserAgent string
}

// Publisher wraps the go-shared events publisher for product-specific events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new product events publisher
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	if natsURL == "" {
		natsURL = DefaultNATSURL
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "product-import-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	// Ensure the products stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "products-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishProductCreated publishes a product.created event. source is "api" or "import".
func (p *Publisher) PublishProductCreated(ctx context.Context, product *models.Product, tenantID string, actor Actor, source string) error {
	event := p.buildProductEvent(events.ProductCreated, product, tenantID)
	event.ActorID = actor.ID
	event.ActorName = actor.Name
	event.ActorEmail = actor.Email
	event.ClientIP = actor.ClientIP
	event.UserAgent = actor.UserAgent
	event.ChangeType = "created"
	event.NewValue = map[string]interface{}{
		"title":  product.Title,
		"price":  product.Price,
		"status": product.Status,
		"source": source,
	}
	return p.publish(ctx, event)
}

// buildProductEvent creates a ProductEvent from a product model
func (p *Publisher) buildProductEvent(eventType string, product *models.Product, tenantID string) *events.ProductEvent {
	event := events.NewProductEvent(eventType, tenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = product.ID.String()
	event.ProductName = product.Title
	event.SKU = product.SKU
	event.Status = string(product.Status)

	if price, err := decimal.NewFromString(product.Price); err == nil {
		event.Price = price.InexactFloat64()
	}

	if product.Category != nil {
		event.CategoryID = *product.Category
	}

	return event
}

// publish is a helper that logs and publishes events asynchronously
func (p *Publisher) publish(ctx context.Context, event *events.ProductEvent) error {
	// Publish asynchronously to not block the main flow
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish product event")
		} else {
			p.logger.WithFields(logrus.Fields{
				"eventType":   event.EventType,
				"productID":   event.ProductID,
				"productName": event.ProductName,
				"tenantID":    event.TenantID,
			}).Info("Product event published successfully")
		}
	}()

	return nil
}
