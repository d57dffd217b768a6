package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"product-import-service/internal/events"
	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

var (
	ErrSKUExists      = errors.New("a product with this SKU already exists")
	ErrInvalidProduct = errors.New("invalid product")
)

// ProductStore is the persistence used by CatalogService
type ProductStore interface {
	CreateProduct(ctx context.Context, tenantID string, product *models.Product) error
	SKUExistsForTenant(ctx context.Context, tenantID, sku string) (bool, error)
}

// EventPublisher announces created products
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, product *models.Product, tenantID string, actor events.Actor, source string) error
}

type actorKey struct{}
type sourceKey struct{}

// WithActor attaches the acting user to ctx for event attribution
func WithActor(ctx context.Context, actor events.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// WithSource tags products created under ctx with their origin ("api", "import")
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// CatalogService is the local create-product operation
type CatalogService struct {
	store     ProductStore
	publisher EventPublisher
	validate  *validator.Validate
	currency  string
	logger    *logrus.Entry
}

var _ importer.ProductCreator = (*CatalogService)(nil)

// NewCatalogService creates the catalog service. publisher may be nil.
func NewCatalogService(store ProductStore, publisher EventPublisher, currency string, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		store:     store,
		publisher: publisher,
		validate:  validator.New(),
		currency:  currency,
		logger:    logger.WithField("component", "catalog"),
	}
}

// CreateProduct validates and stores one product
func (s *CatalogService) CreateProduct(ctx context.Context, tenantID, userID string, req *models.CreateProductRequest) (*models.Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, describeValidation(err))
	}

	exists, err := s.store.SKUExistsForTenant(ctx, tenantID, req.SKU)
	if err != nil {
		return nil, fmt.Errorf("failed to check SKU: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrSKUExists, req.SKU)
	}

	product := BuildProduct(req, s.currency)
	if userID != "" {
		product.CreatedBy = &userID
		product.UpdatedBy = &userID
	}

	if err := s.store.CreateProduct(ctx, tenantID, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if s.publisher != nil {
		actor, ok := ctx.Value(actorKey{}).(events.Actor)
		if !ok {
			actor = events.Actor{ID: userID}
		}
		source, _ := ctx.Value(sourceKey{}).(string)
		if source == "" {
			source = "api"
		}
		if err := s.publisher.PublishProductCreated(ctx, product, tenantID, actor, source); err != nil {
			s.logger.WithError(err).WithField("productID", product.ID).Warn("Failed to publish product created event")
		}
	}

	return product, nil
}

func describeValidation(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s cannot be less than %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

// BuildProduct converts the flat create payload into the stored product.
// Prices are kept as two-decimal strings.
func BuildProduct(req *models.CreateProductRequest, currency string) *models.Product {
	p := &models.Product{
		Title:       req.Title,
		SKU:         req.SKU,
		Slug:        optional(req.Slug),
		Brand:       optional(req.Brand),
		Category:    optional(req.Category),
		Subcategory: optional(req.Subcategory),
		Tags:        models.StringList(req.Tags),
		Description: optional(req.Description),

		Price:         formatPrice(req.Price),
		OriginalPrice: optionalPrice(req.OriginalPrice),
		CostPrice:     optionalPrice(req.CostPrice),
		TaxRate:       optionalPrice(req.TaxRate),
		CurrencyCode:  optional(currency),

		Stock:    req.Stock,
		MinStock: req.MinStock,
		MaxStock: req.MaxStock,

		Status:     req.Status,
		Featured:   req.Featured,
		Visibility: req.Visibility,
		LaunchDate: optional(req.LaunchDate),

		MetaTitle:       optional(req.MetaTitle),
		MetaDescription: optional(req.MetaDescription),
		Keywords:        models.StringList(req.Keywords),

		Images:     models.StringList(req.Images),
		Variations: req.Variations,
		Attributes: req.Attributes,
	}

	if p.Status == "" {
		p.Status = models.ProductStatusDraft
	}
	if p.Visibility == "" {
		p.Visibility = models.VisibilityPublic
	}

	if req.Weight > 0 || req.Length > 0 || req.Width > 0 || req.Height > 0 {
		p.Dimensions = &models.Dimensions{
			Weight: req.Weight,
			Length: req.Length,
			Width:  req.Width,
			Height: req.Height,
		}
	}
	if req.IsDigital {
		p.Digital = &models.DigitalInfo{DownloadURL: req.DownloadURL, LicenseKey: req.LicenseKey}
	}
	if req.IsSubscription {
		interval := req.SubscriptionInterval
		if interval == "" {
			interval = importer.DefaultSubscriptionInterval
		}
		p.Subscription = &models.SubscriptionInfo{Interval: interval, Price: formatPrice(req.SubscriptionPrice)}
	}
	if req.IsPreOrder {
		p.PreOrder = &models.PreOrderInfo{Date: req.PreOrderDate, Price: optionalPrice(req.PreOrderPrice)}
	}
	return p
}

func formatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func optionalPrice(v float64) *string {
	if v <= 0 {
		return nil
	}
	s := formatPrice(v)
	return &s
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
