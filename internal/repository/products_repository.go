package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"product-import-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Single product cache
	ProductListCacheTTL = 2 * time.Minute // Product list cache (shorter due to bulk imports)
)

// ErrProductNotFound is returned when a product does not exist for the tenant
var ErrProductNotFound = errors.New("product not found")

type ProductsRepository struct {
	db    *gorm.DB
	cache *cache.CacheLayer
}

func NewProductsRepository(db *gorm.DB, redis *redis.Client) *ProductsRepository {
	repo := &ProductsRepository{
		db: db,
	}

	// Initialize CacheLayer with the existing Redis client
	if redis != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: ProductCacheTTL,
			KeyPrefix:  "tesseract:product-import:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redis, cacheConfig)
	}

	return repo
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(tenantID string, prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s:%s:%s", prefix, tenantID, hex.EncodeToString(hash[:]))
}

// invalidateTenantProductListCaches invalidates all product list caches for a tenant
func (r *ProductsRepository) invalidateTenantProductListCaches(ctx context.Context, tenantID string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("products:list:%s:*", tenantID))
}

// CacheStats returns cache statistics
func (r *ProductsRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}

// CreateProduct creates a new product
func (r *ProductsRepository) CreateProduct(ctx context.Context, tenantID string, product *models.Product) error {
	product.TenantID = tenantID
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	// Ensure product has an ID before generating slug (for uniqueness)
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	// Generate slug from title if not provided or empty
	if product.Slug == nil || *product.Slug == "" {
		baseSlug := generateSlug(product.Title)
		uniqueSlug := fmt.Sprintf("%s-%s", baseSlug, product.ID.String()[:8])
		product.Slug = &uniqueSlug
	}

	err := r.db.WithContext(ctx).Create(product).Error
	if err == nil {
		// Invalidate list caches as a new product was added
		r.invalidateTenantProductListCaches(ctx, tenantID)
	}
	return err
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	load := func() (*models.Product, error) {
		var p models.Product
		err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, productID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, err
		}
		return &p, nil
	}

	if r.cache != nil {
		cacheKey := fmt.Sprintf("product:%s:%s", tenantID, productID.String())
		var product models.Product
		err := r.cache.GetOrSetJSON(ctx, cacheKey, &product, ProductCacheTTL, func() (any, error) {
			return load()
		})
		if err != nil {
			return nil, err
		}
		return &product, nil
	}

	return load()
}

// GetProducts retrieves products with filters and pagination
func (r *ProductsRepository) GetProducts(ctx context.Context, tenantID string, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	if r.cache != nil {
		cacheKey := generateListCacheKey(tenantID, "products:list", req)
		var result productListResult
		err := r.cache.GetOrSetJSON(ctx, cacheKey, &result, ProductListCacheTTL, func() (any, error) {
			products, total, err := r.queryProducts(ctx, tenantID, req)
			if err != nil {
				return nil, err
			}
			return &productListResult{Products: products, Total: total}, nil
		})
		if err != nil {
			return nil, 0, err
		}
		return result.Products, result.Total, nil
	}

	return r.queryProducts(ctx, tenantID, req)
}

type productListResult struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

func (r *ProductsRepository) queryProducts(ctx context.Context, tenantID string, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Search != "" {
		term := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(sku) LIKE ?)", term, term)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// SKUExistsForTenant checks if a SKU already exists for a tenant
func (r *ProductsRepository) SKUExistsForTenant(ctx context.Context, tenantID, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ? AND sku = ?", tenantID, sku).
		Count(&count).Error
	return count > 0, err
}

// generateSlug creates a URL-friendly slug from a name
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	var result strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
