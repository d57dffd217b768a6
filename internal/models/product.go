package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusDraft      ProductStatus = "draft"
	ProductStatusActive     ProductStatus = "active"
	ProductStatusInactive   ProductStatus = "inactive"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
)

// IsValid reports whether s is one of the known statuses
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusInactive, ProductStatusOutOfStock:
		return true
	}
	return false
}

// Visibility controls where a product is shown
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityHidden  Visibility = "hidden"
	VisibilityCatalog Visibility = "catalog"
	VisibilitySearch  Visibility = "search"
)

// IsValid reports whether v is one of the known visibilities
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityHidden, VisibilityCatalog, VisibilitySearch:
		return true
	}
	return false
}

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringList type for PostgreSQL JSONB string arrays
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(l))
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Dimensions represents physical product dimensions
type Dimensions struct {
	Weight float64 `json:"weight"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Product represents a catalog product entity
type Product struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string     `json:"tenantId" gorm:"not null;index:idx_products_tenant_id;index:idx_products_tenant_status;index:idx_products_tenant_sku,unique;index:idx_products_tenant_slug,unique"`
	Title       string     `json:"title" gorm:"not null"`
	SKU         string     `json:"sku" gorm:"not null;index:idx_products_tenant_sku,unique"`
	Slug        *string    `json:"slug,omitempty" gorm:"index:idx_products_tenant_slug,unique"`
	Brand       *string    `json:"brand,omitempty" gorm:"index"`
	Category    *string    `json:"category,omitempty" gorm:"index"`
	Subcategory *string    `json:"subcategory,omitempty"`
	Tags        StringList `json:"tags,omitempty" gorm:"type:jsonb"`
	Description *string    `json:"description,omitempty"`

	// Prices are stored as fixed-point strings
	Price         string  `json:"price" gorm:"not null"`
	OriginalPrice *string `json:"originalPrice,omitempty"`
	CostPrice     *string `json:"costPrice,omitempty"`
	TaxRate       *string `json:"taxRate,omitempty"`
	CurrencyCode  *string `json:"currencyCode,omitempty"`

	Stock      int         `json:"stock" gorm:"not null;default:0"`
	MinStock   int         `json:"minStock" gorm:"not null;default:5"`
	MaxStock   int         `json:"maxStock" gorm:"not null;default:100"`
	Dimensions *Dimensions `json:"dimensions,omitempty" gorm:"serializer:json;type:jsonb"`

	Status     ProductStatus `json:"status" gorm:"not null;default:'draft';index:idx_products_tenant_status"`
	Featured   bool          `json:"featured" gorm:"not null;default:false"`
	Visibility Visibility    `json:"visibility" gorm:"not null;default:'public'"`
	LaunchDate *string       `json:"launchDate,omitempty"`

	// SEO metadata
	MetaTitle       *string    `json:"metaTitle,omitempty" gorm:"type:text"`
	MetaDescription *string    `json:"metaDescription,omitempty" gorm:"type:text"`
	Keywords        StringList `json:"keywords,omitempty" gorm:"type:jsonb"`

	// Digital / subscription / pre-order extensions, stored as one JSONB bundle each
	Digital      *DigitalInfo      `json:"digital,omitempty" gorm:"serializer:json;type:jsonb"`
	Subscription *SubscriptionInfo `json:"subscription,omitempty" gorm:"serializer:json;type:jsonb"`
	PreOrder     *PreOrderInfo     `json:"preOrder,omitempty" gorm:"serializer:json;type:jsonb"`

	Images     StringList          `json:"images,omitempty" gorm:"type:jsonb"`
	Variations map[string][]string `json:"variations,omitempty" gorm:"serializer:json;type:jsonb"`
	Attributes map[string]string   `json:"attributes,omitempty" gorm:"serializer:json;type:jsonb"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy *string         `json:"createdBy,omitempty"`
	UpdatedBy *string         `json:"updatedBy,omitempty"`
	Metadata  *JSON           `json:"metadata,omitempty" gorm:"type:jsonb"`
}

// DigitalInfo describes a downloadable product
type DigitalInfo struct {
	DownloadURL string `json:"downloadUrl,omitempty"`
	LicenseKey  string `json:"licenseKey,omitempty"`
}

// SubscriptionInfo describes a recurring product
type SubscriptionInfo struct {
	Interval string `json:"interval"`
	Price    string `json:"price"`
}

// PreOrderInfo describes a product sold before launch
type PreOrderInfo struct {
	Date  string  `json:"date,omitempty"`
	Price *string `json:"price,omitempty"`
}

// CreateProductRequest is the flattened product payload accepted by the create-product
// operation. It carries every imported field except the validation outcome.
type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required"`
	SKU         string   `json:"sku" validate:"required"`
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`

	Price         float64 `json:"price" validate:"gt=0"`
	OriginalPrice float64 `json:"originalPrice" validate:"gte=0"`
	CostPrice     float64 `json:"costPrice" validate:"gte=0"`
	TaxRate       float64 `json:"taxRate" validate:"gte=0"`

	Stock    int     `json:"stock" validate:"gte=0"`
	MinStock int     `json:"minStock" validate:"gte=0"`
	MaxStock int     `json:"maxStock" validate:"gte=0"`
	Weight   float64 `json:"weight" validate:"gte=0"`
	Length   float64 `json:"length" validate:"gte=0"`
	Width    float64 `json:"width" validate:"gte=0"`
	Height   float64 `json:"height" validate:"gte=0"`

	Status     ProductStatus `json:"status,omitempty"`
	Featured   bool          `json:"featured"`
	Visibility Visibility    `json:"visibility,omitempty"`
	LaunchDate string        `json:"launchDate,omitempty"`

	MetaTitle       string   `json:"metaTitle,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	Slug            string   `json:"slug,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`

	IsDigital   bool   `json:"isDigital"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	LicenseKey  string `json:"licenseKey,omitempty"`

	IsSubscription       bool    `json:"isSubscription"`
	SubscriptionInterval string  `json:"subscriptionInterval,omitempty"`
	SubscriptionPrice    float64 `json:"subscriptionPrice" validate:"gte=0"`

	IsPreOrder    bool    `json:"isPreOrder"`
	PreOrderDate  string  `json:"preOrderDate,omitempty"`
	PreOrderPrice float64 `json:"preOrderPrice" validate:"gte=0"`

	Images     []string            `json:"images,omitempty"`
	Variations map[string][]string `json:"variations,omitempty"`
	Attributes map[string]string   `json:"attributes,omitempty"`
}

// ListProductsRequest filters a product listing
type ListProductsRequest struct {
	Page     int    `form:"page" json:"page"`
	Limit    int    `form:"limit" json:"limit"`
	Status   string `form:"status" json:"status,omitempty"`
	Category string `form:"category" json:"category,omitempty"`
	Search   string `form:"search" json:"search,omitempty"`
}

// Response types
type PaginationInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
