package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportState is the step an import session is in
type ImportState string

const (
	ImportStateUpload   ImportState = "upload"
	ImportStateReview   ImportState = "review"
	ImportStateComplete ImportState = "complete"
)

// ImportedProduct is one parsed, non-header line of an uploaded file.
// Errors and Warnings are computed by validation and are never part of the input.
type ImportedProduct struct {
	Line int `json:"line"`

	Title       string   `json:"title"`
	SKU         string   `json:"sku"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`

	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice"`
	CostPrice     float64 `json:"costPrice"`
	TaxRate       float64 `json:"taxRate"`

	Stock    int     `json:"stock"`
	MinStock int     `json:"minStock"`
	MaxStock int     `json:"maxStock"`
	Weight   float64 `json:"weight"`
	Length   float64 `json:"length"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`

	Status     ProductStatus `json:"status"`
	Featured   bool          `json:"featured"`
	Visibility Visibility    `json:"visibility"`
	LaunchDate string        `json:"launchDate"`

	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	Slug            string   `json:"slug"`
	Keywords        []string `json:"keywords"`

	IsDigital   bool   `json:"isDigital"`
	DownloadURL string `json:"downloadUrl"`
	LicenseKey  string `json:"licenseKey"`

	IsSubscription       bool    `json:"isSubscription"`
	SubscriptionInterval string  `json:"subscriptionInterval"`
	SubscriptionPrice    float64 `json:"subscriptionPrice"`

	IsPreOrder    bool    `json:"isPreOrder"`
	PreOrderDate  string  `json:"preOrderDate"`
	PreOrderPrice float64 `json:"preOrderPrice"`

	Images     []string            `json:"images"`
	Variations map[string][]string `json:"variations"`
	Attributes map[string]string   `json:"attributes"`

	// Parser notes about coerced values; surfaced as warnings during validation
	Notes []string `json:"notes,omitempty"`

	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Valid reports whether the record has no validation errors
func (p *ImportedProduct) Valid() bool {
	return len(p.Errors) == 0
}

// ToCreateRequest flattens the record into the create-product payload
func (p *ImportedProduct) ToCreateRequest() *CreateProductRequest {
	return &CreateProductRequest{
		Title:                p.Title,
		SKU:                  p.SKU,
		Brand:                p.Brand,
		Category:             p.Category,
		Subcategory:          p.Subcategory,
		Tags:                 p.Tags,
		Description:          p.Description,
		Price:                p.Price,
		OriginalPrice:        p.OriginalPrice,
		CostPrice:            p.CostPrice,
		TaxRate:              p.TaxRate,
		Stock:                p.Stock,
		MinStock:             p.MinStock,
		MaxStock:             p.MaxStock,
		Weight:               p.Weight,
		Length:               p.Length,
		Width:                p.Width,
		Height:               p.Height,
		Status:               p.Status,
		Featured:             p.Featured,
		Visibility:           p.Visibility,
		LaunchDate:           p.LaunchDate,
		MetaTitle:            p.MetaTitle,
		MetaDescription:      p.MetaDescription,
		Slug:                 p.Slug,
		Keywords:             p.Keywords,
		IsDigital:            p.IsDigital,
		DownloadURL:          p.DownloadURL,
		LicenseKey:           p.LicenseKey,
		IsSubscription:       p.IsSubscription,
		SubscriptionInterval: p.SubscriptionInterval,
		SubscriptionPrice:    p.SubscriptionPrice,
		IsPreOrder:           p.IsPreOrder,
		PreOrderDate:         p.PreOrderDate,
		PreOrderPrice:        p.PreOrderPrice,
		Images:               p.Images,
		Variations:           p.Variations,
		Attributes:           p.Attributes,
	}
}

// SubmissionResult is the outcome of creating one selected record
type SubmissionResult struct {
	Index     int    `json:"index"`
	Line      int    `json:"line"`
	SKU       string `json:"sku"`
	Success   bool   `json:"success"`
	ProductID string `json:"productId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ImportTally summarises a submission
type ImportTally struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ImportSummary is the pre-submission overview of a session
type ImportSummary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Warned   int `json:"warned"`
	Errored  int `json:"errored"`
	Selected int `json:"selected"`
}

// ImportSessionView is the API representation of an import session
type ImportSessionView struct {
	ID        string             `json:"id"`
	FileName  string             `json:"fileName"`
	State     ImportState        `json:"state"`
	Summary   ImportSummary      `json:"summary"`
	Records   []*ImportedProduct `json:"records"`
	Selected  []int              `json:"selected"`
	Results   []SubmissionResult `json:"results,omitempty"`
	Tally     *ImportTally       `json:"tally,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ImportSessionResponse wraps a session view
type ImportSessionResponse struct {
	Success bool               `json:"success"`
	Data    *ImportSessionView `json:"data"`
	Message *string            `json:"message,omitempty"`
}

// SelectionRequest changes the selection in bulk
type SelectionRequest struct {
	Mode string `json:"mode" binding:"required,oneof=all_valid none"`
}

// ImportRun is the audit record of a completed import
type ImportRun struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string         `json:"tenantId" gorm:"not null;index:idx_import_runs_tenant_created"`
	SessionID   string         `json:"sessionId" gorm:"not null;uniqueIndex"`
	FileName    string         `json:"fileName"`
	TotalRows   int            `json:"totalRows"`
	Attempted   int            `json:"attempted"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Results     datatypes.JSON `json:"results" gorm:"type:jsonb"`
	SubmittedBy *string        `json:"submittedBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"index:idx_import_runs_tenant_created"`
}

// TableName returns the table name for the ImportRun model
func (ImportRun) TableName() string {
	return "product_import_runs"
}

// ImportRunListResponse lists completed imports
type ImportRunListResponse struct {
	Success    bool            `json:"success"`
	Data       []ImportRun     `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, integer, boolean, list, map
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "title", Description: "Product title", Required: true, Type: "string", Example: "Hardware Wallet X1"},
		{Name: "sku", Description: "Unique product SKU", Required: true, Type: "string", Example: "HW-X1-BLK"},
		{Name: "brand", Description: "Brand name", Type: "string", Example: "Ledgerly"},
		{Name: "category", Description: "Category name", Type: "string", Example: "Hardware Wallets"},
		{Name: "subcategory", Description: "Subcategory name", Type: "string", Example: "Cold Storage"},
		{Name: "tags", Description: "Pipe-separated tags", Type: "list", Example: "wallet|security|bitcoin"},
		{Name: "description", Description: "Product description", Type: "string", Example: "Air-gapped hardware wallet"},
		{Name: "price", Description: "Selling price, must be greater than 0", Required: true, Type: "number", Example: "149.99"},
		{Name: "originalPrice", Description: "Original/compare price", Type: "number", Example: "179.99"},
		{Name: "costPrice", Description: "Cost price", Type: "number", Example: "80"},
		{Name: "taxRate", Description: "Tax rate in percent", Type: "number", Example: "8.5"},
		{Name: "stock", Description: "Initial stock quantity", Type: "integer", Example: "25"},
		{Name: "minStock", Description: "Low stock threshold (default 5)", Type: "integer", Example: "5"},
		{Name: "maxStock", Description: "Maximum stock level (default 100)", Type: "integer", Example: "100"},
		{Name: "weight", Description: "Weight (kg)", Type: "number", Example: "0.2"},
		{Name: "length", Description: "Length (cm)", Type: "number", Example: "10"},
		{Name: "width", Description: "Width (cm)", Type: "number", Example: "6"},
		{Name: "height", Description: "Height (cm)", Type: "number", Example: "1.5"},
		{Name: "status", Description: "draft, active, inactive or out_of_stock (default draft)", Type: "string", Example: "active"},
		{Name: "featured", Description: "true to feature the product", Type: "boolean", Example: "false"},
		{Name: "visibility", Description: "public, private, hidden, catalog or search (default public)", Type: "string", Example: "public"},
		{Name: "launchDate", Description: "Launch date (YYYY-MM-DD)", Type: "string", Example: "2026-01-15"},
		{Name: "metaTitle", Description: "SEO title", Type: "string", Example: "Hardware Wallet X1"},
		{Name: "metaDescription", Description: "SEO description", Type: "string", Example: "Secure your coins offline"},
		{Name: "slug", Description: "URL slug", Type: "string", Example: "hardware-wallet-x1"},
		{Name: "keywords", Description: "Pipe-separated SEO keywords", Type: "list", Example: "hardware wallet|cold storage"},
		{Name: "isDigital", Description: "true for downloadable products", Type: "boolean", Example: "false"},
		{Name: "downloadUrl", Description: "Download URL for digital products", Type: "string", Example: ""},
		{Name: "licenseKey", Description: "License key for digital products", Type: "string", Example: ""},
		{Name: "isSubscription", Description: "true for subscription products", Type: "boolean", Example: "false"},
		{Name: "subscriptionInterval", Description: "Billing interval (default monthly)", Type: "string", Example: ""},
		{Name: "subscriptionPrice", Description: "Price per interval, required for subscriptions", Type: "number", Example: ""},
		{Name: "isPreOrder", Description: "true for pre-order products", Type: "boolean", Example: "false"},
		{Name: "preOrderDate", Description: "Expected ship date for pre-orders", Type: "string", Example: ""},
		{Name: "preOrderPrice", Description: "Pre-order price", Type: "number", Example: ""},
		{Name: "images", Description: "Pipe-separated image URLs", Type: "list", Example: "https://cdn.example.com/x1-front.jpg|https://cdn.example.com/x1-back.jpg"},
		{Name: "variations", Description: "JSON object or axis:opt1|opt2;axis2:opt", Type: "map", Example: "color:black|silver"},
		{Name: "attributes", Description: "JSON object or key:value;key2:value2", Type: "map", Example: "chip:secure element;connectivity:usb-c"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	columns := ProductImportColumns()
	sample := make(map[string]string, len(columns))
	for _, col := range columns {
		sample[col.Name] = col.Example
	}
	return ImportTemplate{
		Entity:     "products",
		Version:    "2.0",
		Columns:    columns,
		SampleData: []map[string]string{sample},
	}
}
