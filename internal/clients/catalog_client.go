package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

// CatalogClient creates products through a remote catalog service
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

var _ importer.ProductCreator = (*CatalogClient)(nil)

// NewCatalogClient creates a new catalog client
func NewCatalogClient(baseURL string, logger *logrus.Logger) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.WithField("component", "catalog-client"),
	}
}

// CreateProduct posts one product to the catalog service
func (c *CatalogClient) CreateProduct(ctx context.Context, tenantID, userID string, product *models.CreateProductRequest) (*models.Product, error) {
	body, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/products", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	// Use Istio JWT claim headers for authentication
	req.Header.Set("x-jwt-claim-tenant-id", tenantID)
	if userID != "" {
		req.Header.Set("x-jwt-claim-sub", userID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("sku", product.SKU).Error("Error calling catalog API")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr models.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%s: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("failed to create product: %d - %s", resp.StatusCode, string(data))
	}

	var result models.ProductResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if result.Data == nil {
		return nil, fmt.Errorf("catalog response has no product")
	}
	return result.Data, nil
}
