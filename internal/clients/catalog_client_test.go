package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"product-import-service/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCatalogClientCreateProduct_Success(t *testing.T) {
	id := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		assert.Equal(t, "tenant-1", r.Header.Get("x-jwt-claim-tenant-id"))
		assert.Equal(t, "user-1", r.Header.Get("x-jwt-claim-sub"))

		var req models.CreateProductRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "W1", req.SKU)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.ProductResponse{
			Success: true,
			Data:    &models.Product{ID: id, SKU: req.SKU, Title: req.Title, Price: "10.00"},
		})
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL+"/", quietLogger())
	product, err := client.CreateProduct(context.Background(), "tenant-1", "user-1",
		&models.CreateProductRequest{Title: "Widget", SKU: "W1", Price: 10})

	require.NoError(t, err)
	assert.Equal(t, id, product.ID)
}

func TestCatalogClientCreateProduct_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "SKU_EXISTS", Message: "a product with this SKU already exists"},
		})
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, quietLogger())
	_, err := client.CreateProduct(context.Background(), "tenant-1", "", &models.CreateProductRequest{SKU: "W1"})

	require.Error(t, err)
	assert.Equal(t, "SKU_EXISTS: a product with this SKU already exists", err.Error())
}

func TestCatalogClientCreateProduct_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, quietLogger())
	_, err := client.CreateProduct(context.Background(), "tenant-1", "", &models.CreateProductRequest{SKU: "W1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
