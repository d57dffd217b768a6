package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"product-import-service/internal/events"
	"product-import-service/internal/importer"
	"product-import-service/internal/middleware"
	"product-import-service/internal/models"
	"product-import-service/internal/repository"
	"product-import-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
)

// ProductReader is the read side of the product catalog
type ProductReader interface {
	GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error)
	GetProducts(ctx context.Context, tenantID string, req *models.ListProductsRequest) ([]models.Product, int64, error)
}

type ProductsHandler struct {
	creator importer.ProductCreator
	reader  ProductReader
	logger  *logrus.Entry
}

func NewProductsHandler(creator importer.ProductCreator, reader ProductReader, logger *logrus.Logger) *ProductsHandler {
	return &ProductsHandler{
		creator: creator,
		reader:  reader,
		logger:  logger.WithField("component", "products-handler"),
	}
}

// CreateProduct creates a single product
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body models.CreateProductRequest true "Product"
// @Success 201 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products [post]
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", err.Error()))
		return
	}

	actor := gosharedmw.GetActorInfo(c)
	ctx := services.WithActor(c.Request.Context(), events.Actor{
		ID:        actor.ActorID,
		Name:      actor.ActorName,
		Email:     actor.ActorEmail,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})

	product, err := h.creator.CreateProduct(ctx, tenantID, userID, &req)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", err.Error()))
		return
	case errors.Is(err, services.ErrSKUExists):
		c.JSON(http.StatusConflict, errorResponse("SKU_EXISTS", err.Error()))
		return
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"tenantID": tenantID,
			"sku":      req.SKU,
		}).Error("Failed to create product")
		c.JSON(http.StatusInternalServerError, errorResponse("CREATION_FAILED", "Failed to create product"))
		return
	}

	message := "Product created successfully"
	c.JSON(http.StatusCreated, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: &message,
	})
}

// GetProducts retrieves products list with filtering and pagination
// @Summary List products
// @Tags products
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Status"
// @Param category query string false "Category"
// @Param search query string false "Title or SKU search"
// @Success 200 {object} models.ProductListResponse
// @Router /products [get]
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	var req models.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", err.Error()))
		return
	}
	req.Page, req.Limit = pagination(c)

	products, total, err := h.reader.GetProducts(c.Request.Context(), middleware.GetTenantID(c), &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		c.JSON(http.StatusInternalServerError, errorResponse("FETCH_FAILED", "Failed to retrieve products"))
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: paginationInfo(req.Page, req.Limit, total),
	})
}

// GetProduct retrieves a single product by ID
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_ID", "Invalid product ID format"))
		return
	}

	product, err := h.reader.GetProductByID(c.Request.Context(), middleware.GetTenantID(c), productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, errorResponse("NOT_FOUND", "Product not found"))
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("productID", productID).Error("Failed to get product")
		c.JSON(http.StatusInternalServerError, errorResponse("FETCH_FAILED", "Failed to retrieve product"))
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

func errorResponse(code, message string) models.ErrorResponse {
	return models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	}
}

// pagination reads page/limit query params, clamping limit to 1..100
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func paginationInfo(page, limit int, total int64) *models.PaginationInfo {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.PaginationInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
