package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"product-import-service/internal/events"
	"product-import-service/internal/importer"
	"product-import-service/internal/middleware"
	"product-import-service/internal/models"
	"product-import-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
)

// DefaultMaxUploadBytes caps the size of an uploaded import file
const DefaultMaxUploadBytes int64 = 10 << 20

var allowedImportExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".xlsx": true,
}

// ImportRunLister reads the import audit trail
type ImportRunLister interface {
	ListRuns(ctx context.Context, tenantID string, page, limit int) ([]models.ImportRun, int64, error)
}

type ImportHandler struct {
	service        *importer.Service
	runs           ImportRunLister
	maxUploadBytes int64
	logger         *logrus.Entry
}

func NewImportHandler(service *importer.Service, runs ImportRunLister, maxUploadBytes int64, logger *logrus.Logger) *ImportHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ImportHandler{
		service:        service,
		runs:           runs,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.WithField("component", "import-handler"),
	}
}

type errorMapping struct {
	status int
	code   string
}

// importErrors maps importer failures to HTTP responses
var importErrors = []struct {
	err error
	errorMapping
}{
	{importer.ErrSessionNotFound, errorMapping{http.StatusNotFound, "SESSION_NOT_FOUND"}},
	{importer.ErrUnsupportedFormat, errorMapping{http.StatusBadRequest, "INVALID_FORMAT"}},
	{importer.ErrUnreadableFile, errorMapping{http.StatusBadRequest, "PARSE_ERROR"}},
	{importer.ErrEmptyFile, errorMapping{http.StatusBadRequest, "EMPTY_FILE"}},
	{importer.ErrInvalidTransition, errorMapping{http.StatusConflict, "INVALID_STATE"}},
	{importer.ErrNothingSelected, errorMapping{http.StatusConflict, "NOTHING_SELECTED"}},
	{importer.ErrRowNotFound, errorMapping{http.StatusNotFound, "ROW_NOT_FOUND"}},
	{importer.ErrRowNotSelectable, errorMapping{http.StatusUnprocessableEntity, "ROW_NOT_SELECTABLE"}},
}

func (h *ImportHandler) respondError(c *gin.Context, err error) {
	for _, m := range importErrors {
		if errors.Is(err, m.err) {
			c.JSON(m.status, errorResponse(m.code, err.Error()))
			return
		}
	}
	h.logger.WithError(err).WithField("path", c.FullPath()).Error("Import request failed")
	c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to process import request"))
}

func (h *ImportHandler) respondSession(c *gin.Context, status int, session *importer.Session, message string) {
	resp := models.ImportSessionResponse{
		Success: true,
		Data:    session.View(),
	}
	if message != "" {
		resp.Message = &message
	}
	c.JSON(status, resp)
}

// GetImportTemplate returns the import template definition or file
// @Summary Download the product import template
// @Tags import
// @Produce json
// @Param format query string false "json, csv or xlsx"
// @Success 200 {object} models.ImportTemplate
// @Router /products/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	template := models.ProductImportTemplate()

	switch c.DefaultQuery("format", "json") {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate writes the header row and one example row
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	example := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
		example[i] = col.Example
	}
	if err := writer.Write(headers); err != nil {
		h.logger.WithError(err).Warn("Failed to write CSV template")
		return
	}
	_ = writer.Write(example)
}

// generateXLSXTemplate writes a workbook with a Products sheet and an Instructions sheet
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Required columns are orange
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		style := headerStyle
		if col.Required {
			headerText = col.Name + " *"
			style = requiredStyle
		}
		f.SetCellValue(sheetName, cell, headerText)
		f.SetCellStyle(sheetName, cell, cell, style)

		exampleCell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, exampleCell, col.Example)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")
	f.SetCellValue("Instructions", "A3", "Fill one product per row on the Products sheet. Columns marked * are required.")
	f.SetCellValue("Instructions", "A4", "Lists (tags, keywords, images) are separated with |.")
	f.SetCellValue("Instructions", "A5", "Variations: JSON object or axis:opt1|opt2;axis2:opt. Attributes: JSON object or key:value;key2:value2.")
	f.SetCellValue("Instructions", "A6", "Rows with errors cannot be selected; rows with warnings can.")

	f.SetCellValue("Instructions", "A8", "Column")
	f.SetCellValue("Instructions", "B8", "Description")
	f.SetCellValue("Instructions", "C8", "Required")
	f.SetCellValue("Instructions", "D8", "Type")
	f.SetCellValue("Instructions", "E8", "Example")

	for i, col := range template.Columns {
		row := i + 9
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Warn("Failed to write XLSX template")
	}
}

// readUpload reads the multipart "file" field, enforcing extension and size limits.
// It writes the error response itself and returns ok=false on failure.
func (h *ImportHandler) readUpload(c *gin.Context) (filename string, data []byte, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("FILE_REQUIRED", "Please upload a CSV or Excel file"))
		return "", nil, false
	}
	defer file.Close()

	filename = filepath.Base(header.Filename)
	if !allowedImportExtensions[strings.ToLower(filepath.Ext(filename))] {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_FORMAT", "Only CSV and XLSX files are supported"))
		return "", nil, false
	}
	if header.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, fileTooLarge(h.maxUploadBytes))
		return "", nil, false
	}

	data, err = io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("PARSE_ERROR", importer.ErrUnreadableFile.Error()))
		return "", nil, false
	}
	if int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, fileTooLarge(h.maxUploadBytes))
		return "", nil, false
	}
	return filename, data, true
}

func fileTooLarge(limit int64) models.ErrorResponse {
	return errorResponse("FILE_TOO_LARGE", fmt.Sprintf("File exceeds the %d byte upload limit", limit))
}

// UploadImport parses a file and opens an import session in review
// @Summary Upload a product import file
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 201 {object} models.ImportSessionResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /products/imports [post]
func (h *ImportHandler) UploadImport(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	session, err := h.service.Upload(c.Request.Context(), tenantID, userID, filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, http.StatusCreated, session, "")
}

// ReloadImport loads a different file into a session that was reset
// @Summary Upload a different file into an import session
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} models.ImportSessionResponse
// @Router /products/imports/{id}/file [post]
func (h *ImportHandler) ReloadImport(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	session, err := h.service.Reload(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"), filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, session, "")
}

// GetImport returns the session state, summary, records and selection
// @Summary Get an import session
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.ImportSessionResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/imports/{id} [get]
func (h *ImportHandler) GetImport(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, session, "")
}

// UpdateSelection selects every valid row or clears the selection
// @Summary Change the selection in bulk
// @Tags import
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body models.SelectionRequest true "all_valid or none"
// @Success 200 {object} models.ImportSessionResponse
// @Router /products/imports/{id}/selection [post]
func (h *ImportHandler) UpdateSelection(c *gin.Context) {
	var req models.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", err.Error()))
		return
	}

	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)
	var (
		session *importer.Session
		err     error
	)
	if req.Mode == "none" {
		session, err = h.service.SelectNone(ctx, tenantID, c.Param("id"))
	} else {
		session, err = h.service.SelectAllValid(ctx, tenantID, c.Param("id"))
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, session, "")
}

// ToggleRow flips the selection of one row
// @Summary Toggle one row
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Param row path int true "Zero-based row index"
// @Success 200 {object} models.ImportSessionResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /products/imports/{id}/rows/{row}/toggle [post]
func (h *ImportHandler) ToggleRow(c *gin.Context) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_ROW", "Row must be a number"))
		return
	}

	session, err := h.service.Toggle(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"), row)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, session, "")
}

// SubmitImport creates every selected product
// @Summary Submit the selected rows
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.ImportSessionResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/imports/{id}/submit [post]
func (h *ImportHandler) SubmitImport(c *gin.Context) {
	actor := gosharedmw.GetActorInfo(c)
	ctx := services.WithActor(c.Request.Context(), events.Actor{
		ID:        actor.ActorID,
		Name:      actor.ActorName,
		Email:     actor.ActorEmail,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	ctx = services.WithSource(ctx, "import")

	session, err := h.service.Submit(ctx, middleware.GetTenantID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := fmt.Sprintf("Imported %d of %d products", session.Tally.Succeeded, session.Tally.Attempted)
	h.respondSession(c, http.StatusOK, session, message)
}

// ResetImport returns the session to the upload step
// @Summary Go back to upload
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.ImportSessionResponse
// @Router /products/imports/{id}/reset [post]
func (h *ImportHandler) ResetImport(c *gin.Context) {
	session, err := h.service.Reset(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, session, "")
}

// DiscardImport deletes the session
// @Summary Discard an import session
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse
// @Router /products/imports/{id} [delete]
func (h *ImportHandler) DiscardImport(c *gin.Context) {
	if err := h.service.Discard(c.Request.Context(), middleware.GetTenantID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	message := "Import session discarded"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// ListImportRuns lists completed imports for the tenant
// @Summary Import history
// @Tags import
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ImportRunListResponse
// @Router /products/imports/history [get]
func (h *ImportHandler) ListImportRuns(c *gin.Context) {
	page, limit := pagination(c)

	runs, total, err := h.runs.ListRuns(c.Request.Context(), middleware.GetTenantID(c), page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list import runs")
		c.JSON(http.StatusInternalServerError, errorResponse("FETCH_FAILED", "Failed to retrieve import history"))
		return
	}

	c.JSON(http.StatusOK, models.ImportRunListResponse{
		Success:    true,
		Data:       runs,
		Pagination: paginationInfo(page, limit, total),
	})
}
