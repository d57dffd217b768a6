package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"product-import-service/internal/models"
)

// Defaults applied when a column is missing from the header row or its cell is blank
const (
	DefaultMinStock             = 5
	DefaultMaxStock             = 100
	DefaultStatus               = models.ProductStatusDraft
	DefaultVisibility           = models.VisibilityPublic
	DefaultSubscriptionInterval = "monthly"
)

// FormatOf determines the import format from the uploaded file name
func FormatOf(filename string) (models.ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return models.ImportFormatCSV, nil
	case ".xlsx":
		return models.ImportFormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// Parse parses an uploaded file into records, dispatching on its extension
func Parse(filename string, data []byte) ([]*models.ImportedProduct, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	if format == models.ImportFormatXLSX {
		return ParseXLSX(bytes.NewReader(data))
	}
	return ParseCSV(data)
}

// ParseCSV parses delimited text. Line 0 is the header row; every following
// non-blank line produces exactly one record, however malformed. The only
// error is content that is not text.
func ParseCSV(data []byte) ([]*models.ImportedProduct, error) {
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, ErrUnreadableFile
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	lines := strings.Split(text, "\n")

	header := newHeaderIndex(splitLine(strings.TrimRight(lines[0], "\r")))
	records := make([]*models.ImportedProduct, 0, len(lines))
	for i, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, header.record(splitLine(line), i+2))
	}
	return records, nil
}

// ParseXLSX reads the "Products" sheet (or the first sheet) of a workbook and
// maps it through the same header rules as ParseCSV
func ParseXLSX(r io.Reader) ([]*models.ImportedProduct, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found in Excel file", ErrUnreadableFile)
	}
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheetName = name
			break
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(rows) == 0 {
		return []*models.ImportedProduct{}, nil
	}

	header := newHeaderIndex(rows[0])
	records := make([]*models.ImportedProduct, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		values := make([]string, len(row))
		for j, v := range row {
			values[j] = strings.TrimSpace(v)
		}
		records = append(records, header.record(values, i+2))
	}
	return records, nil
}

// splitLine splits one line on commas, honouring quoted values. A line the
// CSV reader rejects falls back to a plain split with quote trimming.
func splitLine(line string) []string {
	reader := csv.NewReader(strings.NewReader(line))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	fields, err := reader.Read()
	if err != nil {
		fields = strings.Split(line, ",")
		for i := range fields {
			fields[i] = trimQuotes(strings.TrimSpace(fields[i]))
		}
		return fields
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return strings.Trim(s, `"`)
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// canonicalColumn folds a header name so that "originalPrice", "Original Price",
// "original_price" and "ORIGINALPRICE *" all match
func canonicalColumn(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, "*")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)
}

// headerIndex maps canonical column names to their position in the header row
type headerIndex map[string]int

func newHeaderIndex(headers []string) headerIndex {
	idx := make(headerIndex, len(headers))
	for i, h := range headers {
		key := canonicalColumn(h)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// record maps one line's values into an ImportedProduct
func (h headerIndex) record(values []string, line int) *models.ImportedProduct {
	row := rowValues{header: h, values: values}
	p := &models.ImportedProduct{
		Line: line,

		Title:       row.str("title"),
		SKU:         row.str("sku"),
		Brand:       row.str("brand"),
		Category:    row.str("category"),
		Subcategory: row.str("subcategory"),
		Tags:        splitSet(row.str("tags")),
		Description: row.str("description"),

		Price:         parseFloat(row.str("price")),
		OriginalPrice: parseFloat(row.str("originalprice")),
		CostPrice:     parseFloat(row.str("costprice")),
		TaxRate:       parseFloat(row.str("taxrate")),

		Stock:    parseInt(row.str("stock")),
		MinStock: row.intOr("minstock", DefaultMinStock),
		MaxStock: row.intOr("maxstock", DefaultMaxStock),
		Weight:   parseFloat(row.str("weight")),
		Length:   parseFloat(row.str("length")),
		Width:    parseFloat(row.str("width")),
		Height:   parseFloat(row.str("height")),

		Featured:   parseBool(row.str("featured")),
		LaunchDate: row.str("launchdate"),

		MetaTitle:       row.str("metatitle"),
		MetaDescription: row.str("metadescription"),
		Slug:            row.str("slug"),
		Keywords:        splitSet(row.str("keywords")),

		IsDigital:   parseBool(row.str("isdigital")),
		DownloadURL: row.str("downloadurl"),
		LicenseKey:  row.str("licensekey"),

		IsSubscription:       parseBool(row.str("issubscription")),
		SubscriptionInterval: row.strOr("subscriptioninterval", DefaultSubscriptionInterval),
		SubscriptionPrice:    parseFloat(row.str("subscriptionprice")),

		IsPreOrder:    parseBool(row.str("ispreorder")),
		PreOrderDate:  row.str("preorderdate"),
		PreOrderPrice: parseFloat(row.str("preorderprice")),

		Images:     splitList(row.str("images")),
		Variations: parseVariations(row.str("variations")),
		Attributes: parseAttributes(row.str("attributes")),
	}

	p.Status = models.ProductStatus(enumValue(row.str("status")))
	if p.Status == "" {
		p.Status = DefaultStatus
	} else if !p.Status.IsValid() {
		p.Notes = append(p.Notes, fmt.Sprintf("Unknown status %q, using %s", row.str("status"), DefaultStatus))
		p.Status = DefaultStatus
	}

	p.Visibility = models.Visibility(enumValue(row.str("visibility")))
	if p.Visibility == "" {
		p.Visibility = DefaultVisibility
	} else if !p.Visibility.IsValid() {
		p.Notes = append(p.Notes, fmt.Sprintf("Unknown visibility %q, using %s", row.str("visibility"), DefaultVisibility))
		p.Visibility = DefaultVisibility
	}

	return p
}

func enumValue(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// rowValues resolves a column of one line by name
type rowValues struct {
	header headerIndex
	values []string
}

func (r rowValues) str(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

func (r rowValues) strOr(column, def string) string {
	if v := r.str(column); v != "" {
		return v
	}
	return def
}

func (r rowValues) intOr(column string, def int) int {
	v := r.str(column)
	if v == "" {
		return def
	}
	return parseInt(v)
}
