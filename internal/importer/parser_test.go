package importer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"product-import-service/internal/models"
)

func TestParseCSV_MapsColumnsByHeader(t *testing.T) {
	data := []byte("SKU,Title,Price,Stock,Tags,Images\n" +
		"W1,Widget,10.50,3,a|b|a,https://x/1.jpg|https://x/2.jpg\n")

	records, err := ParseCSV(data)

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, 2, r.Line)
	assert.Equal(t, "Widget", r.Title)
	assert.Equal(t, "W1", r.SKU)
	assert.Equal(t, 10.5, r.Price)
	assert.Equal(t, 3, r.Stock)
	assert.Equal(t, []string{"a", "b"}, r.Tags)
	assert.Equal(t, []string{"https://x/1.jpg", "https://x/2.jpg"}, r.Images)
}

func TestParseCSV_DefaultsForMissingColumns(t *testing.T) {
	records, err := ParseCSV([]byte("title,sku,price\nWidget,W1,10\n"))

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, DefaultMinStock, r.MinStock)
	assert.Equal(t, DefaultMaxStock, r.MaxStock)
	assert.Equal(t, models.ProductStatusDraft, r.Status)
	assert.Equal(t, models.VisibilityPublic, r.Visibility)
	assert.Equal(t, "monthly", r.SubscriptionInterval)
	assert.Equal(t, 0, r.Stock)
	assert.Empty(t, r.Images)
	assert.NotNil(t, r.Variations)
	assert.NotNil(t, r.Attributes)
}

func TestParseCSV_HeaderNamesAreNormalised(t *testing.T) {
	data := []byte("Title *,SKU *,Price *,original_price,Min Stock,is-digital\r\n" +
		"Widget,W1,10,12,2,TRUE\r\n")

	records, err := ParseCSV(data)

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "Widget", r.Title)
	assert.Equal(t, 12.0, r.OriginalPrice)
	assert.Equal(t, 2, r.MinStock)
	assert.True(t, r.IsDigital)
}

func TestParseCSV_QuotedValues(t *testing.T) {
	data := []byte(`title,sku,price,description,variations` + "\n" +
		`"Widget, large",W1,10,"says ""hi""","{""size"":[""S"",""M""]}"` + "\n")

	records, err := ParseCSV(data)

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "Widget, large", r.Title)
	assert.Equal(t, `says "hi"`, r.Description)
	assert.Equal(t, map[string][]string{"size": {"S", "M"}}, r.Variations)
}

func TestParseCSV_MalformedLinesStillProduceRecords(t *testing.T) {
	data := []byte("title,sku,price,stock\n" +
		"only-title\n" +
		"\n" +
		`"broken,W2,abc,xyz` + "\n" +
		"Widget,W3,5,1,extra,columns\n")

	records, err := ParseCSV(data)

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "only-title", records[0].Title)
	assert.Equal(t, "", records[0].SKU)
	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, 0.0, records[1].Price)
	assert.Equal(t, "W3", records[2].SKU)
	assert.Equal(t, 5, records[2].Line)
}

func TestParseCSV_BinaryContentFails(t *testing.T) {
	_, err := ParseCSV([]byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff, 0xfe})
	assert.ErrorIs(t, err, ErrUnreadableFile)

	_, err = ParseCSV([]byte("title\n\xc3\x28"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	records, err := ParseCSV([]byte("title,sku,price\n"))

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseCSV_StripsByteOrderMark(t *testing.T) {
	records, err := ParseCSV([]byte("\xef\xbb\xbftitle,sku,price\nWidget,W1,10\n"))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Widget", records[0].Title)
}

func TestParseCSV_UnknownEnumsFallBackWithNote(t *testing.T) {
	records, err := ParseCSV([]byte("title,sku,price,status,visibility\nWidget,W1,10,Out Of Stock,secret\n"))

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, models.ProductStatusOutOfStock, r.Status)
	assert.Equal(t, models.VisibilityPublic, r.Visibility)
	require.Len(t, r.Notes, 1)
	assert.Contains(t, r.Notes[0], "visibility")
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"10", 10},
		{"10.5", 10.5},
		{" 12.50 USD", 12.5},
		{"-3", -3},
		{".5", 0.5},
		{"1e3", 1000},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseFloat(tt.in), tt.in)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"7", 7},
		{"7.9", 7},
		{"-2", -2},
		{"12pcs", 12},
		{"x", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseInt(tt.in), tt.in)
	}
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool(" TRUE "))
	assert.False(t, parseBool("yes"))
	assert.False(t, parseBool("1"))
	assert.False(t, parseBool(""))
}

func TestParseVariations_JSONAndShorthandAgree(t *testing.T) {
	fromJSON := parseVariations(`{"size":["S","M"],"color":"red|blue"}`)
	fromShorthand := parseVariations("size:S|M;color:red|blue")

	want := map[string][]string{"size": {"S", "M"}, "color": {"red", "blue"}}
	assert.Equal(t, want, fromJSON)
	assert.Equal(t, want, fromShorthand)
}

func TestParseVariations_NeverFails(t *testing.T) {
	assert.Equal(t, map[string][]string{}, parseVariations(`{"size":`))
	assert.Equal(t, map[string][]string{}, parseVariations("no separators here"))
	assert.Equal(t, map[string][]string{}, parseVariations(""))
	assert.Equal(t, map[string][]string{"size": {"S"}}, parseVariations("size:S;;:orphan"))
}

func TestParseAttributes(t *testing.T) {
	assert.Equal(t,
		map[string]string{"material": "steel", "url": "https://x"},
		parseAttributes("material:steel; url:https://x"))
	assert.Equal(t,
		map[string]string{"weight": "1.5", "fragile": "true", "brand": "acme"},
		parseAttributes(`{"weight":1.5,"fragile":true,"brand":"acme"}`))
	assert.Equal(t, map[string]string{}, parseAttributes("garbage"))
}

func TestParse_DispatchesOnExtension(t *testing.T) {
	_, err := Parse("products.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	records, err := Parse("products.TXT", []byte("title,sku,price\nWidget,W1,10\n"))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestParseXLSX_ReadsProductsSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Products")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"ignored"}))
	require.NoError(t, f.SetSheetRow("Products", "A1", &[]interface{}{"Title *", "SKU *", "Price *", "Stock"}))
	require.NoError(t, f.SetSheetRow("Products", "A2", &[]interface{}{"Widget", "W1", "10", "4"}))
	require.NoError(t, f.SetSheetRow("Products", "A4", &[]interface{}{"Gadget", "G1", "20", "0"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	records, err := Parse("products.xlsx", buf.Bytes())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Widget", records[0].Title)
	assert.Equal(t, 4, records[0].Stock)
	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, "G1", records[1].SKU)
}

func TestParseXLSX_NotAWorkbook(t *testing.T) {
	_, err := Parse("products.xlsx", []byte("title,sku\n"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
}
