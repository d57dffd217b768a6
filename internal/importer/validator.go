package importer

import "product-import-service/internal/models"

// Validation messages
const (
	MsgTitleRequired           = "Title is required"
	MsgSKURequired             = "SKU is required"
	MsgPricePositive           = "Price must be greater than 0"
	MsgStockNegative           = "Stock cannot be negative"
	MsgSubscriptionPriceNeeded = "Subscription price must be greater than 0"

	MsgZeroStock      = "Stock is zero"
	MsgNoCategory     = "No category specified"
	MsgNoImages       = "No images provided"
	MsgNoDownloadURL  = "Digital product has no download URL"
	MsgNoPreOrderDate = "Pre-order product has no pre-order date"
)

// Validate computes the errors and warnings for one record. It reads only the
// input fields and replaces any earlier outcome, so it is safe to call twice.
func Validate(p *models.ImportedProduct) {
	errs := []string{}
	warnings := []string{}

	if p.Title == "" {
		errs = append(errs, MsgTitleRequired)
	}
	if p.SKU == "" {
		errs = append(errs, MsgSKURequired)
	}
	if p.Price <= 0 {
		errs = append(errs, MsgPricePositive)
	}
	if p.Stock < 0 {
		errs = append(errs, MsgStockNegative)
	}
	if p.IsSubscription && p.SubscriptionPrice <= 0 {
		errs = append(errs, MsgSubscriptionPriceNeeded)
	}

	if p.Stock == 0 {
		warnings = append(warnings, MsgZeroStock)
	}
	if p.Category == "" {
		warnings = append(warnings, MsgNoCategory)
	}
	if len(p.Images) == 0 {
		warnings = append(warnings, MsgNoImages)
	}
	if p.IsDigital && p.DownloadURL == "" {
		warnings = append(warnings, MsgNoDownloadURL)
	}
	if p.IsPreOrder && p.PreOrderDate == "" {
		warnings = append(warnings, MsgNoPreOrderDate)
	}
	warnings = append(warnings, p.Notes...)

	p.Errors = errs
	p.Warnings = warnings
}

// ValidateAll validates every record in place
func ValidateAll(records []*models.ImportedProduct) {
	for _, r := range records {
		Validate(r)
	}
}
