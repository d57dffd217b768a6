package importer

import "errors"

var (
	// ErrUnreadableFile is returned when the upload cannot be read as text
	ErrUnreadableFile = errors.New("failed to process file")
	// ErrUnsupportedFormat is returned for file extensions other than csv, txt and xlsx
	ErrUnsupportedFormat = errors.New("only CSV and XLSX files are supported")
	// ErrEmptyFile is returned when the file has a header but no data rows
	ErrEmptyFile = errors.New("the file contains no data rows")

	ErrSessionNotFound   = errors.New("import session not found")
	ErrInvalidTransition = errors.New("operation not allowed in the current import state")
	ErrNothingSelected   = errors.New("no rows selected for submission")
	ErrRowNotFound       = errors.New("row does not exist in this import")
	ErrRowNotSelectable  = errors.New("row has validation errors and cannot be selected")
)
