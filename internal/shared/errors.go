package shared

import "fmt"

var (
	ErrNotImplemented     = fmt.Errorf("not implemented")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Database errors
	ErrTransactionOpen = fmt.Errorf("transaction already open")
	ErrNoTransaction   = fmt.Errorf("no open transaction")

	// Fetch errors
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrTimeout        = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
