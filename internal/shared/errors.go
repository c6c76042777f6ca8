package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")
	ErrVideoNotFound      = fmt.Errorf("video not found")
	ErrCreatorNotFound    = fmt.Errorf("creator not found")
	ErrCategoryNotFound   = fmt.Errorf("category not found")
	ErrRequestPending     = fmt.Errorf("request already in flight")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidImport   = fmt.Errorf("invalid import format")
	ErrDuplicateName   = fmt.Errorf("name already exists")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
