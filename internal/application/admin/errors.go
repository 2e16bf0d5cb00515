package admin

import "errors"

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrUserNotFound    = errors.New("User not found")
	ErrInvalidStatus   = errors.New("Invalid status")
	ErrNoUpdateFields  = errors.New("No valid update fields provided")
)
