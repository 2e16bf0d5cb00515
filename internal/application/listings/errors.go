package listings

import "errors"

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrCannotEdit      = errors.New("You cannot edit this listing")
	ErrCannotDelete    = errors.New("You cannot delete this listing")
	ErrProfileNotFound = errors.New("Profile not found")
)
