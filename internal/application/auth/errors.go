package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidCredentials    = errors.New("Invalid email or password")
	ErrEmailTaken            = errors.New("An account with this email already exists")
	ErrEmailNotConfirmed     = errors.New("Please confirm your email address before logging in")
	ErrAccountSuspended      = errors.New("Your account has been suspended")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrConfirmLinkInvalid    = errors.New("Confirmation link has expired or is invalid")
	ErrResetLinkInvalid      = errors.New("Password reset link has expired or is invalid")
	ErrProfileNotFound       = errors.New("Profile not found")
)
