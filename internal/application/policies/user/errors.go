package policies

import "errors"

var (
	ErrTargetUserNotFound         = errors.New("Target user not found")
	ErrCannotModerateYourself     = errors.New("You cannot suspend or delete your own account")
	ErrAdminsCannotModerateAdmins = errors.New("Admins cannot suspend or delete other admins")
)
