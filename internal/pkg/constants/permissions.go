package constants

// Capabilities checked by middleware.AuthorizePermission.
const (
	ManageOwnListings = "manage_own_listings"
	UploadImages      = "upload_images"
	ModerateListings  = "moderate_listings"
	ManageUsers       = "manage_users"
	ViewDashboard     = "view_dashboard"
	ExportData        = "export_data"
)

// PermissionRoles maps each capability to the roles allowed to use it. Suspended accounts hold none.
var PermissionRoles = map[string][]string{
	ManageOwnListings: {RoleUser, RoleAdmin},
	UploadImages:      {RoleUser, RoleAdmin},
	ModerateListings:  {RoleAdmin},
	ManageUsers:       {RoleAdmin},
	ViewDashboard:     {RoleAdmin},
	ExportData:        {RoleAdmin},
}

// AllowedRole reports whether role may use permission.
func AllowedRole(permission, role string) bool {
	return contains(PermissionRoles[permission], role)
}
