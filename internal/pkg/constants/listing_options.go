package constants

// Listing statuses. Any status may be set from any other; there is no transition graph.
const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusSold     = "sold"
	StatusRejected = "rejected"
)

// StatusAll is the admin filter value that disables status filtering.
const StatusAll = "all"

var ListingStatuses = []string{StatusActive, StatusPending, StatusSold, StatusRejected}

var Categories = []string{
	"autoturisme", "motociclete", "camioane", "autobuze",
	"remorci", "utilaje", "piese-auto", "accesorii",
}

var FuelTypes = []string{"benzina", "diesel", "electric", "hibrid"}

var Transmissions = []string{"manuala", "automata", "semi-automata"}

var Conditions = []string{"noua", "excelenta", "foarte_buna", "buna", "satisfacatoare"}

// Cities is the advisory location list offered by the listing form; location stays free text.
var Cities = []string{
	"București S1", "București S2", "București S3", "București S4", "București S5", "București S6",
	"Cluj-Napoca", "Timișoara", "Iași", "Constanța", "Brașov", "Craiova", "Galați",
	"Oradea", "Ploiești", "Sibiu", "Bacău", "Râmnicu Vâlcea",
}

func IsValidStatus(s string) bool       { return contains(ListingStatuses, s) }
func IsValidCategory(s string) bool     { return contains(Categories, s) }
func IsValidFuelType(s string) bool     { return s == "" || contains(FuelTypes, s) }
func IsValidTransmission(s string) bool { return s == "" || contains(Transmissions, s) }
func IsValidCondition(s string) bool    { return s == "" || contains(Conditions, s) }
