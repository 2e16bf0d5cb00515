package listings

import (
	"testing"

	listsvc "nexar-backend/internal/application/listings"
	policies "nexar-backend/internal/application/policies/user"
	"nexar-backend/internal/domain"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/constants"
	"nexar-backend/internal/pkg/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type listingsFixture struct {
	db     *gorm.DB
	seller *domain.Profile
	other  *domain.Profile
}

func setupListingsTest(t *testing.T) *listingsFixture {
	db := testutil.NewDB(t)
	_, seller := testutil.SeedAccount(t, db, "Ana Pop", "ana@example.ro")
	_, other := testutil.SeedAccount(t, db, "Dan Ionescu", "dan@example.ro")
	return &listingsFixture{db: db, seller: seller, other: other}
}

// app mounts the routes the way the router does, acting as p (nil for anonymous).
func (f *listingsFixture) app(p *domain.Profile) *fiber.App {
	h := &Handlers{Service: &listsvc.Service{DB: f.db, Cleaner: &testutil.RecordingCleaner{}}}
	guard := middleware.AuthorizePermission(&policies.ProfileRoleResolver{DB: f.db}, constants.ManageOwnListings)
	app := fiber.New()
	if p != nil {
		app.Use(testutil.AsUser(p))
	}
	app.Get("/listings", h.Browse)
	app.Get("/listings/options", h.Options)
	app.Get("/listings/mine", guard, h.Mine)
	app.Post("/listings", guard, h.Create)
	app.Get("/listings/:id", h.GetListing)
	app.Get("/listings/:id/edit", guard, h.GetForEdit)
	app.Put("/listings/:id", guard, h.Edit)
	app.Delete("/listings/:id", guard, h.Delete)
	return app
}

func TestBrowse_PublicFilters(t *testing.T) {
	f := setupListingsTest(t)
	testutil.SeedListing(t, f.db, f.seller, "Dacia Logan", 5000)
	testutil.SeedListing(t, f.db, f.seller, "BMW X5", 30000)
	app := f.app(nil)

	resp, out := testutil.DoJSON(t, app, "GET", "/listings?search=bmw", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := out["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "BMW X5", data[0].(map[string]interface{})["title"])

	_, out = testutil.DoJSON(t, app, "GET", "/listings?sort=price&order=asc&limit=1", nil)
	data = out["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Dacia Logan", data[0].(map[string]interface{})["title"])

	_, out = testutil.DoJSON(t, app, "GET", "/listings?min_price=abc", nil)
	assert.Len(t, out["data"].([]interface{}), 2)

	resp, _ = testutil.DoJSON(t, app, "GET", "/listings?sort=seller", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreate_RequiresLoginAndValidates(t *testing.T) {
	f := setupListingsTest(t)

	resp, _ := testutil.DoJSON(t, f.app(nil), "POST", "/listings", fiber.Map{"title": "x"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	app := f.app(f.seller)
	resp, out := testutil.DoJSON(t, app, "POST", "/listings", fiber.Map{"title": "Golf"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation failed", testutil.ErrorMessage(out))
	assert.Equal(t, "Price is required", testutil.ErrorDetails(out)["price"])

	resp, out = testutil.DoJSON(t, app, "POST", "/listings", fiber.Map{
		"title": "VW Golf", "description": "Impecabil", "price": 9500, "year": 2015,
		"category": "autoturisme", "brand": "Volkswagen", "model": "Golf", "fuel_type": "benzina",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, f.seller.ID.String(), out["data"].(map[string]interface{})["seller_id"])
}

func TestCreate_SuspendedUserDenied(t *testing.T) {
	f := setupListingsTest(t)
	f.seller.Suspended = true
	require.NoError(t, f.db.Save(f.seller).Error)

	resp, out := testutil.DoJSON(t, f.app(f.seller), "POST", "/listings", fiber.Map{"title": "x"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Access denied", testutil.ErrorMessage(out))
}

func TestEdit_OwnerOnlyWithFieldErrors(t *testing.T) {
	f := setupListingsTest(t)
	l := testutil.SeedListing(t, f.db, f.seller, "Dacia Logan", 5000)
	path := "/listings/" + l.ID.String()

	resp, out := testutil.DoJSON(t, f.app(f.other), "PUT", path, fiber.Map{"title": "x", "price": "1", "description": "y"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You cannot edit this listing", testutil.ErrorMessage(out))

	resp, _ = testutil.DoJSON(t, f.app(f.other), "GET", path+"/edit", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	owner := f.app(f.seller)
	resp, out = testutil.DoJSON(t, owner, "PUT", path, fiber.Map{"title": "", "price": "", "description": " "})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	details := testutil.ErrorDetails(out)
	assert.Equal(t, "Title is required", details["title"])
	assert.Equal(t, "Price is required", details["price"])
	assert.Equal(t, "Description is required", details["description"])

	resp, out = testutil.DoJSON(t, owner, "PUT", path, fiber.Map{
		"title": "Dacia Logan MCV", "price": 4500, "description": "Actualizat", "year": "", "mileage": 130000,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "Dacia Logan MCV", data["title"])
	assert.Equal(t, float64(4500), data["price"])
	assert.Equal(t, float64(2018), data["year"])
	assert.Equal(t, float64(130000), data["mileage"])

	resp, out = testutil.DoJSON(t, owner, "GET", path+"/edit", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, out["data"].(map[string]interface{}), "options")
}

func TestGetListing_PendingHiddenFromPublic(t *testing.T) {
	f := setupListingsTest(t)
	l := testutil.SeedListing(t, f.db, f.seller, "Dacia Logan", 5000)
	require.NoError(t, f.db.Model(l).Update("status", "pending").Error)
	path := "/listings/" + l.ID.String()

	resp, _ := testutil.DoJSON(t, f.app(nil), "GET", path, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, out := testutil.DoJSON(t, f.app(f.seller), "GET", path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	seller := out["data"].(map[string]interface{})["seller"].(map[string]interface{})
	assert.Equal(t, "Ana Pop", seller["name"])

	resp, _ = testutil.DoJSON(t, f.app(nil), "GET", "/listings/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMineAndDelete(t *testing.T) {
	f := setupListingsTest(t)
	l := testutil.SeedListing(t, f.db, f.seller, "Dacia Logan", 5000)
	testutil.SeedListing(t, f.db, f.other, "Opel Corsa", 3000)
	owner := f.app(f.seller)

	_, out := testutil.DoJSON(t, owner, "GET", "/listings/mine", nil)
	assert.Len(t, out["data"].([]interface{}), 1)

	resp, _ := testutil.DoJSON(t, f.app(f.other), "DELETE", "/listings/"+l.ID.String(), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = testutil.DoJSON(t, owner, "DELETE", "/listings/"+l.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_, out = testutil.DoJSON(t, owner, "GET", "/listings/mine", nil)
	assert.Empty(t, out["data"].([]interface{}))
}

func TestOptions(t *testing.T) {
	f := setupListingsTest(t)
	resp, out := testutil.DoJSON(t, f.app(nil), "GET", "/listings/options", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, out["data"].(map[string]interface{})["categories"], "autoturisme")
}
