package uploads

import (
	"context"
	"errors"
	"testing"
	"time"

	uploadsvc "nexar-backend/internal/application/uploads"
	"nexar-backend/internal/pkg/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	err    error
	bucket string
	path   string
}

func (f *fakeStore) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	f.bucket, f.path = bucket, objectPath
	if f.err != nil {
		return "", f.err
	}
	return "https://storage.test/upload/" + objectPath + "?token=t", nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, bucket, objectPath string) error {
	return nil
}

func setupUploadApp(t *testing.T, store *fakeStore, anonymous bool) (*fiber.App, string) {
	db := testutil.NewDB(t)
	u, p := testutil.SeedAccount(t, db, "Ana Pop", "ana@example.ro")
	h := &Handlers{Service: &uploadsvc.Service{
		Store:         store,
		Bucket:        "listing-images",
		PublicBaseURL: "https://cdn.test/listing-images",
		Now:           func() time.Time { return time.UnixMilli(1700000000000) },
	}}
	app := fiber.New()
	if !anonymous {
		app.Use(testutil.AsUser(p))
	}
	app.Post("/uploads/listing-image", h.UploadListingImage)
	return app, u.ID.String()
}

func TestUploadListingImage_Success(t *testing.T) {
	store := &fakeStore{}
	app, userID := setupUploadApp(t, store, false)

	resp, out := testutil.DoJSON(t, app, "POST", "/uploads/listing-image", fiber.Map{"file_name": "poza masina.jpg"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "listing-images", store.bucket)
	assert.Equal(t, store.path, data["path"])
	assert.Contains(t, store.path, "listings/"+userID+"/1700000000000-")
	assert.Equal(t, "https://cdn.test/listing-images/"+store.path, data["publicUrl"])
	assert.Contains(t, data["uploadUrl"], "token=t")
}

func TestUploadListingImage_Errors(t *testing.T) {
	app, _ := setupUploadApp(t, &fakeStore{}, false)
	resp, out := testutil.DoJSON(t, app, "POST", "/uploads/listing-image", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "file_name is required", testutil.ErrorMessage(out))

	app, _ = setupUploadApp(t, &fakeStore{err: errors.New("storage down")}, false)
	resp, _ = testutil.DoJSON(t, app, "POST", "/uploads/listing-image", fiber.Map{"file_name": "a.jpg"})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	app, _ = setupUploadApp(t, &fakeStore{}, true)
	resp, _ = testutil.DoJSON(t, app, "POST", "/uploads/listing-image", fiber.Map{"file_name": "a.jpg"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
