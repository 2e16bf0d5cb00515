package profiles

import (
	"context"
	"testing"

	"nexar-backend/internal/pkg/testutil"
	"nexar-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile(t *testing.T) {
	db := testutil.NewDB(t)
	u, _ := testutil.SeedAccount(t, db, "Ana Pop", "ana@example.ro")
	svc := &Service{DB: db}

	p, err := svc.GetProfile(context.Background(), u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Ana Pop", p.Name)

	_, err = svc.GetProfile(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.GetProfile(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestUpdateProfile_AllowedFieldsOnly(t *testing.T) {
	db := testutil.NewDB(t)
	u, _ := testutil.SeedAccount(t, db, "Ana Pop", "ana@example.ro")
	svc := &Service{DB: db}

	p, err := svc.UpdateProfile(context.Background(), u.ID.String(), map[string]interface{}{
		"name":        " Ana-Maria Pop ",
		"phone":       "0722000000",
		"seller_type": "Dealer",
		"is_admin":    true,
		"email":       "other@example.ro",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana-Maria Pop", p.Name)
	assert.Equal(t, "0722000000", p.Phone)
	assert.Equal(t, "dealer", p.SellerType)
	assert.False(t, p.IsAdmin)
	assert.Equal(t, "ana@example.ro", p.Email)
}

func TestUpdateProfile_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	u, _ := testutil.SeedAccount(t, db, "Ana Pop", "ana@example.ro")
	svc := &Service{DB: db}
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, u.ID.String(), map[string]interface{}{"name": "", "seller_type": "company"})
	var verr validation.Errors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name is required", verr["name"])
	assert.Contains(t, verr, "seller_type")

	_, err = svc.UpdateProfile(ctx, u.ID.String(), map[string]interface{}{"is_admin": true})
	assert.ErrorIs(t, err, ErrNoUpdateFields)

	_, err = svc.UpdateProfile(ctx, uuid.NewString(), map[string]interface{}{"phone": "1"})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
