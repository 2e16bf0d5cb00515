package policies

import (
	"context"
	"testing"

	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/constants"
	"nexar-backend/internal/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccountModeration_Self(t *testing.T) {
	db := testutil.NewDB(t)
	u, _ := testutil.SeedAccount(t, db, "Admin", "admin@nexar.ro")

	_, err := ValidateAccountModeration(context.Background(), db, u.ID, u.ID)
	assert.Equal(t, ErrCannotModerateYourself, err)
}

func TestValidateAccountModeration_TargetNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := ValidateAccountModeration(context.Background(), db, uuid.New(), uuid.New())
	assert.Equal(t, ErrTargetUserNotFound, err)
}

func TestValidateAccountModeration_OtherAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	actor, _ := testutil.SeedAccount(t, db, "Admin", "admin@nexar.ro")
	target, targetProfile := testutil.SeedAccount(t, db, "Admin 2", "admin2@nexar.ro")
	require.NoError(t, db.Model(targetProfile).Update("is_admin", true).Error)

	_, err := ValidateAccountModeration(context.Background(), db, actor.ID, target.ID)
	assert.Equal(t, ErrAdminsCannotModerateAdmins, err)
}

func TestValidateAccountModeration_RegularUser(t *testing.T) {
	db := testutil.NewDB(t)
	actor, _ := testutil.SeedAccount(t, db, "Admin", "admin@nexar.ro")
	target, targetProfile := testutil.SeedAccount(t, db, "Ion", "ion@nexar.ro")

	p, err := ValidateAccountModeration(context.Background(), db, actor.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, targetProfile.ID, p.ID)
}

func TestProfileRoleResolver(t *testing.T) {
	db := testutil.NewDB(t)
	r := &ProfileRoleResolver{DB: db}
	ctx := context.Background()

	u, p := testutil.SeedAccount(t, db, "Ion", "ion@nexar.ro")
	role, err := r.ResolveRole(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, constants.RoleUser, role)

	require.NoError(t, db.Model(p).Update("is_admin", true).Error)
	role, _ = r.ResolveRole(ctx, u.ID.String())
	assert.Equal(t, constants.RoleAdmin, role)

	require.NoError(t, db.Model(p).Update("suspended", true).Error)
	role, _ = r.ResolveRole(ctx, u.ID.String())
	assert.Equal(t, constants.RoleSuspended, role)

	_, err = r.ResolveRole(ctx, uuid.New().String())
	assert.ErrorIs(t, err, middleware.ErrUnknownAccount)
}

func TestDestroyUserSessions(t *testing.T) {
	_, rdb := testutil.NewRedis(t)
	ctx := context.Background()
	require.NoError(t, middleware.TrackUserSession(ctx, rdb, "u-1", "s-1"))
	require.NoError(t, middleware.TrackUserSession(ctx, rdb, "u-1", "s-2"))
	rdb.Set(ctx, middleware.SessionRedisPrefix+"s-1", "{}", 0)
	rdb.Set(ctx, middleware.SessionRedisPrefix+"s-2", "{}", 0)
	rdb.Set(ctx, middleware.SessionRedisPrefix+"other", "{}", 0)

	DestroyUserSessions(ctx, rdb, "u-1")

	n, _ := rdb.Exists(ctx, middleware.SessionRedisPrefix+"s-1", middleware.SessionRedisPrefix+"s-2", middleware.UserSessionsRedisPrefix+"u-1").Result()
	assert.Equal(t, int64(0), n)
	n, _ = rdb.Exists(ctx, middleware.SessionRedisPrefix+"other").Result()
	assert.Equal(t, int64(1), n)
}
