package coupon_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/cache"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/storage/memory"
)

func newService(t *testing.T) *coupon.Service {
	t.Helper()
	layer, err := cache.NewLayer(cache.NewLRUStore(32, time.Minute), cache.Options{})
	require.NoError(t, err)
	return coupon.NewService(memory.New().Coupons(), layer)
}

func TestService_CreateDefaultsToActive(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	c, err := svc.Create(ctx, " TTN2024TTT001 ", nil)
	require.NoError(t, err)
	assert.Equal(t, "TTN2024TTT001", c.Code)
	assert.True(t, c.IsActive)

	off := false
	c2, err := svc.Create(ctx, "2TTT2", &off)
	require.NoError(t, err)
	assert.False(t, c2.IsActive)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_CreateRejectsBadCodes(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Create(ctx, "WELCOME10", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.Create(ctx, "1TTT1", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "1TTT1", nil)
	require.ErrorIs(t, err, coupon.ErrDuplicateCode)
}

func TestService_DeactivateEvictsAndFailsValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	c, err := svc.Create(ctx, "3TTTT4", nil)
	require.NoError(t, err)

	cached, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, cached.IsActive)
	_, err = svc.List(ctx)
	require.NoError(t, err)

	_, err = svc.Deactivate(ctx, c.ID)
	require.NoError(t, err)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	res, err := svc.Check(ctx, "3TTTT4")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, coupon.MsgInactive, res.Message)

	_, err = svc.Validator().Validate(ctx, "3TTTT4")
	var invalid *coupon.InvalidCouponError
	require.ErrorAs(t, err, &invalid)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	a, err := svc.Create(ctx, "5TTT5", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "6TTT6", nil)
	require.NoError(t, err)

	code := "7TTT7"
	got, err := svc.Update(ctx, a.ID, coupon.Update{Code: &code})
	require.NoError(t, err)
	assert.Equal(t, "7TTT7", got.Code)

	taken := "6TTT6"
	_, err = svc.Update(ctx, a.ID, coupon.Update{Code: &taken})
	require.ErrorIs(t, err, coupon.ErrDuplicateCode)

	bad := "nope"
	_, err = svc.Update(ctx, a.ID, coupon.Update{Code: &bad})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.Update(ctx, 999, coupon.Update{Code: &code})
	require.ErrorIs(t, err, coupon.ErrNotFound)
}
