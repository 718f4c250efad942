package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestClaims(t *testing.T) (*DistributionClaims, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewDistributionClaims(rdb, time.Minute), mr
}

func TestDistributionClaims_ClaimIsExclusive(t *testing.T) {
	claims, mr := createTestClaims(t)
	ctx := context.Background()

	first, err := claims.Claim(ctx, 42, "job-1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := claims.Claim(ctx, 42, "job-2")
	require.NoError(t, err)
	assert.False(t, second)

	other, err := claims.Claim(ctx, 43, "job-2")
	require.NoError(t, err)
	assert.True(t, other)

	owner, err := mr.Get("distribute:42")
	require.NoError(t, err)
	assert.Equal(t, "job-1", owner)
	assert.Equal(t, time.Minute, mr.TTL("distribute:42"))
}

func TestDistributionClaims_ReleaseOnlyByOwner(t *testing.T) {
	claims, mr := createTestClaims(t)
	ctx := context.Background()

	_, err := claims.Claim(ctx, 42, "job-1")
	require.NoError(t, err)

	require.NoError(t, claims.Release(ctx, 42, "job-2"))
	assert.True(t, mr.Exists("distribute:42"))

	require.NoError(t, claims.Release(ctx, 42, "job-1"))
	assert.False(t, mr.Exists("distribute:42"))

	again, err := claims.Claim(ctx, 42, "job-2")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestDistributionClaims_ExpiredClaimCanBeTaken(t *testing.T) {
	claims, mr := createTestClaims(t)
	ctx := context.Background()

	_, err := claims.Claim(ctx, 42, "job-1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	taken, err := claims.Claim(ctx, 42, "job-2")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestDistributionClaims_RedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectSetNX("distribute:42", "job-1", time.Minute).SetErr(errors.New("connection refused"))

	_, err := NewDistributionClaims(rdb, time.Minute).Claim(context.Background(), 42, "job-1")

	assert.ErrorIs(t, err, ErrCacheFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
