//go:build integration

package caching

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var client *redis.Client

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	resource, err := pool.Run("redis", "7-alpine", nil)
	if err != nil {
		log.Fatalf("Could not start redis: %s", err)
	}

	err = pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("localhost:%s", resource.GetPort("6379/tcp"))})
		return client.Ping(context.Background()).Err()
	})
	if err != nil {
		log.Fatalf("Could not connect to redis: %s", err)
	}

	code := m.Run()

	_ = client.Close()
	_ = pool.Purge(resource)
	os.Exit(code)
}

func TestMembershipRoundTripAndInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisCacheServiceWithClient(client)

	m := &models.UserCompany{UserID: uuid.New(), CompanyID: uuid.New(), IsAdmin: true, JoinedAt: time.Now().UTC()}
	require.NoError(t, cache.SetMembership(ctx, m, time.Minute))

	got, err := cache.GetMembership(ctx, m.CompanyID, m.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsAdmin)

	require.NoError(t, cache.InvalidateCompanyCache(ctx, m.CompanyID))

	got, err = cache.GetMembership(ctx, m.CompanyID, m.UserID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIsRateLimited(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisCacheServiceWithClient(client)
	key := "login:" + uuid.NewString()

	for i := 0; i < 3; i++ {
		limited, err := cache.IsRateLimited(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, limited)
	}

	limited, err := cache.IsRateLimited(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)
}

func TestGetStringMissReturnsEmpty(t *testing.T) {
	cache := NewRedisCacheServiceWithClient(client)
	val, err := cache.GetString(context.Background(), "missing:"+uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestTakeStringIsSingleUse(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisCacheServiceWithClient(client)
	key := "refresh:" + uuid.NewString()
	require.NoError(t, cache.SetString(ctx, key, "user:123", time.Minute))

	val, err := cache.TakeString(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "user:123", val)

	val, err = cache.TakeString(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestDeleteServiceDue(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisCacheServiceWithClient(client)
	summary := &models.ServiceDueSummary{CompanyID: uuid.New(), WithinDays: 7, GeneratedAt: time.Now().UTC()}
	require.NoError(t, cache.SetServiceDue(ctx, summary, time.Minute))

	require.NoError(t, cache.DeleteServiceDue(ctx, summary.CompanyID))

	got, err := cache.GetServiceDue(ctx, summary.CompanyID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
