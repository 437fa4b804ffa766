package testhelpers

import (
	"context"
	"sync"
	"time"

	"forklifttracker/internal/caching"
	"forklifttracker/internal/models"

	"github.com/google/uuid"
)

// MemoryCache is an in-process caching.CacheService for unit tests.
// Membership and company lookups always miss.
type MemoryCache struct {
	mu       sync.Mutex
	values   map[string]string
	counters map[string]int
	summary  map[uuid.UUID]*models.ServiceDueSummary
}

var _ caching.CacheService = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values:   map[string]string{},
		counters: map[string]int{},
		summary:  map[uuid.UUID]*models.ServiceDueSummary{},
	}
}

func (c *MemoryCache) GetMembership(context.Context, uuid.UUID, uuid.UUID) (*models.UserCompany, error) {
	return nil, nil
}

func (c *MemoryCache) SetMembership(context.Context, *models.UserCompany, time.Duration) error {
	return nil
}

func (c *MemoryCache) DeleteMembership(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (c *MemoryCache) GetCompany(context.Context, uuid.UUID) (*models.Company, error) {
	return nil, nil
}

func (c *MemoryCache) SetCompany(context.Context, *models.Company, time.Duration) error { return nil }

func (c *MemoryCache) GetServiceDue(_ context.Context, companyID uuid.UUID) (*models.ServiceDueSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary[companyID], nil
}

func (c *MemoryCache) SetServiceDue(_ context.Context, summary *models.ServiceDueSummary, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary[summary.CompanyID] = summary
	return nil
}

func (c *MemoryCache) InvalidateCompanyCache(_ context.Context, companyID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summary, companyID)
	return nil
}

// IsRateLimited counts calls per key; the window is ignored.
func (c *MemoryCache) DeleteServiceDue(_ context.Context, companyID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summary, companyID)
	return nil
}

func (c *MemoryCache) IsRateLimited(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key] > limit, nil
}

func (c *MemoryCache) SetString(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *MemoryCache) GetString(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *MemoryCache) TakeString(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val := c.values[key]
	delete(c.values, key)
	return val, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

func (c *MemoryCache) Close() error { return nil }
