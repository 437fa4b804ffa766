package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "forklift"

type CacheService interface {
	// Membership caching
	GetMembership(ctx context.Context, companyID, userID uuid.UUID) (*models.UserCompany, error)
	SetMembership(ctx context.Context, m *models.UserCompany, ttl time.Duration) error
	DeleteMembership(ctx context.Context, companyID, userID uuid.UUID) error

	// Company caching
	GetCompany(ctx context.Context, companyID uuid.UUID) (*models.Company, error)
	SetCompany(ctx context.Context, company *models.Company, ttl time.Duration) error

	// Service-due summaries written by the background scan
	GetServiceDue(ctx context.Context, companyID uuid.UUID) (*models.ServiceDueSummary, error)
	SetServiceDue(ctx context.Context, summary *models.ServiceDueSummary, ttl time.Duration) error
	DeleteServiceDue(ctx context.Context, companyID uuid.UUID) error

	// Cache invalidation
	InvalidateCompanyCache(ctx context.Context, companyID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	// TakeString reads and deletes key in one step. A miss returns "".
	TakeString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	return NewRedisCacheServiceWithClient(NewRedisClient(addr, password, db))
}

// NewRedisClient builds the client shared by the cache and the realtime relay.
func NewRedisClient(addr, password string, db int) *redis.Client {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn().Err(pingErr).Str("addr", parsedAddr).Msg("Redis ping failed on initialization")
	} else {
		log.Debug().Str("addr", parsedAddr).Msg("Redis connection established")
	}
	return client
}

func NewRedisCacheServiceWithClient(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func membershipKey(companyID, userID uuid.UUID) string {
	return fmt.Sprintf("%s:company:%s:member:%s", keyPrefix, companyID, userID)
}

func companyKey(companyID uuid.UUID) string {
	return fmt.Sprintf("%s:company:%s:info", keyPrefix, companyID)
}

func serviceDueKey(companyID uuid.UUID) string {
	return fmt.Sprintf("%s:company:%s:service_due", keyPrefix, companyID)
}

// getJSON returns false on a cache miss.
func (r *redisCacheService) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetMembership(ctx context.Context, companyID, userID uuid.UUID) (*models.UserCompany, error) {
	var m models.UserCompany
	found, err := r.getJSON(ctx, membershipKey(companyID, userID), &m)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (r *redisCacheService) SetMembership(ctx context.Context, m *models.UserCompany, ttl time.Duration) error {
	return r.setJSON(ctx, membershipKey(m.CompanyID, m.UserID), m, ttl)
}

func (r *redisCacheService) DeleteMembership(ctx context.Context, companyID, userID uuid.UUID) error {
	return r.client.Del(ctx, membershipKey(companyID, userID)).Err()
}

func (r *redisCacheService) GetCompany(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	var c models.Company
	found, err := r.getJSON(ctx, companyKey(companyID), &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (r *redisCacheService) SetCompany(ctx context.Context, company *models.Company, ttl time.Duration) error {
	return r.setJSON(ctx, companyKey(company.ID), company, ttl)
}

func (r *redisCacheService) GetServiceDue(ctx context.Context, companyID uuid.UUID) (*models.ServiceDueSummary, error) {
	var s models.ServiceDueSummary
	found, err := r.getJSON(ctx, serviceDueKey(companyID), &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (r *redisCacheService) SetServiceDue(ctx context.Context, summary *models.ServiceDueSummary, ttl time.Duration) error {
	return r.setJSON(ctx, serviceDueKey(summary.CompanyID), summary, ttl)
}

func (r *redisCacheService) DeleteServiceDue(ctx context.Context, companyID uuid.UUID) error {
	return r.client.Del(ctx, serviceDueKey(companyID)).Err()
}

func (r *redisCacheService) InvalidateCompanyCache(ctx context.Context, companyID uuid.UUID) error {
	pattern := fmt.Sprintf("%s:company:%s:*", keyPrefix, companyID)
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// GetString returns "" with a nil error on a cache miss.
func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) TakeString(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}
