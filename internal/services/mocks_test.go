package services

import (
	"context"
	"io"
	"sync"
	"time"

	"forklifttracker/internal/caching"
	"forklifttracker/internal/models"
	"forklifttracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) CreateWithOwner(ctx context.Context, company *models.Company, owner *models.UserCompany) error {
	args := m.Called(ctx, company, owner)
	return args.Error(0)
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetByJoinCode(ctx context.Context, joinCode string) (*models.Company, error) {
	args := m.Called(ctx, joinCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.CompanyMembership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CompanyMembership), args.Error(1)
}

func (m *MockCompanyRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.Company, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error {
	args := m.Called(ctx, id, joinCode)
	return args.Error(0)
}

func (m *MockCompanyRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Get(ctx context.Context, userID, companyID uuid.UUID) (*models.UserCompany, error) {
	args := m.Called(ctx, userID, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserCompany), args.Error(1)
}

func (m *MockMembershipRepository) AddIfAbsent(ctx context.Context, uc *models.UserCompany) (bool, error) {
	args := m.Called(ctx, uc)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) ListUsers(ctx context.Context, companyID uuid.UUID) ([]*models.CompanyUser, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CompanyUser), args.Error(1)
}

func (m *MockMembershipRepository) ActiveUserIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockMembershipRepository) ActiveCompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockMembershipRepository) UpdateFlags(ctx context.Context, uc *models.UserCompany) error {
	args := m.Called(ctx, uc)
	return args.Error(0)
}

type MockForkliftRepository struct {
	mock.Mock
}

func (m *MockForkliftRepository) Create(ctx context.Context, f *models.Forklift, docs repositories.DocumentChanges) error {
	args := m.Called(ctx, f, docs)
	return args.Error(0)
}

func (m *MockForkliftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Forklift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Forklift), args.Error(1)
}

func (m *MockForkliftRepository) ListByCompanies(ctx context.Context, companyIDs []uuid.UUID) ([]*models.Forklift, error) {
	args := m.Called(ctx, companyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Forklift), args.Error(1)
}

func (m *MockForkliftRepository) ListServiceDue(ctx context.Context, companyID uuid.UUID, cutoff time.Time) ([]*models.Forklift, error) {
	args := m.Called(ctx, companyID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Forklift), args.Error(1)
}

func (m *MockForkliftRepository) Update(ctx context.Context, f *models.Forklift, docs repositories.DocumentChanges) error {
	args := m.Called(ctx, f, docs)
	return args.Error(0)
}

func (m *MockForkliftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, forkliftID, id uuid.UUID) (*models.ForkliftDocument, error) {
	args := m.Called(ctx, forkliftID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForkliftDocument), args.Error(1)
}

func (m *MockDocumentRepository) ListByForklift(ctx context.Context, forkliftID uuid.UUID) ([]*models.ForkliftDocument, error) {
	args := m.Called(ctx, forkliftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ForkliftDocument), args.Error(1)
}

func (m *MockDocumentRepository) ListByForklifts(ctx context.Context, forkliftIDs []uuid.UUID) ([]*models.ForkliftDocument, error) {
	args := m.Called(ctx, forkliftIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ForkliftDocument), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, companyID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, companyID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	args := m.Called(ctx, objectName, reader, objectSize, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockObjectStorage) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func (m *MockObjectStorage) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockObjectStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// memoryCache keeps string values in a map and answers every other lookup
// with a miss.
type memoryCache struct {
	mu      sync.Mutex
	values  map[string]string
	summary map[uuid.UUID]*models.ServiceDueSummary
}

var _ caching.CacheService = (*memoryCache)(nil)

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, summary: map[uuid.UUID]*models.ServiceDueSummary{}}
}

func (c *memoryCache) GetMembership(context.Context, uuid.UUID, uuid.UUID) (*models.UserCompany, error) {
	return nil, nil
}

func (c *memoryCache) SetMembership(context.Context, *models.UserCompany, time.Duration) error {
	return nil
}

func (c *memoryCache) DeleteMembership(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (c *memoryCache) GetCompany(context.Context, uuid.UUID) (*models.Company, error) {
	return nil, nil
}

func (c *memoryCache) SetCompany(context.Context, *models.Company, time.Duration) error { return nil }

func (c *memoryCache) GetServiceDue(_ context.Context, companyID uuid.UUID) (*models.ServiceDueSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary[companyID], nil
}

func (c *memoryCache) SetServiceDue(_ context.Context, summary *models.ServiceDueSummary, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary[summary.CompanyID] = summary
	return nil
}

func (c *memoryCache) InvalidateCompanyCache(context.Context, uuid.UUID) error { return nil }

func (c *memoryCache) DeleteServiceDue(_ context.Context, companyID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summary, companyID)
	return nil
}

func (c *memoryCache) IsRateLimited(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func (c *memoryCache) SetString(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memoryCache) GetString(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *memoryCache) TakeString(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val := c.values[key]
	delete(c.values, key)
	return val, nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }

func (c *memoryCache) Close() error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
