package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"forklifttracker/internal/common"
	"forklifttracker/internal/models"
	"forklifttracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	args := m.Called(ctx, username, password)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Company, error) {
	args := m.Called(ctx, userID, name)
	if c := args.Get(0); c != nil {
		return c.(*models.Company), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyService) Join(ctx context.Context, userID uuid.UUID, joinCode string) (*models.Company, error) {
	args := m.Called(ctx, userID, joinCode)
	if c := args.Get(0); c != nil {
		return c.(*models.Company), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyService) List(ctx context.Context, userID uuid.UUID) ([]*models.CompanyMembership, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.CompanyMembership), args.Error(1)
}

func (m *MockCompanyService) Get(ctx context.Context, userID, companyID uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, userID, companyID)
	if c := args.Get(0); c != nil {
		return c.(*models.Company), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyService) IsAdmin(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, companyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyService) ListUsers(ctx context.Context, userID, companyID uuid.UUID) ([]*models.CompanyUser, error) {
	args := m.Called(ctx, userID, companyID)
	if u := args.Get(0); u != nil {
		return u.([]*models.CompanyUser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyService) UpdateUser(ctx context.Context, actorID, companyID, targetID uuid.UUID, req *services.UpdateMemberRequest) (*models.CompanyUser, error) {
	args := m.Called(ctx, actorID, companyID, targetID, req)
	if u := args.Get(0); u != nil {
		return u.(*models.CompanyUser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyService) RegenerateCode(ctx context.Context, userID, companyID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID, companyID)
	return args.String(0), args.Error(1)
}

func (m *MockCompanyService) Delete(ctx context.Context, userID, companyID uuid.UUID) error {
	return m.Called(ctx, userID, companyID).Error(0)
}

func (m *MockCompanyService) ServiceDue(ctx context.Context, companyID uuid.UUID, days int) (*models.ServiceDueSummary, error) {
	args := m.Called(ctx, companyID, days)
	if s := args.Get(0); s != nil {
		return s.(*models.ServiceDueSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockForkliftService struct {
	mock.Mock
}

func (m *MockForkliftService) List(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) ([]*models.Forklift, error) {
	args := m.Called(ctx, userID, companyID)
	if f := args.Get(0); f != nil {
		return f.([]*models.Forklift), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForkliftService) Get(ctx context.Context, userID, forkliftID uuid.UUID) (*models.Forklift, error) {
	args := m.Called(ctx, userID, forkliftID)
	if f := args.Get(0); f != nil {
		return f.(*models.Forklift), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForkliftService) Create(ctx context.Context, userID uuid.UUID, req *services.ForkliftRequest) (*models.Forklift, error) {
	args := m.Called(ctx, userID, req)
	if f := args.Get(0); f != nil {
		return f.(*models.Forklift), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForkliftService) Update(ctx context.Context, userID, forkliftID uuid.UUID, req *services.ForkliftRequest) (*models.Forklift, error) {
	args := m.Called(ctx, userID, forkliftID, req)
	if f := args.Get(0); f != nil {
		return f.(*models.Forklift), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForkliftService) Delete(ctx context.Context, userID, forkliftID uuid.UUID) error {
	return m.Called(ctx, userID, forkliftID).Error(0)
}

func (m *MockForkliftService) ListDocuments(ctx context.Context, userID, forkliftID uuid.UUID) ([]*models.ForkliftDocument, error) {
	args := m.Called(ctx, userID, forkliftID)
	if d := args.Get(0); d != nil {
		return d.([]*models.ForkliftDocument), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForkliftService) DeleteDocument(ctx context.Context, userID, forkliftID, documentID uuid.UUID) error {
	return m.Called(ctx, userID, forkliftID, documentID).Error(0)
}

func (m *MockForkliftService) ListByCustomer(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID, customer string) ([]*models.Forklift, error) {
	args := m.Called(ctx, userID, companyID, customer)
	if f := args.Get(0); f != nil {
		return f.([]*models.Forklift), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) PrintForklift(ctx context.Context, userID, forkliftID uuid.UUID, lang string) ([]byte, error) {
	args := m.Called(ctx, userID, forkliftID, lang)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) PrintCustomer(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID, customer, lang string) ([]byte, error) {
	args := m.Called(ctx, userID, companyID, customer, lang)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) GenerateServiceSheet(ctx context.Context, userID, forkliftID uuid.UUID, lang string) (*services.ServiceSheet, error) {
	args := m.Called(ctx, userID, forkliftID, lang)
	if s := args.Get(0); s != nil {
		return s.(*services.ServiceSheet), args.Error(1)
	}
	return nil, args.Error(1)
}

// request builds an echo context for an authenticated user. params are
// name/value pairs.
func request(method, target, body string, userID uuid.UUID, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != uuid.Nil {
		req = req.WithContext(context.WithValue(req.Context(), common.UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	if err != nil {
		return http.StatusInternalServerError
	}
	return 0
}
