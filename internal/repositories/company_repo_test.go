package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func stringPtr(s string) *string {
	return &s
}

type CompanyRepoTestSuite struct {
	suite.Suite
	mock        pgxmock.PgxPoolIface
	repo        CompanyRepository
	memberships MembershipRepository
	companyID   uuid.UUID
	userID      uuid.UUID
	context     context.Context
}

func (suite *CompanyRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewCompanyRepo(mock)
	suite.memberships = NewMembershipRepo(mock)
	suite.companyID = uuid.New()
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *CompanyRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestCompanyRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CompanyRepoTestSuite))
}

func (suite *CompanyRepoTestSuite) newCompany() (*models.Company, *models.UserCompany) {
	now := time.Now()
	company := &models.Company{
		ID:        suite.companyID,
		Name:      "Acme Logistics",
		JoinCode:  "ABCD1234",
		CreatedBy: suite.userID,
		CreatedAt: now,
	}
	owner := &models.UserCompany{
		UserID:    suite.userID,
		CompanyID: suite.companyID,
		IsAdmin:   true,
		JoinedAt:  now,
	}
	return company, owner
}

func (suite *CompanyRepoTestSuite) TestCreateWithOwner_Success() {
	company, owner := suite.newCompany()

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO companies")).
		WithArgs(company.ID, company.Name, company.JoinCode, company.CreatedBy, company.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_companies")).
		WithArgs(owner.UserID, owner.CompanyID, true, false, owner.JoinedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.CreateWithOwner(suite.context, company, owner)
	assert.NoError(suite.T(), err)
}

func (suite *CompanyRepoTestSuite) TestCreateWithOwner_MembershipFailureRollsBack() {
	company, owner := suite.newCompany()

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO companies")).
		WithArgs(company.ID, company.Name, company.JoinCode, company.CreatedBy, company.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_companies")).
		WithArgs(owner.UserID, owner.CompanyID, true, false, owner.JoinedAt).
		WillReturnError(errors.New("database connection failed"))
	suite.mock.ExpectRollback()

	err := suite.repo.CreateWithOwner(suite.context, company, owner)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}

func (suite *CompanyRepoTestSuite) TestGetByJoinCode_NotFound() {
	suite.mock.ExpectQuery(regexp.QuoteMeta("FROM companies")).
		WithArgs("ZZZZ9999").
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByJoinCode(suite.context, "ZZZZ9999")
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), result)
}

func (suite *CompanyRepoTestSuite) TestListForUser_Success() {
	now := time.Now()
	otherID := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "name", "join_code", "created_by", "created_at", "is_admin", "is_blocked"}).
		AddRow(suite.companyID, "Acme Logistics", "ABCD1234", suite.userID, now, true, false).
		AddRow(otherID, "Blocked Co", "QWER5678", uuid.New(), now, false, true)

	suite.mock.ExpectQuery(regexp.QuoteMeta("JOIN user_companies uc ON uc.company_id = c.id")).
		WithArgs(suite.userID).
		WillReturnRows(rows)

	result, err := suite.repo.ListForUser(suite.context, suite.userID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), suite.companyID, result[0].ID)
	assert.True(suite.T(), result[0].IsAdmin)
	assert.True(suite.T(), result[1].IsBlocked)
}

func (suite *CompanyRepoTestSuite) TestUpdateJoinCode_NotFound() {
	suite.mock.ExpectExec(regexp.QuoteMeta("UPDATE companies SET join_code")).
		WithArgs("NEWC0DE1", suite.companyID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.UpdateJoinCode(suite.context, suite.companyID, "NEWC0DE1")
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *CompanyRepoTestSuite) TestDeleteCascade_DeletesInOrder() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forklift_documents WHERE company_id")).
		WithArgs(suite.companyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_companies WHERE company_id")).
		WithArgs(suite.companyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forklifts WHERE company_id")).
		WithArgs(suite.companyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM companies WHERE id")).
		WithArgs(suite.companyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.DeleteCascade(suite.context, suite.companyID)
	assert.NoError(suite.T(), err)
}

func (suite *CompanyRepoTestSuite) TestDeleteCascade_MissingCompanyRollsBack() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forklift_documents")).
		WithArgs(suite.companyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_companies")).
		WithArgs(suite.companyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forklifts")).
		WithArgs(suite.companyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM companies")).
		WithArgs(suite.companyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectRollback()

	err := suite.repo.DeleteCascade(suite.context, suite.companyID)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *CompanyRepoTestSuite) TestMembershipAddIfAbsent_ExistingRowIsKept() {
	m := &models.UserCompany{UserID: suite.userID, CompanyID: suite.companyID, JoinedAt: time.Now()}

	suite.mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id, company_id) DO NOTHING")).
		WithArgs(m.UserID, m.CompanyID, false, false, m.JoinedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := suite.memberships.AddIfAbsent(suite.context, m)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), inserted)
}

func (suite *CompanyRepoTestSuite) TestMembershipGet_Success() {
	joined := time.Now()
	suite.mock.ExpectQuery(regexp.QuoteMeta("FROM user_companies")).
		WithArgs(suite.userID, suite.companyID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "company_id", "is_admin", "is_blocked", "joined_at"}).
			AddRow(suite.userID, suite.companyID, false, true, joined))

	m, err := suite.memberships.Get(suite.context, suite.userID, suite.companyID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), m.IsBlocked)
	assert.False(suite.T(), m.Active())
}

func (suite *CompanyRepoTestSuite) TestMembershipListUsers_Success() {
	joined := time.Now()
	email := stringPtr("ops@example.com")
	suite.mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON u.id = uc.user_id")).
		WithArgs(suite.companyID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "is_admin", "is_blocked", "is_creator", "joined_at"}).
			AddRow(suite.userID, "alice", email, true, false, true, joined))

	users, err := suite.memberships.ListUsers(suite.context, suite.companyID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), users, 1)
	assert.Equal(suite.T(), "alice", users[0].Username)
	assert.True(suite.T(), users[0].IsCreator)
}

func (suite *CompanyRepoTestSuite) TestMembershipActiveCompanyIDs_Success() {
	other := uuid.New()
	suite.mock.ExpectQuery(regexp.QuoteMeta("SELECT company_id FROM user_companies WHERE user_id = $1 AND is_blocked = false")).
		WithArgs(suite.userID).
		WillReturnRows(pgxmock.NewRows([]string{"company_id"}).AddRow(suite.companyID).AddRow(other))

	ids, err := suite.memberships.ActiveCompanyIDs(suite.context, suite.userID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []uuid.UUID{suite.companyID, other}, ids)
}

func (suite *CompanyRepoTestSuite) TestMembershipUpdateFlags_NotMember() {
	m := &models.UserCompany{UserID: suite.userID, CompanyID: suite.companyID, IsAdmin: true}
	suite.mock.ExpectExec(regexp.QuoteMeta("UPDATE user_companies")).
		WithArgs(true, false, suite.userID, suite.companyID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.memberships.UpdateFlags(suite.context, m)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}
