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

type ForkliftRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      ForkliftRepository
	docs      DocumentRepository
	audit     AuditLogsRepository
	companyID uuid.UUID
	userID    uuid.UUID
	context   context.Context
}

func (suite *ForkliftRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewForkliftRepo(mock)
	suite.docs = NewDocumentRepo(mock)
	suite.audit = NewAuditLogsRepo(mock)
	suite.companyID = uuid.New()
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *ForkliftRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestForkliftRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ForkliftRepoTestSuite))
}

var forkliftRowColumns = []string{
	"id", "company_id", "user_id", "customer", "brand", "model_type", "serial_number",
	"engine_specs", "transmission", "tire_specs", "service_notes", "last_service_date", "next_service_date", "service_hours",
	"filters_500h", "lubricants_500h", "filters_1000h", "lubricants_1000h",
	"filters_1500h", "lubricants_1500h", "filters_2000h", "lubricants_2000h",
	"created_at", "updated_at",
}

func (suite *ForkliftRepoTestSuite) forkliftRow(rows *pgxmock.Rows, id uuid.UUID, next *time.Time) *pgxmock.Rows {
	var none *string
	hours := 1200
	now := time.Now()
	return rows.AddRow(
		id, suite.companyID, suite.userID, "Warehouse North", "Toyota", "8FBE15", stringPtr("SN-001"),
		none, none, none, none, (*time.Time)(nil), next, &hours,
		stringPtr("Oil filter"), stringPtr("15W-40"), none, none,
		none, none, none, none,
		now, now,
	)
}

func (suite *ForkliftRepoTestSuite) TestGetByID_Success() {
	id := uuid.New()
	next := time.Now().AddDate(0, 0, 3)
	rows := suite.forkliftRow(pgxmock.NewRows(forkliftRowColumns), id, &next)

	suite.mock.ExpectQuery(regexp.QuoteMeta("FROM forklifts WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(rows)

	f, err := suite.repo.GetByID(suite.context, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Toyota", f.Brand)
	assert.Equal(suite.T(), "Oil filter", *f.Filters500h)
	assert.Nil(suite.T(), f.Filters1000h)
	assert.Equal(suite.T(), 1200, *f.ServiceHours)
}

func (suite *ForkliftRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(regexp.QuoteMeta("FROM forklifts WHERE id = $1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	f, err := suite.repo.GetByID(suite.context, id)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), f)
}

func (suite *ForkliftRepoTestSuite) TestListByCompanies_EmptyInputSkipsQuery() {
	forklifts, err := suite.repo.ListByCompanies(suite.context, nil)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), forklifts)
}

func (suite *ForkliftRepoTestSuite) TestListByCompanies_Success() {
	ids := []uuid.UUID{suite.companyID}
	rows := pgxmock.NewRows(forkliftRowColumns)
	suite.forkliftRow(rows, uuid.New(), nil)
	suite.forkliftRow(rows, uuid.New(), nil)

	suite.mock.ExpectQuery(regexp.QuoteMeta("WHERE company_id = ANY($1)")).
		WithArgs(ids).
		WillReturnRows(rows)

	forklifts, err := suite.repo.ListByCompanies(suite.context, ids)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), forklifts, 2)
}

func (suite *ForkliftRepoTestSuite) newForklift() *models.Forklift {
	now := time.Now()
	return &models.Forklift{
		ID:        uuid.New(),
		CompanyID: suite.companyID,
		UserID:    suite.userID,
		Customer:  "Warehouse North",
		Brand:     "Linde",
		ModelType: "E20",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (suite *ForkliftRepoTestSuite) newDocument(f *models.Forklift) *models.ForkliftDocument {
	id := uuid.New()
	return &models.ForkliftDocument{
		ID:            id,
		ForkliftID:    f.ID,
		CompanyID:     f.CompanyID,
		IntervalHours: 500,
		ObjectKey:     "forklifts/" + f.ID.String() + "/500h/" + id.String() + ".pdf",
		ContentType:   "application/pdf",
		SizeBytes:     13,
		FileName:      id.String() + ".pdf",
		UploadedBy:    suite.userID,
		CreatedAt:     f.CreatedAt,
	}
}

func (suite *ForkliftRepoTestSuite) expectInsertForklift(f *models.Forklift) *pgxmock.ExpectedExec {
	return suite.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO forklifts")).
		WithArgs(
			f.ID, f.CompanyID, f.UserID, f.Customer, f.Brand, f.ModelType, f.SerialNumber,
			f.EngineSpecs, f.Transmission, f.TireSpecs, f.ServiceNotes, f.LastServiceDate, f.NextServiceDate, f.ServiceHours,
			f.Filters500h, f.Lubricants500h, f.Filters1000h, f.Lubricants1000h,
			f.Filters1500h, f.Lubricants1500h, f.Filters2000h, f.Lubricants2000h,
			f.CreatedAt, f.UpdatedAt,
		)
}

func (suite *ForkliftRepoTestSuite) expectInsertDocument(d *models.ForkliftDocument) *pgxmock.ExpectedExec {
	return suite.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO forklift_documents")).
		WithArgs(d.ID, d.ForkliftID, d.CompanyID, d.IntervalHours, d.ObjectKey, d.ContentType, d.SizeBytes, d.FileName, d.UploadedBy, d.CreatedAt)
}

func (suite *ForkliftRepoTestSuite) expectUpdateForklift(f *models.Forklift) *pgxmock.ExpectedExec {
	return suite.mock.ExpectExec(regexp.QuoteMeta("UPDATE forklifts")).
		WithArgs(
			f.CompanyID, f.Customer, f.Brand, f.ModelType, f.SerialNumber,
			f.EngineSpecs, f.Transmission, f.TireSpecs, f.ServiceNotes,
			f.LastServiceDate, f.NextServiceDate, f.ServiceHours,
			f.Filters500h, f.Lubricants500h, f.Filters1000h, f.Lubricants1000h,
			f.Filters1500h, f.Lubricants1500h, f.Filters2000h, f.Lubricants2000h,
			f.UpdatedAt, f.ID,
		)
}

func (suite *ForkliftRepoTestSuite) TestCreate_Success() {
	f := suite.newForklift()
	doc := suite.newDocument(f)

	suite.mock.ExpectBegin()
	suite.expectInsertForklift(f).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.expectInsertDocument(doc).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	assert.NoError(suite.T(), suite.repo.Create(suite.context, f, DocumentChanges{Add: []*models.ForkliftDocument{doc}}))
}

func (suite *ForkliftRepoTestSuite) TestCreate_DocumentFailureRollsBack() {
	f := suite.newForklift()
	doc := suite.newDocument(f)

	suite.mock.ExpectBegin()
	suite.expectInsertForklift(f).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.expectInsertDocument(doc).WillReturnError(errors.New("database connection failed"))
	suite.mock.ExpectRollback()

	err := suite.repo.Create(suite.context, f, DocumentChanges{Add: []*models.ForkliftDocument{doc}})
	assert.EqualError(suite.T(), err, "database connection failed")
}

func (suite *ForkliftRepoTestSuite) TestUpdate_MovesAndSyncsDocuments() {
	f := suite.newForklift()
	added := suite.newDocument(f)
	removed := uuid.New()

	suite.mock.ExpectBegin()
	suite.expectUpdateForklift(f).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(regexp.QuoteMeta("UPDATE forklift_documents SET company_id = $1 WHERE forklift_id = $2")).
		WithArgs(f.CompanyID, f.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forklift_documents WHERE id = $1 AND forklift_id = $2")).
		WithArgs(removed, f.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.expectInsertDocument(added).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Update(suite.context, f, DocumentChanges{
		Add:    []*models.ForkliftDocument{added},
		Remove: []uuid.UUID{removed},
	})
	assert.NoError(suite.T(), err)
}

func (suite *ForkliftRepoTestSuite) TestUpdate_NotFoundRollsBack() {
	f := suite.newForklift()

	suite.mock.ExpectBegin()
	suite.expectUpdateForklift(f).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	suite.mock.ExpectRollback()

	assert.ErrorIs(suite.T(), suite.repo.Update(suite.context, f, DocumentChanges{}), pgx.ErrNoRows)
}

func (suite *ForkliftRepoTestSuite) TestDelete_NotFound() {
	id := uuid.New()
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forklifts WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(suite.T(), suite.repo.Delete(suite.context, id), pgx.ErrNoRows)
}

func (suite *ForkliftRepoTestSuite) TestListServiceDue_UsesCutoff() {
	cutoff := time.Now().AddDate(0, 0, 7)
	next := time.Now().AddDate(0, 0, -1)
	rows := suite.forkliftRow(pgxmock.NewRows(forkliftRowColumns), uuid.New(), &next)

	suite.mock.ExpectQuery(regexp.QuoteMeta("next_service_date <= $2")).
		WithArgs(suite.companyID, cutoff).
		WillReturnRows(rows)

	forklifts, err := suite.repo.ListServiceDue(suite.context, suite.companyID, cutoff)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), forklifts, 1)
	assert.NotNil(suite.T(), forklifts[0].NextServiceDate)
}

func (suite *ForkliftRepoTestSuite) TestDocumentListByForklift_Success() {
	forkliftID := uuid.New()
	docID := uuid.New()
	now := time.Now()
	suite.mock.ExpectQuery(regexp.QuoteMeta("FROM forklift_documents")).
		WithArgs([]uuid.UUID{forkliftID}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "forklift_id", "company_id", "interval_hours", "object_key", "content_type", "size_bytes", "file_name", "uploaded_by", "created_at"}).
			AddRow(docID, forkliftID, suite.companyID, 1000, "companies/x/forklifts/y/1000h/z.pdf", "application/pdf", int64(2048), "manual.pdf", suite.userID, now))

	docs, err := suite.docs.ListByForklift(suite.context, forkliftID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), docs, 1)
	assert.Equal(suite.T(), 1000, docs[0].IntervalHours)
	assert.Equal(suite.T(), "manual.pdf", docs[0].FileName)
}

func (suite *ForkliftRepoTestSuite) TestAuditLogList_AppliesFiltersAndPaging() {
	action := models.ActionUpdate
	now := time.Now()
	suite.mock.ExpectQuery(regexp.QuoteMeta("AND action = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs(suite.companyID, action, 20, 40).
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_id", "table_name", "record_id", "action", "new_values", "old_values", "changed_by", "created_at"}).
			AddRow(uuid.New(), suite.companyID, "forklifts", "abc", action, []byte(`{"brand":"Linde"}`), []byte(nil), &suite.userID, now))

	logs, err := suite.audit.List(suite.context, suite.companyID, &models.AuditLogFilters{Action: &action, Limit: 20, Offset: 40})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), logs, 1)
	assert.Equal(suite.T(), "Linde", logs[0].NewValues["brand"])
	assert.Nil(suite.T(), logs[0].OldValues)
}

func (suite *ForkliftRepoTestSuite) TestAuditLogDeleteOlderThan_ReturnsCount() {
	cutoff := time.Now().AddDate(-1, 0, 0)
	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM audit_logs WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	n, err := suite.audit.DeleteOlderThan(suite.context, cutoff)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(12), n)
}
