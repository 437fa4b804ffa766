package repositories

import (
	"context"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentRepository reads document rows. New rows are written through
// ForkliftRepository so they commit with their forklift.
type DocumentRepository interface {
	GetByID(ctx context.Context, forkliftID, id uuid.UUID) (*models.ForkliftDocument, error)
	ListByForklift(ctx context.Context, forkliftID uuid.UUID) ([]*models.ForkliftDocument, error)
	ListByForklifts(ctx context.Context, forkliftIDs []uuid.UUID) ([]*models.ForkliftDocument, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepo struct {
	db DB
}

func NewDocumentRepo(db DB) DocumentRepository {
	return &documentRepo{db: db}
}

func insertDocument(ctx context.Context, q Querier, d *models.ForkliftDocument) error {
	query := `
		INSERT INTO forklift_documents (id, forklift_id, company_id, interval_hours, object_key, content_type, size_bytes, file_name, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.Exec(ctx, query, d.ID, d.ForkliftID, d.CompanyID, d.IntervalHours, d.ObjectKey, d.ContentType, d.SizeBytes, d.FileName, d.UploadedBy, d.CreatedAt)
	return err
}

func (r *documentRepo) GetByID(ctx context.Context, forkliftID, id uuid.UUID) (*models.ForkliftDocument, error) {
	d := &models.ForkliftDocument{}
	query := `
		SELECT id, forklift_id, company_id, interval_hours, object_key, content_type, size_bytes, file_name, uploaded_by, created_at
		FROM forklift_documents
		WHERE forklift_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, forkliftID, id).Scan(&d.ID, &d.ForkliftID, &d.CompanyID, &d.IntervalHours, &d.ObjectKey, &d.ContentType, &d.SizeBytes, &d.FileName, &d.UploadedBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *documentRepo) ListByForklift(ctx context.Context, forkliftID uuid.UUID) ([]*models.ForkliftDocument, error) {
	return r.ListByForklifts(ctx, []uuid.UUID{forkliftID})
}

func (r *documentRepo) ListByForklifts(ctx context.Context, forkliftIDs []uuid.UUID) ([]*models.ForkliftDocument, error) {
	if len(forkliftIDs) == 0 {
		return []*models.ForkliftDocument{}, nil
	}
	query := `
		SELECT id, forklift_id, company_id, interval_hours, object_key, content_type, size_bytes, file_name, uploaded_by, created_at
		FROM forklift_documents
		WHERE forklift_id = ANY($1)
		ORDER BY interval_hours, created_at
	`
	rows, err := r.db.Query(ctx, query, forkliftIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*models.ForkliftDocument{}
	for rows.Next() {
		d := &models.ForkliftDocument{}
		if err := rows.Scan(&d.ID, &d.ForkliftID, &d.CompanyID, &d.IntervalHours, &d.ObjectKey, &d.ContentType, &d.SizeBytes, &d.FileName, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM forklift_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
