package repositories

import (
	"context"
	"time"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentChanges are document rows written in the same transaction as their forklift.
type DocumentChanges struct {
	Add    []*models.ForkliftDocument
	Remove []uuid.UUID
}

type ForkliftRepository interface {
	// Create inserts the forklift and its new document rows atomically.
	Create(ctx context.Context, forklift *models.Forklift, docs DocumentChanges) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Forklift, error)
	ListByCompanies(ctx context.Context, companyIDs []uuid.UUID) ([]*models.Forklift, error)
	// ListServiceDue returns forklifts of a company whose next service date is on or before the cutoff.
	ListServiceDue(ctx context.Context, companyID uuid.UUID, cutoff time.Time) ([]*models.Forklift, error)
	// Update saves the forklift, moves its documents along with its company and
	// applies docs, all in one transaction.
	Update(ctx context.Context, forklift *models.Forklift, docs DocumentChanges) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type forkliftRepo struct {
	db DB
}

func NewForkliftRepo(db DB) ForkliftRepository {
	return &forkliftRepo{db: db}
}

const forkliftColumns = `id, company_id, user_id, customer, brand, model_type, serial_number,
		engine_specs, transmission, tire_specs, service_notes, last_service_date, next_service_date, service_hours,
		filters_500h, lubricants_500h, filters_1000h, lubricants_1000h,
		filters_1500h, lubricants_1500h, filters_2000h, lubricants_2000h,
		created_at, updated_at`

func scanForklift(row pgx.Row) (*models.Forklift, error) {
	f := &models.Forklift{}
	err := row.Scan(
		&f.ID, &f.CompanyID, &f.UserID, &f.Customer, &f.Brand, &f.ModelType, &f.SerialNumber,
		&f.EngineSpecs, &f.Transmission, &f.TireSpecs, &f.ServiceNotes, &f.LastServiceDate, &f.NextServiceDate, &f.ServiceHours,
		&f.Filters500h, &f.Lubricants500h, &f.Filters1000h, &f.Lubricants1000h,
		&f.Filters1500h, &f.Lubricants1500h, &f.Filters2000h, &f.Lubricants2000h,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *forkliftRepo) Create(ctx context.Context, f *models.Forklift, docs DocumentChanges) error {
	query := `
		INSERT INTO forklifts (` + forkliftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			f.ID, f.CompanyID, f.UserID, f.Customer, f.Brand, f.ModelType, f.SerialNumber,
			f.EngineSpecs, f.Transmission, f.TireSpecs, f.ServiceNotes, f.LastServiceDate, f.NextServiceDate, f.ServiceHours,
			f.Filters500h, f.Lubricants500h, f.Filters1000h, f.Lubricants1000h,
			f.Filters1500h, f.Lubricants1500h, f.Filters2000h, f.Lubricants2000h,
			f.CreatedAt, f.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return applyDocumentChanges(ctx, tx, f.ID, docs)
	})
}

func (r *forkliftRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Forklift, error) {
	query := `SELECT ` + forkliftColumns + ` FROM forklifts WHERE id = $1`
	return scanForklift(r.db.QueryRow(ctx, query, id))
}

func (r *forkliftRepo) ListByCompanies(ctx context.Context, companyIDs []uuid.UUID) ([]*models.Forklift, error) {
	if len(companyIDs) == 0 {
		return []*models.Forklift{}, nil
	}
	query := `
		SELECT ` + forkliftColumns + `
		FROM forklifts
		WHERE company_id = ANY($1)
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, companyIDs)
}

func (r *forkliftRepo) ListServiceDue(ctx context.Context, companyID uuid.UUID, cutoff time.Time) ([]*models.Forklift, error) {
	query := `
		SELECT ` + forkliftColumns + `
		FROM forklifts
		WHERE company_id = $1 AND next_service_date IS NOT NULL AND next_service_date <= $2
		ORDER BY next_service_date
	`
	return r.list(ctx, query, companyID, cutoff)
}

func (r *forkliftRepo) list(ctx context.Context, query string, args ...any) ([]*models.Forklift, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forklifts := []*models.Forklift{}
	for rows.Next() {
		f, err := scanForklift(rows)
		if err != nil {
			return nil, err
		}
		forklifts = append(forklifts, f)
	}
	return forklifts, rows.Err()
}

func (r *forkliftRepo) Update(ctx context.Context, f *models.Forklift, docs DocumentChanges) error {
	query := `
		UPDATE forklifts
		SET company_id = $1, customer = $2, brand = $3, model_type = $4, serial_number = $5,
		    engine_specs = $6, transmission = $7, tire_specs = $8, service_notes = $9,
		    last_service_date = $10, next_service_date = $11, service_hours = $12,
		    filters_500h = $13, lubricants_500h = $14, filters_1000h = $15, lubricants_1000h = $16,
		    filters_1500h = $17, lubricants_1500h = $18, filters_2000h = $19, lubricants_2000h = $20,
		    updated_at = $21
		WHERE id = $22
	`
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			f.CompanyID, f.Customer, f.Brand, f.ModelType, f.SerialNumber,
			f.EngineSpecs, f.Transmission, f.TireSpecs, f.ServiceNotes,
			f.LastServiceDate, f.NextServiceDate, f.ServiceHours,
			f.Filters500h, f.Lubricants500h, f.Filters1000h, f.Lubricants1000h,
			f.Filters1500h, f.Lubricants1500h, f.Filters2000h, f.Lubricants2000h,
			f.UpdatedAt, f.ID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		_, err = tx.Exec(ctx, `UPDATE forklift_documents SET company_id = $1 WHERE forklift_id = $2 AND company_id <> $1`, f.CompanyID, f.ID)
		if err != nil {
			return err
		}
		return applyDocumentChanges(ctx, tx, f.ID, docs)
	})
}

func applyDocumentChanges(ctx context.Context, q Querier, forkliftID uuid.UUID, docs DocumentChanges) error {
	for _, id := range docs.Remove {
		if _, err := q.Exec(ctx, `DELETE FROM forklift_documents WHERE id = $1 AND forklift_id = $2`, id, forkliftID); err != nil {
			return err
		}
	}
	for _, d := range docs.Add {
		if err := insertDocument(ctx, q, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *forkliftRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM forklifts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
