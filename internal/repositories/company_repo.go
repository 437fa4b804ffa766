package repositories

import (
	"context"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CompanyRepository interface {
	// CreateWithOwner inserts the company and its creator's admin membership atomically.
	CreateWithOwner(ctx context.Context, company *models.Company, owner *models.UserCompany) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByJoinCode(ctx context.Context, joinCode string) (*models.Company, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.CompanyMembership, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.Company, error)
	UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error
	// DeleteCascade removes documents, forklifts, memberships and the company in one transaction.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

type companyRepo struct {
	db DB
}

func NewCompanyRepo(db DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) CreateWithOwner(ctx context.Context, company *models.Company, owner *models.UserCompany) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO companies (id, name, join_code, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, company.ID, company.Name, company.JoinCode, company.CreatedBy, company.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_companies (user_id, company_id, is_admin, is_blocked, joined_at)
			VALUES ($1, $2, $3, $4, $5)
		`, owner.UserID, owner.CompanyID, owner.IsAdmin, owner.IsBlocked, owner.JoinedAt)
		return err
	})
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company := &models.Company{}
	query := `
		SELECT id, name, join_code, created_by, created_at
		FROM companies
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&company.ID, &company.Name, &company.JoinCode, &company.CreatedBy, &company.CreatedAt)
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (r *companyRepo) GetByJoinCode(ctx context.Context, joinCode string) (*models.Company, error) {
	company := &models.Company{}
	query := `
		SELECT id, name, join_code, created_by, created_at
		FROM companies
		WHERE join_code = $1
	`
	err := r.db.QueryRow(ctx, query, joinCode).Scan(&company.ID, &company.Name, &company.JoinCode, &company.CreatedBy, &company.CreatedAt)
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (r *companyRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.CompanyMembership, error) {
	query := `
		SELECT c.id, c.name, c.join_code, c.created_by, c.created_at,
		       (uc.is_admin OR c.created_by = uc.user_id), uc.is_blocked
		FROM companies c
		JOIN user_companies uc ON uc.company_id = c.id
		WHERE uc.user_id = $1
		ORDER BY c.name
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := []*models.CompanyMembership{}
	for rows.Next() {
		m := &models.CompanyMembership{}
		if err := rows.Scan(&m.ID, &m.Name, &m.JoinCode, &m.CreatedBy, &m.CreatedAt, &m.IsAdmin, &m.IsBlocked); err != nil {
			return nil, err
		}
		companies = append(companies, m)
	}
	return companies, rows.Err()
}

func (r *companyRepo) ListAll(ctx context.Context, limit, offset int) ([]*models.Company, error) {
	query := `
		SELECT id, name, join_code, created_by, created_at
		FROM companies
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		company := &models.Company{}
		if err := rows.Scan(&company.ID, &company.Name, &company.JoinCode, &company.CreatedBy, &company.CreatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

func (r *companyRepo) UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error {
	tag, err := r.db.Exec(ctx, `UPDATE companies SET join_code = $1 WHERE id = $2`, joinCode, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *companyRepo) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM forklift_documents WHERE company_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_companies WHERE company_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM forklifts WHERE company_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}
