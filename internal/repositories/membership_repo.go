package repositories

import (
	"context"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MembershipRepository interface {
	Get(ctx context.Context, userID, companyID uuid.UUID) (*models.UserCompany, error)
	// AddIfAbsent inserts the membership unless one exists. Returns true when a row was inserted.
	AddIfAbsent(ctx context.Context, m *models.UserCompany) (bool, error)
	ListUsers(ctx context.Context, companyID uuid.UUID) ([]*models.CompanyUser, error)
	ActiveUserIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
	ActiveCompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	UpdateFlags(ctx context.Context, m *models.UserCompany) error
}

type membershipRepo struct {
	db DB
}

func NewMembershipRepo(db DB) MembershipRepository {
	return &membershipRepo{db: db}
}

func (r *membershipRepo) Get(ctx context.Context, userID, companyID uuid.UUID) (*models.UserCompany, error) {
	m := &models.UserCompany{}
	query := `
		SELECT user_id, company_id, is_admin, is_blocked, joined_at
		FROM user_companies
		WHERE user_id = $1 AND company_id = $2
	`
	err := r.db.QueryRow(ctx, query, userID, companyID).Scan(&m.UserID, &m.CompanyID, &m.IsAdmin, &m.IsBlocked, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *membershipRepo) AddIfAbsent(ctx context.Context, m *models.UserCompany) (bool, error) {
	query := `
		INSERT INTO user_companies (user_id, company_id, is_admin, is_blocked, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, company_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, m.UserID, m.CompanyID, m.IsAdmin, m.IsBlocked, m.JoinedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *membershipRepo) ListUsers(ctx context.Context, companyID uuid.UUID) ([]*models.CompanyUser, error) {
	query := `
		SELECT u.id, u.username, u.email, uc.is_admin, uc.is_blocked, (c.created_by = u.id), uc.joined_at
		FROM user_companies uc
		JOIN users u ON u.id = uc.user_id
		JOIN companies c ON c.id = uc.company_id
		WHERE uc.company_id = $1
		ORDER BY u.username
	`
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.CompanyUser{}
	for rows.Next() {
		u := &models.CompanyUser{}
		if err := rows.Scan(&u.UserID, &u.Username, &u.Email, &u.IsAdmin, &u.IsBlocked, &u.IsCreator, &u.JoinedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *membershipRepo) ActiveUserIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	return r.collectIDs(ctx, `SELECT user_id FROM user_companies WHERE company_id = $1 AND is_blocked = false`, companyID)
}

func (r *membershipRepo) ActiveCompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.collectIDs(ctx, `SELECT company_id FROM user_companies WHERE user_id = $1 AND is_blocked = false`, userID)
}

func (r *membershipRepo) collectIDs(ctx context.Context, query string, arg uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *membershipRepo) UpdateFlags(ctx context.Context, m *models.UserCompany) error {
	query := `
		UPDATE user_companies
		SET is_admin = $1, is_blocked = $2
		WHERE user_id = $3 AND company_id = $4
	`
	tag, err := r.db.Exec(ctx, query, m.IsAdmin, m.IsBlocked, m.UserID, m.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
