package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, auditLog *models.AuditLog) error
	List(ctx context.Context, companyID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
	// DeleteOlderThan removes entries created before cutoff and returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditLogsRepo struct {
	db DB
}

func NewAuditLogsRepo(db DB) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	if auditLog.CreatedAt.IsZero() {
		auditLog.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_logs (id, company_id, table_name, record_id, action, new_values, old_values, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var newValuesBytes, oldValuesBytes []byte
	var err error

	if auditLog.NewValues != nil {
		newValuesBytes, err = json.Marshal(auditLog.NewValues)
		if err != nil {
			return fmt.Errorf("failed to marshal new_values: %w", err)
		}
	}

	if auditLog.OldValues != nil {
		oldValuesBytes, err = json.Marshal(auditLog.OldValues)
		if err != nil {
			return fmt.Errorf("failed to marshal old_values: %w", err)
		}
	}

	_, err = r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.CompanyID,
		auditLog.TableName,
		auditLog.RecordID,
		auditLog.Action,
		newValuesBytes,
		oldValuesBytes,
		auditLog.ChangedBy,
		auditLog.CreatedAt,
	)

	return err
}

func (r *auditLogsRepo) List(ctx context.Context, companyID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}

	query := `
		SELECT id, company_id, table_name, record_id, action, new_values, old_values, changed_by, created_at
		FROM audit_logs
		WHERE company_id = $1
	`

	args := []interface{}{companyID}
	argIdx := 1

	if filters.TableName != nil {
		argIdx++
		query += fmt.Sprintf(" AND table_name = $%d", argIdx)
		args = append(args, *filters.TableName)
	}

	if filters.Action != nil {
		argIdx++
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, *filters.Action)
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		argIdx++
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			argIdx++
			query += fmt.Sprintf(" OFFSET $%d", argIdx)
			args = append(args, filters.Offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	auditLogs := []*models.AuditLog{}
	for rows.Next() {
		auditLog := &models.AuditLog{}
		var newValuesBytes, oldValuesBytes []byte

		err := rows.Scan(
			&auditLog.ID,
			&auditLog.CompanyID,
			&auditLog.TableName,
			&auditLog.RecordID,
			&auditLog.Action,
			&newValuesBytes,
			&oldValuesBytes,
			&auditLog.ChangedBy,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(newValuesBytes) > 0 {
			if err := json.Unmarshal(newValuesBytes, &auditLog.NewValues); err != nil {
				return nil, fmt.Errorf("failed to unmarshal new_values: %w", err)
			}
		}

		if len(oldValuesBytes) > 0 {
			if err := json.Unmarshal(oldValuesBytes, &auditLog.OldValues); err != nil {
				return nil, fmt.Errorf("failed to unmarshal old_values: %w", err)
			}
		}

		auditLogs = append(auditLogs, auditLog)
	}

	return auditLogs, rows.Err()
}

func (r *auditLogsRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
