package services

import (
	"context"
	"errors"
	"time"

	"forklifttracker/internal/common"
	"forklifttracker/internal/models"
	"forklifttracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuditRetention is how long audit entries are kept.
const AuditRetention = 365 * 24 * time.Hour

type AuditLogsService interface {
	// Create audit log entry
	LogActivity(ctx context.Context, companyID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error
	ListAuditLogs(ctx context.Context, companyID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)

	// Helper methods for common audit scenarios
	LogEntityCreate(ctx context.Context, companyID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, newValues models.JSONB)
	LogEntityUpdate(ctx context.Context, companyID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues, newValues models.JSONB)
	LogEntityDelete(ctx context.Context, companyID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues models.JSONB)

	// PurgeExpired drops entries older than AuditRetention.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
	}
}

// LogActivity creates a new audit log entry with validation
func (s *auditLogsService) LogActivity(ctx context.Context, companyID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error {
	if tableName == "" {
		return errors.New("table_name is required")
	}
	if action == "" {
		return errors.New("action is required")
	}

	auditLog := &models.AuditLog{
		ID:        uuid.New(),
		CompanyID: companyID,
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		NewValues: newValues,
		OldValues: oldValues,
		ChangedBy: changedBy,
		CreatedAt: time.Now(),
	}

	return s.auditLogsRepo.Create(ctx, auditLog)
}

// ListAuditLogs retrieves audit log entries of a company, newest first
func (s *auditLogsService) ListAuditLogs(ctx context.Context, companyID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	limit, offset, err := common.ValidatePaginationParams(filters.Limit, filters.Offset)
	if err != nil {
		return nil, Invalid(err.Error())
	}
	filters.Limit, filters.Offset = limit, offset

	return s.auditLogsRepo.List(ctx, companyID, filters)
}

// Entity helpers never fail the calling operation; a lost audit entry is logged.

func (s *auditLogsService) LogEntityCreate(ctx context.Context, companyID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, newValues models.JSONB) {
	s.logQuietly(ctx, companyID, tableName, recordID, models.ActionInsert, changedBy, nil, newValues)
}

func (s *auditLogsService) LogEntityUpdate(ctx context.Context, companyID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) {
	s.logQuietly(ctx, companyID, tableName, recordID, models.ActionUpdate, changedBy, oldValues, newValues)
}

func (s *auditLogsService) LogEntityDelete(ctx context.Context, companyID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues models.JSONB) {
	s.logQuietly(ctx, companyID, tableName, recordID, models.ActionDelete, changedBy, oldValues, nil)
}

func (s *auditLogsService) logQuietly(ctx context.Context, companyID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) {
	if err := s.LogActivity(ctx, companyID, tableName, recordID, action, changedBy, oldValues, newValues); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("table", tableName).Str("record_id", recordID).Str("action", action).Msg("Failed to write audit log")
	}
}

func (s *auditLogsService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.auditLogsRepo.DeleteOlderThan(ctx, now.Add(-AuditRetention))
}

// CreateEntityValues builds the JSONB snapshot stored in audit entries.
// Sensitive and derived fields are left out.
func CreateEntityValues(entity interface{}) models.JSONB {
	switch v := entity.(type) {
	case *models.Company:
		return models.JSONB{
			"id":         v.ID,
			"name":       v.Name,
			"created_by": v.CreatedBy,
			"created_at": v.CreatedAt,
		}

	case *models.UserCompany:
		return models.JSONB{
			"user_id":    v.UserID,
			"company_id": v.CompanyID,
			"is_admin":   v.IsAdmin,
			"is_blocked": v.IsBlocked,
		}

	case *models.Forklift:
		return models.JSONB{
			"id":                v.ID,
			"company_id":        v.CompanyID,
			"user_id":           v.UserID,
			"customer":          v.Customer,
			"brand":             v.Brand,
			"model_type":        v.ModelType,
			"serial_number":     v.SerialNumber,
			"last_service_date": v.LastServiceDate,
			"next_service_date": v.NextServiceDate,
			"service_hours":     v.ServiceHours,
			"updated_at":        v.UpdatedAt,
		}

	case *models.ForkliftDocument:
		return models.JSONB{
			"id":             v.ID,
			"forklift_id":    v.ForkliftID,
			"interval_hours": v.IntervalHours,
			"content_type":   v.ContentType,
			"size_bytes":     v.SizeBytes,
			"file_name":      v.FileName,
		}

	default:
		return nil
	}
}
