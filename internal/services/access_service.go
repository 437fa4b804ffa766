package services

import (
	"context"
	"time"

	"forklifttracker/internal/caching"
	"forklifttracker/internal/models"
	"forklifttracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const membershipCacheTTL = 5 * time.Minute

// AccessService answers who may see or manage a company.
//
// A member has a user_companies row. An active member is a member that is
// not blocked. An admin is the company creator, or an active member flagged
// is_admin.
type AccessService interface {
	Company(ctx context.Context, companyID uuid.UUID) (*models.Company, error)
	// Membership returns nil without error when the user is not a member.
	Membership(ctx context.Context, userID, companyID uuid.UUID) (*models.UserCompany, error)
	IsAdmin(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
	RequireMember(ctx context.Context, userID, companyID uuid.UUID, denied string) error
	RequireAdmin(ctx context.Context, userID, companyID uuid.UUID, denied string) error
	ActiveCompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Forget(ctx context.Context, userID, companyID uuid.UUID)
	ForgetCompany(ctx context.Context, companyID uuid.UUID)
}

type accessService struct {
	companyRepo    repositories.CompanyRepository
	membershipRepo repositories.MembershipRepository
	cacheSvc       caching.CacheService
}

// NewAccessService builds the access checker. cacheSvc may be nil.
func NewAccessService(companyRepo repositories.CompanyRepository, membershipRepo repositories.MembershipRepository, cacheSvc caching.CacheService) AccessService {
	return &accessService{
		companyRepo:    companyRepo,
		membershipRepo: membershipRepo,
		cacheSvc:       cacheSvc,
	}
}

func (s *accessService) Company(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	if s.cacheSvc != nil {
		if company, err := s.cacheSvc.GetCompany(ctx, companyID); err == nil && company != nil {
			return company, nil
		}
	}

	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		if isNoRows(err) {
			return nil, NotFound("Company not found")
		}
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetCompany(ctx, company, membershipCacheTTL); err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("Failed to cache company")
		}
	}
	return company, nil
}

func (s *accessService) Membership(ctx context.Context, userID, companyID uuid.UUID) (*models.UserCompany, error) {
	if s.cacheSvc != nil {
		if m, err := s.cacheSvc.GetMembership(ctx, companyID, userID); err == nil && m != nil {
			return m, nil
		}
	}

	m, err := s.membershipRepo.Get(ctx, userID, companyID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetMembership(ctx, m, membershipCacheTTL); err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("Failed to cache membership")
		}
	}
	return m, nil
}

func (s *accessService) IsAdmin(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	company, err := s.Company(ctx, companyID)
	if err != nil {
		if isKind(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if company.CreatedBy == userID {
		return true, nil
	}

	m, err := s.Membership(ctx, userID, companyID)
	if err != nil {
		return false, err
	}
	return m.Active() && m.IsAdmin, nil
}

func (s *accessService) RequireMember(ctx context.Context, userID, companyID uuid.UUID, denied string) error {
	m, err := s.Membership(ctx, userID, companyID)
	if err != nil {
		return err
	}
	if !m.Active() {
		log.Ctx(ctx).Debug().Str("user_id", userID.String()).Str("company_id", companyID.String()).Msg("Company access denied")
		return Forbidden(denied)
	}
	return nil
}

func (s *accessService) RequireAdmin(ctx context.Context, userID, companyID uuid.UUID, denied string) error {
	ok, err := s.IsAdmin(ctx, userID, companyID)
	if err != nil {
		return err
	}
	if !ok {
		log.Ctx(ctx).Debug().Str("user_id", userID.String()).Str("company_id", companyID.String()).Msg("Company admin access denied")
		return Forbidden(denied)
	}
	return nil
}

func (s *accessService) ActiveCompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.membershipRepo.ActiveCompanyIDs(ctx, userID)
}

func (s *accessService) Forget(ctx context.Context, userID, companyID uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.DeleteMembership(ctx, companyID, userID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to drop cached membership")
	}
}

func (s *accessService) ForgetCompany(ctx context.Context, companyID uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.InvalidateCompanyCache(ctx, companyID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to invalidate company cache")
	}
}
