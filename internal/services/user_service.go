package services

import (
	"context"
	"strings"
	"time"

	"forklifttracker/internal/common"
	"forklifttracker/internal/models"
	"forklifttracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

type RegisterRequest struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required,min=6"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || len(username) > 64 {
		return nil, Invalid("Username must be between 3 and 64 characters")
	}
	if len(req.Password) < minPasswordLength {
		return nil, Invalid("Password must be at least 6 characters")
	}
	if err := common.ValidateOptionalString(req.Email, "email", 254); err != nil {
		return nil, Invalid(err.Error())
	}
	if err := common.ValidateOptionalString(req.Phone, "phone", 32); err != nil {
		return nil, Invalid(err.Error())
	}

	if existing, err := s.userRepo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, Conflict("Username already exists")
	} else if err != nil && !isNoRows(err) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Email:        common.NilIfEmpty(req.Email),
		Phone:        common.NilIfEmpty(req.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, Conflict("Username already exists")
		}
		log.Ctx(ctx).Error().Err(err).Str("username", username).Msg("Failed to create user")
		return nil, err
	}

	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, Invalid("Username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if isNoRows(err) {
			return nil, Unauthorized("Invalid username or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, Unauthorized("Invalid username or password")
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}
