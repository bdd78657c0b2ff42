package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// adminStore is the slice of the admin user repository this service needs.
type adminStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, u *models.AdminUser) error
}

// AdminAuthService authenticates back-office operators.
type AdminAuthService struct {
	adminRepo adminStore
}

// NewAdminAuthService creates a new AdminAuthService.
func NewAdminAuthService(adminRepo adminStore) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo}
}

// Login verifies credentials and issues a session token. Failures are
// deliberately indistinct to the caller.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("admin lookup failed")
		return "", errors.New("invalid credentials")
	}
	if user == nil {
		log.Debug().Str("email", email).Msg("unknown admin email attempted login")
		return "", errors.New("invalid credentials")
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("inactive admin account attempted login")
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Debug().Str("email", email).Msg("admin password verification failed")
		return "", errors.New("invalid credentials")
	}

	log.Info().Str("email", email).Msg("admin login successful")
	return utils.GenerateJWT(user.ID, user.Email)
}

// CreateAdmin provisions a new back-office operator.
func (s *AdminAuthService) CreateAdmin(ctx context.Context, email, password, name string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         name,
		IsActive:     true,
	}
	return s.adminRepo.Create(ctx, user)
}

// EnsureAdmin provisions the bootstrap operator account if it does not exist
// yet. An existing account is left untouched, so a redeploy never resets a
// rotated password.
func (s *AdminAuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	user, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user != nil {
		return nil
	}

	log.Info().Str("email", email).Msg("provisioning bootstrap admin account")
	return s.CreateAdmin(ctx, email, password, name)
}
