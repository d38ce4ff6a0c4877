package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fixlab/repair-service/internal/auth"
	"github.com/fixlab/repair-service/internal/config"
	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/repository"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// AuthService authenticates staff and issues tokens. It also supplies the
// Actor identity attributed to audit history entries.
type AuthService struct {
	technicians repository.TechnicianRepository
	tokens      *auth.TokenManager
	bcryptCost  int
}

// LoginResult carries an issued token.
type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	Technician *domain.Technician
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, technicians repository.TechnicianRepository) *AuthService {
	return &AuthService{
		technicians: technicians,
		tokens:      auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:  cfg.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies staff credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	tech, err := s.technicians.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !tech.Active {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(tech.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(tech.ID, tech.Role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Technician: tech}, nil
}

// RegisterTechnician creates a staff account. Admin-only at the route level.
func (s *AuthService) RegisterTechnician(ctx context.Context, name, email, password string, role domain.StaffRole) (*domain.Technician, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email and password required", nil)
	}
	if role != domain.StaffRoleTechnician && role != domain.StaffRoleAdmin {
		role = domain.StaffRoleTechnician
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	tech := &domain.Technician{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.technicians.Create(ctx, tech); err != nil {
		return nil, apperrors.MapError(err)
	}
	return tech, nil
}
