// Package admins authenticates back-office operators and issues their tokens.
package admins

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/dropship-backend/pkg/auth"
	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	minPasswordLength         = 10
	tempPasswordLength        = 20
)

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Get(ctx context.Context, id uuid.UUID) (*AdminDTO, error)
}

type adminRepository interface {
	Create(ctx context.Context, admin *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type ServiceParams struct {
	Repo           adminRepository
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	repo        adminRepository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:        params.Repo,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         params.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	admin, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	admin.LastLoginAt = &now

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    pkgAuth.RoleAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	s.logg.Info(s.logg.WithAdminID(ctx, admin.ID.String()), "admin.login")
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.jwtCfg.TTL()),
		Admin:       FromModel(admin),
	}, nil
}

// authenticate answers every failure with the same message so callers cannot
// discover which emails exist.
func (s *service) authenticate(ctx context.Context, email, password string) (*models.AdminUser, error) {
	normalized := normalizeEmail(email)
	if normalized == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	admin, err := s.repo.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}

	valid, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !admin.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if security.NeedsRehash(admin.PasswordHash, s.passwordCfg) {
		s.upgradeHash(ctx, admin, password)
	}
	return admin, nil
}

// upgradeHash re-hashes a password stored under an older Argon2 cost. A
// failure leaves the old hash in place.
func (s *service) upgradeHash(ctx context.Context, admin *models.AdminUser, password string) {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = s.repo.UpdatePassword(ctx, admin.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithAdminID(ctx, admin.ID.String()), "error", err.Error()), "admin.rehash_failed")
		return
	}
	admin.PasswordHash = hash
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	email := normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	result := &CreateResult{}
	password := input.Password
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		password = generated
		result.TempPassword = generated
	} else if len(password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !input.ResetExisting {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "admin already exists")
		}
		if err := s.repo.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset admin password")
		}
		existing.IsActive = true
		result.Admin = FromModel(existing)
		result.Reset = true
		s.logg.Info(s.logg.WithAdminID(ctx, existing.ID.String()), "admin.password_reset")
		return result, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}

	admin := &models.AdminUser{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if db.IsUniqueViolation(err, "admin_users_email_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "admin already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin")
	}
	result.Admin = FromModel(admin)
	s.logg.Info(s.logg.WithAdminID(ctx, admin.ID.String()), "admin.created")
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AdminDTO, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load admin")
	}
	return FromModel(admin), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
