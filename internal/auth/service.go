package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/floorops/floorops-backend/pkg/auth"
	"github.com/floorops/floorops-backend/pkg/config"
	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service authenticates staff and mints access tokens. Merge permission is
// carried in the role claim; the transport layer enforces it per route.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

// LoginRequest carries the staff credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the minted token and the staff profile.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	StaffID     uuid.UUID       `json:"staff_id"`
	VenueID     uuid.UUID       `json:"venue_id"`
	Name        string          `json:"name"`
	Role        enums.StaffRole `json:"role"`
	CanMerge    bool            `json:"can_merge"`
}

type staffReader interface {
	FindByEmail(ctx context.Context, email string) (*models.StaffUser, error)
}

type service struct {
	staff  staffReader
	jwtCfg config.JWTConfig
	clock  func() time.Time
}

// NewService builds the auth service.
func NewService(staff staffReader, jwtCfg config.JWTConfig) (Service, error) {
	if staff == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{staff: staff, jwtCfg: jwtCfg, clock: time.Now}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.staff.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading staff user")
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.clock()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		StaffID: user.ID,
		VenueID: user.VenueID,
		Role:    user.Role,
		JTI:     uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		StaffID:     user.ID,
		VenueID:     user.VenueID,
		Name:        user.Name,
		Role:        user.Role,
		CanMerge:    user.Role.CanMergeTables(),
	}, nil
}
