package tenants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkaraca/dukkan/internal/server/auth"
	"github.com/mkaraca/dukkan/internal/server/config"
)

// ErrInvalidCredentials is returned on login when the login is unknown or
// the password does not match. The two cases are deliberately not
// distinguishable by the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo                    Repository
	jwtSecret               []byte
	sessionValidityDuration time.Duration
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                    repo,
		jwtSecret:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
	}
}

// Register creates a new tenant account. The password is stored as a
// bcrypt hash, never in clear text.
func (s *Service) Register(ctx context.Context, login, password, name string) (*Tenant, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %v", err)
	}

	tenant := &Tenant{
		Login:        login,
		PasswordHash: hash,
		Name:         name,
	}

	tenant, err = s.repo.Create(ctx, tenant)
	if err != nil {
		if errors.Is(err, ErrLoginTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating tenant: %v", err)
	}

	return tenant, nil
}

// Login verifies the credentials and issues a session token whose
// businessId claim is the tenant's ID.
func (s *Service) Login(ctx context.Context, login, password string) (string, error) {

	tenant, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("error looking up tenant: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword(tenant.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(tenant.ID, s.jwtSecret, s.sessionValidityDuration)
	if err != nil {
		return "", fmt.Errorf("error generating token: %v", err)
	}

	return token, nil
}
