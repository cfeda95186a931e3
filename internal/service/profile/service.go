package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopbridge/internal/auth"
	"shopbridge/internal/domain"
	userrepo "shopbridge/internal/repository/user"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RoleResolver reports the effective role of a principal.
type RoleResolver interface {
	Resolve(ctx context.Context, principal string) (domain.Role, error)
}

// TokenIssuer mints bearer tokens for a principal.
type TokenIssuer interface {
	Issue(principal, email string) (*auth.Token, error)
}

// Service handles buyer signup, login and profile edits.
type Service struct {
	repo        userrepo.Repository
	roles       RoleResolver
	tokens      TokenIssuer
	logger      *zap.Logger
	passwordMin int
}

func New(repo userrepo.Repository, roles RoleResolver, tokens TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		roles:       roles,
		tokens:      tokens,
		logger:      logger.Named("profile"),
		passwordMin: 8,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	ShippingAddress string `json:"shippingAddress"`
}

// Me is the caller's profile together with the role it resolves to.
type Me struct {
	Profile *domain.UserProfile `json:"profile,omitempty"`
	Role    domain.Role         `json:"role"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.UserProfile, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", domain.ErrInvalidArgument)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, domain.UserProfile{
		Email:           email,
		PasswordHash:    string(hashed),
		Name:            strings.TrimSpace(in.Name),
		Phone:           strings.TrimSpace(in.Phone),
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", zap.String("principal", u.ID))
	return u, nil
}

// Login validates credentials and returns an access token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.UserProfile, *auth.Token, error) {
	password = strings.TrimSpace(password)
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

// Me returns the profile of principal. Principals without a stored profile
// (bootstrap admins configured by id) get a nil profile and their role.
func (s *Service) Me(ctx context.Context, principal string) (*Me, error) {
	if principal == "" {
		return nil, domain.ErrUnauthorized
	}
	role, err := s.roles.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, principal)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &Me{Role: role}, nil
	case err != nil:
		return nil, err
	}
	return &Me{Profile: u, Role: role}, nil
}

func (s *Service) SaveProfile(ctx context.Context, principal string, in userrepo.ProfileUpdate) (*domain.UserProfile, error) {
	if principal == "" {
		return nil, domain.ErrUnauthorized
	}
	in.Name = trimmed(in.Name)
	in.Phone = trimmed(in.Phone)
	in.ShippingAddress = trimmed(in.ShippingAddress)
	return s.repo.UpdateProfile(ctx, principal, in)
}

// CustomerInfo snapshots the stored profile of principal for an order.
func (s *Service) CustomerInfo(ctx context.Context, principal string) (domain.CustomerInfo, error) {
	u, err := s.repo.GetByID(ctx, principal)
	if err != nil {
		return domain.CustomerInfo{}, err
	}
	return u.CustomerInfo(), nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
