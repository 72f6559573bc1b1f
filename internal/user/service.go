package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lifebridge/internal/domain"
	"lifebridge/internal/geo"
	"lifebridge/internal/hospital"
	dErrors "lifebridge/pkg/domainerrors"
	"lifebridge/pkg/sentinel"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, role, email string) (string, error)
}

// Service handles registration and login.
type Service struct {
	store     Store
	hospitals hospital.Store
	geocoder  geo.Geocoder
	tokens    TokenIssuer
	logger    *slog.Logger
}

func NewService(store Store, hospitals hospital.Store, geocoder geo.Geocoder, tokens TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		hospitals: hospitals,
		geocoder:  geocoder,
		tokens:    tokens,
		logger:    logger,
	}
}

// RegisterInput carries a signup request. HospitalName and HospitalAddress are
// required for doctors and ignored for every other role.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	Role            domain.Role
	Phone           string
	Address         string
	HospitalName    string
	HospitalAddress string
}

// AuthResult is a registered or logged-in user plus their access token.
type AuthResult struct {
	User  *domain.User
	Token string
}

// Register creates a user account. A provided address must geocode; a
// requester without coordinates could never be matched against, so signup
// fails early with location_not_found instead of deferring the problem.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name, email and password are required")
	}
	switch in.Role {
	case domain.RoleDonor, domain.RoleDoctor, domain.RoleAdmin:
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Phone:        in.Phone,
		Address:      in.Address,
	}

	if in.Address != "" {
		loc, err := s.geocoder.GetCoordinates(ctx, in.Address)
		if err != nil {
			return nil, err
		}
		u.Location = &loc
	}

	if in.Role == domain.RoleDoctor {
		if in.HospitalName == "" || in.HospitalAddress == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "doctors must provide hospital name and address")
		}
		h, err := s.hospitals.GetByNameAddress(ctx, in.HospitalName, in.HospitalAddress)
		if errors.Is(err, sentinel.ErrNotFound) {
			h = &domain.Hospital{
				ID:      uuid.NewString(),
				Name:    in.HospitalName,
				Address: in.HospitalAddress,
			}
			if err := s.hospitals.Create(ctx, h); err != nil {
				return nil, dErrors.Wrap(dErrors.CodeInternal, "register hospital", err)
			}
		} else if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "look up hospital", err)
		}
		u.HospitalID = h.ID
	}

	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create user", err)
	}

	token, err := s.tokens.Issue(u.ID, string(u.Role), u.Email)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return &AuthResult{User: u, Token: token}, nil
}

// Login verifies credentials and issues a fresh access token. The same
// message is returned for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.Issue(u.ID, string(u.Role), u.Email)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return &AuthResult{User: u, Token: token}, nil
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "get user", err)
	}
	return u, nil
}
