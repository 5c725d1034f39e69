package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lurnix/course-app/internal/auth"
	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate session token")
)

// AuthService handles the local credential path: signup and cookie-token
// login. Delegated-provider sign-in lives in the auth package.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	UpdateProfile(ctx context.Context, userID string, update repository.ProfileUpdate) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	codec    *auth.TokenCodec
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, codec *auth.TokenCodec) AuthService {
	return &authService{userRepo: userRepo, codec: codec}
}

// Signup registers a local-credential user. Local signups get the instructor
// role; viewer accounts come from the delegated-provider path.
func (s *authService) Signup(ctx context.Context, name, email, password string) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, errors.New("name, email and password cannot be empty")
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		ID:    uuid.New().String(),
		Name:  name,
		Email: email,
		// Local accounts have no provider identity; a random external id
		// keeps the unique index satisfied.
		ExternalID:   uuid.New().String(),
		Role:         domain.RoleInstructor,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and mints the signed session cookie token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrAuthenticationFailed
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}
	if user.PasswordHash == "" {
		// Provider-provisioned account with no local password.
		return "", nil, ErrAuthenticationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.codec.Mint(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// UpdateProfile applies the caller's profile changes and returns the
// refreshed account.
func (s *authService) UpdateProfile(ctx context.Context, userID string, update repository.ProfileUpdate) (*domain.User, error) {
	if update.Name != nil && *update.Name == "" {
		return nil, errors.New("name cannot be empty")
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, update); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}
