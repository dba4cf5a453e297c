package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
	"pyme_pos_backend/pkg/utils"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrNoTenantMembership = errors.New("user has no active business")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// AuthResponse is what a successful login or registration returns: the user,
// the tenant the session is scoped to, and the tokens.
type AuthResponse struct {
	User         *models.User       `json:"user"`
	Tenant       *models.TenantUser `json:"membership"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token,omitempty"`
}

// AuthService handles registration, login and profile lookup. Registration
// creates the user together with their first tenant, because in this system a
// user without a business can do nothing.
type AuthService interface {
	Register(req models.RegistrationPayload) (*AuthResponse, error)
	Login(req models.Credentials) (*AuthResponse, error)
	GetProfile(userID int64) (*models.User, error)
}

type authService struct {
	authRepo  repositories.AuthRepository
	txManager repositories.TxManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, tm repositories.TxManager) AuthService {
	return &authService{authRepo: authRepo, txManager: tm}
}

// Register creates the user, their tenant and the owner membership in one
// transaction, then logs them straight in.
func (s *authService) Register(req models.RegistrationPayload) (*AuthResponse, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    req.Email,
		FullName: req.FullName,
	}
	tenant := &models.Tenant{
		ID:               uuid.NewString(),
		Name:             req.BusinessName,
		TaxID:            req.BusinessTaxID,
		SubscriptionPlan: "trial",
	}
	// The slug gets a random suffix so two businesses with the same name can
	// both register.
	tenant.Slug = fmt.Sprintf("%s-%s", utils.Slugify(req.BusinessName), tenant.ID[:8])

	var membership *models.TenantUser
	err = s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		userID, err := s.authRepo.CreateUser(tx, user, string(hashedPasswordBytes))
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrEmailExists
			}
			return err
		}
		if err := s.authRepo.CreateTenant(tx, tenant); err != nil {
			return err
		}
		membership = &models.TenantUser{
			UserID:   userID,
			TenantID: tenant.ID,
			Role:     "owner",
		}
		_, err = s.authRepo.CreateTenantUser(tx, membership)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.buildAuthResponse(user, membership)
}

// Login verifies the credentials and scopes the session to the user's oldest
// active tenant membership.
func (s *authService) Login(req models.Credentials) (*AuthResponse, error) {
	user, storedHash, err := s.authRepo.FindUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	membership, err := s.authRepo.FindTenantForUser(user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoTenantMembership
		}
		return nil, err
	}
	return s.buildAuthResponse(user, membership)
}

func (s *authService) buildAuthResponse(user *models.User, membership *models.TenantUser) (*AuthResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, membership.TenantID, membership.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	if membership.CreatedAt.IsZero() {
		membership.CreatedAt = time.Now()
	}
	return &AuthResponse{
		User:         user,
		Tenant:       membership,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *authService) GetProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
