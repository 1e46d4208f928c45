package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
)

const tokenTTL = 24 * time.Hour

// UserService handles registration, login and JWT issuance.
type UserService struct {
	users     repository.UserRepository
	jwtSecret []byte
}

func NewUserService(users repository.UserRepository, jwtSecret string) *UserService {
	return &UserService{users: users, jwtSecret: []byte(jwtSecret)}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apierrors.BadRequest("email already registered")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to create user", err)
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apierrors.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, "", apierrors.Internal("failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, "", apierrors.Unauthorized("invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", apierrors.Internal("failed to sign token", err)
	}
	return user, token, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to load user", err)
	}
	return user, nil
}

// generateToken signs an HS256 access token carrying the user ID and
// role claims the middleware authorizes on.
func (s *UserService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"typ":  "access",
		"exp":  time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
