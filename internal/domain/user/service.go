// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles registration and login
type Service struct {
	db        *gorm.DB
	passwords *auth.PasswordManager
	tokens    *auth.JWTManager
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewService creates a new user service
func NewService(db *gorm.DB, passwords *auth.PasswordManager, tokens *auth.JWTManager, logger logrus.FieldLogger) *Service {
	return &Service{
		db:        db,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register creates a new account. Only user and seller can be chosen here;
// admins come from the seed.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = auth.RoleUser
	}

	switch {
	case req.Name == "":
		return nil, apperror.Validation("name is required")
	case req.Email == "":
		return nil, apperror.Validation("email is required")
	case req.Role != auth.RoleUser && req.Role != auth.RoleSeller:
		return nil, apperror.Validation("role must be user or seller")
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}

	var existing int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&User{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, apperror.Conflict("a user with email %s already exists", req.Email)
	}

	hashed, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	u := User{
		Name:        req.Name,
		Email:       req.Email,
		Password:    hashed,
		Phone:       strings.TrimSpace(req.Phone),
		Role:        req.Role,
		IsActive:    true,
		LastLoginAt: &now,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if apperror.IsUniqueViolation(err) {
			return nil, apperror.Conflict("a user with email %s already exists", req.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	return s.issue(&u)
}

// Login authenticates a user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(req.Email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.passwords.VerifyPassword(req.Password, u.Password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("account is disabled")
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&u).UpdateColumn("last_login_at", now).Error; err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("failed to record last login")
	}
	u.LastLoginAt = &now

	return s.issue(&u)
}

// Authenticate resolves a token back to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}

	var u User
	if err := s.db.WithContext(ctx).First(&u, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("user no longer exists")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("account is disabled")
	}
	return &u, nil
}

func (s *Service) issue(u *User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateToken(u.Principal())
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: u, Token: token, ExpiresAt: expiresAt}, nil
}
