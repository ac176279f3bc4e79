// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=255"`
}

type RedeemAdminKeyRequest struct {
	Key string `json:"key" validate:"required"`
}

type CreateAdminKeyRequest struct {
	Label string `json:"label" validate:"max=100"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

// IssuedAdminKey is returned once, at creation. Only the hash is kept.
type IssuedAdminKey struct {
	ID  uuid.UUID `json:"id"`
	Key string    `json:"key"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, dependencyError("check user email", err)
	}
	if count > 0 {
		return nil, &ConflictError{Key: "auth.user_exists", Message: "user with this email already exists"}
	}

	// New accounts never start as admin; admin comes from redeeming a key.
	user := &models.User{
		Email:    email,
		FullName: req.FullName,
		Role:     models.UserRoleUser,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "auth.user_exists", Message: "user with this email already exists"}
		}
		return nil, dependencyError("create user", err)
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, dependencyError("load user", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Update last login time
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return s.issueTokens(&user)
}

func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	userIDStr, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, lookupError("user", "load user", err)
	}
	return &user, nil
}

// CreateAdminKey issues a one-time key that grants the admin role.
func (s *AuthService) CreateAdminKey(req *CreateAdminKeyRequest) (*IssuedAdminKey, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	key, err := utils.GenerateAdminKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin key: %w", err)
	}

	record := &models.AdminKey{KeyHash: utils.HashString(key), Label: req.Label}
	if err := s.db.Create(record).Error; err != nil {
		return nil, dependencyError("create admin key", err)
	}

	return &IssuedAdminKey{ID: record.ID, Key: key}, nil
}

// RedeemAdminKey promotes the user to admin and burns the key. The key is
// claimed with a conditional update so two users cannot redeem it.
func (s *AuthService) RedeemAdminKey(userID uuid.UUID, req *RedeemAdminKeyRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return lookupError("user", "load user", err)
		}
		if user.IsAdmin() {
			return &ConflictError{Key: "auth.already_admin", Message: "user is already an admin"}
		}

		now := time.Now()
		res := tx.Model(&models.AdminKey{}).
			Where("key_hash = ? AND used_at IS NULL", utils.HashString(strings.TrimSpace(req.Key))).
			Updates(map[string]interface{}{"used_at": now, "used_by": userID})
		if res.Error != nil {
			return dependencyError("claim admin key", res.Error)
		}
		if res.RowsAffected == 0 {
			return &ForbiddenError{Message: "admin key is invalid or already used"}
		}

		user.Role = models.UserRoleAdmin
		if err := tx.Model(&user).Update("role", models.UserRoleAdmin).Error; err != nil {
			return dependencyError("promote user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("user_id", userID).Info("Admin key redeemed")
	return s.issueTokens(&user)
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}
