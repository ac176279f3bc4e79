package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

func newAuthService(t *testing.T) (*testEnv, *AuthService) {
	t.Helper()
	env := newTestEnv(t)
	utils.SetJWTSecret(env.cfg.JWT.SecretKey)
	return env, NewAuthService(env.db, env.cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	_, auth := newAuthService(t)

	registered, err := auth.Register(&RegisterRequest{
		Email:    "Vendas@Cliente.com.br",
		Password: "senha-forte-1",
		FullName: "Equipe de Vendas",
	})
	require.NoError(t, err)
	assert.Equal(t, "vendas@cliente.com.br", registered.User.Email)
	assert.Equal(t, models.UserRoleUser, registered.User.Role)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, 3600, registered.ExpiresIn)

	claims, err := utils.ValidateJWT(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID.String(), claims.UserID)

	loggedIn, err := auth.Login(&LoginRequest{Email: "vendas@cliente.com.br", Password: "senha-forte-1"})
	require.NoError(t, err)
	assert.NotNil(t, loggedIn.User.LastLoginAt)

	refreshed, err := auth.RefreshToken(loggedIn.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, auth := newAuthService(t)

	_, err := auth.Register(&RegisterRequest{Email: "admin@fastmalhas.com.br", Password: "senha-forte-1"})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "auth.user_exists", conflict.Key)
}

func TestLoginInvalidCredentials(t *testing.T) {
	_, auth := newAuthService(t)

	_, err := auth.Login(&LoginRequest{Email: "admin@fastmalhas.com.br", Password: "errada"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(&LoginRequest{Email: "ninguem@fastmalhas.com.br", Password: "senha-segura-1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.RefreshToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRedeemAdminKeyOnce(t *testing.T) {
	env, auth := newAuthService(t)
	first := env.createUser(t, "joao@fastmalhas.com.br", models.UserRoleUser)
	second := env.createUser(t, "maria@fastmalhas.com.br", models.UserRoleUser)

	issued, err := auth.CreateAdminKey(&CreateAdminKeyRequest{Label: "gerente"})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Key)

	var stored models.AdminKey
	require.NoError(t, env.db.First(&stored, "id = ?", issued.ID).Error)
	assert.NotEqual(t, issued.Key, stored.KeyHash)

	_, err = auth.RedeemAdminKey(env.admin.ID, &RedeemAdminKeyRequest{Key: issued.Key})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "auth.already_admin", conflict.Key)

	promoted, err := auth.RedeemAdminKey(first.ID, &RedeemAdminKeyRequest{Key: issued.Key})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, promoted.User.Role)

	claims, err := utils.ValidateJWT(promoted.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(models.UserRoleAdmin), claims.Role)

	_, err = auth.RedeemAdminKey(second.ID, &RedeemAdminKeyRequest{Key: issued.Key})
	var forbidden *ForbiddenError
	require.True(t, errors.As(err, &forbidden))

	reloaded, err := auth.GetUserByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleUser, reloaded.Role)
}

func TestChangePassword(t *testing.T) {
	env, auth := newAuthService(t)
	users := NewUserService(env.db)

	err := users.ChangePassword(env.admin.ID, &ChangePasswordRequest{CurrentPassword: "errada", NewPassword: "outra-senha-1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, users.ChangePassword(env.admin.ID, &ChangePasswordRequest{
		CurrentPassword: "senha-segura-1",
		NewPassword:     "outra-senha-1",
	}))

	_, err = auth.Login(&LoginRequest{Email: env.admin.Email, Password: "outra-senha-1"})
	assert.NoError(t, err)
}
