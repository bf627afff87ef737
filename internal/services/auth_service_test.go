package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"formflow/internal/apperrors"
	"formflow/internal/logging"
	"formflow/internal/models"
	"formflow/internal/repositories"
	"formflow/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func notFound(what string) error {
	return errors.Wrap(repositories.ErrNotFound, what)
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil, testJWTSecret, time.Hour, logging.Discard())

	// Successful signup
	mockRepo.On("GetByEmail", ctx, "ada@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = "user-1" }).
		Return(nil).Once()

	user, token, err := authService.Signup(ctx, "ada", "ada@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.NotEmpty(t, token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Email already registered
	mockRepo.On("GetByEmail", ctx, "ada@example.com").Return(&models.User{ID: "user-1"}, nil).Once()
	_, _, err = authService.Signup(ctx, "ada2", "ada@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
	mockRepo.AssertExpectations(t)

	// Store failure propagates
	mockRepo.On("GetByEmail", ctx, "bob@example.com").Return(nil, fmt.Errorf("connection refused")).Once()
	_, _, err = authService.Signup(ctx, "bob", "bob@example.com", "password123")
	assert.Error(t, err)
	assert.False(t, apperrors.IsKind(err, apperrors.KindConflict))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil, testJWTSecret, time.Hour, logging.Discard())

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:           "user-123",
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
	}

	// Successful login
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	got, token, err := authService.Login(ctx, user.Email, "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Email, claims["email"])
	assert.NotEmpty(t, claims["jti"])
	mockRepo.AssertExpectations(t)

	// Wrong password
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	_, _, err = authService.Login(ctx, user.Email, "wrongpassword")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// Unknown email gets the same answer
	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, notFound("user")).Once()
	_, _, err = authService.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()
	authService := services.NewAuthService(new(MockUserRepository), nil, testJWTSecret, time.Hour, logging.Discard())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	claims, err := authService.ValidateToken(ctx, validTokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])

	_, err = authService.ValidateToken(ctx, "invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	otherSecret, _ := token.SignedString([]byte("another_secret"))
	_, err = authService.ValidateToken(ctx, otherSecret)
	assert.Error(t, err)

	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(ctx, expiredTokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	revoker := new(MockRevoker)
	authService := services.NewAuthService(mockRepo, revoker, testJWTSecret, time.Hour, logging.Discard())

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	mockRepo.On("GetByEmail", ctx, "a@example.com").
		Return(&models.User{ID: "u1", Email: "a@example.com", PasswordHash: string(hashedPassword)}, nil)
	_, token, err := authService.Login(ctx, "a@example.com", "pw")
	require.NoError(t, err)

	revoker.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	_, err = authService.ValidateToken(ctx, token)
	require.NoError(t, err)

	revoker.On("Revoke", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).Return(nil).Once()
	require.NoError(t, authService.Logout(ctx, token))

	revoker.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	_, err = authService.ValidateToken(ctx, token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "revoked")

	// Garbage tokens are ignored on logout
	assert.NoError(t, authService.Logout(ctx, "not-a-token"))
	revoker.AssertExpectations(t)
}

func TestAuthService_LogoutWithoutRevoker(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), nil, testJWTSecret, time.Hour, logging.Discard())
	assert.NoError(t, authService.Logout(context.Background(), "anything"))
}
