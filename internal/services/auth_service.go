package services

import (
	"context"
	"time"

	"formflow/internal/apperrors"
	"formflow/internal/models"
	"formflow/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// TokenRevoker records logged-out tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthService handles signup, login and token validation.
type AuthService struct {
	userRepo   repositories.UserRepository
	revoker    TokenRevoker
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	log        *logrus.Logger
}

// NewAuthService creates a new AuthService. revoker may be nil, in which
// case logout is a no-op on the server.
func NewAuthService(userRepo repositories.UserRepository, revoker TokenRevoker, jwtSecret string, tokenDurat time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		revoker:    revoker,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenDurat,
		log:        log,
	}
}

// Signup registers a new user and returns it with a fresh token.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*models.User, string, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", apperrors.ErrUserExists
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", errors.Wrap(err, "check existing user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", errors.Wrap(err, "failed to register user")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	s.log.WithField("user_id", user.ID).Info("user signed up")
	return user, token, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes tokenString when a revoker is configured. Tokens that do
// not validate are ignored.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	if s.revoker == nil || tokenString == "" {
		return nil
	}
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil
	}
	ttl := s.tokenDurat
	if exp, ok := claims["exp"].(float64); ok {
		ttl = time.Until(time.Unix(int64(exp), 0))
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, ttl); err != nil {
		return errors.Wrap(err, "revoke token")
	}
	return nil
}

// ValidateToken parses and validates a JWT token, returning the claims if
// valid and not revoked.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		s.log.WithError(err).Debug("token validation failed")
		return nil, err
	}
	if s.revoker != nil {
		jti, _ := claims["jti"].(string)
		revoked, err := s.revoker.IsRevoked(ctx, jti)
		if err != nil {
			return nil, errors.Wrap(err, "check token revocation")
		}
		if revoked {
			return nil, errors.New("invalid token: revoked")
		}
	}
	return claims, nil
}

func (s *AuthService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"jti":      uuid.New().String(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenDurat).Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate token")
	}
	return tokenString, nil
}
