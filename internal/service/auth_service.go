package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/magazzino-io/inventario-api/internal/models"
	"github.com/magazzino-io/inventario-api/pkg/config"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
)

// CredentialSource is the injected credential table. The concrete store
// loads a JSON file and supports hot reload.
type CredentialSource interface {
	Lookup(username string) (config.Credential, bool)
	Reload() error
	Len() int
}

// AuthService authenticates against the injected credential table and
// issues JWT access tokens.
type AuthService struct {
	credentials CredentialSource
	secret      []byte
	expiration  time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(credentials CredentialSource, secret string, expiration time.Duration, logger *zap.Logger) *AuthService {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials: credentials,
		secret:      []byte(secret),
		expiration:  expiration,
		validator:   validator.New(),
		logger:      logger,
	}
}

// Login verifies the username/password pair and returns a signed token.
// Unknown user and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "username and password are required")
	}

	cred, ok := s.credentials.Lookup(req.Username)
	if !ok {
		// Burn a comparison anyway so response timing does not reveal
		// whether the username exists.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0q6uK5lJ5C5l5l5l5l5l5l5l5l5"), []byte(req.Password))
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.expiration)
	claims := models.JWTClaims{
		Username: cred.Username,
		Role:     models.UserRole(cred.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	s.logger.Info("user_logged_in", zap.String("username", cred.Username), zap.String("role", cred.Role))
	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.expiration.Seconds()),
		IssuedAt:    now,
		User: models.UserInfo{
			Username: cred.Username,
			Role:     models.UserRole(cred.Role),
		},
	}, nil
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ReloadCredentials re-reads the credential table from disk. Existing
// tokens stay valid; only future logins see the new table.
func (s *AuthService) ReloadCredentials(ctx context.Context) (int, error) {
	if err := s.credentials.Reload(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload credentials")
	}
	count := s.credentials.Len()
	s.logger.Info("credentials_reloaded", zap.Int("entries", count))
	return count, nil
}
