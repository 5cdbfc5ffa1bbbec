package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adivish/vidtube-be/internal/apierr"
	"github.com/adivish/vidtube-be/internal/config"
	"github.com/adivish/vidtube-be/internal/models"
)

// AccessClaims defines the JWT claims carried by access tokens.
type AccessClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims defines the JWT claims carried by refresh tokens. Refresh
// tokens identify the user and nothing else.
type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies access and refresh tokens. The two token
// kinds are signed with distinct secrets and carry distinct lifetimes so a
// leaked access token never extends a session.
type TokenService struct {
	accessSecret  []byte
	accessExpiry  time.Duration
	refreshSecret []byte
	refreshExpiry time.Duration
}

// NewTokenService creates a TokenService from the loaded configuration.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		refreshExpiry: cfg.RefreshTokenExpiry,
	}
}

// AccessExpiry reports the configured access-token lifetime.
func (t *TokenService) AccessExpiry() time.Duration { return t.accessExpiry }

// RefreshExpiry reports the configured refresh-token lifetime.
func (t *TokenService) RefreshExpiry() time.Duration { return t.refreshExpiry }

// NewAccessToken creates a short-lived access token for a user.
func (t *TokenService) NewAccessToken(user models.User) (string, error) {
	claims := &AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.accessSecret)
}

// NewRefreshToken creates a long-lived refresh token carrying only the user ID.
func (t *TokenService) NewRefreshToken(userID string) (string, error) {
	claims := &RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			// jti makes every minted token distinct, so rotation always
			// invalidates the previous token even within the same second.
			ID: uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.refreshSecret)
}

// ParseAccessToken parses and validates an access token string.
func (t *TokenService) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.accessSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apierr.Unauthorized("invalid access token")
	}
	return claims, nil
}

// ParseRefreshToken parses and validates a refresh token string.
func (t *TokenService) ParseRefreshToken(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.refreshSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apierr.Unauthorized("invalid refresh token")
	}
	return claims, nil
}
