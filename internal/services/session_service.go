package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/adivish/vidtube-be/internal/apierr"
	"github.com/adivish/vidtube-be/internal/auth"
	"github.com/adivish/vidtube-be/internal/database"
	"github.com/adivish/vidtube-be/internal/media"
	"github.com/adivish/vidtube-be/internal/models"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput carries the registration form fields plus the staged upload
// paths for the avatar (required) and cover image (optional).
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput carries login credentials; either Username or Email must be set.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// SessionServiceProvider defines the interface for the session manager.
type SessionServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (models.User, error)
	Login(ctx context.Context, in LoginInput) (models.User, TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// SessionService orchestrates registration, login, logout, and refresh-token
// rotation across the user store, the token service, and the media uploader.
type SessionService struct {
	users    database.UserStore
	tokens   *auth.TokenService
	uploader media.Uploader
}

// NewSessionService creates a new SessionService.
func NewSessionService(users database.UserStore, tokens *auth.TokenService, uploader media.Uploader) *SessionService {
	return &SessionService{users: users, tokens: tokens, uploader: uploader}
}

// Register creates a new user account. The avatar must upload successfully; a
// cover-image upload failure degrades to an empty cover URL.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	password := strings.TrimSpace(in.Password)

	if fullName == "" || email == "" || username == "" || password == "" {
		return models.User{}, apierr.BadRequest("all fields are required")
	}

	_, err := s.users.FindByIdentity(ctx, username, email)
	if err == nil {
		return models.User{}, apierr.Conflict("user with same username or email already exists")
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return models.User{}, apierr.Internal("failed to check existing users")
	}

	if in.AvatarPath == "" {
		return models.User{}, apierr.BadRequest("avatar is required")
	}

	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		log.Error().Err(err).Str("username", username).Msg("Avatar upload failed")
		return models.User{}, apierr.BadRequest("avatar is required")
	}

	coverImageURL := ""
	if in.CoverImagePath != "" {
		coverImageURL, err = s.uploader.Upload(ctx, in.CoverImagePath)
		if err != nil {
			// The account is still created without a cover image.
			log.Warn().Err(err).Str("username", username).Msg("Cover image upload failed")
			coverImageURL = ""
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apierr.Internal("failed to hash password")
	}

	user := models.User{
		ID:            uuid.New().String(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		PasswordHash:  string(hashedPassword),
	}

	if err := s.users.Create(ctx, user); err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to create user")
		return models.User{}, apierr.Internal("something went wrong while registering the user")
	}

	created, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return models.User{}, apierr.Internal("something went wrong while registering the user")
	}

	return created.Sanitized(), nil
}

// Login verifies credentials and opens a session: it mints an access/refresh
// pair and persists the refresh token on the user record.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (models.User, TokenPair, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)

	if username == "" && email == "" {
		return models.User{}, TokenPair{}, apierr.BadRequest("either username or email is required")
	}

	user, err := s.users.FindByIdentity(ctx, username, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return models.User{}, TokenPair{}, apierr.NotFound("user not found")
		}
		return models.User{}, TokenPair{}, apierr.Internal("failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return models.User{}, TokenPair{}, apierr.Unauthorized("incorrect password")
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	return user.Sanitized(), pair, nil
}

// Logout clears the user's stored refresh token, ending the session.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, database.ErrUserNotFound) {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to clear refresh token")
		return apierr.Internal("failed to log out")
	}
	return nil
}

// Refresh rotates a refresh token: the incoming token must verify and must
// exactly match the single token stored on the user record. A stale token is
// rejected without touching the currently active session.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, apierr.BadRequest("refresh token not provided")
	}

	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return TokenPair{}, apierr.NotFound("user not found")
		}
		return TokenPair{}, apierr.Internal("failed to look up user")
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return TokenPair{}, apierr.Unauthorized("invalid refresh token")
	}

	return s.issueTokenPair(ctx, user)
}

// issueTokenPair mints both tokens and persists the refresh token, overwriting
// any previously stored value.
func (s *SessionService) issueTokenPair(ctx context.Context, user models.User) (TokenPair, error) {
	accessToken, err := s.tokens.NewAccessToken(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate access token")
		return TokenPair{}, apierr.Internal("error generating tokens")
	}
	refreshToken, err := s.tokens.NewRefreshToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate refresh token")
		return TokenPair{}, apierr.Internal("error generating tokens")
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to persist refresh token")
		return TokenPair{}, apierr.Internal("error generating tokens")
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
