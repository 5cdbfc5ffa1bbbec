package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adivish/vidtube-be/internal/models"
)

// ErrUserNotFound is returned by lookups that match no row.
var ErrUserNotFound = errors.New("user not found")

// UserStore is the persistence boundary the session service talks to.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentity(ctx context.Context, username, email string) (models.User, error)
	Create(ctx context.Context, user models.User) error
	// SetRefreshToken overwrites the user's stored refresh token; an empty
	// token clears it (logout).
	SetRefreshToken(ctx context.Context, userID, token string) error
}

// SQLUserStore implements UserStore on top of the sqlite database.
type SQLUserStore struct {
	db *sql.DB
}

// NewUserStore creates a new SQLUserStore.
func NewUserStore(db *sql.DB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

const userColumns = "id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at"

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var refreshToken sql.NullString
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverImageURL, &user.PasswordHash, &refreshToken, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	user.RefreshToken = refreshToken.String
	return user, nil
}

// FindByID retrieves a single user by their ID.
func (s *SQLUserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// FindByIdentity retrieves a user matching either the username or the email.
func (s *SQLUserStore) FindByIdentity(ctx context.Context, username, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR email = ?", username, email)
	return scanUser(row)
}

// Create inserts a new user row.
func (s *SQLUserStore) Create(ctx context.Context, user models.User) error {
	stmt, err := s.db.PrepareContext(ctx,
		"INSERT INTO users(id, username, email, full_name, avatar_url, cover_image_url, password_hash) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, user.ID, user.Username, user.Email, user.FullName,
		user.AvatarURL, user.CoverImageURL, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token for a user.
func (s *SQLUserStore) SetRefreshToken(ctx context.Context, userID, token string) error {
	value := sql.NullString{String: token, Valid: token != ""}
	res, err := s.db.ExecContext(ctx, "UPDATE users SET refresh_token = ? WHERE id = ?", value, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
