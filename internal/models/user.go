package models

import "time"

// User represents a user account in the system.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl"`
	PasswordHash  string    `json:"-"` // Never expose this to the client
	RefreshToken  string    `json:"-"` // Mirrors the single live refresh token
	CreatedAt     time.Time `json:"createdAt"`
}

// Sanitized returns a copy of the user with secret fields cleared, safe to
// serialize in a response body.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}
