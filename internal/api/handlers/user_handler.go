package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/adivish/vidtube-be/internal/apierr"
	"github.com/adivish/vidtube-be/internal/auth"
	"github.com/adivish/vidtube-be/internal/services"
)

// maxUploadBytes bounds the in-memory portion of a multipart register request.
const maxUploadBytes = 32 << 20

// UserHandler handles HTTP requests for account and session management.
type UserHandler struct {
	service   services.SessionServiceProvider
	tokens    *auth.TokenService
	uploadDir string
}

// NewUserHandler creates a new UserHandler. Staged upload files are written
// under uploadDir and removed once the request completes.
func NewUserHandler(service services.SessionServiceProvider, tokens *auth.TokenService, uploadDir string) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, uploadDir: uploadDir}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshPayload defines the body fallback for refresh requests when no
// refreshToken cookie is present.
type RefreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles new user registration with avatar/cover-image upload.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, apierr.BadRequest("invalid multipart form"))
		return
	}

	in := services.RegisterInput{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	avatarPath, err := h.stageFile(r, "avatar")
	if err != nil {
		respondError(w, err)
		return
	}
	if avatarPath != "" {
		defer h.discardStaged(avatarPath)
	}
	in.AvatarPath = avatarPath

	coverPath, err := h.stageFile(r, "coverImage")
	if err != nil {
		respondError(w, err)
		return
	}
	if coverPath != "" {
		defer h.discardStaged(coverPath)
	}
	in.CoverImagePath = coverPath

	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		log.Warn().Err(err).Str("username", in.Username).Msg("Registration failed")
		respondError(w, err)
		return
	}

	respond(w, http.StatusCreated, user, "user registered successfully")
}

// Login handles user authentication and opens a session. Tokens travel both
// as cookies and in the body so non-browser clients can use them.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeBody(r, &payload, func() {
		payload.Username = r.PostFormValue("username")
		payload.Email = r.PostFormValue("email")
		payload.Password = r.PostFormValue("password")
	}); err != nil {
		respondError(w, apierr.BadRequest("invalid request body"))
		return
	}

	user, pair, err := h.service.Login(r.Context(), services.LoginInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Str("email", payload.Email).Msg("Failed login attempt")
		respondError(w, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

// Logout clears the caller's stored refresh token and both session cookies.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, apierr.Unauthorized("unauthorized"))
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID); err != nil {
		respondError(w, err)
		return
	}

	h.clearSessionCookies(w)
	respond(w, http.StatusOK, nil, "user logged out successfully")
}

// Refresh rotates the session's refresh token. The incoming token is read
// from the refreshToken cookie, falling back to the request body.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var incoming string
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var payload RefreshPayload
		if err := decodeBody(r, &payload, func() {
			payload.RefreshToken = r.PostFormValue("refreshToken")
		}); err == nil {
			incoming = payload.RefreshToken
		}
	}

	pair, err := h.service.Refresh(r.Context(), incoming)
	if err != nil {
		log.Warn().Err(err).Msg("Session renewal failed")
		respondError(w, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond(w, http.StatusOK, pair, "session renewed successfully")
}

// decodeBody decodes a JSON body, or falls back to urlencoded form fields.
func decodeBody(r *http.Request, v interface{}, formFallback func()) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
			return err
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	formFallback()
	return nil
}

// stageFile writes the named multipart file into the upload staging dir and
// returns its local path; a missing file part yields an empty path.
func (h *UserHandler) stageFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", apierr.BadRequest("invalid " + field + " file")
	}
	defer file.Close()

	return h.writeStaged(file, header)
}

func (h *UserHandler) writeStaged(file multipart.File, header *multipart.FileHeader) (string, error) {
	dst := filepath.Join(h.uploadDir, uuid.New().String()+filepath.Ext(header.Filename))
	out, err := os.Create(dst)
	if err != nil {
		log.Error().Err(err).Str("path", dst).Msg("Failed to stage upload")
		return "", apierr.Internal("failed to store uploaded file")
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(dst)
		return "", apierr.Internal("failed to store uploaded file")
	}
	return dst, nil
}

func (h *UserHandler) discardStaged(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove staged upload")
	}
}

func (h *UserHandler) setSessionCookies(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Expires:  time.Now().Add(h.tokens.AccessExpiry()),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Expires:  time.Now().Add(h.tokens.RefreshExpiry()),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
	})
}

func (h *UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			Path:     "/",
		})
	}
}
