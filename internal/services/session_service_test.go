package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adivish/vidtube-be/internal/apierr"
	"github.com/adivish/vidtube-be/internal/auth"
	"github.com/adivish/vidtube-be/internal/config"
	"github.com/adivish/vidtube-be/internal/database"
	"github.com/adivish/vidtube-be/internal/models"
)

// --- fakes ---

type fakeUserStore struct {
	users     map[string]models.User
	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]models.User{}}
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, database.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) FindByIdentity(ctx context.Context, username, email string) (models.User, error) {
	for _, user := range f.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, database.ErrUserNotFound
}

func (f *fakeUserStore) Create(ctx context.Context, user models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) SetRefreshToken(ctx context.Context, userID, token string) error {
	user, ok := f.users[userID]
	if !ok {
		return database.ErrUserNotFound
	}
	user.RefreshToken = token
	f.users[userID] = user
	return nil
}

type fakeUploader struct {
	err     error
	uploads []string
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, localPath)
	return "https://cdn.example.com/" + localPath, nil
}

// --- helpers ---

func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	return auth.NewTokenService(&config.Config{
		AccessTokenSecret:  "test-access-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenSecret: "test-refresh-secret",
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func newTestService(t *testing.T) (*SessionService, *fakeUserStore, *fakeUploader) {
	t.Helper()
	store := newFakeUserStore()
	uploader := &fakeUploader{}
	svc := NewSessionService(store, newTestTokenService(t), uploader)
	return svc, store, uploader
}

func seedUser(t *testing.T, store *fakeUserStore, username, email, password string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		ID:           "user-" + username,
		Username:     username,
		Email:        email,
		FullName:     "Seed User",
		AvatarURL:    "https://cdn.example.com/avatar.png",
		PasswordHash: string(hash),
	}
	store.users[user.ID] = user
	return user
}

func requireAPIError(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
}

func registerInput() RegisterInput {
	return RegisterInput{
		FullName:   "Chai Aur Code",
		Email:      "chai@example.com",
		Username:   "ChaiAurCode",
		Password:   "hunter2!",
		AvatarPath: "/tmp/avatar.png",
	}
}

// --- register ---

func TestRegisterRejectsBlankFields(t *testing.T) {
	blanks := []string{"", "   ", "\t\n"}

	mutations := map[string]func(*RegisterInput, string){
		"fullName": func(in *RegisterInput, v string) { in.FullName = v },
		"email":    func(in *RegisterInput, v string) { in.Email = v },
		"username": func(in *RegisterInput, v string) { in.Username = v },
		"password": func(in *RegisterInput, v string) { in.Password = v },
	}

	for field, mutate := range mutations {
		for _, blank := range blanks {
			t.Run(fmt.Sprintf("%s=%q", field, blank), func(t *testing.T) {
				svc, store, _ := newTestService(t)
				in := registerInput()
				mutate(&in, blank)

				_, err := svc.Register(context.Background(), in)
				requireAPIError(t, err, 400)
				assert.Empty(t, store.users)
			})
		}
	}
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedUser(t, store, "chaiaurcode", "other@example.com", "pw")

	in := registerInput() // same username (case-insensitive), different email
	_, err := svc.Register(context.Background(), in)
	requireAPIError(t, err, 409)

	svc2, store2, _ := newTestService(t)
	seedUser(t, store2, "someoneelse", "chai@example.com", "pw")

	in2 := registerInput() // different username, same email
	_, err = svc2.Register(context.Background(), in2)
	requireAPIError(t, err, 409)
}

func TestRegisterRequiresAvatar(t *testing.T) {
	svc, store, uploader := newTestService(t)

	in := registerInput()
	in.AvatarPath = ""

	_, err := svc.Register(context.Background(), in)
	requireAPIError(t, err, 400)
	assert.Empty(t, uploader.uploads)
	assert.Empty(t, store.users)
}

func TestRegisterFailsWhenAvatarUploadFails(t *testing.T) {
	svc, store, uploader := newTestService(t)
	uploader.err = errors.New("bucket unreachable")

	_, err := svc.Register(context.Background(), registerInput())
	requireAPIError(t, err, 400)
	assert.Empty(t, store.users)
}

func TestRegisterSucceedsWithoutCoverImage(t *testing.T) {
	svc, store, _ := newTestService(t)

	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	assert.Equal(t, "chaiaurcode", user.Username, "username must be lowercased")
	assert.Equal(t, "chai@example.com", user.Email)
	assert.NotEmpty(t, user.AvatarURL)
	assert.Empty(t, user.CoverImageURL)

	// Sanitized view never carries secrets.
	assert.Empty(t, user.PasswordHash)
	assert.Empty(t, user.RefreshToken)

	stored, err := store.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2!")))
}

func TestRegisterUploadsCoverImageWhenPresent(t *testing.T) {
	svc, _, uploader := newTestService(t)

	in := registerInput()
	in.CoverImagePath = "/tmp/cover.png"

	user, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, user.CoverImageURL)
	assert.Len(t, uploader.uploads, 2)
}

func TestRegisterFailsWhenPostCreateFetchMisses(t *testing.T) {
	store := newFakeUserStore()
	svc := NewSessionService(&dropOnCreateStore{fakeUserStore: store}, newTestTokenService(t), &fakeUploader{})

	_, err := svc.Register(context.Background(), registerInput())
	requireAPIError(t, err, 500)
}

// dropOnCreateStore pretends the insert succeeded but the row never landed.
type dropOnCreateStore struct {
	*fakeUserStore
}

func (d *dropOnCreateStore) Create(ctx context.Context, user models.User) error {
	return nil
}

// --- login ---

func TestLoginRequiresUsernameOrEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), LoginInput{Password: "pw"})
	requireAPIError(t, err, 400)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "pw"})
	requireAPIError(t, err, 404)
}

func TestLoginWrongPasswordMintsNothing(t *testing.T) {
	svc, store, _ := newTestService(t)
	user := seedUser(t, store, "chai", "chai@example.com", "correct-password")

	_, _, err := svc.Login(context.Background(), LoginInput{Username: "chai", Password: "wrong"})
	requireAPIError(t, err, 401)

	stored, err2 := store.FindByID(context.Background(), user.ID)
	require.NoError(t, err2)
	assert.Empty(t, stored.RefreshToken, "rejected login must not persist a token")
}

func TestLoginSuccessPersistsRefreshToken(t *testing.T) {
	for _, by := range []string{"username", "email"} {
		t.Run("by "+by, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			seeded := seedUser(t, store, "chai", "chai@example.com", "correct-password")

			in := LoginInput{Password: "correct-password"}
			if by == "username" {
				in.Username = "Chai" // case-insensitive lookup
			} else {
				in.Email = "chai@example.com"
			}

			user, pair, err := svc.Login(context.Background(), in)
			require.NoError(t, err)

			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)
			assert.Empty(t, user.PasswordHash)
			assert.Empty(t, user.RefreshToken)

			stored, err := store.FindByID(context.Background(), seeded.ID)
			require.NoError(t, err)
			assert.Equal(t, pair.RefreshToken, stored.RefreshToken)
		})
	}
}

// --- refresh ---

func TestRefreshRequiresToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "")
	requireAPIError(t, err, 400)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "not.a.jwt")
	requireAPIError(t, err, 401)
}

func TestRefreshRejectsUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	token, err := newTestTokenService(t).NewRefreshToken("missing-user")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), token)
	requireAPIError(t, err, 404)
}

func TestRefreshRejectsMismatchedTokenWithoutRevoking(t *testing.T) {
	svc, store, _ := newTestService(t)
	seeded := seedUser(t, store, "chai", "chai@example.com", "pw")

	_, pair, err := svc.Login(context.Background(), LoginInput{Username: "chai", Password: "pw"})
	require.NoError(t, err)

	// Valid signature, same subject, but never stored on the record.
	rogue, err := newTestTokenService(t).NewRefreshToken(seeded.ID)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rogue)

	_, err = svc.Refresh(context.Background(), rogue)
	requireAPIError(t, err, 401)

	stored, err := store.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, stored.RefreshToken, "stale token must not revoke the active session")
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, store, _ := newTestService(t)
	seeded := seedUser(t, store, "chai", "chai@example.com", "pw")

	_, pair, err := svc.Login(context.Background(), LoginInput{Username: "chai", Password: "pw"})
	require.NoError(t, err)

	renewed, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, renewed.RefreshToken)

	stored, err := store.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, renewed.RefreshToken, stored.RefreshToken)

	// The rotated-out token is dead.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	requireAPIError(t, err, 401)
}

// --- logout ---

func TestLogoutInvalidatesStoredToken(t *testing.T) {
	svc, store, _ := newTestService(t)
	seeded := seedUser(t, store, "chai", "chai@example.com", "pw")

	_, pair, err := svc.Login(context.Background(), LoginInput{Username: "chai", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), seeded.ID))

	stored, err := store.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	requireAPIError(t, err, 401)
}

// --- end to end ---

func TestSessionLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, pair, err := svc.Login(ctx, LoginInput{Email: "chai@example.com", Password: "hunter2!"})
	require.NoError(t, err)

	renewed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))

	_, err = svc.Refresh(ctx, renewed.RefreshToken)
	requireAPIError(t, err, 401)
}
