package user

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user/entity"
)

// fakeRepo is an in-memory Repository keyed by ID, username, and email.
type fakeRepo struct {
	users      map[string]*entity.User
	createErr  error
	createCnt  int
	lastHashes map[string]string
}

func newFakeRepo(users ...*entity.User) *fakeRepo {
	r := &fakeRepo{users: map[string]*entity.User{}, lastHashes: map[string]string{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) Create(ctx context.Context, u *entity.User) error {
	r.createCnt++
	if r.createErr != nil {
		return r.createErr
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = &hash
	r.lastHashes[id] = hash
	return nil
}

func (r *fakeRepo) UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.FullName, u.Email = fullName, email
	return u, nil
}

func (r *fakeRepo) UpdateAvatarURL(ctx context.Context, id, url string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.AvatarURL = url
	return u, nil
}

func (r *fakeRepo) UpdateCoverImageURL(ctx context.Context, id, url string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.CoverImageURL = url
	return u, nil
}

// fakeMedia records uploads and deletes so rollback behavior is observable.
type fakeMedia struct {
	uploads   []string
	deletes   []string
	failAfter int // fail the Nth upload (1-based); 0 disables
}

func (m *fakeMedia) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if m.failAfter > 0 && len(m.uploads)+1 == m.failAfter {
		return "", errors.New("storage unavailable")
	}
	m.uploads = append(m.uploads, key)
	return "https://cdn.example.com/" + key, nil
}

func (m *fakeMedia) Delete(ctx context.Context, key string) error {
	m.deletes = append(m.deletes, key)
	return nil
}

func mustHash(t *testing.T, pw string) *string {
	t.Helper()
	h, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash(pw)
	require.NoError(t, err)
	return &h
}

func newTestUserService(t *testing.T, users ...*entity.User) (*Service, *fakeRepo, *fakeMedia) {
	t.Helper()
	repo := newFakeRepo(users...)
	assets := &fakeMedia{}
	svc := NewService(repo, nil, assets, BcryptHasher{Cost: bcrypt.MinCost})
	return svc, repo, assets
}

func bob(t *testing.T) *entity.User {
	t.Helper()
	return &entity.User{
		ID:           "user-bob",
		Username:     "bob",
		Email:        "bob@example.com",
		FullName:     "Bob Example",
		PasswordHash: mustHash(t, "hunter22"),
	}
}

func TestVerifyCredentials_ByUsernameAndEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t, bob(t))
	ctx := context.Background()

	byName, err := svc.VerifyCredentials(ctx, "bob", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "user-bob", byName.ID)

	byEmail, err := svc.VerifyCredentials(ctx, "bob@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "user-bob", byEmail.ID)
}

func TestVerifyCredentials_UnknownUser(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t, bob(t))

	_, err := svc.VerifyCredentials(context.Background(), "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyCredentials_WrongPassword(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t, bob(t))

	_, err := svc.VerifyCredentials(context.Background(), "bob", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestVerifyCredentials_EmptyIdentifier(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t, bob(t))

	_, err := svc.VerifyCredentials(context.Background(), "  ", "hunter22")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestVerifyCredentials_NoStoredHash(t *testing.T) {
	t.Parallel()
	u := bob(t)
	u.PasswordHash = nil
	svc, _, _ := newTestUserService(t, u)

	_, err := svc.VerifyCredentials(context.Background(), "bob", "hunter22")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestSetPassword_RehashesAndPersists(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestUserService(t, bob(t))
	ctx := context.Background()

	require.NoError(t, svc.SetPassword(ctx, "user-bob", "new-password"))
	stored := repo.lastHashes["user-bob"]
	require.NotEmpty(t, stored)
	assert.NotEqual(t, "new-password", stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("new-password")))

	_, err := svc.VerifyCredentials(ctx, "bob", "new-password")
	assert.NoError(t, err)
}

func TestSetPassword_UnknownUser(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t)

	err := svc.SetPassword(context.Background(), "no-such-user", "pw")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func registerInput() RegisterInput {
	return RegisterInput{
		FullName:   "Carol Example",
		Email:      "Carol@Example.com",
		Username:   "Carol",
		Password:   "s3cret-pw",
		Avatar:     strings.NewReader("avatar-bytes"),
		AvatarType: "image/png",
	}
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()
	svc, repo, assets := newTestUserService(t)

	pub, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	assert.Equal(t, "carol", pub.Username)
	assert.Equal(t, "carol@example.com", pub.Email)
	assert.Contains(t, pub.AvatarURL, "avatars/")
	assert.Empty(t, pub.CoverImageURL)

	created := repo.users[pub.ID]
	require.NotNil(t, created)
	require.NotNil(t, created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*created.PasswordHash), []byte("s3cret-pw")))
	assert.Len(t, assets.uploads, 1)
	assert.Empty(t, assets.deletes)
}

func TestRegister_WithCoverImage(t *testing.T) {
	t.Parallel()
	svc, _, assets := newTestUserService(t)

	in := registerInput()
	in.CoverImage = strings.NewReader("cover-bytes")
	in.CoverImageType = "image/jpeg"
	pub, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, pub.CoverImageURL, "covers/")
	assert.Len(t, assets.uploads, 2)
}

func TestRegister_DuplicateSkipsUploads(t *testing.T) {
	t.Parallel()
	u := bob(t)
	svc, _, assets := newTestUserService(t, u)

	in := registerInput()
	in.Username = "BOB"
	in.Email = "other@example.com"
	_, err := svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Empty(t, assets.uploads)
}

func TestRegister_CoverUploadFailureRollsBackAvatar(t *testing.T) {
	t.Parallel()
	svc, repo, assets := newTestUserService(t)
	assets.failAfter = 2

	in := registerInput()
	in.CoverImage = strings.NewReader("cover-bytes")
	in.CoverImageType = "image/jpeg"
	_, err := svc.Register(context.Background(), in)
	require.Error(t, err)
	require.Len(t, assets.uploads, 1)
	assert.Equal(t, assets.uploads, assets.deletes)
	assert.Zero(t, repo.createCnt)
}

func TestRegister_CreateFailureRollsBackUploads(t *testing.T) {
	t.Parallel()
	svc, repo, assets := newTestUserService(t)
	repo.createErr = errors.New("constraint violation")

	in := registerInput()
	in.CoverImage = strings.NewReader("cover-bytes")
	in.CoverImageType = "image/jpeg"
	_, err := svc.Register(context.Background(), in)
	require.Error(t, err)
	require.Len(t, assets.uploads, 2)
	assert.ElementsMatch(t, assets.uploads, assets.deletes)
}

func TestUpdateAccount(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t, bob(t))

	pub, err := svc.UpdateAccount(context.Background(), "user-bob", "Robert Example", "Robert@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Robert Example", pub.FullName)
	assert.Equal(t, "robert@example.com", pub.Email)

	_, err = svc.UpdateAccount(context.Background(), "no-such-user", "X", "x@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateAvatar_RollsBackUploadOnUnknownUser(t *testing.T) {
	t.Parallel()
	svc, _, assets := newTestUserService(t)

	_, err := svc.UpdateAvatar(context.Background(), "no-such-user", strings.NewReader("img"), "image/png")
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.Len(t, assets.uploads, 1)
	assert.Equal(t, assets.uploads, assets.deletes)
}

// fakeSubs is a canned SubscriptionCounter.
type fakeSubs struct {
	subscribers  map[string]int64
	subscribedTo map[string]int64
	edges        map[string]bool // subscriberID+">"+channelID
}

func (s *fakeSubs) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	return s.subscribers[channelID], nil
}

func (s *fakeSubs) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	return s.subscribedTo[subscriberID], nil
}

func (s *fakeSubs) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return s.edges[subscriberID+">"+channelID], nil
}

func TestGetChannelProfile(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(bob(t))
	subs := &fakeSubs{
		subscribers:  map[string]int64{"user-bob": 42},
		subscribedTo: map[string]int64{"user-bob": 7},
		edges:        map[string]bool{"viewer-1>user-bob": true},
	}
	svc := NewService(repo, subs, &fakeMedia{}, BcryptHasher{Cost: bcrypt.MinCost})
	ctx := context.Background()

	profile, err := svc.GetChannelProfile(ctx, "Bob", "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), profile.SubscriberCount)
	assert.Equal(t, int64(7), profile.SubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	anon, err := svc.GetChannelProfile(ctx, "bob", "")
	require.NoError(t, err)
	assert.False(t, anon.IsSubscribed)

	_, err = svc.GetChannelProfile(ctx, "nobody", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
