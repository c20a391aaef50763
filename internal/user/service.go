package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/media"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user/entity"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/pkg/utilities"
)

// PasswordHasher defines a minimal hashing interface (abstract so we can
// swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Repository is the persistence surface the service needs from the users table.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error)
	UpdateAvatarURL(ctx context.Context, id, url string) (*entity.User, error)
	UpdateCoverImageURL(ctx context.Context, id, url string) (*entity.User, error)
}

// SubscriptionCounter is the slice of the subscription collaborator the
// channel profile endpoint reads.
type SubscriptionCounter interface {
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
}

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUserExists     = errors.New("user already exists with these credentials")
)

// Service orchestrates account lifecycle flows and credential verification.
type Service struct {
	repo   Repository
	subs   SubscriptionCounter
	assets media.Store
	hasher PasswordHasher
}

func NewService(repo Repository, subs SubscriptionCounter, assets media.Store, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{repo: repo, subs: subs, assets: assets, hasher: hasher}
}

// VerifyCredentials checks an identifier+password pair against the stored
// hash. The identifier is matched as email when it contains '@', username
// otherwise. Read-only; no counters or timestamps are touched.
func (s *Service) VerifyCredentials(ctx context.Context, identifier, password string) (*entity.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrBadCredentials
	}

	var u *entity.User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.repo.GetByEmail(ctx, identifier)
	} else {
		u, err = s.repo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u.PasswordHash == nil || !s.hasher.Verify(*u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// VerifyPasswordByID checks a candidate password for a known user ID.
func (s *Service) VerifyPasswordByID(ctx context.Context, userID, password string) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u.PasswordHash == nil || !s.hasher.Verify(*u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// SetPassword re-hashes and persists a new password for the user.
func (s *Service) SetPassword(ctx context.Context, userID, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// GetByID returns a user record or ErrUserNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// RegisterInput carries the validated signup payload. Avatar is required,
// CoverImage is optional (nil reader).
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	Avatar         io.Reader
	AvatarType     string
	CoverImage     io.Reader
	CoverImageType string
}

// Register uploads the profile assets, creates the account, and rolls the
// uploads back when the insert fails.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.PublicUser, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	avatarKey := "avatars/" + utilities.NewObjectID()
	avatarURL, err := s.assets.Upload(ctx, avatarKey, in.Avatar, in.AvatarType)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	var coverKey, coverURL string
	if in.CoverImage != nil {
		coverKey = "covers/" + utilities.NewObjectID()
		coverURL, err = s.assets.Upload(ctx, coverKey, in.CoverImage, in.CoverImageType)
		if err != nil {
			_ = s.assets.Delete(ctx, avatarKey)
			return nil, fmt.Errorf("upload cover image: %w", err)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.deleteUploads(ctx, avatarKey, coverKey)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &entity.User{
		ID:            utilities.NewUserID(),
		Username:      username,
		Email:         email,
		FullName:      strings.TrimSpace(in.FullName),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  &hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		s.deleteUploads(ctx, avatarKey, coverKey)
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u.Public(), nil
}

func (s *Service) deleteUploads(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if k != "" {
			_ = s.assets.Delete(ctx, k)
		}
	}
}

// UpdateAccount sets fullname and email for the user.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (*entity.PublicUser, error) {
	u, err := s.repo.UpdateAccount(ctx, userID, strings.TrimSpace(fullName), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return u.Public(), nil
}

// UpdateAvatar uploads a replacement avatar and persists its URL.
func (s *Service) UpdateAvatar(ctx context.Context, userID string, body io.Reader, contentType string) (*entity.PublicUser, error) {
	key := "avatars/" + utilities.NewObjectID()
	url, err := s.assets.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	u, err := s.repo.UpdateAvatarURL(ctx, userID, url)
	if err != nil {
		_ = s.assets.Delete(ctx, key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return u.Public(), nil
}

// UpdateCoverImage uploads a replacement cover image and persists its URL.
func (s *Service) UpdateCoverImage(ctx context.Context, userID string, body io.Reader, contentType string) (*entity.PublicUser, error) {
	key := "covers/" + utilities.NewObjectID()
	url, err := s.assets.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload cover image: %w", err)
	}
	u, err := s.repo.UpdateCoverImageURL(ctx, userID, url)
	if err != nil {
		_ = s.assets.Delete(ctx, key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update cover image: %w", err)
	}
	return u.Public(), nil
}

// ChannelProfile is the public channel view with subscription counts.
type ChannelProfile struct {
	entity.PublicUser
	SubscriberCount   int64 `json:"subscriberCount"`
	SubscribedToCount int64 `json:"channelsSubscribedToCount"`
	IsSubscribed      bool  `json:"isSubscribed"`
}

// GetChannelProfile resolves a channel by username. viewerID may be empty
// for anonymous viewers; IsSubscribed is false in that case.
func (s *Service) GetChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error) {
	u, err := s.repo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup channel: %w", err)
	}

	subscribers, err := s.subs.CountForChannel(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}
	subscribedTo, err := s.subs.CountSubscribedTo(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("count subscribed channels: %w", err)
	}
	profile := &ChannelProfile{
		PublicUser:        *u.Public(),
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
	}
	if viewerID != "" {
		subscribed, err := s.subs.IsSubscribed(ctx, viewerID, u.ID)
		if err != nil {
			return nil, fmt.Errorf("check subscription: %w", err)
		}
		profile.IsSubscribed = subscribed
	}
	return profile, nil
}
