package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	userrepo "github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user/repo"
)

// RefreshTokenStore persists the single active refresh token per user. The
// stored value is the source of truth for revocation: a token that fails to
// match it is dead regardless of its signature.
type RefreshTokenStore interface {
	// SetCurrent overwrites the stored token unconditionally (last writer
	// wins; used by login).
	SetCurrent(ctx context.Context, userID, token string) error
	// SwapCurrent replaces the stored token only if it still equals
	// previous. Returns false when another writer got there first. This is
	// the serialization point for concurrent rotations.
	SwapCurrent(ctx context.Context, userID, previous, next string) (bool, error)
	// GetCurrent returns the stored token; nil means no active session.
	GetCurrent(ctx context.Context, userID string) (*string, error)
	// Clear sets the stored token to absent. Clearing an already-absent
	// token succeeds.
	Clear(ctx context.Context, userID string) error
}

// UserTokenStore implements RefreshTokenStore on the users table, where the
// current refresh token lives as a nullable column on the user row.
type UserTokenStore struct {
	repo *userrepo.UserRepo
}

func NewUserTokenStore(repo *userrepo.UserRepo) *UserTokenStore {
	return &UserTokenStore{repo: repo}
}

func (s *UserTokenStore) SetCurrent(ctx context.Context, userID, token string) error {
	if err := s.repo.SetRefreshToken(ctx, userID, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

func (s *UserTokenStore) SwapCurrent(ctx context.Context, userID, previous, next string) (bool, error) {
	swapped, err := s.repo.SwapRefreshToken(ctx, userID, previous, next)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	return swapped, nil
}

func (s *UserTokenStore) GetCurrent(ctx context.Context, userID string) (*string, error) {
	token, err := s.repo.GetRefreshToken(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return token, nil
}

func (s *UserTokenStore) Clear(ctx context.Context, userID string) error {
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
