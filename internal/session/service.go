package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user/entity"
)

// sentinel errors surfaced to the transport layer
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrMissingToken        = errors.New("refresh token is required")
	ErrUserNotFound        = errors.New("user not found")
	ErrInternal            = errors.New("something went wrong")
)

// CredentialVerifier checks passwords against stored hashes. Read-only.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, identifier, password string) (*entity.User, error)
	VerifyPasswordByID(ctx context.Context, userID, password string) (*entity.User, error)
}

// PasswordUpdater re-hashes and persists a replacement password.
type PasswordUpdater interface {
	SetPassword(ctx context.Context, userID, newPassword string) error
}

// Service orchestrates login, logout, refresh rotation, and password change.
// The refresh token store is the only shared mutable state; everything else
// is per-request.
type Service struct {
	verifier  CredentialVerifier
	passwords PasswordUpdater
	tokens    *TokenIssuer
	store     RefreshTokenStore
	logger    *zap.SugaredLogger
}

func NewService(verifier CredentialVerifier, passwords PasswordUpdater, tokens *TokenIssuer, store RefreshTokenStore, logger *zap.SugaredLogger) *Service {
	return &Service{verifier: verifier, passwords: passwords, tokens: tokens, store: store, logger: logger}
}

// Login verifies credentials, mints a token pair, and stores the new
// refresh token, replacing whatever was there (a second login invalidates
// the first session). "No such user" and "wrong password" are both reported
// as ErrInvalidCredentials so login never confirms account existence.
func (s *Service) Login(ctx context.Context, identifier, password string) (*TokenPair, *entity.PublicUser, error) {
	u, err := s.verifier.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrBadCredentials) {
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Errorw("credential check failed", "err", err)
		return nil, nil, ErrInternal
	}

	pair, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.logger.Errorw("token issuance failed", "user_id", u.ID, "err", err)
		return nil, nil, ErrInternal
	}

	// the pair only becomes valid once its refresh half is durably stored
	if err := s.store.SetCurrent(ctx, u.ID, pair.RefreshToken); err != nil {
		s.logger.Errorw("refresh token store failed", "user_id", u.ID, "err", err)
		return nil, nil, ErrInternal
	}
	return pair, u.Public(), nil
}

// Logout clears the stored refresh token, making every previously issued
// refresh token unusable. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.Errorw("refresh token clear failed", "user_id", userID, "err", err)
		return ErrInternal
	}
	return nil
}

// Refresh validates an incoming refresh token and rotates it. A token is
// accepted only when it verifies cryptographically AND equals the stored
// value; the swap is conditional on the stored value so two concurrent
// refreshes with the same token cannot both succeed.
func (s *Service) Refresh(ctx context.Context, incoming string) (*TokenPair, error) {
	if incoming == "" {
		return nil, ErrMissingToken
	}

	userID, err := s.tokens.VerifyRefresh(incoming)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	current, err := s.store.GetCurrent(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Errorw("refresh token lookup failed", "user_id", userID, "err", err)
		return nil, ErrInternal
	}
	if current == nil || *current != incoming {
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.tokens.Issue(userID)
	if err != nil {
		s.logger.Errorw("token issuance failed", "user_id", userID, "err", err)
		return nil, ErrInternal
	}

	swapped, err := s.store.SwapCurrent(ctx, userID, incoming, pair.RefreshToken)
	if err != nil {
		s.logger.Errorw("refresh token rotation failed", "user_id", userID, "err", err)
		return nil, ErrInternal
	}
	if !swapped {
		// a concurrent rotation or logout won the race; the incoming token
		// no longer matches the stored value
		return nil, ErrInvalidRefreshToken
	}
	return pair, nil
}

// ChangePassword verifies the old password and persists a new hash. The
// current refresh token is left untouched; a password change does not force
// re-login.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if _, err := s.verifier.VerifyPasswordByID(ctx, userID, oldPassword); err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			return ErrUserNotFound
		case errors.Is(err, user.ErrBadCredentials):
			return ErrInvalidCredentials
		}
		s.logger.Errorw("password check failed", "user_id", userID, "err", err)
		return ErrInternal
	}
	if err := s.passwords.SetPassword(ctx, userID, newPassword); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.Errorw("password update failed", "user_id", userID, "err", err)
		return ErrInternal
	}
	return nil
}
