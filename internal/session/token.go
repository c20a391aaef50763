package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/pkg/utilities"
)

// Claims embeds the registered claim set and the user the token is bound to.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer mints and verifies HS256 token pairs. Access and refresh
// tokens are signed with distinct secrets; issuance is pure CPU work with
// no I/O.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(cfg Config) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// Issue mints a fresh pair bound to userID. Each token carries a unique jti
// so repeated issuance never produces equal values.
func (ti *TokenIssuer) Issue(userID string) (*TokenPair, error) {
	access, err := sign(userID, ti.accessSecret, ti.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := sign(userID, ti.refreshSecret, ti.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess checks signature and expiry of an access token and returns
// the embedded user ID.
func (ti *TokenIssuer) VerifyAccess(token string) (string, error) {
	return verify(token, ti.accessSecret)
}

// VerifyRefresh checks signature and expiry of a refresh token and returns
// the embedded user ID. Cryptographic validity alone does not make the
// token usable; the caller must still compare it against the stored value.
func (ti *TokenIssuer) VerifyRefresh(token string) (string, error) {
	return verify(token, ti.refreshSecret)
}

func sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utilities.NewTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})
	return token.SignedString(secret)
}

func verify(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.UserID == "" {
		return "", errors.New("invalid token")
	}
	return claims.UserID, nil
}
