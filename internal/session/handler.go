package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user/entity"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/pkg/utilities"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// Handler exposes the session endpoints and owns the cookie contract:
// tokens travel both in the JSON envelope and as two httpOnly cookies, and
// logout clears the cookies with the same flag set used at issuance.
type Handler struct {
	svc    *Service
	cfg    Config
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, cfg Config, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, cfg: cfg, logger: logger}
}

// LoginRequest login payload.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// loginResponse bundles the public user and the freshly minted pair.
type loginResponse struct {
	User         *entity.PublicUser `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utilities.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Identifier == "" || req.Password == "" {
		// missing fields fail the credential gate, not a schema error, so
		// the response never reveals which part was absent
		utilities.RespondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, pub, err := h.svc.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.setAuthCookies(w, pair)
	utilities.RespondData(w, http.StatusOK, loginResponse{
		User:         pub,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "user logged in successfully")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utilities.UserIDFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, http.StatusUnauthorized, "unauthorized request")
		return
	}
	if err := h.svc.Logout(r.Context(), userID); err != nil {
		h.respondError(w, err)
		return
	}
	h.clearAuthCookies(w)
	utilities.RespondData(w, http.StatusOK, struct{}{}, "user logged out successfully")
}

// refreshRequest is the body fallback; the refreshToken cookie takes
// precedence when both are present.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	incoming := ""
	if c, err := r.Cookie(refreshCookieName); err == nil {
		incoming = c.Value
	}
	if incoming == "" && r.Body != nil {
		var req refreshRequest
		// a missing or malformed body is fine as long as the cookie was set
		_ = json.NewDecoder(r.Body).Decode(&req)
		incoming = req.RefreshToken
	}

	pair, err := h.svc.Refresh(r.Context(), incoming)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.setAuthCookies(w, pair)
	utilities.RespondData(w, http.StatusOK, pair, "access token refreshed successfully")
}

// ChangePasswordRequest password change payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := utilities.UserIDFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, http.StatusUnauthorized, "unauthorized request")
		return
	}
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utilities.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.OldPassword == "" {
		utilities.RespondError(w, http.StatusBadRequest, "oldPassword is required")
		return
	}
	if req.NewPassword == "" {
		utilities.RespondError(w, http.StatusBadRequest, "newPassword is required")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.respondError(w, err)
		return
	}
	utilities.RespondData(w, http.StatusOK, struct{}{}, "password updated successfully")
}

// setAuthCookies writes the token pair as httpOnly cookies. Secure comes
// from config so production traffic never sends tokens over plain HTTP.
func (h *Handler) setAuthCookies(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(h.cfg.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.cfg.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
	})
}

// clearAuthCookies expires both cookies with the same flag set used at
// issuance; a flag mismatch would leave stale cookies behind in browsers.
func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cfg.SecureCookies,
		})
	}
}

// respondError maps service sentinels to HTTP statuses. Causes behind
// ErrInternal are already logged in the service and never reach the body.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		utilities.RespondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, ErrMissingToken):
		utilities.RespondError(w, http.StatusUnauthorized, "refresh token is required")
	case errors.Is(err, ErrInvalidRefreshToken):
		utilities.RespondError(w, http.StatusUnauthorized, "invalid refresh token")
	case errors.Is(err, ErrUserNotFound):
		utilities.RespondError(w, http.StatusNotFound, "user not found")
	default:
		utilities.RespondError(w, http.StatusInternalServerError, "something went wrong")
	}
}
