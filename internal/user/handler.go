package user

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/pkg/utilities"
)

// 8 MiB cap on profile image uploads
const maxUploadBytes = 8 << 20

// Handler exposes HTTP endpoints for account and profile operations.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register handles multipart signup: text fields plus a required avatar and
// an optional cover image.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utilities.RespondError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	in := RegisterInput{
		FullName: r.FormValue("fullname"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	for field, value := range map[string]string{
		"fullname": in.FullName,
		"email":    in.Email,
		"username": in.Username,
		"password": in.Password,
	} {
		if value == "" {
			utilities.RespondError(w, http.StatusBadRequest, "all fields are required", field+" is required")
			return
		}
	}

	avatar, avatarHeader, err := r.FormFile("avatar")
	if err != nil {
		utilities.RespondError(w, http.StatusBadRequest, "avatar file is missing")
		return
	}
	defer avatar.Close()
	in.Avatar = avatar
	in.AvatarType = contentTypeOf(avatarHeader)

	if cover, coverHeader, err := r.FormFile("coverImage"); err == nil {
		defer cover.Close()
		in.CoverImage = cover
		in.CoverImageType = contentTypeOf(coverHeader)
	}

	pub, err := h.svc.Register(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			utilities.RespondError(w, http.StatusConflict, "user already exists with these credentials")
			return
		}
		h.logger.Warnw("registration failed", "err", err)
		utilities.RespondError(w, http.StatusInternalServerError, "something went wrong while creating user")
		return
	}
	utilities.RespondData(w, http.StatusCreated, pub, "user registered successfully")
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// CurrentUser returns the authenticated user's public fields.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := utilities.UserIDFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, http.StatusUnauthorized, "unauthorized request")
		return
	}
	u, err := h.svc.GetByID(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "fetch current user")
		return
	}
	utilities.RespondData(w, http.StatusOK, u.Public(), "current user details")
}

// UpdateAccountRequest account update payload.
type UpdateAccountRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := utilities.UserIDFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, http.StatusUnauthorized, "unauthorized request")
		return
	}
	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utilities.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.FullName == "" || req.Email == "" {
		utilities.RespondError(w, http.StatusBadRequest, "fullname and email are required")
		return
	}
	pub, err := h.svc.UpdateAccount(r.Context(), userID, req.FullName, req.Email)
	if err != nil {
		h.respondError(w, err, "update account")
		return
	}
	utilities.RespondData(w, http.StatusOK, pub, "account updated successfully")
}

// UpdateAvatar replaces the authenticated user's avatar image.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", func(r *http.Request, userID string, f multipart.File, contentType string) (any, error) {
		return h.svc.UpdateAvatar(r.Context(), userID, f, contentType)
	})
}

// UpdateCoverImage replaces the authenticated user's cover image.
func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", func(r *http.Request, userID string, f multipart.File, contentType string) (any, error) {
		return h.svc.UpdateCoverImage(r.Context(), userID, f, contentType)
	})
}

func (h *Handler) updateImage(w http.ResponseWriter, r *http.Request, field string, apply func(*http.Request, string, multipart.File, string) (any, error)) {
	userID, ok := utilities.UserIDFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, http.StatusUnauthorized, "unauthorized request")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utilities.RespondError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	f, header, err := r.FormFile(field)
	if err != nil {
		utilities.RespondError(w, http.StatusBadRequest, field+" file is missing")
		return
	}
	defer f.Close()

	pub, err := apply(r, userID, f, contentTypeOf(header))
	if err != nil {
		h.respondError(w, err, "update "+field)
		return
	}
	utilities.RespondData(w, http.StatusOK, pub, field+" updated successfully")
}

// ChannelProfile returns the public channel view for a username.
func (h *Handler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		utilities.RespondError(w, http.StatusBadRequest, "username is required")
		return
	}
	viewerID, _ := utilities.UserIDFromContext(r.Context())
	profile, err := h.svc.GetChannelProfile(r.Context(), username, viewerID)
	if err != nil {
		h.respondError(w, err, "fetch channel profile")
		return
	}
	utilities.RespondData(w, http.StatusOK, profile, "channel profile fetched successfully")
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		utilities.RespondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrBadCredentials):
		utilities.RespondError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		h.logger.Warnw(op+" failed", "err", err)
		utilities.RespondError(w, http.StatusInternalServerError, "something went wrong")
	}
}
