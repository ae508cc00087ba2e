package users

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/appbox-io/appbox/internal/apperror"
	"github.com/appbox-io/appbox/internal/platform/httpx"
	"github.com/appbox-io/appbox/internal/security"
)

// Handler wires HTTP endpoints for account management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname" validate:"required,min=2,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(u *User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		Role:      string(u.Role),
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// Register handles POST /api/users. Public: this is the account creation
// endpoint.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	user, err := h.service.Register(r.Context(), req.Email, req.Nickname, req.Password)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(user))
}

// Me handles GET /api/users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sec := security.FromContext(r.Context())
	if sec.Anonymous() {
		httpx.RespondError(w, h.logger, apperror.ErrAuthentication)
		return
	}
	user, err := h.service.BySubject(r.Context(), sec.Subject)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

// List handles GET /api/users. Admin only, enforced at route registration.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	out := make([]userResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, toResponse(&accounts[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// ChangePassword handles PUT /api/users/me/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sec := security.FromContext(r.Context())
	if sec.Anonymous() {
		httpx.RespondError(w, h.logger, apperror.ErrAuthentication)
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), sec.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const maxAvatarSize = 8 << 20

// UploadAvatar handles POST /api/users/me/avatar with a multipart "file"
// part.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	sec := security.FromContext(r.Context())
	if sec.Anonymous() {
		httpx.RespondError(w, h.logger, apperror.ErrAuthentication)
		return
	}
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		httpx.RespondError(w, h.logger, &httpx.DecodeError{Reason: "request is not valid multipart form data"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, h.logger, &httpx.MissingPartError{Part: "file"})
		return
	}
	defer func() {
		_ = file.Close()
	}()

	url, err := h.service.UpdateAvatar(r.Context(), sec.Subject, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": url})
}
