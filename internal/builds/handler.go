// Package builds exposes artifact publishing: uploaded application builds
// are pushed straight through to the object store.
package builds

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/appbox-io/appbox/internal/apperror"
	"github.com/appbox-io/appbox/internal/platform/httpx"
	"github.com/appbox-io/appbox/internal/security"
	"github.com/appbox-io/appbox/internal/storage"
)

const maxArtifactSize = 256 << 20

// Handler wires the artifact upload endpoint.
type Handler struct {
	logger *slog.Logger
	store  storage.ObjectStore
	bucket string
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, store storage.ObjectStore, bucket string) *Handler {
	return &Handler{logger: logger, store: store, bucket: bucket}
}

// Upload handles POST /api/builds with a multipart "artifact" part. Admin
// only, enforced at route registration.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxArtifactSize); err != nil {
		httpx.RespondError(w, h.logger, &httpx.DecodeError{Reason: "request is not valid multipart form data"})
		return
	}
	file, header, err := r.FormFile("artifact")
	if err != nil {
		httpx.RespondError(w, h.logger, &httpx.MissingPartError{Part: "artifact"})
		return
	}
	defer func() {
		_ = file.Close()
	}()

	url, err := h.store.Put(r.Context(), h.bucket, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		httpx.RespondError(w, h.logger, fmt.Errorf("%w: %v", apperror.New(apperror.KindFileUploadFailed), err))
		return
	}

	if h.logger != nil {
		sec := security.FromContext(r.Context())
		h.logger.Info("build artifact published",
			slog.String("name", header.Filename),
			slog.String("by", sec.Subject))
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"url": url})
}
