package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idlink/internal/contact/models"
	"idlink/internal/platform/middleware"
	dErrors "idlink/pkg/domain-errors"
	"idlink/pkg/platform/httputil"
)

// Service resolves observations into consolidated identity views.
type Service interface {
	Identify(ctx context.Context, obs models.Observation) (*models.ConsolidatedContact, error)
}

// Handler serves the identify endpoint.
type Handler struct {
	logger  *slog.Logger
	contact Service
}

// New creates a contact Handler.
func New(contact Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		contact: contact,
	}
}

// Register registers the contact routes. The caller owns the middleware
// chain; this only binds paths.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identify", h.handleIdentify)
}

// handleIdentify resolves one observation and responds with the
// consolidated view of the identity group it landed in.
func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "malformed identify request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	obs, err := req.Observation()
	if err != nil {
		h.logger.WarnContext(ctx, "invalid identify request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	view, err := h.contact.Identify(ctx, obs)
	if err != nil {
		if code := dErrors.CodeOf(err); code == dErrors.CodeInvalidInput || code == dErrors.CodeValidation || code == dErrors.CodeBadRequest {
			h.logger.WarnContext(ctx, "identify rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "identify failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}
