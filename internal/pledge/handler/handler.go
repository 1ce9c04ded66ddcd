// Package handler exposes the pledge endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"evento/internal/campaign"
	"evento/internal/http/shared"
	"evento/internal/platform/metrics"
	"evento/internal/platform/middleware"
	"evento/internal/pledge"
	pledgeservice "evento/internal/pledge/service"
	derrors "evento/pkg/domain-errors"
)

// Service defines the interface for pledge operations.
type Service interface {
	Create(ctx context.Context, scope campaign.Scope, scopeKey string, amountSats int64, payer pledgeservice.Payer) (pledge.CreateResult, error)
	Status(ctx context.Context, pledgeID string) (pledge.StatusResult, error)
}

// Handler handles pledge endpoints.
type Handler struct {
	logger       *slog.Logger
	pledges      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new pledge Handler. jwtValidator may be nil to disable
// authenticated payer attribution.
func New(pledges Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		pledges:      pledges,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the pledge routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(pledgeRouter chi.Router) {
		pledgeRouter.Use(middleware.Recovery(h.logger))
		pledgeRouter.Use(middleware.RequestID)
		pledgeRouter.Use(middleware.Logger(h.logger))
		pledgeRouter.Use(middleware.Timeout(30 * time.Second))
		pledgeRouter.Use(middleware.ContentTypeJSON)
		pledgeRouter.Use(middleware.LatencyMiddleware(h.metrics))
		if h.jwtValidator != nil {
			pledgeRouter.Use(middleware.OptionalAuth(h.jwtValidator, h.logger))
		}
		pledgeRouter.Post("/v1/events/{eventId}/campaign/pledges", h.handleCreateEventPledge)
		pledgeRouter.Post("/v1/users/{username}/campaign/pledges", h.handleCreateProfilePledge)
		pledgeRouter.Get("/v1/campaign-pledges/{pledgeId}/status", h.handleStatus)
	})
}

func (h *Handler) handleCreateEventPledge(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, campaign.ScopeEvent, chi.URLParam(r, "eventId"))
}

func (h *Handler) handleCreateProfilePledge(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, campaign.ScopeProfile, chi.URLParam(r, "username"))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, scope campaign.Scope, scopeKey string) {
	ctx := r.Context()

	var req pledge.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid pledge request body",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	payer := pledgeservice.Payer{
		Username:  middleware.GetUsername(ctx),
		AvatarURL: middleware.GetAvatarURL(ctx),
	}

	result, err := h.pledges.Create(ctx, scope, scopeKey, req.AmountSats, payer)
	if err != nil {
		h.logger.WarnContext(ctx, "pledge creation failed",
			"request_id", middleware.GetRequestID(ctx),
			"scope", scope,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pledgeID := chi.URLParam(r, "pledgeId")

	result, err := h.pledges.Status(ctx, pledgeID)
	if err != nil {
		h.logger.WarnContext(ctx, "pledge status lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"pledge_id", pledgeID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}
