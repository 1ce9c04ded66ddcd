// Package handler exposes campaign read endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"evento/internal/campaign"
	"evento/internal/http/shared"
	"evento/internal/platform/metrics"
	"evento/internal/platform/middleware"
)

// Service defines the interface for campaign read operations.
type Service interface {
	EventCampaign(ctx context.Context, eventID string) (campaign.WithProgress, error)
	ProfileCampaign(ctx context.Context, username string) (campaign.WithProgress, error)
	EventFeed(ctx context.Context, eventID string, limit int) ([]campaign.FeedEntry, error)
	ProfileFeed(ctx context.Context, username string, limit int) ([]campaign.FeedEntry, error)
}

// Handler handles campaign endpoints.
type Handler struct {
	logger   *slog.Logger
	campaign Service
	metrics  *metrics.Metrics
}

// New creates a new campaign Handler.
func New(campaignSvc Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		campaign: campaignSvc,
		metrics:  m,
	}
}

// Register registers the campaign routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(campaignRouter chi.Router) {
		campaignRouter.Use(middleware.Recovery(h.logger))
		campaignRouter.Use(middleware.RequestID)
		campaignRouter.Use(middleware.Logger(h.logger))
		campaignRouter.Use(middleware.Timeout(15 * time.Second))
		campaignRouter.Use(middleware.LatencyMiddleware(h.metrics))
		campaignRouter.Get("/v1/events/{eventId}/campaign", h.handleEventCampaign)
		campaignRouter.Get("/v1/events/{eventId}/campaign/feed", h.handleEventFeed)
		campaignRouter.Get("/v1/users/{username}/campaign", h.handleProfileCampaign)
		campaignRouter.Get("/v1/users/{username}/campaign/feed", h.handleProfileFeed)
	})
}

func (h *Handler) handleEventCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "eventId")

	result, err := h.campaign.EventCampaign(ctx, eventID)
	if err != nil {
		h.logError(ctx, "event campaign lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProfileCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	result, err := h.campaign.ProfileCampaign(ctx, username)
	if err != nil {
		h.logError(ctx, "profile campaign lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleEventFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	feed, err := h.campaign.EventFeed(ctx, chi.URLParam(r, "eventId"), feedLimit(r))
	if err != nil {
		h.logError(ctx, "event feed lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	h.writeFeed(w, feed)
}

func (h *Handler) handleProfileFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	feed, err := h.campaign.ProfileFeed(ctx, chi.URLParam(r, "username"), feedLimit(r))
	if err != nil {
		h.logError(ctx, "profile feed lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	h.writeFeed(w, feed)
}

func (h *Handler) writeFeed(w http.ResponseWriter, feed []campaign.FeedEntry) {
	if feed == nil {
		feed = []campaign.FeedEntry{}
	}
	shared.WriteData(w, http.StatusOK, "ok", feed)
}

func feedLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
