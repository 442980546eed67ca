package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/booking"
)

type availabilityService interface {
	ResourceStatus(ctx context.Context, principal application.Principal, resourceID string, at booking.Instant) (booking.ResourceStatus, error)
	Snapshot(ctx context.Context, principal application.Principal, kind booking.ResourceKind, at booking.Instant) ([]application.ResourceAvailability, error)
	Occupancy(ctx context.Context, principal application.Principal, at booking.Instant) (application.OccupancySummary, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// Snapshot reports the point-in-time status of the catalog. The instant is
// taken from the optional date and time query parameters.
func (h *AvailabilityHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	kind := booking.ResourceKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	at := instantFromQuery(r)

	logger := h.log(r.Context(), "Snapshot", "principal_id", principal.UserID)

	snapshot, err := h.service.Snapshot(r.Context(), principal, kind, at)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability snapshot failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	entries := make([]availabilityDTO, 0, len(snapshot))
	for _, entry := range snapshot {
		entries = append(entries, availabilityDTO{
			Resource: toResourceDTO(entry.Resource),
			Status:   string(entry.Status),
		})
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{Availability: entries})
}

// ResourceStatus reports the status of a single resource.
func (h *AvailabilityHandler) ResourceStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	at := instantFromQuery(r)

	status, err := h.service.ResourceStatus(r.Context(), principal, resourceID, at)
	if err != nil {
		h.log(r.Context(), "ResourceStatus", "resource_id", resourceID).ErrorContext(r.Context(), "availability lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceStatusResponse{
		ResourceID: resourceID,
		Status:     string(status),
	})
}

// Occupancy reports the share of active resources occupied at an instant.
func (h *AvailabilityHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	at := instantFromQuery(r)

	logger := h.log(r.Context(), "Occupancy", "principal_id", principal.UserID)

	summary, err := h.service.Occupancy(r.Context(), principal, at)
	if err != nil {
		logger.ErrorContext(r.Context(), "occupancy computation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, occupancyResponse{
		Date:          summary.At.Date,
		Time:          summary.At.Time,
		ActiveCount:   summary.ActiveCount,
		OccupiedCount: summary.OccupiedCount,
		Rate:          summary.Rate,
	})
}

func instantFromQuery(r *http.Request) booking.Instant {
	return booking.Instant{
		Date: strings.TrimSpace(r.URL.Query().Get("date")),
		Time: strings.TrimSpace(r.URL.Query().Get("time")),
	}
}

type availabilityDTO struct {
	Resource resourceDTO `json:"resource"`
	Status   string      `json:"status"`
}

type availabilityResponse struct {
	Availability []availabilityDTO `json:"availability"`
}

type resourceStatusResponse struct {
	ResourceID string `json:"resource_id"`
	Status     string `json:"status"`
}

type occupancyResponse struct {
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	ActiveCount   int     `json:"active_count"`
	OccupiedCount int     `json:"occupied_count"`
	Rate          float64 `json:"rate"`
}
