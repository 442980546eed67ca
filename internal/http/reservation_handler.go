package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/booking"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (booking.Reservation, []application.ConflictWarning, error)
	GetReservation(ctx context.Context, principal application.Principal, reservationID string) (booking.Reservation, error)
	ListByResource(ctx context.Context, params application.ListByResourceParams) ([]booking.Reservation, error)
	ListActive(ctx context.Context, principal application.Principal, at booking.Instant) ([]booking.Reservation, error)
	Transition(ctx context.Context, params application.TransitionParams) (booking.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "resource_id", req.ResourceID)

	reservation, warnings, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID, "warning_count", len(warnings)).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{
		Reservation: toReservationDTO(reservation),
		Warnings:    toWarningDTOs(warnings),
	})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.GetReservation(r.Context(), principal, reservationID)
	if err != nil {
		h.log(r.Context(), "Get", "reservation_id", reservationID).ErrorContext(r.Context(), "reservation lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// ListForResource serves the reservation listing nested under a resource path.
func (h *ReservationHandler) ListForResource(w http.ResponseWriter, r *http.Request) {
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

	params := application.ListByResourceParams{
		Principal:  principal,
		ResourceID: resourceID,
	}
	if statusValue := strings.TrimSpace(r.URL.Query().Get("status")); statusValue != "" {
		status := booking.ReservationStatus(statusValue)
		params.Status = &status
	}

	logger := h.log(r.Context(), "ListForResource", "principal_id", principal.UserID, "resource_id", resourceID)

	reservations, err := h.service.ListByResource(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		dtos = append(dtos, toReservationDTO(reservation))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationListResponse{Reservations: dtos})
}

// List serves the active reservations across all resources. The evaluation
// instant is taken from the optional date and time query parameters and
// defaults to the current time.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	at := instantFromQuery(r)

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "date", at.Date, "time", at.Time)

	reservations, err := h.service.ListActive(r.Context(), principal, at)
	if err != nil {
		logger.ErrorContext(r.Context(), "active reservation listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		dtos = append(dtos, toReservationDTO(reservation))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationListResponse{Reservations: dtos})
}

// SetStatus drives the approval workflow for one reservation.
func (h *ReservationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.log(r.Context(), "SetStatus", "error_kind", "bad_request").ErrorContext(r.Context(), "missing reservation id for status change")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetStatus", "principal_id", principal.UserID, "reservation_id", reservationID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status change", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetStatus", "principal_id", principal.UserID, "reservation_id", reservationID, "target", req.Status)

	reservation, err := h.service.Transition(r.Context(), application.TransitionParams{
		Principal:     principal,
		ReservationID: reservationID,
		Target:        booking.ReservationStatus(strings.TrimSpace(req.Status)),
		Reason:        req.Reason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

type reservationRequest struct {
	ResourceID  string `json:"resource_id"`
	RequesterID string `json:"requester_id,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		ResourceID:  strings.TrimSpace(r.ResourceID),
		RequesterID: strings.TrimSpace(r.RequesterID),
		Window: booking.Window{
			StartDate: strings.TrimSpace(r.StartDate),
			EndDate:   strings.TrimSpace(r.EndDate),
			StartTime: strings.TrimSpace(r.StartTime),
			EndTime:   strings.TrimSpace(r.EndTime),
		},
	}
}

type reservationStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type reservationDTO struct {
	ID          string  `json:"id"`
	ResourceID  string  `json:"resource_id"`
	RequesterID string  `json:"requester_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Status      string  `json:"status"`
	Reason      *string `json:"reason,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toReservationDTO(reservation booking.Reservation) reservationDTO {
	return reservationDTO{
		ID:          reservation.ID,
		ResourceID:  reservation.ResourceID,
		RequesterID: reservation.RequesterID,
		StartDate:   reservation.Window.StartDate,
		EndDate:     reservation.Window.EndDate,
		StartTime:   reservation.Window.StartTime,
		EndTime:     reservation.Window.EndTime,
		Status:      string(reservation.Status),
		Reason:      reservation.Reason,
		CreatedAt:   reservation.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   reservation.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type warningDTO struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []warningDTO {
	if len(warnings) == 0 {
		return nil
	}
	dtos := make([]warningDTO, 0, len(warnings))
	for _, warning := range warnings {
		dtos = append(dtos, warningDTO{
			ReservationID: warning.ReservationID,
			Status:        string(warning.Status),
			StartDate:     warning.Window.StartDate,
			EndDate:       warning.Window.EndDate,
			StartTime:     warning.Window.StartTime,
			EndTime:       warning.Window.EndTime,
		})
	}
	return dtos
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
	Warnings    []warningDTO   `json:"warnings,omitempty"`
}

type reservationListResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}
