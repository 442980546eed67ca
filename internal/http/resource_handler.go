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

type registryService interface {
	CreateResource(ctx context.Context, params application.CreateResourceParams) (booking.Resource, error)
	UpdateResource(ctx context.Context, params application.UpdateResourceParams) (booking.Resource, error)
	GetResource(ctx context.Context, principal application.Principal, resourceID string) (booking.Resource, error)
	ListResources(ctx context.Context, principal application.Principal, kind booking.ResourceKind) ([]booking.Resource, error)
	SetAdministrativeState(ctx context.Context, params application.SetResourceStateParams) (booking.Resource, int, error)
}

type ResourceHandler struct {
	service   registryService
	responder responder
	logger    *slog.Logger
}

func NewResourceHandler(service registryService, logger *slog.Logger) *ResourceHandler {
	base := defaultLogger(logger)
	return &ResourceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ResourceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ResourceHandler", operation, attrs...)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	resource, err := h.service.CreateResource(r.Context(), application.CreateResourceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("resource_id", resource.ID).InfoContext(r.Context(), "resource created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	resource, err := h.service.GetResource(r.Context(), principal, resourceID)
	if err != nil {
		h.log(r.Context(), "Get", "resource_id", resourceID).ErrorContext(r.Context(), "resource lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	kind := booking.ResourceKind(strings.TrimSpace(r.URL.Query().Get("kind")))

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	resources, err := h.service.ListResources(r.Context(), principal, kind)
	if err != nil {
		logger.ErrorContext(r.Context(), "resource listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		dtos = append(dtos, toResourceDTO(resource))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceListResponse{Resources: dtos})
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing resource id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "resource_id", resourceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "resource_id", resourceID)

	resource, err := h.service.UpdateResource(r.Context(), application.UpdateResourceParams{
		Principal:  principal,
		ResourceID: resourceID,
		Input:      req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) SetState(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.log(r.Context(), "SetState", "error_kind", "bad_request").ErrorContext(r.Context(), "missing resource id for state change")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetState", "principal_id", principal.UserID, "resource_id", resourceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode state change", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetState", "principal_id", principal.UserID, "resource_id", resourceID, "state", req.State)

	resource, cancelled, err := h.service.SetAdministrativeState(r.Context(), application.SetResourceStateParams{
		Principal:  principal,
		ResourceID: resourceID,
		State:      booking.AdministrativeState(strings.TrimSpace(req.State)),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource state change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("cancelled_reservations", cancelled).InfoContext(r.Context(), "resource state changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceStateResponse{
		Resource:              toResourceDTO(resource),
		CancelledReservations: cancelled,
	})
}

type resourceRequest struct {
	Code       string  `json:"code"`
	Kind       string  `json:"kind"`
	Capacity   int     `json:"capacity"`
	Attributes *string `json:"attributes,omitempty"`
}

func (r resourceRequest) toInput() application.ResourceInput {
	return application.ResourceInput{
		Code:       r.Code,
		Kind:       booking.ResourceKind(strings.TrimSpace(r.Kind)),
		Capacity:   r.Capacity,
		Attributes: r.Attributes,
	}
}

type resourceStateRequest struct {
	State string `json:"state"`
}

type resourceDTO struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Kind       string  `json:"kind"`
	Capacity   int     `json:"capacity"`
	Attributes *string `json:"attributes,omitempty"`
	State      string  `json:"state"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func toResourceDTO(resource booking.Resource) resourceDTO {
	return resourceDTO{
		ID:         resource.ID,
		Code:       resource.Code,
		Kind:       string(resource.Kind),
		Capacity:   resource.Capacity,
		Attributes: resource.Attributes,
		State:      string(resource.State),
		CreatedAt:  resource.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  resource.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type resourceResponse struct {
	Resource resourceDTO `json:"resource"`
}

type resourceListResponse struct {
	Resources []resourceDTO `json:"resources"`
}

type resourceStateResponse struct {
	Resource              resourceDTO `json:"resource"`
	CancelledReservations int         `json:"cancelled_reservations"`
}
