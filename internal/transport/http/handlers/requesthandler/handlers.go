package requesthandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/compliance"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/requests"
	"github.com/braddown/pii-compliance-tool-sub001/internal/export"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/api"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/middleware"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/shared"
)

type Handler struct {
	Service  *requests.Service
	Export   *export.Service
	TenantID string
}

func NewHandler(service *requests.Service, exportSvc *export.Service, tenantID string) *Handler {
	return &Handler{Service: service, Export: exportSvc, TenantID: tenantID}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/status", h.handleTransition)
		r.Get("/{id}/activities", h.handleActivities)
		r.Get("/{id}/export", h.handleExport)
	})
}

type createRequestBody struct {
	RequestType    string `json:"request_type"`
	Priority       string `json:"priority"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	CustomerID     string `json:"customer_id"`
	Notes          string `json:"notes"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var body createRequestBody
	if err := api.DecodeBody(r, &body); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid request body", reqID)
		return
	}

	actor, actorID := actorFrom(r)
	created, err := h.Service.Create(r.Context(), requests.CreateInput{
		TenantID:       h.tenant(r),
		RequestType:    compliance.RequestType(body.RequestType),
		Priority:       body.Priority,
		RequesterName:  body.RequesterName,
		RequesterEmail: body.RequesterEmail,
		CustomerID:     body.CustomerID,
		Notes:          body.Notes,
		Actor:          actor,
		ActorID:        actorID,
	})
	if err != nil {
		switch {
		case errors.Is(err, requests.ErrInvalidType),
			errors.Is(err, requests.ErrMissingContact),
			errors.Is(err, requests.ErrMissingCustomer):
			api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
		default:
			api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create request", reqID)
		}
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := requests.Filter{
		Status:      compliance.RequestStatus(r.URL.Query().Get("status")),
		RequestType: compliance.RequestType(r.URL.Query().Get("type")),
		AssignedTo:  r.URL.Query().Get("assignedTo"),
		OverdueOnly: r.URL.Query().Get("overdue") == "true",
		Limit:       page.Limit,
		Offset:      page.Offset,
	}

	list, total, err := h.Service.List(r.Context(), h.tenant(r), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list requests", reqID)
		return
	}
	api.Success(w, map[string]any{"requests": list, "total": total}, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	req, err := h.Service.Get(r.Context(), h.tenant(r), chi.URLParam(r, "id"))
	if errors.Is(err, requests.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load request", reqID)
		return
	}
	api.Success(w, req, reqID)
}

type transitionBody struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var body transitionBody
	if err := api.DecodeBody(r, &body); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid request body", reqID)
		return
	}

	actor, actorID := actorFrom(r)
	updated, err := h.Service.Transition(r.Context(), requests.TransitionInput{
		TenantID: h.tenant(r),
		ID:       chi.URLParam(r, "id"),
		Status:   compliance.RequestStatus(body.Status),
		Actor:    actor,
		ActorID:  actorID,
		Details:  body.Details,
	})
	switch {
	case errors.Is(err, requests.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", reqID)
	case errors.Is(err, requests.ErrInvalidStatus):
		api.Fail(w, http.StatusBadRequest, "invalid_status", err.Error(), reqID)
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "transition_failed", "failed to update status", reqID)
	default:
		api.Success(w, updated, reqID)
	}
}

func (h *Handler) handleActivities(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	activities, err := h.Service.Activities(r.Context(), h.tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "activities_failed", "failed to list activities", reqID)
		return
	}
	api.Success(w, activities, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	report, err := h.Export.RequestReport(r.Context(), h.tenant(r), chi.URLParam(r, "id"))
	if errors.Is(err, requests.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render report", reqID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=request-report.pdf")
	_, _ = w.Write(report)
}

func (h *Handler) tenant(r *http.Request) string {
	if user, ok := middleware.GetUser(r.Context()); ok && user.TenantID != "" {
		return user.TenantID
	}
	return h.TenantID
}

func actorFrom(r *http.Request) (compliance.ActorType, string) {
	if user, ok := middleware.GetUser(r.Context()); ok {
		return compliance.ActorUser, user.UserID
	}
	return compliance.ActorSystem, ""
}
