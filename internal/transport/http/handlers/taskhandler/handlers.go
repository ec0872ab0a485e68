package taskhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/compliance"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/tasks"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/api"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/middleware"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/shared"
)

type Handler struct {
	Service  *tasks.Service
	TenantID string
}

func NewHandler(service *tasks.Service, tenantID string) *Handler {
	return &Handler{Service: service, TenantID: tenantID}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/start", h.handleStart)
		r.Post("/{id}/attempts", h.handleAttempt)
		r.Post("/{id}/complete", h.handleComplete)
		r.Post("/{id}/verify", h.handleVerify)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	list, total, err := h.Service.List(r.Context(), h.tenant(r), tasks.Filter{
		RequestID: r.URL.Query().Get("requestId"),
		Status:    compliance.TaskStatus(r.URL.Query().Get("status")),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list tasks", reqID)
		return
	}
	api.Success(w, map[string]any{"tasks": list, "total": total}, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	task, err := h.Service.Get(r.Context(), h.tenant(r), chi.URLParam(r, "id"))
	if errors.Is(err, tasks.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "task not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load task", reqID)
		return
	}
	api.Success(w, task, reqID)
}

type startBody struct {
	Assignee string `json:"assignee"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var body startBody
	if err := api.DecodeBody(r, &body); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid request body", reqID)
		return
	}
	task, err := h.Service.Start(r.Context(), h.tenant(r), chi.URLParam(r, "id"), body.Assignee)
	h.respond(w, reqID, task, err)
}

type attemptBody struct {
	Success bool           `json:"success"`
	Detail  string         `json:"detail"`
	Result  map[string]any `json:"result"`
}

func (h *Handler) handleAttempt(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var body attemptBody
	if err := api.DecodeBody(r, &body); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid request body", reqID)
		return
	}
	task, err := h.Service.RecordAttempt(r.Context(), h.tenant(r), chi.URLParam(r, "id"), tasks.AttemptOutcome{
		Success: body.Success,
		Detail:  body.Detail,
		Result:  body.Result,
	})
	if errors.Is(err, tasks.ErrRetryExhausted) {
		// The terminal state was persisted; tell the caller the budget is gone.
		api.Fail(w, http.StatusConflict, "retry_exhausted", "retry attempts exhausted", reqID)
		return
	}
	h.respond(w, reqID, task, err)
}

type completeBody struct {
	Result map[string]any `json:"result"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var body completeBody
	if err := api.DecodeBody(r, &body); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid request body", reqID)
		return
	}
	task, err := h.Service.Complete(r.Context(), h.tenant(r), chi.URLParam(r, "id"), body.Result)
	h.respond(w, reqID, task, err)
}

type verifyBody struct {
	Verifier string `json:"verifier"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var body verifyBody
	if err := api.DecodeBody(r, &body); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid request body", reqID)
		return
	}
	task, err := h.Service.Verify(r.Context(), h.tenant(r), chi.URLParam(r, "id"), body.Verifier)
	if errors.Is(err, tasks.ErrNotCompleted) {
		api.Fail(w, http.StatusConflict, "not_completed", "task is not completed", reqID)
		return
	}
	h.respond(w, reqID, task, err)
}

func (h *Handler) respond(w http.ResponseWriter, reqID string, task compliance.ActionTask, err error) {
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "task not found", reqID)
	case errors.Is(err, tasks.ErrTerminal):
		api.Fail(w, http.StatusConflict, "terminal_state", "task is in a terminal state", reqID)
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "task_failed", "task operation failed", reqID)
	default:
		api.Success(w, task, reqID)
	}
}

func (h *Handler) tenant(r *http.Request) string {
	if user, ok := middleware.GetUser(r.Context()); ok && user.TenantID != "" {
		return user.TenantID
	}
	return h.TenantID
}
