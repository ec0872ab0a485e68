package audithandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/audit"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/api"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/middleware"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/shared"
)

type Handler struct {
	Service  *audit.Service
	TenantID string
}

func NewHandler(service *audit.Service, tenantID string) *Handler {
	return &Handler{Service: service, TenantID: tenantID}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/events", h.handleListEvents)
	})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	filter := audit.Filter{
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resourceType"),
		ActorType:    r.URL.Query().Get("actorType"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}

	tenantID := h.TenantID
	if user, ok := middleware.GetUser(r.Context()); ok && user.TenantID != "" {
		tenantID = user.TenantID
	}

	events, total, err := h.Service.List(r.Context(), tenantID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, reqID)
}
