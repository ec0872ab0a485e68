package consenthandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/consent"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/api"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/middleware"
)

type Handler struct {
	Service  *consent.Service
	TenantID string
}

func NewHandler(service *consent.Service, tenantID string) *Handler {
	return &Handler{Service: service, TenantID: tenantID}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/consents", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/grant", h.handleGrant)
		r.Post("/revoke", h.handleRevoke)
	})
}

type consentBody struct {
	CustomerID  string         `json:"customer_id"`
	ConsentType string         `json:"consent_type"`
	Method      string         `json:"method"`
	LegalBasis  string         `json:"legal_basis"`
	Metadata    map[string]any `json:"metadata"`
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	h.handleSet(w, r, true)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	h.handleSet(w, r, false)
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request, granted bool) {
	reqID := middleware.GetRequestID(r.Context())
	var body consentBody
	if err := api.DecodeBody(r, &body); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid request body", reqID)
		return
	}

	capture := consent.Capture{
		Method:     body.Method,
		LegalBasis: body.LegalBasis,
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
		Metadata:   body.Metadata,
	}

	var (
		record any
		err    error
	)
	if granted {
		record, err = h.Service.Grant(r.Context(), h.tenant(r), body.CustomerID, body.ConsentType, capture)
	} else {
		record, err = h.Service.Revoke(r.Context(), h.tenant(r), body.CustomerID, body.ConsentType, capture)
	}
	if errors.Is(err, consent.ErrMissingCustomer) {
		api.Fail(w, http.StatusBadRequest, "missing_customer", err.Error(), reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "consent_failed", "failed to record consent", reqID)
		return
	}
	api.Success(w, record, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	records, err := h.Service.List(r.Context(), h.tenant(r), r.URL.Query().Get("customerId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list consents", reqID)
		return
	}
	api.Success(w, records, reqID)
}

func (h *Handler) tenant(r *http.Request) string {
	if user, ok := middleware.GetUser(r.Context()); ok && user.TenantID != "" {
		return user.TenantID
	}
	return h.TenantID
}
