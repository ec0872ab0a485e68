package authhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/braddown/pii-compliance-tool-sub001/internal/auth"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/api"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/middleware"
)

type Handler struct {
	Service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var body loginBody
	if err := api.DecodeBody(r, &body); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid request body", reqID)
		return
	}

	token, err := h.Service.Login(body.Email, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to issue token", reqID)
		return
	}
	api.Success(w, map[string]string{"token": token}, reqID)
}
