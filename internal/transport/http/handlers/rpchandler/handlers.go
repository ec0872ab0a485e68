package rpchandler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/api"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/middleware"
)

// Handler exposes the data layer's procedure-call side channel over HTTP.
type Handler struct {
	Client *memdb.Client
}

func NewHandler(client *memdb.Client) *Handler {
	return &Handler{Client: client}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rpc/{name}", h.handleCall)
}

func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var params map[string]any
	if err := api.DecodeBody(r, &params); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "bad_json", "invalid parameter map", reqID)
		return
	}

	result, err := h.Client.RPC(r.Context(), chi.URLParam(r, "name"), params)
	if errors.Is(err, memdb.ErrUnknownProcedure) {
		api.Fail(w, http.StatusNotFound, "unknown_procedure", err.Error(), reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rpc_failed", "procedure call failed", reqID)
		return
	}
	api.Success(w, result, reqID)
}
