// Package httptransport is the thin HTTP layer of the demo service. It
// delegates to the gate facade without embedding store logic, so transport
// concerns remain isolated from the core.
package httptransport

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"biovault/internal/gate"
	dErrors "biovault/pkg/domain-errors"
	"biovault/pkg/platform/httputil"
)

// Handler wires vault endpoints to a gate facade.
type Handler struct {
	facade *gate.Facade
	logger *slog.Logger
}

// New constructs a vault handler.
func New(facade *gate.Facade, logger *slog.Logger) *Handler {
	return &Handler{facade: facade, logger: logger}
}

type setRequest struct {
	Value string `json:"value"`
}

type valueResponse struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	Found bool   `json:"found"`
}

type rawValueResponse struct {
	Key         string `json:"key"`
	ValueBase64 string `json:"value_base64,omitempty"`
	Found       bool   `json:"found"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// HandleSet handles PUT /vault/{key}.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "key is required"))
		return
	}

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	if req.Value == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "value is required"))
		return
	}

	if err := <-h.facade.SetValue(r.Context(), key, []byte(req.Value)); err != nil {
		h.logger.Error("set value", "key", key, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "stored"})
}

// HandleGet handles GET /vault/{key}. The stored bytes are returned
// base64-encoded; opaque values are not assumed to be text.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "key is required"))
		return
	}

	res := <-h.facade.GetValue(r.Context(), key)
	if res.Err != nil {
		h.logger.Error("get value", "key", key, "error", res.Err)
		httputil.WriteError(w, res.Err)
		return
	}
	if !res.Found {
		httputil.WriteJSON(w, http.StatusNotFound, rawValueResponse{Key: key, Found: false})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rawValueResponse{
		Key:         key,
		ValueBase64: base64.StdEncoding.EncodeToString(res.Value),
		Found:       true,
	})
}

// HandleGetString handles GET /vault/{key}/string. Stored bytes that are not
// valid UTF-8 read as absent.
func (h *Handler) HandleGetString(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "key is required"))
		return
	}

	res := <-h.facade.GetString(r.Context(), key)
	if res.Err != nil {
		h.logger.Error("get string value", "key", key, "error", res.Err)
		httputil.WriteError(w, res.Err)
		return
	}
	if !res.Found {
		httputil.WriteJSON(w, http.StatusNotFound, valueResponse{Key: key, Found: false})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, valueResponse{Key: key, Value: res.Value, Found: true})
}

// HandleRemove handles DELETE /vault/{key}. Removing an absent key still
// succeeds.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "key is required"))
		return
	}

	if err := <-h.facade.Remove(r.Context(), key); err != nil {
		h.logger.Error("remove value", "key", key, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "removed"})
}

// HandleAvailability handles GET /availability. Resolved fresh per request.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"availability": h.facade.Availability().String(),
	})
}

// HandleValidation handles GET /validation. Absence cannot distinguish
// "never written" from "enrollment changed"; the response only reports
// presence.
func (h *Handler) HandleValidation(w http.ResponseWriter, r *http.Request) {
	res := <-h.facade.CheckValidation(r.Context())
	if res.Err != nil {
		h.logger.Error("check validation marker", "error", res.Err)
		httputil.WriteError(w, res.Err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"present": res.Present})
}
