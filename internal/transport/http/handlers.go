package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"identity/internal/domain"
	"identity/internal/dto"
	"identity/internal/intent"
	"identity/internal/service"
	"identity/internal/session"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	svc        service.IdentityService
	memory     *session.Memory
	classifier intent.Classifier
	logger     *slog.Logger
}

func NewHandlers(svc service.IdentityService, memory *session.Memory, classifier intent.Classifier, logger *slog.Logger) *Handlers {
	return &Handlers{svc: svc, memory: memory, classifier: classifier, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// requireIdentity returns the identity from context or writes the 401 the
// degraded pipeline promises for handlers that cannot run anonymously.
func requireIdentity(w http.ResponseWriter, r *http.Request) *domain.Identity {
	id := IdentityFrom(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "unidentified_device", "could not identify device, enable cookies")
	}
	return id
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	id := requireIdentity(w, r)
	if id == nil {
		return
	}
	writeJSON(w, http.StatusOK, dto.MeResponse{
		DeviceID:     id.DeviceID,
		CreatedAt:    id.CreatedAt,
		LastSeen:     id.LastSeen,
		SessionCount: id.SessionCount,
	})
}

func (h *Handlers) trackAction(w http.ResponseWriter, r *http.Request) {
	id := requireIdentity(w, r)
	if id == nil {
		return
	}
	var req dto.TrackActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.Action = strings.TrimSpace(req.Action)
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "action is required")
		return
	}
	if err := h.svc.TrackAction(r.Context(), id.DeviceID, req.Action, req.Data); err != nil {
		h.logger.Error("track action failed", "error", err, "device_id", id.DeviceID)
		writeError(w, http.StatusInternalServerError, "internal", "could not record action")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) getPreferences(w http.ResponseWriter, r *http.Request) {
	id := requireIdentity(w, r)
	if id == nil {
		return
	}
	prefs, err := h.svc.AllPreferences(r.Context(), id.DeviceID)
	if err != nil {
		h.logger.Error("list preferences failed", "error", err, "device_id", id.DeviceID)
		writeError(w, http.StatusInternalServerError, "internal", "could not load preferences")
		return
	}
	writeJSON(w, http.StatusOK, dto.PreferencesResponse{Preferences: prefs})
}

func (h *Handlers) setPreferences(w http.ResponseWriter, r *http.Request) {
	id := requireIdentity(w, r)
	if id == nil {
		return
	}
	var req dto.SetPreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if len(req.Preferences) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "preferences are required")
		return
	}

	saved, err := h.svc.SetPreferences(r.Context(), id.DeviceID, req.Preferences)
	if err != nil {
		// Partial success is reported, never silently dropped.
		h.logger.Error("preference write failed", "error", err, "device_id", id.DeviceID, "saved", len(saved))
		writeJSON(w, http.StatusInternalServerError, struct {
			dto.SetPreferencesResponse
			Code    string `json:"code"`
			Message string `json:"message"`
		}{
			SetPreferencesResponse: dto.SetPreferencesResponse{Saved: saved},
			Code:                   "preference_write_failed",
			Message:                "some preferences were not saved",
		})
		return
	}
	writeJSON(w, http.StatusOK, dto.SetPreferencesResponse{Saved: saved})
}

func (h *Handlers) getPreference(w http.ResponseWriter, r *http.Request) {
	id := requireIdentity(w, r)
	if id == nil {
		return
	}
	key := chi.URLParam(r, "key")
	value, err := h.svc.GetPreference(r.Context(), id.DeviceID, key)
	if err != nil {
		if errors.Is(err, domain.ErrPreferenceNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "preference not found")
			return
		}
		h.logger.Error("get preference failed", "error", err, "device_id", id.DeviceID)
		writeError(w, http.StatusInternalServerError, "internal", "could not load preference")
		return
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"value": value})
}

func (h *Handlers) deletePreference(w http.ResponseWriter, r *http.Request) {
	id := requireIdentity(w, r)
	if id == nil {
		return
	}
	key := chi.URLParam(r, "key")
	if err := h.svc.DeletePreference(r.Context(), id.DeviceID, key); err != nil {
		if errors.Is(err, domain.ErrPreferenceNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "preference not found")
			return
		}
		h.logger.Error("delete preference failed", "error", err, "device_id", id.DeviceID)
		writeError(w, http.StatusInternalServerError, "internal", "could not delete preference")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "days must be a positive integer")
			return
		}
		days = n
	}
	stats, err := h.svc.Stats(r.Context(), days)
	if err != nil {
		h.logger.Error("identity stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) chat(w http.ResponseWriter, r *http.Request) {
	id := requireIdentity(w, r)
	if id == nil {
		return
	}
	var req dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	history := h.memory.Recent(id.DeviceID)
	result, err := h.classifier.Classify(r.Context(), id.DeviceID, history, req.Message)
	if err != nil {
		h.logger.Error("intent classification failed", "error", err, "device_id", id.DeviceID)
		writeError(w, http.StatusBadGateway, "intent_unavailable", "text understanding is temporarily unavailable")
		return
	}

	h.memory.Append(id.DeviceID, session.RoleUser, req.Message)
	if result.Clarification != "" {
		h.memory.Append(id.DeviceID, session.RoleAssistant, result.Clarification)
	}

	writeJSON(w, http.StatusOK, dto.ChatResponse{
		Intent:  result,
		History: h.memory.Recent(id.DeviceID),
	})
}
