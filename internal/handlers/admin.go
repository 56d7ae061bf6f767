package handlers

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jornadaii/certify/internal/services"
	"github.com/jornadaii/certify/internal/websocket"
)

// ==================== Admin Pages ====================

func (h *Handlers) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	portalURL, _ := h.Portal.PortalURL(r.Context())
	data := AdminPageData{
		Title:     "Panel de constancias",
		PageTitle: "Encuesta de satisfacción",
		ActiveNav: "dashboard",
		PortalURL: portalURL,
	}
	h.templates.AdminDashboard.ExecuteTemplate(w, "admin", data)
}

// ==================== Survey Reports ====================

func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, stats)
}

func (h *Handlers) handleGetResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.Admin.Responses(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, responses)
}

func (h *Handlers) handleExportResponses(w http.ResponseWriter, r *http.Request) {
	// Render into memory so a storage failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.Admin.ExportCSV(r.Context(), &buf); err != nil {
		h.respondError(w, err)
		return
	}

	name := "respuestas_encuesta_" + time.Now().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (h *Handlers) handleGetQuestionResponses(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}

	out, err := h.Admin.ResponsesByQuestion(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, out)
}

func (h *Handlers) handleGetParticipantResponses(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !h.validEmail(email) {
		h.respondError(w, BadRequest(invalidEmailMessage))
		return
	}

	responses, err := h.Admin.ResponsesByParticipant(r.Context(), email)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, responses)
}

// ==================== Datasets & Cloud Sync ====================

func (h *Handlers) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, err)
			return
		}
	}

	// Imports are confined to the data directory
	dir := filepath.Join(h.DataDir, filepath.Clean("/"+req.Dir))
	result, err := h.Sync.ImportDir(r.Context(), dir)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.broadcast(websocket.TypeDataImport, result)
	respondOK(w, result)
}

func (h *Handlers) handlePush(w http.ResponseWriter, r *http.Request) {
	result, err := h.Sync.Push(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handlePull(w http.ResponseWriter, r *http.Request) {
	result, err := h.Sync.Pull(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.broadcast(websocket.TypeDataImport, result)
	respondOK(w, result)
}

func (h *Handlers) broadcast(msgType string, payload interface{}) {
	if h.Hub != nil {
		h.Hub.BroadcastMessage(msgType, payload)
	}
}

// ==================== Portal QR ====================

func (h *Handlers) handleGetPortalQR(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := h.Portal.PortalQR(r.Context(), size)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// ==================== Settings ====================

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	baseURL, err := h.Settings.GetBaseURL(ctx)
	if err != nil {
		h.respondError(w, err)
		return
	}
	announcement, _ := h.Settings.GetSetting(ctx, services.SettingAnnouncement)
	portalURL, _ := h.Portal.PortalURL(ctx)

	respondOK(w, SettingsResponse{
		BaseURL:      baseURL,
		Announcement: announcement,
		PortalURL:    portalURL,
	})
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	settings := services.Settings{
		BaseURL:      req.BaseURL,
		Announcement: req.Announcement,
	}
	if err := h.Settings.UpdateSettings(r.Context(), settings); err != nil {
		h.respondError(w, err)
		return
	}

	respondSuccess(w, "Settings updated")
}
