package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/wtwq666/smartdata/internal/service/chat"
	"github.com/wtwq666/smartdata/pkg/utils"
)

// Handler 会话管理的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建会话处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Get("/sessions", h.handleList)
	r.Get("/sessions/{sessionID}", h.handleGet)
	r.Put("/sessions/{sessionID}", h.handleRename)
	r.Delete("/sessions/{sessionID}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title string `json:"title"`
	}
	// Body is optional; an empty title falls back to the default.
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.Title)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"id":         session.ID,
		"title":      session.Title,
		"created_at": session.CreatedAt,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatSvc.ListSessions(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"id":         session.ID,
		"title":      session.Title,
		"created_at": session.CreatedAt,
		"updated_at": session.UpdatedAt,
		"messages":   messages,
	})
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Title == "" {
		utils.RespondError(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := h.chatSvc.RenameSession(r.Context(), sessionID, payload.Title); err != nil {
		h.respondStoreError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.chatSvc.DeleteSession(r.Context(), sessionID); err != nil {
		h.respondStoreError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, "session store error")
}
