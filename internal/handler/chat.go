package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/handler/dto"
	"github.com/parley/parley/internal/service"
)

// ChatHandler handles HTTP requests for chat operations.
type ChatHandler struct {
	chats    *service.ChatService
	messages *service.MessageService
	logger   *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chats *service.ChatService, messages *service.MessageService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chats:    chats,
		messages: messages,
		logger:   logger,
	}
}

// List handles GET /chats. Archived chats are excluded.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chats, err := h.chats.ListActive(r.Context(), identity.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToChatListResponse(chats))
}

// ListArchived handles GET /chats/archives.
func (h *ChatHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chats, err := h.chats.ListArchived(r.Context(), identity.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToChatListResponse(chats))
}

// Create handles POST /chats.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	var req dto.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	chat, err := h.chats.Create(r.Context(), service.CreateChatInput{
		OwnerID:       identity.UserID,
		Title:         req.Title,
		IsVoice:       req.IsVoice,
		VoiceDuration: req.VoiceDuration,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("chat_created", "chat_id", chat.ID, "user_id", identity.UserID)

	writeJSON(w, http.StatusCreated, dto.ToChatResponse(chat))
}

// Get handles GET /chats/{id}. The response includes the chat's messages
// oldest first.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chatID := chi.URLParam(r, "id")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Chat ID is required")
		return
	}

	chat, err := h.chats.Get(r.Context(), identity.UserID, chatID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	messages, err := h.messages.List(r.Context(), identity.UserID, chatID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	response := dto.ChatDetailResponse{
		Chat:     dto.ToChatResponse(chat),
		Messages: dto.ToMessageListResponse(messages).Data,
	}
	writeJSON(w, http.StatusOK, response)
}

// Rename handles PUT /chats/{id}.
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chatID := chi.URLParam(r, "id")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Chat ID is required")
		return
	}

	var req dto.RenameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	chat, err := h.chats.Rename(r.Context(), identity.UserID, chatID, req.Title)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("chat_renamed", "chat_id", chat.ID, "user_id", identity.UserID)

	writeJSON(w, http.StatusOK, dto.ToChatResponse(chat))
}

// Archive handles PUT /chats/{id}/archive. Without a body the chat is
// archived; {"is_archived": false} restores it.
func (h *ChatHandler) Archive(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chatID := chi.URLParam(r, "id")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Chat ID is required")
		return
	}

	archived := true
	var req dto.ArchiveChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.IsArchived != nil {
		archived = *req.IsArchived
	}

	chat, err := h.chats.SetArchived(r.Context(), identity.UserID, chatID, archived)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("chat_archive_set",
		"chat_id", chat.ID,
		"user_id", identity.UserID,
		"archived", chat.IsArchived,
	)

	writeJSON(w, http.StatusOK, dto.ToChatResponse(chat))
}

// Delete handles DELETE /chats/{id}.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chatID := chi.URLParam(r, "id")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Chat ID is required")
		return
	}

	if err := h.chats.Delete(r.Context(), identity.UserID, chatID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("chat_deleted", "chat_id", chatID, "user_id", identity.UserID)

	writeJSON(w, http.StatusOK, dto.DeleteResponse{Message: "Chat deleted"})
}

// DeleteAll handles DELETE /chats.
func (h *ChatHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	if err := h.chats.DeleteAll(r.Context(), identity.UserID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("chats_deleted_all", "user_id", identity.UserID)

	writeJSON(w, http.StatusOK, dto.DeleteResponse{Message: "All chats deleted"})
}

// handleServiceError maps service errors to HTTP responses.
func (h *ChatHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		writeError(w, http.StatusNotFound, "CHAT_NOT_FOUND", "Chat not found")
	case errors.Is(err, service.ErrInvalidTitle):
		writeError(w, http.StatusBadRequest, "INVALID_TITLE", "Chat title is required and must be under 255 characters")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
