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
	"github.com/parley/parley/internal/model"
	"github.com/parley/parley/internal/service"
)

// MessageHandler handles HTTP requests for message operations.
type MessageHandler struct {
	messages      *service.MessageService
	conversations *service.ConversationService
	logger        *slog.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messages *service.MessageService, conversations *service.ConversationService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		messages:      messages,
		conversations: conversations,
		logger:        logger,
	}
}

// List handles GET /messages/{chatId}.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chatID := chi.URLParam(r, "chatId")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Chat ID is required")
		return
	}

	messages, err := h.messages.List(r.Context(), identity.UserID, chatID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToMessageListResponse(messages))
}

// Append handles POST /messages/{chatId}. The role defaults to "user"
// when omitted.
func (h *MessageHandler) Append(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chatID := chi.URLParam(r, "chatId")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Chat ID is required")
		return
	}

	var req dto.AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	role := model.Role(req.Role)
	if req.Role == "" {
		role = model.RoleUser
	}

	msg, err := h.messages.Append(r.Context(), service.AppendInput{
		OwnerID: identity.UserID,
		ChatID:  chatID,
		Role:    role,
		Content: req.Content,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("message_appended",
		"message_id", msg.ID,
		"chat_id", chatID,
		"role", string(msg.Role),
	)

	writeJSON(w, http.StatusCreated, dto.ToMessageResponse(msg))
}

// BotResponse handles POST /messages/{chatId}/bot-response. It generates
// an assistant reply from the chat's recent history and stores it.
func (h *MessageHandler) BotResponse(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	chatID := chi.URLParam(r, "chatId")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Chat ID is required")
		return
	}

	var req dto.BotResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, fellBack, err := h.conversations.GenerateReply(r.Context(), identity.UserID, chatID, req.UserMessage)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("bot_response_generated",
		"message_id", msg.ID,
		"chat_id", chatID,
		"fell_back", fellBack,
	)

	writeJSON(w, http.StatusCreated, dto.ToMessageResponse(msg))
}

// Delete handles DELETE /messages/{id}.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	messageID := chi.URLParam(r, "id")
	if messageID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Message ID is required")
		return
	}

	if err := h.messages.Delete(r.Context(), identity.UserID, messageID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("message_deleted", "message_id", messageID, "user_id", identity.UserID)

	writeJSON(w, http.StatusOK, dto.DeleteResponse{Message: "Message deleted"})
}

// handleServiceError maps service errors to HTTP responses.
func (h *MessageHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		writeError(w, http.StatusNotFound, "CHAT_NOT_FOUND", "Chat not found")
	case errors.Is(err, service.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "MESSAGE_NOT_FOUND", "Message not found")
	case errors.Is(err, service.ErrMessageForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Message belongs to another user")
	case errors.Is(err, service.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "EMPTY_CONTENT", "Message content is required")
	case errors.Is(err, service.ErrContentTooLong):
		writeError(w, http.StatusBadRequest, "CONTENT_TOO_LONG", "Message content exceeds maximum length")
	case errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", "Role must be user or assistant")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
