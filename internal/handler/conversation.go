package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/handler/dto"
	"github.com/parley/parley/internal/service"
)

// ConversationHandler handles the orchestrated send endpoint.
type ConversationHandler struct {
	svc    *service.ConversationService
	logger *slog.Logger
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(svc *service.ConversationService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		svc:    svc,
		logger: logger,
	}
}

// Send handles POST /conversation: one full turn in a single request.
// With no chat_id a fresh chat is created and titled from the message.
func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	var req dto.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Send(r.Context(), service.SendInput{
		OwnerID: identity.UserID,
		ChatID:  req.ChatID,
		Content: req.Content,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("conversation_turn",
		"chat_id", result.Chat.ID,
		"user_id", identity.UserID,
		"fell_back", result.FellBack,
	)

	writeJSON(w, http.StatusOK, dto.SendResponse{
		Chat:             dto.ToChatResponse(result.Chat),
		UserMessage:      dto.ToMessageResponse(result.UserMessage),
		AssistantMessage: dto.ToMessageResponse(result.AssistantMessage),
		FellBack:         result.FellBack,
	})
}

// handleServiceError maps service errors to HTTP responses.
func (h *ConversationHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		writeError(w, http.StatusNotFound, "CHAT_NOT_FOUND", "Chat not found")
	case errors.Is(err, service.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "EMPTY_CONTENT", "Message content is required")
	case errors.Is(err, service.ErrContentTooLong):
		writeError(w, http.StatusBadRequest, "CONTENT_TOO_LONG", "Message content exceeds maximum length")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
