// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/parley/parley/internal/model"
)

// SignUpRequest represents the request body for registering an account.
type SignUpRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"confirmPassword"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a signed token together with the account it belongs to.
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// UserResponse represents an account in API responses.
type UserResponse struct {
	ID          string     `json:"id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// VerifiedIdentity is the minimal identity echoed back by token
// verification.
type VerifiedIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifyResponse confirms that a bearer token checked out.
type VerifyResponse struct {
	IsValid bool             `json:"isValid"`
	User    VerifiedIdentity `json:"user"`
}

// UpdateProfileRequest represents the request body for updating a profile.
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ChangePasswordRequest represents the request body for changing a password.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// DeleteAccountRequest represents the request body for deleting an account.
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// CreateChatRequest represents the request body for creating a chat.
type CreateChatRequest struct {
	Title         string  `json:"title,omitempty"`
	IsVoice       bool    `json:"is_voice,omitempty"`
	VoiceDuration *string `json:"voice_duration,omitempty"`
}

// RenameChatRequest represents the request body for renaming a chat.
type RenameChatRequest struct {
	Title string `json:"title"`
}

// ArchiveChatRequest represents the request body for archiving a chat.
// A missing body archives; {"is_archived": false} restores.
type ArchiveChatRequest struct {
	IsArchived *bool `json:"is_archived"`
}

// ChatResponse represents a chat in API responses.
type ChatResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	IsArchived    bool      `json:"is_archived"`
	IsVoice       bool      `json:"is_voice"`
	VoiceDuration *string   `json:"voice_duration,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// ChatListResponse represents a list of chats.
type ChatListResponse struct {
	Data []ChatResponse `json:"data"`
}

// ChatDetailResponse represents a chat together with its messages.
type ChatDetailResponse struct {
	Chat     *ChatResponse     `json:"chat"`
	Messages []MessageResponse `json:"messages"`
}

// AppendMessageRequest represents the request body for appending a message.
type AppendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BotResponseRequest represents the request body for requesting an
// assistant reply.
type BotResponseRequest struct {
	UserMessage string `json:"userMessage,omitempty"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageListResponse represents a chat's messages, oldest first.
type MessageListResponse struct {
	Data []MessageResponse `json:"data"`
}

// SendRequest represents the request body for an orchestrated
// conversation turn.
type SendRequest struct {
	ChatID  string `json:"chat_id,omitempty"`
	Content string `json:"content"`
}

// SendResponse represents the outcome of a conversation turn.
type SendResponse struct {
	Chat             *ChatResponse    `json:"chat"`
	UserMessage      *MessageResponse `json:"user_message"`
	AssistantMessage *MessageResponse `json:"assistant_message"`
	FellBack         bool             `json:"fell_back"`
}

// DeleteResponse confirms a destructive operation.
type DeleteResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		FullName:    user.FullName,
		Email:       user.Email,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// ToChatResponse converts a Chat model to ChatResponse DTO.
func ToChatResponse(chat *model.Chat) *ChatResponse {
	return &ChatResponse{
		ID:            chat.ID,
		Title:         chat.Title,
		IsArchived:    chat.IsArchived,
		IsVoice:       chat.IsVoice,
		VoiceDuration: chat.VoiceDuration,
		CreatedAt:     chat.CreatedAt,
		LastUpdatedAt: chat.LastUpdatedAt,
	}
}

// ToChatListResponse converts a slice of Chat models to ChatListResponse.
func ToChatListResponse(chats []*model.Chat) *ChatListResponse {
	responses := make([]ChatResponse, len(chats))
	for i, chat := range chats {
		responses[i] = *ToChatResponse(chat)
	}
	return &ChatListResponse{Data: responses}
}

// ToMessageResponse converts a Message model to MessageResponse DTO.
func ToMessageResponse(msg *model.Message) *MessageResponse {
	return &MessageResponse{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

// ToMessageListResponse converts a slice of Message models to
// MessageListResponse.
func ToMessageListResponse(messages []*model.Message) *MessageListResponse {
	responses := make([]MessageResponse, len(messages))
	for i, msg := range messages {
		responses[i] = *ToMessageResponse(msg)
	}
	return &MessageListResponse{Data: responses}
}
