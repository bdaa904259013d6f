// Package handler exposes the chat service over REST.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"nirala/internal/chat/repository"
	"nirala/internal/chat/service"
	"nirala/internal/common"
)

type ChatHandler struct {
	chatService service.ChatService
	log         zerolog.Logger
}

func NewChatHandler(chatService service.ChatService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log.With().Str("component", "chat_handler").Logger(),
	}
}

type createConversationRequest struct {
	OtherUserID string `json:"otherUserId" validate:"required,max=128"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversationId" validate:"required,max=36"`
	Content        string `json:"content" validate:"max=4000"`
}

// RegisterRoutes mounts the chat endpoints on an authenticated router.
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/conversations/create", h.CreateConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations/unread/count", h.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/conversations", h.ListConversations).Methods(http.MethodGet)
	r.HandleFunc("/messages/send", h.SendMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages/{conversationId}/read", h.MarkRead).Methods(http.MethodPost)
	r.HandleFunc("/messages/{conversationId}", h.GetMessages).Methods(http.MethodGet)
}

func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	var req createConversationRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err, h.log)
		return
	}

	conv, err := h.chatService.CreateOrGetConversation(r.Context(), userID, req.OtherUserID)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"conversation": conv})
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}

	convs, err := h.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"conversations": convs})
}

func (h *ChatHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}

	count, err := h.chatService.UnreadCount(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// GetMessages returns the conversation history oldest first. "before" is a
// message id cursor for paging backwards.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	limit, err := common.QueryInt(r, "limit", service.DefaultHistoryLimit)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	before, err := common.QueryInt(r, "before", 0)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}

	conversationID := mux.Vars(r)["conversationId"]
	messages, err := h.chatService.GetMessageHistory(r.Context(), conversationID, userID, repository.HistoryQuery{
		Limit:    limit,
		BeforeID: uint(before),
	})
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	var req sendMessageRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err, h.log)
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), req.ConversationID, userID, req.Content)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}

	updated, err := h.chatService.MarkConversationRead(r.Context(), mux.Vars(r)["conversationId"], userID)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "updated": updated})
}
