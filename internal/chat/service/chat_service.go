package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"nirala/internal/chat/repository"
	"nirala/internal/common"
	"nirala/internal/dbmysql"
	"nirala/internal/metrics"
	"nirala/internal/realtime"
)

const (
	DefaultHistoryLimit = 200
	previewLength       = 80
)

// ChatService defines the interface exposed to the handler layer
type ChatService interface {
	CreateOrGetConversation(ctx context.Context, userID, otherUserID string) (*dbmysql.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error)
	GetMessageHistory(ctx context.Context, conversationID, userID string, q repository.HistoryQuery) ([]*dbmysql.Message, error)
	SendMessage(ctx context.Context, conversationID, senderID, content string) (*dbmysql.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	AuthorizeSubscription(ctx context.Context, userID, conversationID string) error
}

// Notifier hands a platform event to the notification router without
// waiting for it.
type Notifier interface {
	EmitAsync(recipientID string, t common.NotificationType, payload map[string]interface{}, actorID string)
}

type UserDirectory interface {
	ByIDs(ctx context.Context, ids []string) (map[string]*dbmysql.User, error)
}

type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type ConversationSummary struct {
	*dbmysql.Conversation
	UnreadCount int64            `json:"unreadCount"`
	LastMessage *dbmysql.Message `json:"lastMessage,omitempty"`
	OtherUser   UserSummary      `json:"otherUser"`
}

type chatService struct {
	repo      repository.ChatRepository
	publisher realtime.Publisher
	notifier  Notifier
	users     UserDirectory
	log       zerolog.Logger
}

// Constructor used in DI/wire
func NewChatService(r repository.ChatRepository, publisher realtime.Publisher, notifier Notifier, users UserDirectory, log zerolog.Logger) ChatService {
	return &chatService{
		repo:      r,
		publisher: publisher,
		notifier:  notifier,
		users:     users,
		log:       log.With().Str("component", "chat").Logger(),
	}
}

func (s *chatService) CreateOrGetConversation(ctx context.Context, userID, otherUserID string) (*dbmysql.Conversation, error) {
	otherUserID = strings.TrimSpace(otherUserID)
	if otherUserID == "" {
		return nil, fmt.Errorf("%w: otherUserId is required", common.ErrInvalidParticipant)
	}
	if userID == otherUserID {
		return nil, common.ErrInvalidParticipant
	}
	return s.repo.CreateOrGetConversation(ctx, userID, otherUserID)
}

// ListConversations returns the user's conversations, most recent activity
// first, each with its unread count, last message and the other participant.
func (s *chatService) ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	convs, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []*ConversationSummary{}, nil
	}

	ids := make([]string, 0, len(convs))
	others := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
		others = append(others, c.OtherParticipant(userID))
	}

	unread, err := s.repo.UnreadByConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	last, err := s.repo.LastMessages(ctx, ids)
	if err != nil {
		return nil, err
	}
	directory, err := s.users.ByIDs(ctx, others)
	if err != nil {
		// the list is still useful with bare ids
		s.log.Warn().Err(err).Msg("user directory lookup failed")
		directory = map[string]*dbmysql.User{}
	}

	out := make([]*ConversationSummary, 0, len(convs))
	for _, c := range convs {
		otherID := c.OtherParticipant(userID)
		other := UserSummary{ID: otherID}
		if u, ok := directory[otherID]; ok {
			other.DisplayName = u.DisplayName
			other.AvatarURL = u.AvatarURL
		}
		out = append(out, &ConversationSummary{
			Conversation: c,
			UnreadCount:  unread[c.ID],
			LastMessage:  last[c.ID],
			OtherUser:    other,
		})
	}
	return out, nil
}

func (s *chatService) GetMessageHistory(ctx context.Context, conversationID, userID string, q repository.HistoryQuery) ([]*dbmysql.Message, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if q.Limit <= 0 || q.Limit > DefaultHistoryLimit {
		q.Limit = DefaultHistoryLimit
	}
	return s.repo.FetchHistory(ctx, conversationID, q)
}

// SendMessage persists a message, then pushes it live and notifies the
// recipient. Only persistence can fail the call.
func (s *chatService) SendMessage(ctx context.Context, conversationID, senderID, content string) (*dbmysql.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.ErrEmptyContent
	}

	conv, err := s.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &dbmysql.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.repo.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	event := realtime.Event{Type: realtime.EventNewMessage, ConversationID: conv.ID, Message: msg}
	if err := s.publisher.PublishToConversation(ctx, conv.ID, event); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("live push failed")
	}

	recipient := conv.OtherParticipant(senderID)
	s.notifier.EmitAsync(recipient, common.MessageReceived, map[string]interface{}{
		"conversationId": conv.ID,
		"messageId":      msg.ID,
		"preview":        preview(content),
	}, senderID)

	return msg, nil
}

func (s *chatService) MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	changed, err := s.repo.MarkRead(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}

	total, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("unread count after mark read failed")
		return changed, nil
	}
	if err := s.publisher.PublishToUser(ctx, userID, realtime.UnreadCountEvent(realtime.ScopeMessages, total)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("unread count push failed")
	}
	return changed, nil
}

func (s *chatService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *chatService) AuthorizeSubscription(ctx context.Context, userID, conversationID string) error {
	_, err := s.participantConversation(ctx, conversationID, userID)
	return err
}

func (s *chatService) participantConversation(ctx context.Context, conversationID, userID string) (*dbmysql.Conversation, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversationId is required", common.ErrValidation)
	}
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, common.ErrNotParticipant)
	}
	return conv, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "…"
}
