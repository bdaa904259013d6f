package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nirala/internal/common"
	"nirala/internal/dbmysql"
)

type ChatRepository interface {
	CreateOrGetConversation(ctx context.Context, userA, userB string) (*dbmysql.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*dbmysql.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*dbmysql.Conversation, error)
	SaveMessage(ctx context.Context, msg *dbmysql.Message) error
	FetchHistory(ctx context.Context, conversationID string, q HistoryQuery) ([]*dbmysql.Message, error)
	LastMessages(ctx context.Context, conversationIDs []string) (map[string]*dbmysql.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int64, error)
	UnreadByConversation(ctx context.Context, userID string) (map[string]int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// HistoryQuery pages backwards through a conversation. BeforeID zero means
// start from the newest message.
type HistoryQuery struct {
	Limit    int
	BeforeID uint
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepo{
		db: db,
	}
}

// CreateOrGetConversation returns the single conversation of the unordered
// pair, creating it on first use. Concurrent first calls converge on the row
// that won the unique index.
func (r *chatRepo) CreateOrGetConversation(ctx context.Context, userA, userB string) (*dbmysql.Conversation, error) {
	a, b := dbmysql.OrderedPair(userA, userB)

	conv, err := r.findPair(ctx, a, b)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	candidate := &dbmysql.Conversation{
		ID:             uuid.NewString(),
		ParticipantAID: a,
		ParticipantBID: b,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(candidate).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	conv, err = r.findPair(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

func (r *chatRepo) findPair(ctx context.Context, a, b string) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a_id = ? AND participant_b_id = ?", a, b).
		Take(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *chatRepo) GetConversation(ctx context.Context, conversationID string) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", conversationID).Take(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns the conversations of userID, most recent
// activity first.
func (r *chatRepo) ListConversations(ctx context.Context, userID string) ([]*dbmysql.Conversation, error) {
	var convs []*dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a_id = ? OR participant_b_id = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// SaveMessage inserts msg and bumps the conversation's last activity in one
// transaction.
func (r *chatRepo) SaveMessage(ctx context.Context, msg *dbmysql.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
		if err := tx.Model(&dbmysql.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("last_message_at", msg.CreatedAt).Error; err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		return nil
	})
}

// FetchHistory returns up to q.Limit messages in persisted order, oldest
// first.
func (r *chatRepo) FetchHistory(ctx context.Context, conversationID string, q HistoryQuery) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message

	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if q.BeforeID > 0 {
		query = query.Where("id < ?", q.BeforeID)
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatRepo) LastMessages(ctx context.Context, conversationIDs []string) (map[string]*dbmysql.Message, error) {
	out := make(map[string]*dbmysql.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}

	latest := r.db.Model(&dbmysql.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id")

	var messages []*dbmysql.Message
	if err := r.db.WithContext(ctx).Where("id IN (?)", latest).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load last messages: %w", err)
	}
	for _, m := range messages {
		out[m.ConversationID] = m
	}
	return out, nil
}

// MarkRead flags every message in the conversation not sent by readerID as
// read.
func (r *chatRepo) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND `read` = ?", conversationID, readerID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

type unreadRow struct {
	ConversationID string
	Unread         int64
}

func (r *chatRepo) UnreadByConversation(ctx context.Context, userID string) (map[string]int64, error) {
	var rows []unreadRow
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Select("messages.conversation_id AS conversation_id, COUNT(*) AS unread").
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.participant_a_id = ? OR conversations.participant_b_id = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.`read` = ?", userID, false).
		Group("messages.conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ConversationID] = row.Unread
	}
	return out, nil
}

func (r *chatRepo) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.participant_a_id = ? OR conversations.participant_b_id = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.`read` = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
