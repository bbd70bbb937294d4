// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"scripture-qa-api/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Conversation], error)
}

type ConversationTurnRepository interface {
	Create(ctx context.Context, turn *entity.ConversationTurn) error
	ListByConversation(ctx context.Context, conversationID string, pagination Pagination) (*PagedResult[*entity.ConversationTurn], error)
	// ListRecent 返回会话中最近 limit 条消息，按时间升序返回
	ListRecent(ctx context.Context, conversationID string, limit int) ([]*entity.ConversationTurn, error)
	// DeleteByConversation 删除会话的全部消息
	DeleteByConversation(ctx context.Context, conversationID string) error
}
