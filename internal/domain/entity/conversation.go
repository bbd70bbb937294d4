// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Conversation 一次多轮问答会话
type Conversation struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null;default:''"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func NewConversation(title string) *Conversation {
	now := time.Now()
	return &Conversation{
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ConversationTurn 会话中的一条消息，只追加不修改
type ConversationTurn struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID string          `json:"conversation_id" gorm:"type:uuid;index;not null"`
	Role           Role            `json:"role" gorm:"type:varchar(16);not null"`
	Content        string          `json:"content" gorm:"type:text;not null"`
	Passages       json.RawMessage `json:"passages,omitempty" gorm:"type:jsonb"`
	CitedRefs      pq.StringArray  `json:"cited_refs,omitempty" gorm:"type:text[]"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

func NewConversationTurn(conversationID string, role Role, content string) *ConversationTurn {
	return &ConversationTurn{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

// WithPassages 在轮次上记录检索到的段落及其引用
func (t *ConversationTurn) WithPassages(passages []RetrievedPassage) *ConversationTurn {
	if len(passages) == 0 {
		return t
	}
	raw, err := json.Marshal(passages)
	if err != nil {
		return t
	}
	t.Passages = raw
	refs := make(pq.StringArray, 0, len(passages))
	for _, p := range passages {
		refs = append(refs, p.Reference())
	}
	t.CitedRefs = refs
	return t
}
