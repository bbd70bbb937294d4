// Package chat 编排单轮问答：会话管理、查询分析、检索与生成
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scripture-qa-api/internal/application/rag"
	"scripture-qa-api/internal/domain/entity"
	"scripture-qa-api/internal/domain/repository"
	apperrors "scripture-qa-api/pkg/errors"
	"scripture-qa-api/pkg/logger"
	"scripture-qa-api/pkg/metrics"
)

const maxTitleRunes = 60

// Input 一轮对话输入，ConversationID 为空时新建会话
type Input struct {
	ConversationID string
	Message        string
}

// Output 一轮对话结果
type Output struct {
	ConversationID string
	Answer         *entity.ConversationTurn
	Passages       []entity.RetrievedPassage
	Decision       rag.QueryDecision
}

// Service 问答编排服务
type Service struct {
	conversations repository.ConversationRepository
	turns         repository.ConversationTurnRepository
	transactor    repository.Transactor

	analyzer  *rag.Analyzer
	retriever *rag.Retriever
	generator *rag.Generator

	historyLimit int
}

func NewService(
	conversations repository.ConversationRepository,
	turns repository.ConversationTurnRepository,
	transactor repository.Transactor,
	analyzer *rag.Analyzer,
	retriever *rag.Retriever,
	generator *rag.Generator,
	historyLimit int,
) *Service {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Service{
		conversations: conversations,
		turns:         turns,
		transactor:    transactor,
		analyzer:      analyzer,
		retriever:     retriever,
		generator:     generator,
		historyLimit:  historyLimit,
	}
}

// Chat 执行一轮问答
func (s *Service) Chat(ctx context.Context, in Input) (*Output, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("message is required")
	}

	start := time.Now()

	conversation, err := s.resolveConversation(ctx, in.ConversationID, message)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.ConversationIDKey, conversation.ID)

	// 历史在写入本轮用户消息之前读取，当前消息只出现在末尾一次
	history, err := s.recentHistory(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	userTurn := entity.NewConversationTurn(conversation.ID, entity.RoleUser, message)
	if err := s.turns.Create(ctx, userTurn); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "save user turn")
	}

	decision := s.analyzer.Analyze(ctx, message, history)
	logger.Info(ctx, "query analyzed",
		"needs_retrieval", decision.NeedsRetrieval,
		"source", string(decision.Source),
		"rewritten", decision.RewrittenQuery,
	)

	var passages []entity.RetrievedPassage
	if decision.NeedsRetrieval && decision.RewrittenQuery != "" {
		passages, err = s.retriever.Retrieve(ctx, decision.RewrittenQuery)
		if err != nil {
			metrics.ChatTurnsTotal.WithLabelValues("true", "error").Inc()
			return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "retrieve passages")
		}
	}

	answer, err := s.generator.Generate(ctx, message, passages, history)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues(retrievalLabel(passages), "error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "generate answer")
	}

	assistantTurn := entity.NewConversationTurn(conversation.ID, entity.RoleAssistant, answer).WithPassages(passages)
	if err := s.turns.Create(ctx, assistantTurn); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "save assistant turn")
	}

	conversation.UpdatedAt = time.Now()
	if err := s.conversations.Update(ctx, conversation); err != nil {
		logger.Warn(ctx, "conversation timestamp update failed", "error", err.Error())
	}

	metrics.ChatTurnsTotal.WithLabelValues(retrievalLabel(passages), "success").Inc()
	metrics.ChatTurnDuration.WithLabelValues(retrievalLabel(passages)).Observe(time.Since(start).Seconds())

	return &Output{
		ConversationID: conversation.ID,
		Answer:         assistantTurn,
		Passages:       passages,
		Decision:       decision,
	}, nil
}

// GetConversation 返回会话与其全部消息
func (s *Service) GetConversation(ctx context.Context, id string, pagination repository.Pagination) (*entity.Conversation, *repository.PagedResult[*entity.ConversationTurn], error) {
	conversation, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	turns, err := s.turns.ListByConversation(ctx, id, pagination)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "list turns")
	}
	return conversation, turns, nil
}

// ListConversations 分页列出会话
func (s *Service) ListConversations(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Conversation], error) {
	return s.conversations.List(ctx, pagination)
}

// DeleteConversation 删除会话及其全部消息
func (s *Service) DeleteConversation(ctx context.Context, id string) error {
	if _, err := s.conversations.GetByID(ctx, id); err != nil {
		return err
	}
	return s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.turns.DeleteByConversation(ctx, id); err != nil {
			return err
		}
		return s.conversations.Delete(ctx, id)
	})
}

// RenameConversation 更新会话标题
func (s *Service) RenameConversation(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperrors.ErrInvalidParam.WithDetail("title is required")
	}
	conversation, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	conversation.Title = title
	conversation.UpdatedAt = time.Now()
	return s.conversations.Update(ctx, conversation)
}

func (s *Service) resolveConversation(ctx context.Context, id, message string) (*entity.Conversation, error) {
	if strings.TrimSpace(id) != "" {
		conversation, err := s.conversations.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return conversation, nil
	}

	conversation := entity.NewConversation(deriveTitle(message))
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "create conversation")
	}
	logger.Info(ctx, "conversation created", "conversation_id", conversation.ID)
	return conversation, nil
}

func (s *Service) recentHistory(ctx context.Context, conversationID string) ([]rag.HistoryMessage, error) {
	turns, err := s.turns.ListRecent(ctx, conversationID, s.historyLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "load history")
	}
	history := make([]rag.HistoryMessage, 0, len(turns))
	for _, t := range turns {
		history = append(history, rag.HistoryMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}
	return history, nil
}

// deriveTitle 用首条消息生成会话标题
func deriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= maxTitleRunes {
		return message
	}
	return fmt.Sprintf("%s...", string(runes[:maxTitleRunes]))
}

func retrievalLabel(passages []entity.RetrievedPassage) string {
	if len(passages) > 0 {
		return "true"
	}
	return "false"
}
