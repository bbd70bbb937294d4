// Package prompt 提供问答管线的提示词模板
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptQueryAnalysisV1  PromptID = "query_analysis_v1"
	PromptAnswerGroundedV1 PromptID = "answer_grounded_v1"
	PromptAnswerPlainV1    PromptID = "answer_plain_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}

	msgs := []schema.MessagesTemplate{schema.SystemMessage(system)}
	if userPath != "" {
		user, err := readEmbeddedText(userPath)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, schema.UserMessage(user))
	}

	tpl := einoprompt.FromMessages(schema.FString, msgs...)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptQueryAnalysisV1:
		return "templates/query_analysis_v1.system.txt", "templates/query_analysis_v1.user.txt", nil
	case PromptAnswerGroundedV1:
		return "templates/answer_grounded_v1.system.txt", "", nil
	case PromptAnswerPlainV1:
		return "templates/answer_plain_v1.system.txt", "", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
