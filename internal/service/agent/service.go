// Package agent implements the data-analysis agent: one read-only SQL query
// generated from the question and the session context, executed against the
// business database, then summarized into a natural-language answer that may
// embed a chart block.
package agent

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wtwq666/smartdata/internal/config"
	"github.com/wtwq666/smartdata/internal/model/chat"
)

// Invoker is the boundary the orchestrator depends on. Tests substitute a
// deterministic stub; the real implementation below talks to the model.
type Invoker interface {
	Invoke(ctx context.Context, question string, history []chat.Turn) (string, error)
}

// Service wires the chat model chain to the read-only business database.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	db        *sql.DB
}

// NewService builds the chat model, compiles the prompt chain and opens the
// business database in read-only mode.
func NewService(ctx context.Context, cfg config.AIConfig, businessPath string) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+businessPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open business db: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
		db:        db,
	}, nil
}

// Invoke answers a question with the session context. The question arrives
// with the chart instruction suffix already appended by the caller.
func (s *Service) Invoke(ctx context.Context, question string, history []chat.Turn) (string, error) {
	input := question
	if preamble := renderPreamble(history); preamble != "" {
		input = preamble + question
	}

	statement, err := s.generateSQL(ctx, input)
	if err != nil {
		return "", err
	}

	result, err := s.runQuery(ctx, statement)
	if err != nil {
		return "", err
	}

	answer, err := s.chain.Invoke(ctx, map[string]any{
		"system": answerSystemPrompt,
		"query":  buildAnswerInput(input, statement, result),
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize query result: %w", err)
	}

	log.Printf("[agent] answered question, sql=%q, answer length=%d", statement, len(answer.Content))
	return answer.Content, nil
}

func (s *Service) generateSQL(ctx context.Context, input string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": sqlSystemPrompt,
		"query":  input,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate sql: %w", err)
	}

	statement := sanitizeSQL(response.Content)
	if !isReadOnlyQuery(statement) {
		return "", fmt.Errorf("model produced a non-SELECT statement: %q", statement)
	}
	return statement, nil
}
