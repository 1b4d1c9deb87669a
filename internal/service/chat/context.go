package chat

import (
	"context"

	"github.com/wtwq666/smartdata/internal/model/chat"
	chartsvc "github.com/wtwq666/smartdata/internal/service/chart"
)

// RecentTurns builds the bounded context window for the agent: the newest
// `window` messages, oldest first, as role-tagged turns. Assistant content is
// stripped of any leftover chart markers so old answers never re-feed chart
// markup into the prompt — persisted assistant turns should already be clean,
// but rows written before extraction existed may not be.
func (s *Service) RecentTurns(ctx context.Context, sessionID string, window int) ([]chat.Turn, error) {
	messages, err := s.RecentMessages(ctx, sessionID, window)
	if err != nil {
		return nil, err
	}

	turns := make([]chat.Turn, 0, len(messages))
	for _, message := range messages {
		content := message.Content
		if message.Role == chat.RoleAssistant {
			content = chartsvc.Strip(content)
		}
		turns = append(turns, chat.Turn{Role: message.Role, Content: content})
	}
	return turns, nil
}
