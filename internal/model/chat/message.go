package chat

import (
	"time"

	"github.com/wtwq666/smartdata/internal/model/chart"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn inside a session. Content holds prose only; the chart
// option extracted from an assistant answer is stored separately in Chart.
// Messages are immutable once written.
type Message struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Chart     chart.Option `json:"chart_data,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Turn is a role-tagged text entry replayed to the agent as context.
type Turn struct {
	Role    string
	Content string
}
