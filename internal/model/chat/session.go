package chat

import "time"

// DefaultTitle 新会话的默认标题。
const DefaultTitle = "新对话"

// Session is a persisted conversation thread.
// UpdatedAt is bumped on every rename and on every message append.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
