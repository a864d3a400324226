package domain

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is one message in a conversation. Conversations themselves are
// owned by the browser-side store; the server only ever sees a flattened
// query. The type is shared wire vocabulary for the UI and the LLM layer.
type ChatMessage struct {
	ID        string     `json:"id,omitempty"`
	Role      ChatRole   `json:"role"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// ChatContext carries optional caller identity forwarded with a query.
type ChatContext struct {
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatRequest is the inbound chat payload. Query is the only required field;
// everything else is advisory and forwarded opaquely.
type ChatRequest struct {
	Query          string         `json:"query" binding:"required"`
	ConversationID string         `json:"conversationId,omitempty"`
	Filters        map[string]any `json:"filters,omitempty"`
	Context        *ChatContext   `json:"context,omitempty"`
}
