package domain

import "fmt"

// SseEventType tags the event variants carried on the chat stream.
type SseEventType string

const (
	SseToken   SseEventType = "token"
	SseFinal   SseEventType = "final"
	SseSources SseEventType = "sources"
	SseError   SseEventType = "error"
)

// SourceChunk is one retrieved passage cited alongside an answer.
type SourceChunk struct {
	ID           string         `json:"id"`
	Title        string         `json:"title,omitempty"`
	URI          string         `json:"uri,omitempty"`
	DocumentType string         `json:"documentType,omitempty"`
	Page         int            `json:"page,omitempty"`
	Score        float64        `json:"score"`
	Snippet      string         `json:"snippet"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Validate checks the source chunk contract: score is a relevance measure
// in [0, 1] and id/snippet are required.
func (s *SourceChunk) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source chunk: missing id")
	}
	if s.Score < 0 || s.Score > 1 {
		return fmt.Errorf("source chunk %s: score %v out of range [0,1]", s.ID, s.Score)
	}
	return nil
}

// SseEvent is the tagged union decoded from upstream SSE frames. The Type
// tag determines which other fields are populated; a token event never
// carries final content and vice versa.
type SseEvent struct {
	Type      SseEventType  `json:"type"`
	MessageID string        `json:"messageId,omitempty"`
	Token     string        `json:"token,omitempty"`
	Content   string        `json:"content,omitempty"`
	Sources   []SourceChunk `json:"sources,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Validate enforces the per-variant field contract.
func (e *SseEvent) Validate() error {
	switch e.Type {
	case SseToken:
		if e.Content != "" || e.Error != "" {
			return fmt.Errorf("token event carries foreign fields")
		}
	case SseFinal:
		if e.Content == "" {
			return fmt.Errorf("final event: missing content")
		}
	case SseSources:
		if e.Sources == nil {
			return fmt.Errorf("sources event: missing sources")
		}
	case SseError:
		if e.Error == "" {
			return fmt.Errorf("error event: missing error")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	for i := range e.Sources {
		if err := e.Sources[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
