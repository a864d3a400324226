// Package sse decodes Server-Sent-Events streams into typed chat events.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/firstfamily/ragdash/internal/domain"
	"go.uber.org/zap"
)

// Callbacks receives decoded events. OnEvent sees every event; the
// per-variant callbacks fire after it. Nil callbacks are skipped.
type Callbacks struct {
	OnEvent   func(domain.SseEvent)
	OnToken   func(domain.SseEvent)
	OnFinal   func(domain.SseEvent)
	OnSources func(domain.SseEvent)
	OnError   func(domain.SseEvent)
}

// Decoder parses a byte stream into discrete SSE frames and validates each
// payload against the tagged event union. Malformed frames are dropped with
// a warning; an isolated bad frame must not abort an otherwise-healthy stream.
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder constructs a decoder. A nil logger disables frame warnings.
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

// Decode reads body to completion, dispatching every well-formed event to
// cb. Cancelling ctx stops reading and closes body. The body is always
// closed before Decode returns.
func (d *Decoder) Decode(ctx context.Context, body io.ReadCloser, cb Callbacks) error {
	defer body.Close()

	// Closing the body unblocks a pending Read when the caller cancels.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			body.Close()
		case <-done:
		}
	}()

	var buffer []byte
	chunk := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := body.Read(chunk)
		if n > 0 {
			buffer = append(buffer, chunk[:n]...)
			for {
				sep := bytes.Index(buffer, []byte("\n\n"))
				if sep == -1 {
					break
				}
				frame := buffer[:sep]
				buffer = buffer[sep+2:]
				d.handleFrame(frame, cb)
			}
		}
		if err == io.EOF {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
	}
}

// handleFrame extracts the data: lines of one frame, joined in order, and
// dispatches the decoded event.
func (d *Decoder) handleFrame(frame []byte, cb Callbacks) {
	var dataLines []string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if len(dataLines) == 0 {
		return
	}

	payload := strings.Join(dataLines, "\n")

	var event domain.SseEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		d.logger.Warn("failed to parse SSE event JSON", zap.Error(err))
		return
	}
	if err := event.Validate(); err != nil {
		d.logger.Warn("invalid SSE event payload", zap.Error(err))
		return
	}

	if cb.OnEvent != nil {
		cb.OnEvent(event)
	}
	switch event.Type {
	case domain.SseToken:
		if cb.OnToken != nil {
			cb.OnToken(event)
		}
	case domain.SseFinal:
		if cb.OnFinal != nil {
			cb.OnFinal(event)
		}
	case domain.SseSources:
		if cb.OnSources != nil {
			cb.OnSources(event)
		}
	case domain.SseError:
		if cb.OnError != nil {
			cb.OnError(event)
		}
	}
}
