// Package ai talks to the speech-to-text and chat-completion services.
package ai

import (
	"context"
	"fmt"

	"vociary/config"
	"vociary/models"
)

// Transcriber turns a recording into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio models.Audio) (string, error)
}

// Generator completes a system/user prompt pair.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ClientError is returned for a non-2xx response or a transport failure.
// StatusCode is 0 when no response was received.
type ClientError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *ClientError) Unwrap() error { return e.Err }

// New selects the client strategy named by cfg.Provider.
func New(cfg config.AI) (Transcriber, Generator, error) {
	switch cfg.Provider {
	case config.ProviderGroq:
		c := NewGroq(cfg)
		return c, c, nil
	case config.ProviderStub:
		return Stub{}, Stub{}, nil
	default:
		return nil, nil, fmt.Errorf("ai: unknown provider %q", cfg.Provider)
	}
}
