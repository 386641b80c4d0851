// Package llm sends prompts to a chat completion model and returns the
// generated article.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/scribe/internal/prompt"
	"github.com/FranksOps/scribe/pkg/httpclient"
)

// ErrEmptyCompletion is returned when a model answers with no text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Provider is a chat completion backend.
type Provider interface {
	// Complete sends messages and returns the assistant's reply. Messages
	// are reshaped for the model before sending.
	Complete(ctx context.Context, messages []prompt.Message) (string, error)
	// Name identifies the backend and model, e.g. "openai/gpt-4o".
	Name() string
	// SupportsSystemRole reports whether the model accepts system messages.
	SupportsSystemRole() bool
}

// Backends accepted in Config.Provider.
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// Config selects and configures a Provider.
type Config struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// MaxTokens caps the completion length; zero leaves it to the backend.
	MaxTokens int `mapstructure:"max_tokens"`
}

// New builds the Provider named by cfg.Provider.
func New(cfg Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		// long articles from reasoning models can take minutes
		cfg.Timeout = 5 * time.Minute
	}

	switch strings.ToLower(cfg.Provider) {
	case "", BackendOpenAI:
		client, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		return NewOpenAI(cfg, client, logger)
	case BackendOllama:
		return NewOllama(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func checkCompletion(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
