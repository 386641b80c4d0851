package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/scribe/internal/prompt"
	ollama "github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

const DefaultOllamaModel = "llama3.1"

// Ollama talks to a local or remote Ollama server.
type Ollama struct {
	client    *ollama.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewOllama creates the Ollama backend. cfg.BaseURL is the server address;
// empty means OLLAMA_HOST or the local default.
func NewOllama(cfg Config, logger *slog.Logger) (*Ollama, error) {
	base := envconfig.Host()
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.BaseURL, err)
		}
		base = u
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	return &Ollama{
		client:    ollama.NewClient(base, hc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}, nil
}

// Name implements Provider.
func (o *Ollama) Name() string { return BackendOllama + "/" + o.model }

// SupportsSystemRole implements Provider.
func (o *Ollama) SupportsSystemRole() bool { return true }

// Complete implements Provider.
func (o *Ollama) Complete(ctx context.Context, messages []prompt.Message) (string, error) {
	shaped := prompt.Shape(messages, o.SupportsSystemRole())
	msgs := make([]ollama.Message, len(shaped))
	for i, m := range shaped {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	options := map[string]any{"temperature": 0}
	if o.maxTokens > 0 {
		options["num_predict"] = o.maxTokens
	}
	req := &ollama.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &stream,
		Options:  options,
	}

	start := time.Now()
	var reply string
	var evalCount int
	err := o.client.Chat(ctx, req, func(res ollama.ChatResponse) error {
		reply += res.Message.Content
		if res.Done {
			evalCount = res.EvalCount
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", o.Name(), err)
	}

	o.logger.Info("completion received",
		"model", o.model,
		"eval_count", evalCount,
		"duration", time.Since(start),
	)

	text, err := checkCompletion(reply)
	if err != nil {
		return "", fmt.Errorf("%s: %w", o.Name(), err)
	}
	return text, nil
}
