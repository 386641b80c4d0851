package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/scribe/internal/prompt"
	"github.com/FranksOps/scribe/pkg/httpclient"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o"
)

// ErrMissingAPIKey is returned when the OpenAI backend has no key.
var ErrMissingAPIKey = errors.New("openai api key is not set")

// OpenAI talks to an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	model     string
	apiKey    string
	baseURL   string
	maxTokens int
	client    *httpclient.Client
	logger    *slog.Logger
}

type chatRequest struct {
	Model               string           `json:"model"`
	Messages            []prompt.Message `json:"messages"`
	Temperature         *float64         `json:"temperature,omitempty"`
	MaxTokens           int              `json:"max_tokens,omitempty"`
	MaxCompletionTokens int              `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      prompt.Message `json:"message"`
		FinishReason string         `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// NewOpenAI creates the OpenAI backend.
func NewOpenAI(cfg Config, client *httpclient.Client, logger *slog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		maxTokens: cfg.MaxTokens,
		client:    client,
		logger:    logger,
	}, nil
}

// reasoning reports whether the model belongs to the o1 family, which
// rejects both a temperature and the system role.
func (o *OpenAI) reasoning() bool {
	return strings.HasPrefix(strings.ToLower(o.model), "o1")
}

// Name implements Provider.
func (o *OpenAI) Name() string { return BackendOpenAI + "/" + o.model }

// SupportsSystemRole implements Provider.
func (o *OpenAI) SupportsSystemRole() bool { return !o.reasoning() }

// Complete implements Provider.
func (o *OpenAI) Complete(ctx context.Context, messages []prompt.Message) (string, error) {
	req := chatRequest{
		Model:    o.model,
		Messages: prompt.Shape(messages, o.SupportsSystemRole()),
	}
	if o.reasoning() {
		req.MaxCompletionTokens = o.maxTokens
	} else {
		zero := 0.0
		req.Temperature = &zero
		req.MaxTokens = o.maxTokens
	}

	hdr := http.Header{"Authorization": {"Bearer " + o.apiKey}}
	start := time.Now()

	var resp chatResponse
	if err := o.client.DoJSON(ctx, http.MethodPost, o.baseURL+"/chat/completions", hdr, req, &resp); err != nil {
		return "", fmt.Errorf("%s completion failed: %w", o.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", o.Name(), ErrEmptyCompletion)
	}

	o.logger.Info("completion received",
		"model", o.model,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	text, err := checkCompletion(resp.Choices[0].Message.Content)
	if err != nil {
		return "", fmt.Errorf("%s: %w", o.Name(), err)
	}
	return text, nil
}
