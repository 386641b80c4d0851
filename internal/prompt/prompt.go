// Package prompt builds the chat messages that ask a model to write an
// article.
package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/FranksOps/scribe/internal/keywords"
)

// Roles understood by chat completion APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMinLength is the minimum article length, in characters, asked for
// when none is configured.
const DefaultMinLength = 1000

// ErrEmptyTopic is returned by Build for a blank topic.
var ErrEmptyTopic = errors.New("topic must not be empty")

// Message is one role/content pair of a chat prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type data struct {
	Topic     string
	Keywords  string
	MinLength int
}

// Build renders the system and user messages for topic. keywordSummary is
// embedded verbatim; minLength <= 0 means DefaultMinLength.
func Build(topic, keywordSummary string, minLength int) ([]Message, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if strings.TrimSpace(keywordSummary) == "" {
		keywordSummary = keywords.NoKeywordsFound
	}

	d := data{Topic: topic, Keywords: keywordSummary, MinLength: minLength}

	system, err := render("system.tmpl", d)
	if err != nil {
		return nil, err
	}
	user, err := render("user.tmpl", d)
	if err != nil {
		return nil, err
	}
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}, nil
}

func render(name string, d data) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, d); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Shape adapts messages to a model. Models without a system role receive a
// single user message holding every content joined by a blank line, in
// order. Other models get the messages unchanged.
func Shape(messages []Message, supportsSystem bool) []Message {
	if supportsSystem || len(messages) == 0 {
		out := make([]Message, len(messages))
		copy(out, messages)
		return out
	}

	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return []Message{{Role: RoleUser, Content: strings.Join(parts, "\n\n")}}
}
