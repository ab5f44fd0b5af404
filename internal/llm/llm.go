/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package llm is a small completion client shared by the song suggester and
// the narrator.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// ErrEmptyCompletion is returned when the model produced no text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Prompt is a single-turn request.
type Prompt struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Message is one turn of a conversation.
type Message struct {
	// Role is "user" or "assistant".
	Role string
	Text string
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Anthropic implements Completer over the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropic returns a client for apiKey, or nil when apiKey is empty so
// callers can fall back to offline behaviour.
func NewAnthropic(apiKey, model string, logger *zap.Logger) *Anthropic {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

func (a *Anthropic) Complete(ctx context.Context, p Prompt) (string, error) {
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(p.Temperature),
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}
	for _, m := range p.Messages {
		block := anthropic.NewTextBlock(m.Text)
		if m.Role == "assistant" {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(out.String())
	a.logger.Debug("completion received",
		zap.String("model", a.model),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
		zap.Int("chars", len(text)),
	)

	if text == "" {
		return "", ErrEmptyCompletion
	}

	return text, nil
}

// User is shorthand for a single user message.
func User(text string) []Message {
	return []Message{{Role: "user", Text: text}}
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON returns the outermost JSON object embedded in text, which
// models often wrap in prose or code fences.
func ExtractJSON(text string) (string, bool) {
	match := jsonObject.FindString(text)

	return match, match != ""
}
