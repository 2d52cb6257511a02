// Package llm turns repository contents into a markdown explanation with
// one chat-completion call against an OpenAI-compatible endpoint (Gemini by
// default).
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/model"
)

const (
	DefaultMaxWords = 300
	// FallbackText is returned when the model produced no text.
	FallbackText = "Explanation not available."
)

// ErrNotConfigured is returned by Generate when no API key was supplied.
var ErrNotConfigured = apperror.Internal("LLM API key is not configured")

type Options struct {
	APIKey   string
	BaseURL  string
	Model    string
	MaxWords int
}

// Generator produces explanations. It never retries.
type Generator struct {
	client   *openai.Client
	model    string
	maxWords int
	enabled  bool
	logger   *zap.Logger
}

func NewGenerator(opts Options, logger *zap.Logger) *Generator {
	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithMaxRetries(0),
	)

	maxWords := opts.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	return &Generator{
		client:   &client,
		model:    opts.Model,
		maxWords: maxWords,
		enabled:  opts.APIKey != "",
		logger:   logger,
	}
}

// Generate sends the prompt for contents and returns the first choice.
// An empty answer is not an error: it yields FallbackText with
// Available=false. Transport failures and non-2xx answers are reported as
// apperror.ErrUpstream carrying the upstream detail.
func (g *Generator) Generate(ctx context.Context, contents string) (*model.Explanation, error) {
	if !g.enabled {
		return nil, ErrNotConfigured
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(BuildPrompt(contents, g.maxWords)),
		},
		Model: openai.ChatModel(g.model),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("llm: %w", ctxErr)
		}
		return nil, fmt.Errorf("llm: chat completion: %w", apperror.Upstream("LLM", upstreamDetail(err)))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		g.logger.Warn("model returned no text", zap.String("model", g.model))
		return &model.Explanation{Text: FallbackText, Available: false}, nil
	}

	return &model.Explanation{Text: resp.Choices[0].Message.Content, Available: true}, nil
}

func upstreamDetail(err error) string {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Sprintf("%d %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Sprintf("status %d", apiErr.StatusCode)
	}
	return err.Error()
}

// BuildPrompt returns the fixed instruction followed by the contents.
func BuildPrompt(contents string, maxWords int) string {
	return fmt.Sprintf(`You are an expert software engineer. Read the following repository contents and generate an explanation in markdown format with these sections (use '##' markdown heading for each):

## TL;DR
## What this project does
## Key features
## Intended use case

Make it beginner-friendly, avoid copying the contents directly. Keep it under %d words.

Repository contents:
%s`, maxWords, contents)
}
