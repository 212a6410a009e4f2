// Package summarizer generates meeting titles and summaries with an OpenAI chat model.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultModel      = openai.ChatModelGPT3_5Turbo
	defaultMaxTokens  = 600
	titleMaxTokens    = 50
	temperature       = 0.3
	titleExcerptRunes = 500

	titleSystemPrompt   = "Generate a short, concise and descriptive title for this meeting text. Return only the title, don't add anything else."
	summarySystemPrompt = "You are a meeting summarizer. Summarize the given meeting text by extracting main topics, decisions, and action items. Include date and title information at the beginning of the summary. Respond in English."
)

// ErrEmptyCompletion is returned when the model answers with no choices
var ErrEmptyCompletion = errors.New("model returned no completion")

// Summarizer produces titles and summaries for meeting transcripts
type Summarizer interface {
	GenerateTitle(ctx context.Context, text string) (string, error)
	Summarize(ctx context.Context, text, title, date string) (string, error)
}

// Factory builds a Summarizer for one API key
type Factory func(apiKey string) Summarizer

// Options configures the OpenAI-backed summarizer
type Options struct {
	BaseURL    string
	Model      string
	MaxTokens  int
	MaxRetries int
}

// OpenAISummarizer calls the chat completions API
type OpenAISummarizer struct {
	client    openai.Client
	model     openai.ChatModel
	maxTokens int64
}

// NewFactory returns a Factory sharing opts across API keys
func NewFactory(opts Options) Factory {
	return func(apiKey string) Summarizer {
		return NewOpenAI(apiKey, opts)
	}
}

// NewOpenAI creates a summarizer authenticated with apiKey
func NewOpenAI(apiKey string, opts Options) *OpenAISummarizer {
	requestOpts := make([]option.RequestOption, 0, 3)
	if opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.BaseURL))
	}
	if apiKey != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(apiKey))
	}
	if opts.MaxRetries > 0 {
		requestOpts = append(requestOpts, option.WithMaxRetries(opts.MaxRetries))
	}

	model := openai.ChatModel(opts.Model)
	if opts.Model == "" {
		model = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAISummarizer{
		client:    openai.NewClient(requestOpts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// GenerateTitle asks the model for a short title based on the start of the text
func (s *OpenAISummarizer) GenerateTitle(ctx context.Context, text string) (string, error) {
	title, err := s.complete(ctx, titleSystemPrompt, TitlePrompt(text), titleMaxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}
	return strings.TrimSpace(title), nil
}

// Summarize asks the model for topics, decisions and action items
func (s *OpenAISummarizer) Summarize(ctx context.Context, text, title, date string) (string, error) {
	summary, err := s.complete(ctx, summarySystemPrompt, SummaryPrompt(text, title, date), s.maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	return summary, nil
}

func (s *OpenAISummarizer) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// TitlePrompt is the user message for title generation
func TitlePrompt(text string) string {
	runes := []rune(text)
	if len(runes) > titleExcerptRunes {
		runes = runes[:titleExcerptRunes]
	}
	return "Generate title for this meeting:\n\n" + string(runes) + "..."
}

// SummaryPrompt is the user message for summarization, prefixed with
// date and title context lines when known
func SummaryPrompt(text, title, date string) string {
	var b strings.Builder
	if date != "" {
		fmt.Fprintf(&b, "Meeting Date: %s\n", date)
	}
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n\n", title)
	}
	b.WriteString("Meeting Text:\n")
	b.WriteString(text)
	return b.String()
}
