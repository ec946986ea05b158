package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/prompt"
)

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("model returned no answer")

// Config configures an OpenAI-compatible chat model.
type Config struct {
	BaseURL      string
	APIKeyEnv    string
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
}

// Answerer answers questions over an excerpt with any langchaingo model.
type Answerer struct {
	model       llms.Model
	prompts     *prompt.Builder
	temperature float64
	maxTokens   int
}

// New wraps model. maxTokens <= 0 leaves the model default.
func New(model llms.Model, systemPrompt string, temperature float64, maxTokens int) *Answerer {
	return &Answerer{
		model:       model,
		prompts:     prompt.NewBuilder(systemPrompt),
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// NewOpenAI builds an Answerer on an OpenAI-compatible endpoint.
// Local servers that need no key get the placeholder token "none".
func NewOpenAI(cfg Config) (*Answerer, error) {
	token := os.Getenv(cfg.APIKeyEnv)
	if token == "" {
		token = "none"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return New(model, cfg.SystemPrompt, cfg.Temperature, cfg.MaxTokens), nil
}

// Answer asks the model the question grounded on excerpt.
func (a *Answerer) Answer(ctx context.Context, question, excerpt string, onChunk func(string)) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(a.temperature)}
	if a.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(a.maxTokens))
	}
	if onChunk != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			onChunk(string(chunk))
			return nil
		}))
	}

	resp, err := a.model.GenerateContent(ctx, a.prompts.Messages(question, excerpt), opts...)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
