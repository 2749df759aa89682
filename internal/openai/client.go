package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the model used for summaries and answers
	DefaultChatModel = openai.GPT4oMini
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// API defines the raw operations the client needs from OpenAI.
type API interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
	CreateChatCompletion(ctx context.Context, system, user string) (string, error)
	CreateImageDescription(ctx context.Context, prompt, imageDataURL string) (string, error)
}

// Client wraps the OpenAI API with dimension checks and a circuit breaker.
// The breaker trips after repeated upstream failures so a degraded OpenAI
// endpoint fails fast instead of stalling every in-flight event handler.
type Client struct {
	api        API
	breaker    *gobreaker.CircuitBreaker
	dimensions int
}

type SDKAdapter struct {
	client    *openai.Client
	embed     openai.EmbeddingModel
	chatModel string
}

func NewSDKAdapter(apiKey string, embedModel openai.EmbeddingModel, chatModel string) *SDKAdapter {
	if embedModel == "" {
		embedModel = DefaultEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	return &SDKAdapter{
		client:    openai.NewClient(apiKey),
		embed:     embedModel,
		chatModel: chatModel,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *SDKAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embed,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateChatCompletion runs a single system+user exchange.
func (a *SDKAdapter) CreateChatCompletion(ctx context.Context, system, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// CreateImageDescription asks the vision-capable chat model to describe an
// image supplied as a data URL.
func (a *SDKAdapter) CreateImageDescription(ctx context.Context, prompt, imageDataURL string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageDataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return newClient(NewSDKAdapter(cfg.APIKey, cfg.EmbeddingModel, cfg.ChatModel), dimensions)
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

func newClient(api API, dimensions int) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "openai",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{api: api, breaker: breaker, dimensions: dimensions}
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.CreateEmbeddings(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	embedding := result.([]float32)
	if len(embedding) != c.dimensions {
		// A dimension mismatch is a configuration error, not a runtime
		// condition worth retrying.
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(embedding))
	}

	return embedding, nil
}

// Summarize produces a concise summary of the given text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", ErrEmptyText
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.CreateChatCompletion(ctx,
			"You summarize documents. Reply with a concise summary of the user's text in at most three sentences.",
			text,
		)
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	return result.(string), nil
}

// Answer generates a reply to userMessage grounded in systemContext.
func (c *Client) Answer(ctx context.Context, systemContext, userMessage string) (string, error) {
	if userMessage == "" {
		return "", ErrEmptyText
	}
	system := "You are a helpful team knowledge assistant. Answer using the provided conversation history when it is relevant; say so when it is not."
	if systemContext != "" {
		system += "\n\nRelevant history:\n" + systemContext
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.CreateChatCompletion(ctx, system, userMessage)
	})
	if err != nil {
		return "", fmt.Errorf("failed to answer: %w", err)
	}
	return result.(string), nil
}

// DescribeImage returns a textual description of an image data URL.
func (c *Client) DescribeImage(ctx context.Context, imageDataURL string) (string, error) {
	if imageDataURL == "" {
		return "", ErrEmptyText
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.CreateImageDescription(ctx,
			"Describe the content of this image in detail, including any visible text.",
			imageDataURL,
		)
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe image: %w", err)
	}
	return result.(string), nil
}
