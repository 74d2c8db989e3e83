package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

var ErrEmptyResponse = errors.New("model returned an empty response")

type Client struct {
	client     *genai.Client
	model      string
	mediaModel string
	timeout    time.Duration
}

type Config struct {
	APIKey string
	Model  string
	// MediaModel serves prompts carrying inline audio. Defaults to Model.
	MediaModel string
	Timeout    time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("genai api key is empty")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	mediaModel := cfg.MediaModel
	if mediaModel == "" {
		mediaModel = model
	}

	return &Client{
		client:     client,
		model:      model,
		mediaModel: mediaModel,
		timeout:    cfg.Timeout,
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func jsonConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
}

func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), jsonConfig())
	if err != nil {
		return "", fmt.Errorf("failed to generate json content: %w", err)
	}
	return textOf(result)
}

// GenerateJSONFromMedia sends the prompt together with inline media. The SDK
// base64-encodes data on the wire.
func (c *Client) GenerateJSONFromMedia(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.mediaModel, contents, jsonConfig())
	if err != nil {
		return "", fmt.Errorf("failed to generate content from media: %w", err)
	}
	return textOf(result)
}

func textOf(result *genai.GenerateContentResponse) (string, error) {
	if result == nil {
		return "", ErrEmptyResponse
	}
	text := result.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
