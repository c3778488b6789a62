package llm

import (
	"context"

	"google.golang.org/genai"
)

// GeminiClient implements Client against Google's Gemini API. It does not
// support the tool-calling loop the other two adapters do: a deployment
// selecting Gemini is expected to run tool-free generations only.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient constructs a GeminiClient. Returns ErrMissingCredential
// if apiKey is empty.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &ErrMissingCredential{Provider: "google"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Name() string { return "google" }

func (c *GeminiClient) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	var contents []*genai.Content
	for _, m := range req.Messages {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser)}
	}

	out := make(chan StreamEvent, 64)
	go func() {
		defer close(out)
		for chunk, err := range c.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
			if err != nil {
				select {
				case out <- StreamEvent{Type: EventError, Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if text := chunk.Text(); text != "" {
				select {
				case out <- StreamEvent{Type: EventTextDelta, Delta: text}:
				case <-ctx.Done():
					return
				}
			}
		}
		select {
		case out <- StreamEvent{Type: EventFinish}:
		case <-ctx.Done():
		}
	}()

	return out, nil
}

var _ Client = (*GeminiClient)(nil)
