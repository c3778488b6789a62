package llm

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client against the OpenAI Chat Completions API.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient constructs an OpenAIClient. Returns ErrMissingCredential
// if apiKey is empty.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, &ErrMissingCredential{Provider: "openai"}
	}
	return &OpenAIClient{client: openai.NewClient(option.WithAPIKey(apiKey))}, nil
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	params := openai.ChatCompletionNewParams{Model: req.Model}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}
	params.Messages = messages

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			var schema map[string]any
			_ = json.Unmarshal([]byte(t.ParametersSchema), &schema)
			tools = append(tools, openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  openai.FunctionParameters(schema),
				},
			})
		}
		params.Tools = tools
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	out := make(chan StreamEvent, 64)

	go func() {
		defer close(out)
		var acc openai.ChatCompletionAccumulator
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case out <- StreamEvent{Type: EventTextDelta, Delta: chunk.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
			if tc, ok := acc.JustFinishedToolCall(); ok {
				select {
				case out <- StreamEvent{Type: EventToolCall, ToolCall: &ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case out <- StreamEvent{Type: EventError, Err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case out <- StreamEvent{Type: EventFinish}:
		case <-ctx.Done():
		}
	}()

	return out, nil
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case RoleTool:
		return openai.ToolMessage(m.Content, m.ToolCallID)
	case RoleAssistant:
		if len(m.ToolCalls) == 0 {
			return openai.AssistantMessage(m.Content)
		}
		toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
		for _, tc := range m.ToolCalls {
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   tc.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		asst := openai.ChatCompletionAssistantMessageParam{Role: "assistant", ToolCalls: toolCalls}
		if m.Content != "" {
			asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)}
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
	default:
		return openai.UserMessage(m.Content)
	}
}

var _ Client = (*OpenAIClient)(nil)
