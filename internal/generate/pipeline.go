package generate

import (
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/llm"
	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/services"
	"github.com/samansalari/seenovate-appforge/internal/tools"
	"github.com/samansalari/seenovate-appforge/internal/workspace"
)

// llmNew is a seam over llm.New so tests can inject a fake provider client
// without reaching a real SDK.
var llmNew = llm.New

const systemDirective = `You are an AI pair programmer operating directly on a project's file tree
through the writeFile, readFile, listFiles, and deleteFile tools. Make the
smallest set of file changes that satisfies the user's request, explaining
your reasoning in plain text as you go.`

// StreamRequest is the decoded body of POST /stream/{chatId}.
type StreamRequest struct {
	Prompt   string `json:"prompt"`
	Redo     bool   `json:"redo"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Pipeline drives one chat prompt through history load, provider selection,
// the bounded tool-calling loop, and persistence of the resulting reply.
type Pipeline struct {
	DB       *gorm.DB
	Messages *services.MessageService
	Sessions *Registry

	StoragePath string

	Credentials     llm.Credentials
	DefaultProvider string
	DefaultModel    string

	MaxSteps  int // bounds the tool-calling loop, default 10
	MaxTokens int
}

func (p *Pipeline) maxSteps() int {
	if p.MaxSteps > 0 {
		return p.MaxSteps
	}
	return 10
}

// Run executes the full Generation Pipeline algorithm for one request,
// writing SSE frames to w. It returns an error only for preconditions that
// must be rejected before any SSE header is written (chat/app lookup
// failures); once streaming begins, failures are reported as `error` frames
// and Run returns nil.
func (p *Pipeline) Run(ctx context.Context, w http.ResponseWriter, ownerUserID, chatID string, req StreamRequest) error {
	chat, err := repo.GetChat(ctx, p.DB, chatID, ownerUserID)
	if err != nil {
		return err
	}
	app, err := repo.GetApp(ctx, p.DB, chat.AppID, ownerUserID)
	if err != nil {
		return err
	}
	store, err := workspace.New(workspace.AppRoot(p.StoragePath, ownerUserID, app.ID))
	if err != nil {
		return err
	}

	fw := newFrameWriter(w)

	session, genCtx := p.Sessions.New(ctx, chatID)
	fw.streamID(session.ID)
	defer p.Sessions.Release(session.ID)

	if needsInit(store) {
		fw.status("initializing workspace")
		if err := materializeTemplate(store, app.Template); err != nil {
			fw.error(err)
			return nil
		}
		fw.status("workspace ready")
	}

	if req.Redo {
		if err := p.Messages.PrepareRedo(genCtx, chatID); err != nil {
			fw.error(err)
			return nil
		}
	} else {
		userMsg, err := p.Messages.AppendUserMessage(genCtx, ownerUserID, chatID, req.Prompt)
		if err != nil {
			fw.error(err)
			return nil
		}
		fw.message(userMsg.Content)
	}

	history, err := repo.ListMessages(genCtx, p.DB, chatID, 0)
	if err != nil {
		fw.error(err)
		return nil
	}
	messages := toLLMMessages(history)

	provider := req.Provider
	if provider == "" {
		provider = p.DefaultProvider
	}
	model := req.Model
	if model == "" {
		model = p.DefaultModel
	}

	client, err := llmNew(genCtx, provider, p.Credentials)
	if err != nil {
		fw.error(err)
		return nil
	}

	executor := tools.New(store)
	toolDefs := toolDefinitions()

	var fullContent strings.Builder
	cancelled := false

stepLoop:
	for step := 0; step < p.maxSteps(); step++ {
		events, err := client.Stream(genCtx, llm.Request{
			Model:     model,
			System:    systemDirective,
			Messages:  messages,
			Tools:     toolDefs,
			MaxTokens: p.MaxTokens,
			MaxSteps:  p.maxSteps(),
		})
		if err != nil {
			fw.error(err)
			return nil
		}

		var stepText strings.Builder
		var toolCalls []llm.ToolCall
		var streamErr error

	drain:
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					break drain
				}
				switch ev.Type {
				case llm.EventTextDelta:
					stepText.WriteString(ev.Delta)
					fullContent.WriteString(ev.Delta)
					fw.chunk(ev.Delta, fullContent.String())
				case llm.EventToolCall:
					if ev.ToolCall != nil {
						toolCalls = append(toolCalls, *ev.ToolCall)
					}
				case llm.EventError:
					streamErr = ev.Err
				case llm.EventFinish:
				}
			case <-genCtx.Done():
				cancelled = true
				break drain
			}
		}

		if cancelled {
			break stepLoop
		}
		if streamErr != nil {
			fw.error(streamErr)
			return nil
		}

		assistant := llm.Message{Role: llm.RoleAssistant, Content: stepText.String(), ToolCalls: toolCalls}
		messages = append(messages, assistant)

		if len(toolCalls) == 0 {
			break stepLoop
		}

		for _, tc := range toolCalls {
			result, callErr := executor.Call(tools.Name(tc.Name), tc.Arguments)
			if callErr != nil {
				result = `{"success":false,"error":"` + callErr.Error() + `"}`
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: tc.ID})

			if gjson.Get(result, "success").Bool() && (tc.Name == string(tools.WriteFile) || tc.Name == string(tools.DeleteFile)) {
				fw.fileUpdate(gjson.Get(result, "path").String())
			}
		}

		if genCtx.Err() != nil {
			cancelled = true
			break stepLoop
		}
	}

	if cancelled {
		return nil
	}

	assistantMsg, err := p.Messages.AppendAssistantMessage(genCtx, chatID, fullContent.String(), session.ID)
	if err != nil {
		fw.error(err)
		return nil
	}
	fw.end(assistantMsg.Content, chatID)
	return nil
}

func toLLMMessages(history []domain.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == "assistant" {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

func toolDefinitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:             string(tools.WriteFile),
			Description:      "Write content to a file in the workspace, creating parent directories as needed.",
			ParametersSchema: `{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path","content"]}`,
		},
		{
			Name:             string(tools.ReadFile),
			Description:      "Read the full content of a file in the workspace.",
			ParametersSchema: `{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`,
		},
		{
			Name:             string(tools.ListFiles),
			Description:      "List the immediate children of a directory in the workspace.",
			ParametersSchema: `{"type":"object","properties":{"path":{"type":"string"}}}`,
		},
		{
			Name:             string(tools.DeleteFile),
			Description:      "Delete a file or directory in the workspace.",
			ParametersSchema: `{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`,
		},
	}
}
