// Package services – MessageService
//
// This file implements MessageService, the thin application-level component
// that owns persistence of chat messages. Validation, ownership checks, and
// pagination live here; the actual generation of assistant replies (calling
// an LLM provider, running tools, streaming SSE frames) is the Generation
// Pipeline's responsibility (internal/generate), which uses this service to
// persist the user/assistant turns it produces.
//
// It also derives a chat title from the first user message when the chat
// still carries its placeholder title, mirroring the teacher's optional
// title-generation behavior.
package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/repo"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	// default titles we consider "placeholder" and eligible for auto-generation
	defaultTitleNew      = "New chat"
	defaultTitleUntitled = "Untitled"
)

// MessageService coordinates message persistence, chat-ownership checks, and
// first-message auto-titling.
type MessageService struct {
	DB *gorm.DB

	// Optional guards
	MaxPromptRunes int

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int
}

// AppendUserMessage validates and persists a user-authored message, ensuring
// the chat exists and belongs to userID. If the chat still carries a
// placeholder title, a title is derived from the prompt and persisted
// alongside the message, in the same transaction.
func (s *MessageService) AppendUserMessage(ctx context.Context, userID, chatID, prompt string) (*domain.Message, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	chat, err := repo.GetChat(ctx, s.DB, chatID, userID)
	if err != nil {
		return nil, ErrChatNotFound
	}

	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(ctx, tx, chatID, roleUser, prompt, "")
		if err != nil {
			return err
		}
		msg = m

		if s.shouldAutoTitle(chat.Title) {
			if gen := s.clipTitle(s.generateTitleFromPrompt(prompt)); gen != "" {
				tx.Model(&domain.Chat{}).Where("id = ?", chatID).Update("title", gen)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// AppendAssistantMessage persists an assistant-authored reply, tying it back
// to the Stream Session (requestID) that produced it.
func (s *MessageService) AppendAssistantMessage(ctx context.Context, chatID, content, requestID string) (*domain.Message, error) {
	return repo.CreateMessage(ctx, s.DB, chatID, roleAssistant, content, requestID)
}

// PrepareRedo deletes the most recent assistant message in chatID so the
// Generation Pipeline can persist a freshly regenerated reply in its place.
// Returns ErrNoAssistantMessage if the chat has no assistant reply yet.
func (s *MessageService) PrepareRedo(ctx context.Context, chatID string) error {
	last, err := repo.LastAssistantMessage(ctx, s.DB, chatID)
	if err != nil {
		if err == repo.ErrNotFound {
			return ErrNoAssistantMessage
		}
		return err
	}
	return repo.DeleteMessage(ctx, s.DB, last.ID)
}

// ListPage returns paginated messages for a chat.
func (s *MessageService) ListPage(ctx context.Context, chatID string, page, pageSize int) ([]domain.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var chatCount int64
	if err := s.DB.WithContext(ctx).Model(&domain.Chat{}).Where("id = ?", chatID).Count(&chatCount).Error; err != nil {
		return nil, 0, err
	}
	if chatCount == 0 {
		return nil, 0, ErrChatNotFound
	}

	total, err := repo.CountMessages(ctx, s.DB, chatID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(ctx, s.DB, chatID, offset, pageSize)
	return items, total, err
}

// shouldAutoTitle reports whether the current title is a placeholder.
func (s *MessageService) shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(defaultTitleNew) || t == strings.ToLower(defaultTitleUntitled)
}

// generateTitleFromPrompt derives a concise title from the prompt.
func (s *MessageService) generateTitleFromPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ""
	}
	toks := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(s.TitleLocaleOrDefault())
	out := make([]string, 0, 8)

	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, " ")
}

// clipTitle truncates a generated title to the configured maximum rune length.
func (s *MessageService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// TitleLocaleOrDefault returns the configured locale for casing or English if unset.
func (s *MessageService) TitleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// Extract Unicode letters with optional trailing numbers (e.g., "gwi2025").
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
