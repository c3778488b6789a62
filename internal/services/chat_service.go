// Package services – ChatService
//
// This file implements ChatService, which manages the lifecycle of chats
// within an app workspace. It validates and normalizes titles, enforces
// ownership rules (via the owning app), coordinates repository operations
// for creating, listing (with pagination), and updating chats, and performs
// relevance-ranked search over a workspace's chat titles.
//
// Service-level errors (e.g., ErrChatNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/search"
)

// ChatRepo defines the repository contract required by ChatService.
// Implementations are responsible for persistence of chat aggregates,
// scoped to an owning app.
type ChatRepo interface {
	// CreateChat inserts a new chat row under appID.
	CreateChat(ctx context.Context, db *gorm.DB, appID, title string) (*domain.Chat, error)

	// ListChats returns all chats belonging to appID (non-paginated).
	ListChats(ctx context.Context, db *gorm.DB, appID string) ([]domain.Chat, error)

	// GetChat fetches a chat by ID ensuring its app belongs to ownerUserID.
	GetChat(ctx context.Context, db *gorm.DB, id, ownerUserID string) (*domain.Chat, error)

	// UpdateChatTitle updates a chat's title (only if its app belongs to ownerUserID).
	UpdateChatTitle(ctx context.Context, db *gorm.DB, id, ownerUserID, title string) error

	// CountChats returns the total number of chats for pagination.
	CountChats(ctx context.Context, db *gorm.DB, appID string) (int64, error)

	// ListChatsPage returns a page of chats belonging to appID.
	ListChatsPage(ctx context.Context, db *gorm.DB, appID string, offset, limit int) ([]domain.Chat, error)
}

// ChatService provides chat-level operations such as creating, listing,
// updating, and searching chats within an app workspace.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the chat repository used by this service.
	Repo ChatRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewChatService constructs a ChatService with sane defaults for title handling.
func NewChatService(db *gorm.DB, r ChatRepo) *ChatService {
	return &ChatService{
		DB:          db,
		Repo:        r,
		TitleMaxLen: 60,
	}
}

// Create inserts a new chat under appID with the provided title. Titles are
// normalized, trimmed, clipped, and a default fallback is applied.
func (s *ChatService) Create(ctx context.Context, appID, title string) (*domain.Chat, error) {
	title = normalizeTitle(title)
	if title == "" {
		title = "New chat"
	}
	return s.Repo.CreateChat(ctx, s.DB, appID, s.clip(title))
}

// List returns all chats under an app (non-paginated).
// Prefer ListPage for scalability on large datasets.
func (s *ChatService) List(ctx context.Context, appID string) ([]domain.Chat, error) {
	return s.Repo.ListChats(ctx, s.DB, appID)
}

// ListPage returns a page of chats under an app.
// It applies defaults for invalid page/pageSize and returns total count.
func (s *ChatService) ListPage(ctx context.Context, appID string, page, pageSize int) ([]domain.Chat, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountChats(ctx, s.DB, appID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}

	items, err := s.Repo.ListChatsPage(ctx, s.DB, appID, offset, pageSize)
	return items, total, err
}

// UpdateTitle updates a chat's title, ensuring the chat exists and its app
// belongs to the given user. Falls back to "Untitled" if title is blank.
func (s *ChatService) UpdateTitle(ctx context.Context, userID, chatID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = "Untitled"
	}
	// Ensure the chat exists and belongs to the user.
	if _, err := s.Repo.GetChat(ctx, s.DB, chatID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	return s.Repo.UpdateChatTitle(ctx, s.DB, chatID, userID, s.clip(title))
}

// Delete removes a chat, ensuring it exists and its app belongs to userID.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	err := repo.DeleteChat(ctx, s.DB, chatID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrChatNotFound
	}
	return err
}

// Search narrows chats under appID by a SQL substring match on title (broad
// recall) and then re-ranks the candidates by Jaccard token overlap against
// the query (precision), returning up to limit chats ordered by relevance.
func (s *ChatService) Search(ctx context.Context, appID, q string, limit int) ([]domain.Chat, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Chat{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	candidates, err := repo.SearchChats(ctx, s.DB, appID, q, 0)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.Chat{}, nil
	}

	byID := make(map[string]domain.Chat, len(candidates))
	docs := make([]search.Doc, 0, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
		docs = append(docs, search.Doc{ID: c.ID, Text: c.Title})
	}

	idx := search.NewIndexFromDocs(docs, search.WithMinDocRunes(0))
	ranked := idx.TopK(q, limit)

	out := make([]domain.Chat, 0, len(ranked))
	for _, r := range ranked {
		if c, ok := byID[r.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// clip truncates a chat title to the configured maximum rune length.
func (s *ChatService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
