// Package services – AppService
//
// This file implements AppService, which manages the lifecycle of app
// workspaces: creation (with an atomically-created initial chat), listing,
// renaming, deletion, and relevance-ranked search over a user's apps.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/search"
)

// AppService provides app-level operations: creation, listing, renaming,
// deletion, favoriting, and search.
type AppService struct {
	DB *gorm.DB

	// NameMaxLen caps stored app names by rune length.
	NameMaxLen int
}

// NewAppService constructs an AppService with sane defaults.
func NewAppService(db *gorm.DB) *AppService {
	return &AppService{DB: db, NameMaxLen: 120}
}

// Create inserts a new app owned by ownerUserID along with its first chat,
// created atomically in the same transaction. Create takes no prompt: the
// initial chat is always titled "New chat", and MessageService replaces that
// placeholder with a title derived from the first user message appended to it.
func (s *AppService) Create(ctx context.Context, ownerUserID, name, template string) (*domain.App, *domain.Chat, error) {
	name = normalizeTitle(name)
	if name == "" {
		name = "New app"
	}
	name = s.clip(name)

	var app *domain.App
	var chat *domain.Chat
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := repo.CreateApp(ctx, tx, ownerUserID, name, template)
		if err != nil {
			return err
		}
		c, err := repo.CreateChat(ctx, tx, a.ID, "New chat")
		if err != nil {
			return err
		}
		app, chat = a, c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return app, chat, nil
}

// Get fetches a single app owned by ownerUserID.
func (s *AppService) Get(ctx context.Context, ownerUserID, appID string) (*domain.App, error) {
	a, err := repo.GetApp(ctx, s.DB, appID, ownerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListPage returns a page of apps owned by ownerUserID.
func (s *AppService) ListPage(ctx context.Context, ownerUserID string, page, pageSize int) ([]domain.App, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountApps(ctx, s.DB, ownerUserID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.App{}, 0, nil
	}
	items, err := repo.ListAppsPage(ctx, s.DB, ownerUserID, offset, pageSize)
	return items, total, err
}

// Rename updates an app's name, ensuring it exists and belongs to the user.
func (s *AppService) Rename(ctx context.Context, ownerUserID, appID, name string) error {
	name = normalizeTitle(name)
	if name == "" {
		name = "New app"
	}
	err := repo.UpdateAppName(ctx, s.DB, appID, ownerUserID, s.clip(name))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAppNotFound
	}
	return err
}

// Delete removes an app (cascading to its chats, messages, and favorites)
// owned by ownerUserID.
func (s *AppService) Delete(ctx context.Context, ownerUserID, appID string) error {
	err := repo.DeleteApp(ctx, s.DB, appID, ownerUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAppNotFound
	}
	return err
}

// ToggleFavorite flips the favorited state of an app for ownerUserID,
// returning the resulting state.
func (s *AppService) ToggleFavorite(ctx context.Context, ownerUserID, appID string) (bool, error) {
	if _, err := s.Get(ctx, ownerUserID, appID); err != nil {
		return false, err
	}
	favorited, err := repo.IsFavorited(ctx, s.DB, appID, ownerUserID)
	if err != nil {
		return false, err
	}
	if favorited {
		if err := repo.DeleteFavorite(ctx, s.DB, appID, ownerUserID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := repo.CreateFavorite(ctx, s.DB, appID, ownerUserID); err != nil {
		return false, err
	}
	return true, nil
}

// Search narrows apps by a SQL substring match on name (broad recall) and
// then re-ranks the candidates by Jaccard token overlap against the query
// (precision), returning up to limit apps ordered by relevance.
func (s *AppService) Search(ctx context.Context, ownerUserID, q string, limit int) ([]domain.App, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.App{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	candidates, err := repo.SearchApps(ctx, s.DB, ownerUserID, q, 0)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.App{}, nil
	}

	byID := make(map[string]domain.App, len(candidates))
	docs := make([]search.Doc, 0, len(candidates))
	for _, a := range candidates {
		byID[a.ID] = a
		docs = append(docs, search.Doc{ID: a.ID, Text: a.Name})
	}

	idx := search.NewIndexFromDocs(docs, search.WithMinDocRunes(0))
	ranked := idx.TopK(q, limit)

	out := make([]domain.App, 0, len(ranked))
	for _, r := range ranked {
		if a, ok := byID[r.ID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// clip truncates a name to the configured maximum rune length.
func (s *AppService) clip(name string) string {
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return string([]rune(name)[:s.NameMaxLen])
	}
	return name
}
