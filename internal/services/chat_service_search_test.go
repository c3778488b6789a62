package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/repo"
)

type chatRepoFns struct{}

func (chatRepoFns) CreateChat(ctx context.Context, db *gorm.DB, appID, title string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, appID, title)
}

func (chatRepoFns) ListChats(ctx context.Context, db *gorm.DB, appID string) ([]domain.Chat, error) {
	return repo.ListChats(ctx, db, appID)
}

func (chatRepoFns) GetChat(ctx context.Context, db *gorm.DB, id, ownerUserID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id, ownerUserID)
}

func (chatRepoFns) UpdateChatTitle(ctx context.Context, db *gorm.DB, id, ownerUserID, title string) error {
	return repo.UpdateChatTitle(ctx, db, id, ownerUserID, title)
}

func (chatRepoFns) CountChats(ctx context.Context, db *gorm.DB, appID string) (int64, error) {
	return repo.CountChats(ctx, db, appID)
}

func (chatRepoFns) ListChatsPage(ctx context.Context, db *gorm.DB, appID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, appID, offset, limit)
}

func newChatSvcDB(t *testing.T) (*AppService, *ChatService) {
	t.Helper()
	db, err := repo.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return NewAppService(db), NewChatService(db, chatRepoFns{})
}

func TestChatService_DeleteNotFound(t *testing.T) {
	_, chats := newChatSvcDB(t)
	err := chats.Delete(context.Background(), "u1", "missing")
	if !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestChatService_DeleteCrossTenantNotFound(t *testing.T) {
	apps, chats := newChatSvcDB(t)
	app, chat, err := apps.Create(context.Background(), "owner", "App", "")
	if err != nil {
		t.Fatalf("Create app: %v", err)
	}
	_ = app

	if err := chats.Delete(context.Background(), "intruder", chat.ID); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound for cross-tenant delete, got %v", err)
	}
	if err := chats.Delete(context.Background(), "owner", chat.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestChatService_SearchRanksByRelevance(t *testing.T) {
	apps, chats := newChatSvcDB(t)
	app, _, err := apps.Create(context.Background(), "owner", "App", "")
	if err != nil {
		t.Fatalf("Create app: %v", err)
	}

	if _, err := chats.Create(context.Background(), app.ID, "budget planning notes"); err != nil {
		t.Fatalf("Create chat: %v", err)
	}
	if _, err := chats.Create(context.Background(), app.ID, "weather forecast chat"); err != nil {
		t.Fatalf("Create chat: %v", err)
	}

	results, err := chats.Search(context.Background(), app.ID, "budget", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "budget planning notes" {
		t.Fatalf("expected single relevant match, got %+v", results)
	}

	empty, err := chats.Search(context.Background(), app.ID, "", 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty results for blank query, got %+v err=%v", empty, err)
	}
}
