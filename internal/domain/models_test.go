package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (App{}).TableName() != "apps" {
		t.Fatalf("App.TableName() = %q; want %q", (App{}).TableName(), "apps")
	}
	if (Chat{}).TableName() != "chats" {
		t.Fatalf("Chat.TableName() = %q; want %q", (Chat{}).TableName(), "chats")
	}
	if (Message{}).TableName() != "messages" {
		t.Fatalf("Message.TableName() = %q; want %q", (Message{}).TableName(), "messages")
	}
	if (Favorite{}).TableName() != "favorites" {
		t.Fatalf("Favorite.TableName() = %q; want %q", (Favorite{}).TableName(), "favorites")
	}
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q; want %q", (User{}).TableName(), "users")
	}
}

func TestMigrationsIndexesAndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&App{}, &Chat{}, &Message{}, &Favorite{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&App{}, &Chat{}, &Message{}, &Favorite{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	if !m.HasIndex(&App{}, "idx_owner_apps") {
		t.Fatalf("expected index idx_owner_apps on apps")
	}
	if !m.HasIndex(&Chat{}, "idx_app_chats") {
		t.Fatalf("expected index idx_app_chats on chats")
	}
	if !m.HasIndex(&Message{}, "idx_chat_msgs") {
		t.Fatalf("expected index idx_chat_msgs on messages")
	}
	if !m.HasIndex(&Favorite{}, "ux_favorite_app_user") {
		t.Fatalf("expected unique index ux_favorite_app_user on favorites")
	}

	// Seed an app, a chat, two messages, and a favorite tied to the app.
	now := time.Now().UTC()

	a := &App{ID: "a1", OwnerUserID: "u1", Name: "N", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("insert app: %v", err)
	}

	ch := &Chat{ID: "c1", AppID: "a1", Title: "T", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(ch).Error; err != nil {
		t.Fatalf("insert chat: %v", err)
	}

	m1 := &Message{ID: "m1", ChatID: "c1", Role: "user", Content: "hello", CreatedAt: now, UpdatedAt: now}
	m2 := &Message{ID: "m2", ChatID: "c1", Role: "assistant", Content: "world", CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second)}
	if err := db.Create(m1).Error; err != nil {
		t.Fatalf("insert m1: %v", err)
	}
	if err := db.Create(m2).Error; err != nil {
		t.Fatalf("insert m2: %v", err)
	}

	fav := &Favorite{ID: "f1", AppID: "a1", UserID: "u1", CreatedAt: now}
	if err := db.Create(fav).Error; err != nil {
		t.Fatalf("insert favorite: %v", err)
	}

	// CASCADE: deleting the app should delete its chat, messages, and favorite.
	if err := db.Unscoped().Delete(&App{}, "id = ?", "a1").Error; err != nil {
		t.Fatalf("delete app: %v", err)
	}
	var cnt int64
	if err := db.Model(&Chat{}).Where("app_id = ?", "a1").Count(&cnt).Error; err != nil {
		t.Fatalf("count chats after app delete: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected chats to cascade-delete when app deleted, got count=%d", cnt)
	}
	if err := db.Model(&Favorite{}).Where("app_id = ?", "a1").Count(&cnt).Error; err != nil {
		t.Fatalf("count favorites after app delete: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected favorites to cascade-delete when app deleted, got count=%d", cnt)
	}

	// CASCADE: deleting the chat should delete remaining messages.
	if err := db.Unscoped().Delete(&Chat{}, "id = ?", "c1").Error; err != nil {
		t.Fatalf("delete chat: %v", err)
	}
	if err := db.Model(&Message{}).Where("chat_id = ?", "c1").Count(&cnt).Error; err != nil {
		t.Fatalf("count messages after chat delete: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected messages to cascade-delete when chat deleted, got count=%d", cnt)
	}
}
