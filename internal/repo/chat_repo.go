// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Ownership flows through the parent App: a chat has no user_id column of
// its own, so every lookup joins against apps and filters on
// apps.owner_user_id. This keeps "not found" and "not yours" indistinguishable
// to callers, matching the cross-tenant isolation invariant in the data model.
//
// Error semantics:
//   - When a chat is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateChat inserts a new Chat row under appID with the given title.
// The chat ID is a randomly generated UUID (string), and CreatedAt is set to UTC.
func CreateChat(ctx context.Context, db *gorm.DB, appID, title string) (*domain.Chat, error) {
	c := &domain.Chat{
		ID:        uuid.NewString(),
		AppID:     appID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListChats returns all chats belonging to appID, ordered by creation time
// descending (most recent first).
func ListChats(ctx context.Context, db *gorm.DB, appID string) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountChats returns the total number of chats belonging to appID.
func CountChats(ctx context.Context, db *gorm.DB, appID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("app_id = ?", appID).
		Count(&total).Error
	return total, err
}

// ListChatsPage returns a paginated slice of chats for appID, ordered by
// creation time descending. Use CountChats to obtain the total for
// pagination metadata.
func ListChatsPage(ctx context.Context, db *gorm.DB, appID string, offset, limit int) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetChat fetches a single chat by its ID, scoped to an app owned by
// ownerUserID. If the record does not exist, or its app belongs to someone
// else, it returns ErrNotFound.
func GetChat(ctx context.Context, db *gorm.DB, id, ownerUserID string) (*domain.Chat, error) {
	var c domain.Chat
	err := db.WithContext(ctx).
		Joins("JOIN apps ON apps.id = chats.app_id").
		Where("chats.id = ? AND apps.owner_user_id = ? AND apps.deleted_at IS NULL", id, ownerUserID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetChatByApp fetches a single chat by id, scoped only to appID (ownership
// of the app itself must already have been verified by the caller).
func GetChatByApp(ctx context.Context, db *gorm.DB, id, appID string) (*domain.Chat, error) {
	var c domain.Chat
	err := db.WithContext(ctx).
		Where("id = ? AND app_id = ?", id, appID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateChatTitle updates the title of a chat identified by id, scoped to an
// app owned by ownerUserID. If no rows are affected, it returns ErrNotFound.
func UpdateChatTitle(ctx context.Context, db *gorm.DB, id, ownerUserID, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id IN (SELECT chats.id FROM chats JOIN apps ON apps.id = chats.app_id WHERE chats.id = ? AND apps.owner_user_id = ?)", id, ownerUserID).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteChat removes a chat (and cascades to its messages) identified by id,
// scoped to an app owned by ownerUserID. If no rows are affected, it returns
// ErrNotFound.
func DeleteChat(ctx context.Context, db *gorm.DB, id, ownerUserID string) error {
	c, err := GetChat(ctx, db, id, ownerUserID)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).Delete(&domain.Chat{}, "id = ?", c.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchChats returns chats under appID whose title matches q
// (case-insensitive substring), ordered by creation time descending; message
// content is not searched. Grounds the teacher's search package's intent — relevance
// ranking over chat text — on a simple SQL LIKE rather than the Jaccord
// corpus-retrieval engine, since a chat history is a handful of rows, not a
// document corpus.
func SearchChats(ctx context.Context, db *gorm.DB, appID, q string, limit int) ([]domain.Chat, error) {
	var out []domain.Chat
	query := db.WithContext(ctx).
		Where("app_id = ? AND title LIKE ?", appID, "%"+q+"%").
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&out).Error
	return out, err
}
