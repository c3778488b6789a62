// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
)

// statRow scans a single latest-updated-at column, avoiding MAX() -> TEXT
// coercion quirks in SQLite.
type statRow struct {
	UpdatedAt time.Time
}

// AppsStats returns aggregate metadata for a user's apps: the total number
// of rows and the maximum UpdatedAt timestamp among those rows.
func AppsStats(ctx context.Context, db *gorm.DB, ownerUserID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.App{}).Where("owner_user_id = ?", ownerUserID)
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var row statRow
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// ChatsStats returns aggregate metadata for an app's chats: the total number
// of rows and the maximum UpdatedAt timestamp among those rows.
func ChatsStats(ctx context.Context, db *gorm.DB, appID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Chat{}).Where("app_id = ?", appID)
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var row statRow
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// MessagesStats returns aggregate metadata for messages within a given chat:
// the total number of rows and the maximum UpdatedAt timestamp among those rows.
func MessagesStats(ctx context.Context, db *gorm.DB, chatID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("chat_id = ?", chatID)
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var row statRow
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
