// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Favorite
// model — a per-user toggleable "starred" marker on an app workspace.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules to the services package.
//
// Error semantics:
//   - Duplicate favorite (same app_id,user_id) relies on the database unique
//     constraint; CreateFavorite is idempotent and treats that case as
//     already-favorited rather than surfacing an error.
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
)

// CreateFavorite marks appID as favorited by userID. It is idempotent: if
// the row already exists, it returns nil rather than a duplicate-key error.
func CreateFavorite(ctx context.Context, db *gorm.DB, appID, userID string) error {
	fb := &domain.Favorite{
		ID:        uuid.NewString(),
		AppID:     appID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Create(fb).Error
	if err == nil {
		return nil
	}
	low := strings.ToLower(err.Error())
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") {
		return nil
	}
	return err
}

// DeleteFavorite un-favorites appID for userID. It is idempotent: removing a
// favorite that does not exist is not an error.
func DeleteFavorite(ctx context.Context, db *gorm.DB, appID, userID string) error {
	return db.WithContext(ctx).
		Where("app_id = ? AND user_id = ?", appID, userID).
		Delete(&domain.Favorite{}).Error
}

// IsFavorited reports whether userID has favorited appID.
func IsFavorited(ctx context.Context, db *gorm.DB, appID, userID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("app_id = ? AND user_id = ?", appID, userID).
		Count(&count).Error
	return count > 0, err
}
