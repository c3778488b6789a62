// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the App model
// (a user-owned workspace). It follows the same thin-repository shape as
// chat_repo.go: no business logic, only CRUD persistence and query
// composition, all context-aware and safe for use within transactions.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
)

// CreateApp inserts a new App row owned by ownerUserID. The app ID is a
// randomly generated UUID (string), and CreatedAt is set to UTC.
func CreateApp(ctx context.Context, db *gorm.DB, ownerUserID, name, template string) (*domain.App, error) {
	a := &domain.App{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        name,
		Template:    template,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// ListAppsPage returns a paginated slice of apps for ownerUserID, ordered by
// creation time descending.
func ListAppsPage(ctx context.Context, db *gorm.DB, ownerUserID string, offset, limit int) ([]domain.App, error) {
	var out []domain.App
	err := db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountApps returns the total number of apps owned by ownerUserID.
func CountApps(ctx context.Context, db *gorm.DB, ownerUserID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.App{}).
		Where("owner_user_id = ?", ownerUserID).
		Count(&total).Error
	return total, err
}

// GetApp fetches a single app by its ID and owner. If the record does not
// exist (or is owned by someone else), it returns ErrNotFound — callers
// must not distinguish "missing" from "not yours" to avoid leaking
// existence across tenants.
func GetApp(ctx context.Context, db *gorm.DB, id, ownerUserID string) (*domain.App, error) {
	var a domain.App
	err := db.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAppName renames an app identified by id and owned by ownerUserID.
// If no rows are affected, it returns ErrNotFound.
func UpdateAppName(ctx context.Context, db *gorm.DB, id, ownerUserID, name string) error {
	res := db.WithContext(ctx).
		Model(&domain.App{}).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteApp soft-deletes an app owned by ownerUserID, cascading to its chats
// and messages via the foreign key constraints declared on domain.Chat and
// domain.Message. Returns ErrNotFound if no row matched.
func DeleteApp(ctx context.Context, db *gorm.DB, id, ownerUserID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Delete(&domain.App{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchApps returns apps owned by ownerUserID whose name matches q
// (case-insensitive substring), ordered by creation time descending.
func SearchApps(ctx context.Context, db *gorm.DB, ownerUserID, q string, limit int) ([]domain.App, error) {
	var out []domain.App
	query := db.WithContext(ctx).
		Where("owner_user_id = ? AND name LIKE ?", ownerUserID, "%"+q+"%").
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&out).Error
	return out, err
}
