// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (user_id, resource_id, key). It enables safe retries for POST
// operations — workspace creation and message posting alike — by returning
// the originally produced response without re-executing side effects.
// ResourceID is the id of the resource the key is scoped to (an app id for
// workspace creation, a chat id for message posting); ResultID is the id of
// the record that was actually created (app id or message id respectively).
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_resource_key,priority:1"`
	ResourceID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_resource_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_resource_key,priority:3"`
	ResultID   string    `gorm:"type:TEXT NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
