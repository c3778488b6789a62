// Package domain defines the persistence models for apps, chats, messages,
// and favorites. These types are mapped with GORM and form the core data
// layer of the app-forge backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// App represents a user-owned workspace: a directory tree of source files
// plus the chats that drive AI-assisted edits to it. The root path is
// derived deterministically from (OwnerUserID, ID) by the workspace store
// and is never accepted from a client.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - OwnerUserID: identifier of the workspace owner; indexed for retrieval.
//   - Name: human-readable workspace name.
//   - Template: optional starter template used at creation time.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type App struct {
	ID          string         `json:"id"        gorm:"type:char(36);primaryKey"`
	OwnerUserID string         `json:"owner_user_id" gorm:"type:varchar(64);not null;index:idx_owner_apps"`
	Name        string         `json:"name"      gorm:"type:varchar(255);not null;default:'New app'"`
	Template    string         `json:"template,omitempty" gorm:"type:varchar(64)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"         gorm:"index"`
}

// TableName returns the database table name for App.
func (App) TableName() string { return "apps" }

// Chat represents a conversation scoped to an app workspace. Each chat has a
// generated title and contains one or more messages exchanged between the
// user and the assistant. Ownership flows through the parent App.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - AppID: identifier of the owning app; indexed for efficient retrieval.
//   - Title: human-readable chat title (auto-generated if not provided).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Chat struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	AppID     string         `json:"app_id"    gorm:"type:char(36);not null;index:idx_app_chats"`
	Title     string         `json:"title"     gorm:"type:varchar(255);not null;default:'New chat'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`

	// App is the parent workspace. Chats are cascade-deleted if their
	// app is removed.
	App App `json:"-" gorm:"foreignKey:AppID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Message represents a single utterance within a chat. Messages are linked
// to a chat, and can be authored either by the "user" or the "assistant".
// Messages are append-only within a chat; ordering is by CreatedAt then ID.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ChatID: foreign key to the owning chat (indexed).
//   - Role: "user" or "assistant" (enforced by DB constraint).
//   - Content: full text content of the message.
//   - RequestID: optional correlation id tying a message to the stream that
//     produced it (empty for directly-authored messages).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
//   - Chat: FK association, ensures cascade delete/update.
type Message struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	ChatID    string         `json:"chat_id"   gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	Role      string         `json:"role"      gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string         `json:"content"   gorm:"type:text;not null"`
	RequestID string         `json:"request_id,omitempty" gorm:"type:char(36)"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_chat_msgs,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`

	// Chat is the parent conversation. Messages are cascade-deleted
	// if their chat is removed.
	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Favorite represents a user's toggleable "starred" marker on an app
// workspace. A user can only have one favorite row per app (enforced by a
// unique index); toggling off deletes the row rather than writing a
// negative value, unlike the teacher's signed feedback value.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - AppID: foreign key to the favorited app (unique per user).
//   - UserID: identifier of the favoriting user (unique per app).
//   - CreatedAt: timestamp managed by GORM.
//   - App: FK association, ensures cascade delete/update.
type Favorite struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	AppID     string    `json:"app_id"  gorm:"type:char(36);not null;index;uniqueIndex:ux_favorite_app_user"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;index;uniqueIndex:ux_favorite_app_user"`
	CreatedAt time.Time `json:"created_at"`

	// App is the favorited workspace. Favorites are cascade-deleted
	// if the underlying app is removed.
	App App `json:"-" gorm:"foreignKey:AppID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// User represents a registered account. Password hashes never leave this
// package's consumers unexposed; handlers and DTOs must not serialize
// PasswordHash.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Email: unique login identifier.
//   - PasswordHash: bcrypt hash, never marshaled to JSON.
//   - Name: display name shown on the auth token's decoded claims.
//   - CreatedAt: timestamp managed by GORM.
type User struct {
	ID           string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_user_email"`
	PasswordHash string    `json:"-"     gorm:"type:varchar(255);not null"`
	Name         string    `json:"name"  gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
