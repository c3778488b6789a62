// Chat HTTP handlers.
//
// This file exposes REST endpoints for chat resources scoped to an app
// workspace:
//   - POST   /chats/app/{appId}           (create)
//   - GET    /chats/app/{appId}           (list, paginated, ETag support)
//   - GET    /chats/app/{appId}/search    (relevance search by title)
//   - PUT    /chats/{id}/title             (rename)
//   - DELETE /chats/{id}                   (delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/services"
	"github.com/samansalari/seenovate-appforge/internal/utils"
)

//
// Service contracts (context-aware)
//

// AppService defines app workspace lifecycle operations consumed by HTTP handlers.
type AppService interface {
	// Create provisions a new app workspace (with its initial chat) owned by userID.
	Create(ctx context.Context, ownerUserID, name, template string) (*domain.App, *domain.Chat, error)
	// Get fetches a single app owned by ownerUserID.
	Get(ctx context.Context, ownerUserID, appID string) (*domain.App, error)
	// ListPage returns a page of apps owned by ownerUserID.
	ListPage(ctx context.Context, ownerUserID string, page, pageSize int) ([]domain.App, int64, error)
	// Rename updates an app's name.
	Rename(ctx context.Context, ownerUserID, appID, name string) error
	// Delete removes an app and everything nested under it.
	Delete(ctx context.Context, ownerUserID, appID string) error
	// ToggleFavorite flips the favorited state of an app, returning the new state.
	ToggleFavorite(ctx context.Context, ownerUserID, appID string) (bool, error)
	// Search returns apps owned by ownerUserID ranked by relevance to q.
	Search(ctx context.Context, ownerUserID, q string, limit int) ([]domain.App, error)
}

// ChatService defines chat lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	// Create starts a new chat under appID with an optional title.
	Create(ctx context.Context, appID, title string) (*domain.Chat, error)
	// List returns all chats for an app (legacy, non-paginated).
	List(ctx context.Context, appID string) ([]domain.Chat, error)
	// ListPage returns a page of chats for an app and the total count.
	ListPage(ctx context.Context, appID string, page, pageSize int) ([]domain.Chat, int64, error)
	// UpdateTitle renames a chat that belongs to userID (via its app).
	UpdateTitle(ctx context.Context, userID, chatID, title string) error
	// Delete removes a chat that belongs to userID (via its app).
	Delete(ctx context.Context, userID, chatID string) error
	// Search returns chats under appID ranked by relevance to q.
	Search(ctx context.Context, appID, q string, limit int) ([]domain.Chat, error)
}

// MessageService defines message retrieval and persistence operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MessageService interface {
	// AppendUserMessage appends a user prompt to a chat, validating and
	// auto-titling as needed.
	AppendUserMessage(ctx context.Context, userID, chatID, prompt string) (*domain.Message, error)
	// AppendAssistantMessage persists an assistant reply tied to requestID.
	AppendAssistantMessage(ctx context.Context, chatID, content, requestID string) (*domain.Message, error)
	// PrepareRedo deletes the most recent assistant message so a fresh one can replace it.
	PrepareRedo(ctx context.Context, chatID string) error
	// ListPage returns a page of messages within a chat and the total count.
	ListPage(ctx context.Context, chatID string, page, pageSize int) ([]domain.Message, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for apps, chats, and messages.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	appSvc  AppService
	chatSvc ChatService
	msgSvc  MessageService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(appSvc AppService, chatSvc ChatService, msgSvc MessageService) *Handlers {
	return &Handlers{appSvc: appSvc, chatSvc: chatSvc, msgSvc: msgSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// auth middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateChatRequest is the JSON payload for creating a chat.
type CreateChatRequest struct {
	// Title optionally sets the chat title; a default is used when empty.
	Title string `json:"title" example:"Refactor the auth module"`
}

// UpdateChatTitleRequest is the JSON payload for updating a chat title.
type UpdateChatTitleRequest struct {
	// Title is the new chat name (1–255 chars).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Rate limiter bugfix"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListChatsResponse wraps a page of chats and pagination information.
type ListChatsResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

// SearchChatsResponse wraps relevance-ranked chat search results.
type SearchChatsResponse struct {
	Chats []domain.Chat `json:"chats"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// CreateChat godoc
// @ID          createChat
// @Summary     Create a new chat under an app
// @Description Creates a chat under the given app and returns the chat resource.
// @Tags        Chats
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       appId      path    string  true  "App ID (UUID)"          format(uuid)
// @Param       body       body    handlers.CreateChatRequest  true  "Create chat payload"
//
// @Success     201  {object}  domain.Chat
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "App not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats/app/{appId} [post]
func (h *Handlers) CreateChat(c *gin.Context) {
	appID := c.Param("appId")
	if _, err := h.appSvc.Get(c.Request.Context(), userID(c), appID); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}

	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	title := strings.TrimSpace(req.Title)

	ch, err := h.chatSvc.Create(c.Request.Context(), appID, title)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, ch)
}

// ListChats godoc
// @ID          listChats
// @Summary     List chats in an app (paginated)
// @Description Returns a page of an app's chats. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chats
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       appId          path    string  true  "App ID (UUID)"                format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListChatsResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "App not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/app/{appId} [get]
func (h *Handlers) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	appID := c.Param("appId")

	if _, err := h.appSvc.Get(ctx, uid, appID); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}

	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.chatSvc.(*services.ChatService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ChatsStats(ctx, db, appID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"chats:%s:%d:%d"`, appID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.chatSvc.ListPage(ctx, appID, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListChatsResponse{
		Chats: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// SearchChats godoc
// @ID          searchChats
// @Summary     Search chats in an app
// @Description Returns chats under the given app ranked by relevance to q.
// @Tags        Chats
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       appId      path    string  true  "App ID (UUID)"          format(uuid)
// @Param       q          query   string  true  "Search query"
//
// @Success     200  {object} handlers.SearchChatsResponse
// @Failure     404  {object} handlers.ErrorResponse "App not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/app/{appId}/search [get]
func (h *Handlers) SearchChats(c *gin.Context) {
	ctx := c.Request.Context()
	appID := c.Param("appId")

	if _, err := h.appSvc.Get(ctx, userID(c), appID); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}

	q := c.Query("q")
	items, err := h.chatSvc.Search(ctx, appID, q, 20)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SearchChatsResponse{Chats: items})
}

// UpdateChatTitle godoc
// @ID          updateChatTitle
// @Summary     Rename a chat
// @Description Updates the title of a chat owned by the current user.
// @Tags        Chats
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"         example(user123)
// @Param       id         path    string  true  "Chat ID (UUID)"                format(uuid)
// @Param       body       body    handlers.UpdateChatTitleRequest  true  "New title"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/{id}/title [put]
func (h *Handlers) UpdateChatTitle(c *gin.Context) {
	chatID := c.Param("id")
	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}

	var req UpdateChatTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	if err := h.chatSvc.UpdateTitle(c.Request.Context(), userID(c), chatID, req.Title); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
		return
	}

	noContent(c)
}

// DeleteChat godoc
// @ID          deleteChat
// @Summary     Delete a chat
// @Description Deletes a chat (and its messages) owned by the current user.
// @Tags        Chats
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Chat ID (UUID)"         format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Router      /chats/{id} [delete]
func (h *Handlers) DeleteChat(c *gin.Context) {
	chatID := c.Param("id")
	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}

	if err := h.chatSvc.Delete(c.Request.Context(), userID(c), chatID); err != nil {
		switch err {
		case services.ErrChatNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	noContent(c)
}
