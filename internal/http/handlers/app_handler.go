// App HTTP handlers.
//
// This file exposes REST endpoints for app workspaces:
//   - POST   /apps                (create, with its initial chat)
//   - GET    /apps                (list, paginated, ETag support)
//   - GET    /apps/search         (relevance search by name)
//   - GET    /apps/{id}           (fetch one)
//   - PUT    /apps/{id}           (rename)
//   - DELETE /apps/{id}           (delete, cascades to chats/messages/favorites)
//   - POST   /apps/{id}/favorite  (toggle favorited state)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/services"
)

//
// DTOs
//

// CreateAppRequest is the JSON payload for creating an app workspace.
type CreateAppRequest struct {
	// Name is the workspace's human-readable name; defaults to "New app" when blank.
	Name string `json:"name" example:"Budget Tracker"`
	// Template optionally names a starter template used to seed the workspace.
	Template string `json:"template,omitempty" example:"react"`
}

// UpdateAppRequest is the JSON payload for renaming an app workspace.
type UpdateAppRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255" example:"Budget Tracker v2"`
}

// CreateAppResponse wraps a newly created app and its initial chat.
type CreateAppResponse struct {
	App  *domain.App  `json:"app"`
	Chat *domain.Chat `json:"chat"`
}

// ListAppsResponse wraps a page of apps and pagination information.
type ListAppsResponse struct {
	Apps       []domain.App `json:"apps"`
	Pagination Pagination   `json:"pagination"`
}

// SearchAppsResponse wraps relevance-ranked app search results.
type SearchAppsResponse struct {
	Apps []domain.App `json:"apps"`
}

// ToggleFavoriteResponse reports the resulting favorited state.
type ToggleFavoriteResponse struct {
	Favorited bool `json:"favorited"`
}

//
// Handlers
//

// CreateApp godoc
// @ID          createApp
// @Summary     Create a new app workspace
// @Description Creates an app workspace along with its initial chat.
// @Tags        Apps
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateAppRequest  true  "Create app payload"
//
// @Success     201  {object}  handlers.CreateAppResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /apps [post]
func (h *Handlers) CreateApp(c *gin.Context) {
	var req CreateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	app, chat, err := h.appSvc.Create(c.Request.Context(), userID(c), req.Name, req.Template)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, CreateAppResponse{App: app, Chat: chat})
}

// GetApp godoc
// @ID          getApp
// @Summary     Fetch an app workspace
// @Tags        Apps
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "App ID (UUID)"          format(uuid)
//
// @Success     200  {object}  domain.App
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "App not found"
// @Router      /apps/{id} [get]
func (h *Handlers) GetApp(c *gin.Context) {
	appID := c.Param("id")
	if _, err := uuid.Parse(appID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app id must be a UUID")
		return
	}

	app, err := h.appSvc.Get(c.Request.Context(), userID(c), appID)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}
	ok(c, http.StatusOK, app)
}

// ListApps godoc
// @ID          listApps
// @Summary     List app workspaces (paginated)
// @Tags        Apps
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListAppsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /apps [get]
func (h *Handlers) ListApps(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	var db *gorm.DB
	if svc, ok := h.appSvc.(*services.AppService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.AppsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"apps:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.appSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListAppsResponse{
		Apps: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SearchApps godoc
// @ID          searchApps
// @Summary     Search app workspaces
// @Description Returns apps owned by the current user ranked by relevance to q.
// @Tags        Apps
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       q          query   string  true  "Search query"
//
// @Success     200  {object} handlers.SearchAppsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /apps/search [get]
func (h *Handlers) SearchApps(c *gin.Context) {
	q := c.Query("q")
	items, err := h.appSvc.Search(c.Request.Context(), userID(c), q, 20)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SearchAppsResponse{Apps: items})
}

// UpdateApp godoc
// @ID          updateApp
// @Summary     Rename an app workspace
// @Tags        Apps
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "App ID (UUID)"          format(uuid)
// @Param       body       body    handlers.UpdateAppRequest  true  "New name"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "App not found"
// @Router      /apps/{id} [put]
func (h *Handlers) UpdateApp(c *gin.Context) {
	appID := c.Param("id")
	if _, err := uuid.Parse(appID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app id must be a UUID")
		return
	}

	var req UpdateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (1–255 chars)")
		return
	}

	if err := h.appSvc.Rename(c.Request.Context(), userID(c), appID, req.Name); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}
	noContent(c)
}

// DeleteApp godoc
// @ID          deleteApp
// @Summary     Delete an app workspace
// @Description Deletes an app and everything nested under it (chats, messages, favorites).
// @Tags        Apps
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "App ID (UUID)"          format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "App not found"
// @Router      /apps/{id} [delete]
func (h *Handlers) DeleteApp(c *gin.Context) {
	appID := c.Param("id")
	if _, err := uuid.Parse(appID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app id must be a UUID")
		return
	}

	if err := h.appSvc.Delete(c.Request.Context(), userID(c), appID); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}
	noContent(c)
}

// ToggleFavorite godoc
// @ID          toggleFavorite
// @Summary     Toggle an app's favorited state
// @Tags        Apps
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "App ID (UUID)"          format(uuid)
//
// @Success     200  {object} handlers.ToggleFavoriteResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "App not found"
// @Router      /apps/{id}/favorite [post]
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	appID := c.Param("id")
	if _, err := uuid.Parse(appID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app id must be a UUID")
		return
	}

	favorited, err := h.appSvc.ToggleFavorite(c.Request.Context(), userID(c), appID)
	if err != nil {
		switch err {
		case services.ErrAppNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ToggleFavoriteResponse{Favorited: favorited})
}
