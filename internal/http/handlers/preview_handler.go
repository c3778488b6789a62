// Preview HTTP handler.
//
// Mounts the Preview Proxy under /preview/{workspaceId}/*, authorizing each
// request against the workspace's owner rather than relying on path opacity
// alone (see DESIGN.md's Preview proxy authorization decision).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/proxy"
	"github.com/samansalari/seenovate-appforge/internal/repo"
)

// PreviewHandlers exposes the Preview Proxy over HTTP.
type PreviewHandlers struct {
	DB    *gorm.DB
	Proxy *proxy.Proxy
}

// NewPreviewHandlers constructs a PreviewHandlers bound to p.
func NewPreviewHandlers(db *gorm.DB, p *proxy.Proxy) *PreviewHandlers {
	return &PreviewHandlers{DB: db, Proxy: p}
}

// Serve authorizes the caller against the workspace's owner, then forwards
// the request to the workspace's dev server.
// Serve godoc
// @ID          servePreview
// @Summary     Reverse-proxy a request to a workspace's running dev server
// @Tags        Preview
// @Param       workspaceId  path  string  true  "App ID"
// @Param       path         path  string  true  "Upstream path"
// @Success     200  "Proxied response body"
// @Failure     404  {object}  handlers.ErrorResponse "App not found"
// @Failure     503  {object}  string "No lease running for this workspace"
// @Failure     502  {object}  string "Upstream dev server unreachable"
// @Router      /preview/{workspaceId}/{path} [get]
func (h *PreviewHandlers) Serve(c *gin.Context) {
	workspaceID := c.Param("workspaceId")
	if _, err := repo.GetApp(c.Request.Context(), h.DB, workspaceID, userID(c)); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}
	h.Proxy.ServeWorkspace(c.Writer, c.Request, workspaceID, "/preview/"+workspaceID)
}
