// Process HTTP handlers.
//
// This file exposes the Process Supervisor's per-workspace lifecycle:
//   - POST /process/{appId}/start   (install deps and spawn the dev server)
//   - POST /process/{appId}/stop    (terminate it)
//   - GET  /process/{appId}/status  (report running/port/previewUrl)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/supervisor"
	"github.com/samansalari/seenovate-appforge/internal/workspace"
)

// ProcessHandlers exposes the Process Supervisor over HTTP.
type ProcessHandlers struct {
	DB          *gorm.DB
	Supervisor  *supervisor.Supervisor
	StoragePath string
}

// NewProcessHandlers constructs a ProcessHandlers bound to sup.
func NewProcessHandlers(db *gorm.DB, sup *supervisor.Supervisor, storagePath string) *ProcessHandlers {
	return &ProcessHandlers{DB: db, Supervisor: sup, StoragePath: storagePath}
}

// ProcessStatusResponse reports a workspace's dev-server status.
type ProcessStatusResponse struct {
	Success    bool   `json:"success,omitempty"`
	Running    bool   `json:"running"`
	Port       int    `json:"port,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// appRoot resolves appID's on-disk root, 404-ing if the caller doesn't own it.
func (h *ProcessHandlers) appRoot(c *gin.Context, appID string) (string, error) {
	app, err := repo.GetApp(c.Request.Context(), h.DB, appID, userID(c))
	if err != nil {
		return "", err
	}
	return workspace.AppRoot(h.StoragePath, userID(c), app.ID), nil
}

// owns reports whether the caller owns appID, 404-ing the response if not.
func (h *ProcessHandlers) owns(c *gin.Context, appID string) bool {
	if _, err := repo.GetApp(c.Request.Context(), h.DB, appID, userID(c)); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return false
	}
	return true
}

// Start godoc
// @ID          startProcess
// @Summary     Install dependencies (if needed) and spawn the workspace's dev server
// @Tags        Process
// @Produce     json
// @Param       id  path  string  true  "App ID"
// @Success     200  {object}  handlers.ProcessStatusResponse
// @Failure     404  {object}  handlers.ErrorResponse "App not found"
// @Failure     409  {object}  handlers.ErrorResponse "Workspace busy or not initialized"
// @Failure     500  {object}  handlers.ErrorResponse "Dependency install failed"
// @Router      /process/{id}/start [post]
func (h *ProcessHandlers) Start(c *gin.Context) {
	appID := c.Param("id")
	root, err := h.appRoot(c, appID)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}

	port, err := h.Supervisor.Start(c.Request.Context(), appID, root)
	if err != nil {
		switch {
		case errors.Is(err, supervisor.ErrNotInitialized):
			fail(c, http.StatusConflict, ErrCodeConflict, "workspace has not been initialized yet")
		case errors.Is(err, supervisor.ErrBusy):
			fail(c, http.StatusConflict, ErrCodeConflict, "workspace is already starting or stopping")
		case errors.Is(err, supervisor.ErrInstallFailed):
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "dependency install failed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not start workspace")
		}
		return
	}
	ok(c, http.StatusOK, ProcessStatusResponse{Success: true, Running: true, Port: port, PreviewURL: "/preview/" + appID})
}

// Stop godoc
// @ID          stopProcess
// @Summary     Terminate the workspace's dev server, if running
// @Tags        Process
// @Produce     json
// @Param       id  path  string  true  "App ID"
// @Success     200  {object}  map[string]bool
// @Failure     404  {object}  handlers.ErrorResponse "App not found"
// @Router      /process/{id}/stop [post]
func (h *ProcessHandlers) Stop(c *gin.Context) {
	appID := c.Param("id")
	if !h.owns(c, appID) {
		return
	}
	stopped := h.Supervisor.Stop(appID)
	ok(c, http.StatusOK, gin.H{"success": true, "stopped": stopped})
}

// Status godoc
// @ID          processStatus
// @Summary     Report the workspace's current dev-server status
// @Tags        Process
// @Produce     json
// @Param       id  path  string  true  "App ID"
// @Success     200  {object}  handlers.ProcessStatusResponse
// @Failure     404  {object}  handlers.ErrorResponse "App not found"
// @Router      /process/{id}/status [get]
func (h *ProcessHandlers) Status(c *gin.Context) {
	appID := c.Param("id")
	if !h.owns(c, appID) {
		return
	}
	status := h.Supervisor.Status(appID)
	resp := ProcessStatusResponse{Running: status.Running, Port: status.Port}
	if status.Running {
		resp.PreviewURL = "/preview/" + appID
	}
	ok(c, http.StatusOK, resp)
}
