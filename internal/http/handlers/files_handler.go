// File-tree HTTP handlers.
//
// This file exposes the Workspace Store directly to clients for browsing and
// editing a workspace's file tree:
//   - GET    /files/app/{id}?recursive=bool  (list, optionally recursive)
//   - GET    /files/app/{id}/{path}          (read a file)
//   - PUT    /files/app/{id}/{path}          (write a file)
//   - DELETE /files/app/{id}/{path}          (remove a file or directory)
//
// Every path argument reaches the Workspace Store, which rejects any
// resolution escaping the workspace root; this handler never touches the
// filesystem directly.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/workspace"
)

// FileHandlers exposes a workspace's file tree over HTTP.
type FileHandlers struct {
	DB          *gorm.DB
	StoragePath string
}

// NewFileHandlers constructs a FileHandlers rooted at storagePath.
func NewFileHandlers(db *gorm.DB, storagePath string) *FileHandlers {
	return &FileHandlers{DB: db, StoragePath: storagePath}
}

// FileEntry is the JSON projection of a workspace.Entry.
type FileEntry struct {
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
	Size  int64  `json:"size"`
}

func (h *FileHandlers) store(c *gin.Context, appID string) (*workspace.Store, error) {
	app, err := repo.GetApp(c.Request.Context(), h.DB, appID, userID(c))
	if err != nil {
		return nil, err
	}
	return workspace.New(workspace.AppRoot(h.StoragePath, userID(c), app.ID))
}

func relPath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

func failForWorkspaceErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "file not found")
	case errors.Is(err, workspace.ErrForbiddenPath):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid path")
	case errors.Is(err, workspace.ErrAccessDenied):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "access denied")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "file operation failed")
	}
}

// List godoc
// @ID          listFiles
// @Summary     List a workspace's file tree
// @Tags        Files
// @Produce     json
// @Param       id         path    string  true  "App ID"
// @Param       recursive  query   bool    false "Walk the whole tree instead of one level"
// @Success     200  {object}  map[string][]handlers.FileEntry
// @Failure     404  {object}  handlers.ErrorResponse "App not found"
// @Router      /files/app/{id} [get]
func (h *FileHandlers) List(c *gin.Context) {
	st, err := h.store(c, c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}

	recursive, _ := strconv.ParseBool(c.Query("recursive"))
	var entries []workspace.Entry
	if recursive {
		entries, err = st.ListRecursive("", -1)
	} else {
		entries, err = st.List("")
	}
	if err != nil {
		failForWorkspaceErr(c, err)
		return
	}

	files := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		files = append(files, FileEntry{Path: e.Path, IsDir: e.IsDir, Size: e.Size})
	}
	ok(c, http.StatusOK, gin.H{"files": files})
}

// Read godoc
// @ID          readFile
// @Summary     Read a file, or list a directory, at a workspace path
// @Tags        Files
// @Produce     json
// @Param       id    path  string  true  "App ID"
// @Param       path  path  string  true  "Workspace-relative path"
// @Success     200  {object}  map[string]string "{content} for a file"
// @Failure     404  {object}  handlers.ErrorResponse "App or path not found"
// @Router      /files/app/{id}/{path} [get]
func (h *FileHandlers) Read(c *gin.Context) {
	st, err := h.store(c, c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}

	path := relPath(c)
	entry, err := st.Stat(path)
	if err != nil {
		failForWorkspaceErr(c, err)
		return
	}
	if entry.IsDir {
		entries, err := st.List(path)
		if err != nil {
			failForWorkspaceErr(c, err)
			return
		}
		files := make([]FileEntry, 0, len(entries))
		for _, e := range entries {
			files = append(files, FileEntry{Path: e.Path, IsDir: e.IsDir, Size: e.Size})
		}
		ok(c, http.StatusOK, gin.H{"files": files})
		return
	}

	content, err := st.Read(path)
	if err != nil {
		failForWorkspaceErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"content": string(content)})
}

// Write godoc
// @ID          writeFile
// @Summary     Create or overwrite a file at a workspace path
// @Tags        Files
// @Accept      plain
// @Produce     json
// @Param       id    path  string  true  "App ID"
// @Param       path  path  string  true  "Workspace-relative path"
// @Success     200  {object}  map[string]bool
// @Failure     400  {object}  handlers.ErrorResponse "Invalid path"
// @Failure     404  {object}  handlers.ErrorResponse "App not found"
// @Router      /files/app/{id}/{path} [put]
func (h *FileHandlers) Write(c *gin.Context) {
	st, err := h.store(c, c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read request body")
		return
	}
	if err := st.Write(relPath(c), body); err != nil {
		failForWorkspaceErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true})
}

// Delete godoc
// @ID          deleteFile
// @Summary     Remove a file or directory from the workspace
// @Tags        Files
// @Produce     json
// @Param       id    path  string  true  "App ID"
// @Param       path  path  string  true  "Workspace-relative path"
// @Success     200  {object}  map[string]bool
// @Failure     404  {object}  handlers.ErrorResponse "App not found"
// @Router      /files/app/{id}/{path} [delete]
func (h *FileHandlers) Delete(c *gin.Context) {
	st, err := h.store(c, c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found")
		return
	}
	if err := st.Delete(relPath(c)); err != nil {
		failForWorkspaceErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true})
}
