// Package proxy implements the Preview Proxy: forwards requests under
// /preview/{workspaceId}/* to the dev server the Process Supervisor has
// leased a port to, including WebSocket upgrades for the dev server's
// live-reload channel.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/samansalari/seenovate-appforge/internal/supervisor"
)

const notRunningBody = `<!doctype html>
<html>
<head><meta http-equiv="refresh" content="3"></head>
<body>
<p>This workspace isn't running. Start it to preview the app. This page
refreshes automatically.</p>
</body>
</html>`

// Proxy forwards preview traffic for a single workspace prefix.
type Proxy struct {
	Supervisor *supervisor.Supervisor
}

// New binds a Proxy to the Process Supervisor that owns port leases.
func New(sup *supervisor.Supervisor) *Proxy {
	return &Proxy{Supervisor: sup}
}

// ServeWorkspace handles one proxied request for workspaceID, with pathPrefix
// (e.g. "/preview/<workspaceId>") already identified by the caller's router.
// Supports WebSocket upgrades transparently: httputil.ReverseProxy forwards
// 101 Switching Protocols responses and hijacks the connection itself.
func (p *Proxy) ServeWorkspace(w http.ResponseWriter, r *http.Request, workspaceID, pathPrefix string) {
	status := p.Supervisor.Status(workspaceID)
	if !status.Running {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(notRunningBody))
		return
	}

	target := &url.URL{Scheme: "http", Host: fmt.Sprintf("127.0.0.1:%d", status.Port)}

	rp := httputil.NewSingleHostReverseProxy(target)
	originalDirector := rp.Director
	rp.Director = func(req *http.Request) {
		originalDirector(req)
		req.URL.Path = strings.TrimPrefix(req.URL.Path, pathPrefix)
		if req.URL.Path == "" {
			req.URL.Path = "/"
		}
		req.Host = target.Host
	}
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error().Err(err).Str("workspaceId", workspaceID).Msg("proxy: upstream request failed")
		w.WriteHeader(http.StatusBadGateway)
	}

	rp.ServeHTTP(w, r)
}
