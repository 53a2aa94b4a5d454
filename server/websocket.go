package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	glspserver "github.com/tliron/glsp/server"

	"github.com/teranos/luma-ls/config"
	"github.com/teranos/luma-ls/logger"
)

// WebSocketGateway serves the LSP protocol over WebSocket for browser-based
// editors. Each accepted connection gets its own Handler, so sessions never
// share document or settings state.
type WebSocketGateway struct {
	cfg     *config.Config
	version string
}

// NewWebSocketGateway creates a gateway from the server configuration.
func NewWebSocketGateway(cfg *config.Config, version string) *WebSocketGateway {
	return &WebSocketGateway{cfg: cfg, version: version}
}

// checkOrigin admits any origin when no allow-list is configured; local
// editor integrations typically have none.
func (g *WebSocketGateway) checkOrigin(r *http.Request) bool {
	allowed := g.cfg.Server.AllowedOrigins
	if len(allowed) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the connection and serves one LSP session on it,
// blocking until the connection closes.
func (g *WebSocketGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: g.checkOrigin}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorw("failed to upgrade WebSocket", "remote", r.RemoteAddr, "error", err)
		return
	}

	logger.Infow("LSP WebSocket session starting", "remote", r.RemoteAddr)

	handler := NewHandler(g.cfg, g.version)
	glspServer := glspserver.NewServer(handler.Protocol(), ServerName, false)
	glspServer.ServeWebSocket(conn)

	logger.Infow("LSP WebSocket session closed", "remote", r.RemoteAddr)
}

// ListenAndServe exposes the gateway at /lsp until the listener fails.
func (g *WebSocketGateway) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.Handle("/lsp", g)

	logger.Infow("serving LSP over WebSocket", "address", g.cfg.Server.Listen)
	return http.ListenAndServe(g.cfg.Server.Listen, mux)
}
