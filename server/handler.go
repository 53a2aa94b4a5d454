// Package server implements the Language Server Protocol surface for Luma
// scripts, wrapping the luma validation core with glsp protocol handlers.
// One Handler serves one editor session; glsp dispatches its requests and
// notifications in arrival order.
package server

import (
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/luma-ls/config"
	"github.com/teranos/luma-ls/errors"
	"github.com/teranos/luma-ls/internal/util"
	"github.com/teranos/luma-ls/logger"
	"github.com/teranos/luma-ls/luma"
)

// ServerName is reported to clients during initialize.
const ServerName = "Luma Language Server"

// Capabilities is the immutable record of client capabilities relevant to
// this server, computed once during initialize and passed around instead of
// being re-read from protocol state.
type Capabilities struct {
	Configuration    bool
	WorkspaceFolders bool
}

// Handler holds the per-session state: the open-document store and the
// settings cache. Validation itself is stateless; every pass recomputes
// diagnostics from the full document snapshot.
type Handler struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentUri]*luma.Document
	caps      Capabilities

	settings *SettingsCache

	maxOpenDocuments int
	version          string
}

// NewHandler creates a session handler with defaults from cfg.
func NewHandler(cfg *config.Config, version string) *Handler {
	return &Handler{
		documents:        make(map[protocol.DocumentUri]*luma.Document),
		settings:         NewSettingsCache(cfg.ValidatorSettings()),
		maxOpenDocuments: cfg.Server.MaxOpenDocuments,
		version:          version,
	}
}

// Protocol wires h into a glsp protocol handler.
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:                         h.Initialize,
		Initialized:                        h.Initialized,
		Shutdown:                           h.Shutdown,
		SetTrace:                           h.SetTrace,
		TextDocumentDidOpen:                h.TextDocumentDidOpen,
		TextDocumentDidChange:              h.TextDocumentDidChange,
		TextDocumentDidClose:               h.TextDocumentDidClose,
		TextDocumentCompletion:             h.TextDocumentCompletion,
		CompletionItemResolve:              h.CompletionItemResolve,
		WorkspaceDidChangeConfiguration:    h.WorkspaceDidChangeConfiguration,
		WorkspaceDidChangeWorkspaceFolders: h.WorkspaceDidChangeWorkspaceFolders,
	}
}

// ClientCapabilities returns the capabilities record computed at initialize.
func (h *Handler) ClientCapabilities() Capabilities {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.caps
}

// Initialize handles the LSP initialize request.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	caps := capabilitiesRecord(params.Capabilities)

	h.mu.Lock()
	h.caps = caps
	h.mu.Unlock()

	logger.Infow("LSP client initializing",
		"client", params.ClientInfo,
		"configuration", caps.Configuration,
		"workspace_folders", caps.WorkspaceFolders,
	)

	syncKind := protocol.TextDocumentSyncKindFull
	serverCaps := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: util.Ptr(true),
			Change:    &syncKind,
		},
		CompletionProvider: &protocol.CompletionOptions{
			ResolveProvider: util.Ptr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: serverCaps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: util.Ptr(h.version),
		},
	}, nil
}

// capabilitiesRecord reduces the client capability tree to the flags this
// server acts on.
func capabilitiesRecord(c protocol.ClientCapabilities) Capabilities {
	var caps Capabilities
	if c.Workspace != nil {
		caps.Configuration = c.Workspace.Configuration != nil && *c.Workspace.Configuration
		caps.WorkspaceFolders = c.Workspace.WorkspaceFolders != nil && *c.Workspace.WorkspaceFolders
	}
	return caps
}

// Initialized is called after the client received the initialize result.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	logger.Infow("LSP client initialized")
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	logger.Infow("LSP client shutting down")
	return nil
}

// SetTrace updates the protocol trace level.
func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// TextDocumentDidOpen stores a snapshot of the opened document and publishes
// its diagnostics.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	h.mu.Lock()
	if _, exists := h.documents[uri]; !exists && len(h.documents) >= h.maxOpenDocuments {
		count := len(h.documents)
		h.mu.Unlock()
		logger.Warnw("document store limit reached, rejecting open",
			"uri", uri,
			"open_documents", count,
			"limit", h.maxOpenDocuments,
		)
		return errors.Wrapf(errors.ErrLimitExceeded, "%d documents open", count)
	}
	h.documents[uri] = luma.NewDocument(string(uri), int32(params.TextDocument.Version), params.TextDocument.Text)
	h.mu.Unlock()

	logger.Debugw("document opened", "uri", uri, "length", len(params.TextDocument.Text))

	h.publishDiagnostics(ctx, uri)
	return nil
}

// TextDocumentDidChange replaces the stored snapshot and republishes
// diagnostics. Sync is full replacement; incremental events are ignored.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	h.mu.Lock()
	for _, change := range params.ContentChanges {
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			h.documents[uri] = luma.NewDocument(string(uri), int32(params.TextDocument.Version), whole.Text)
		}
	}
	h.mu.Unlock()

	logger.Debugw("document changed", "uri", uri, "version", params.TextDocument.Version)

	h.publishDiagnostics(ctx, uri)
	return nil
}

// TextDocumentDidClose drops the document, evicts its settings, and clears
// its diagnostics on the client.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	h.mu.Lock()
	delete(h.documents, uri)
	h.mu.Unlock()

	h.settings.Evict(string(uri))

	logger.Debugw("document closed", "uri", uri)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// DiagnosticsFor computes a fresh, full diagnostic report for an open
// document. Nothing is cached between calls.
func (h *Handler) DiagnosticsFor(uri protocol.DocumentUri) ([]protocol.Diagnostic, error) {
	h.mu.RLock()
	doc := h.documents[uri]
	h.mu.RUnlock()

	if doc == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "document %s is not open", uri)
	}

	settings := h.settings.Get(string(uri))

	diagnostics := luma.Validate(doc, settings)
	out := make([]protocol.Diagnostic, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = toProtocolDiagnostic(doc, d)
	}
	return out, nil
}

// publishDiagnostics pushes a full diagnostic replacement for uri.
func (h *Handler) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri) {
	diagnostics, err := h.DiagnosticsFor(uri)
	if err != nil {
		logger.Errorw("failed to compute diagnostics", "uri", uri, "error", err)
		return
	}

	logger.Debugw("publishing diagnostics", "uri", uri, "count", len(diagnostics))

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// toProtocolDiagnostic converts a core diagnostic, translating absolute
// UTF-16 offsets into line/character positions.
func toProtocolDiagnostic(doc *luma.Document, d luma.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	if d.Severity == luma.SeverityWarning {
		severity = protocol.DiagnosticSeverityWarning
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: toProtocolPosition(doc.PositionAt(d.Start)),
			End:   toProtocolPosition(doc.PositionAt(d.End)),
		},
		Severity: &severity,
		Source:   util.Ptr(d.Source),
		Message:  d.Message,
	}
}

func toProtocolPosition(p luma.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(p.Character),
	}
}

// TextDocumentCompletion returns the static keyword candidates. The cursor
// position does not influence the list.
func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	candidates := luma.CompletionCandidates()

	items := make([]protocol.CompletionItem, len(candidates))
	for i, c := range candidates {
		kind := protocol.CompletionItemKindKeyword
		items[i] = protocol.CompletionItem{
			Label: c.Label,
			Kind:  &kind,
			Data:  c.ID,
		}
	}
	return items, nil
}

// CompletionItemResolve attaches detail text where the core provides it and
// returns every other item unchanged.
func (h *Handler) CompletionItemResolve(ctx *glsp.Context, item *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	id, ok := completionID(item.Data)
	if !ok {
		return item, nil
	}

	resolved := luma.ResolveCompletion(luma.CompletionCandidate{Label: item.Label, ID: id})
	if resolved.Detail != "" {
		item.Detail = util.Ptr(resolved.Detail)
	}
	if resolved.Documentation != "" {
		item.Documentation = resolved.Documentation
	}
	return item, nil
}

// completionID recovers the numeric item identifier. JSON decoding turns it
// into a float64 on the resolve round trip.
func completionID(data any) (int, bool) {
	switch v := data.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// WorkspaceDidChangeConfiguration invalidates cached settings, captures
// pushed global settings when the client does not support configuration
// requests, and revalidates every open document.
func (h *Handler) WorkspaceDidChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	if settings, ok := settingsFromPayload(params.Settings, h.settings.Fallback()); ok {
		h.settings.SetFallback(settings)
	}
	h.settings.Invalidate()

	h.mu.RLock()
	uris := make([]protocol.DocumentUri, 0, len(h.documents))
	for uri := range h.documents {
		uris = append(uris, uri)
	}
	h.mu.RUnlock()

	logger.Infow("configuration changed, revalidating", "open_documents", len(uris))

	for _, uri := range uris {
		h.publishDiagnostics(ctx, uri)
	}
	return nil
}

// WorkspaceDidChangeWorkspaceFolders only records the event; documents are
// tracked per URI, not per folder.
func (h *Handler) WorkspaceDidChangeWorkspaceFolders(ctx *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	logger.Infow("workspace folders changed",
		"added", len(params.Event.Added),
		"removed", len(params.Event.Removed),
	)
	return nil
}
