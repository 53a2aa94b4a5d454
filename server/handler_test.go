package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/luma-ls/config"
	"github.com/teranos/luma-ls/errors"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.MaxNumberOfProblems = 1000
	cfg.Server.MaxOpenDocuments = 100
	return NewHandler(cfg, "test")
}

// mockContext returns a minimal glsp context for handlers that notify.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// capturingContext captures published diagnostics.
func capturingContext() (*glsp.Context, *[]protocol.PublishDiagnosticsParams) {
	var captured []protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				captured = append(captured, params.(protocol.PublishDiagnosticsParams))
			}
		},
	}
	return ctx, &captured
}

func open(t *testing.T, h *Handler, ctx *glsp.Context, uri, text string) {
	t.Helper()
	err := h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        protocol.DocumentUri(uri),
			LanguageID: "luma",
			Version:    1,
			Text:       text,
		},
	})
	require.NoError(t, err)
}

// --- Initialize ---

func initializeParams(t *testing.T, raw string) *protocol.InitializeParams {
	t.Helper()
	var params protocol.InitializeParams
	require.NoError(t, json.Unmarshal([]byte(raw), &params))
	return &params
}

func TestInitialize_CapabilitiesRecord(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Capabilities
	}{
		{
			"full support",
			`{"capabilities":{"workspace":{"configuration":true,"workspaceFolders":true}}}`,
			Capabilities{Configuration: true, WorkspaceFolders: true},
		},
		{
			"configuration only",
			`{"capabilities":{"workspace":{"configuration":true}}}`,
			Capabilities{Configuration: true},
		},
		{
			"no workspace section",
			`{"capabilities":{}}`,
			Capabilities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler(t)
			_, err := h.Initialize(mockContext(), initializeParams(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.ClientCapabilities())
		})
	}
}

func TestInitialize_ServerCapabilities(t *testing.T) {
	h := testHandler(t)
	result, err := h.Initialize(mockContext(), initializeParams(t,
		`{"capabilities":{"workspace":{"workspaceFolders":true}}}`))
	require.NoError(t, err)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok, "initialize should return InitializeResult, got %T", result)

	require.NotNil(t, initResult.Capabilities.CompletionProvider)
	require.NotNil(t, initResult.Capabilities.CompletionProvider.ResolveProvider)
	assert.True(t, *initResult.Capabilities.CompletionProvider.ResolveProvider)

	syncOpts, ok := initResult.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOpts.Change)

	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, ServerName, initResult.ServerInfo.Name)
}

// --- Diagnostics ---

func TestDidOpen_PublishesDiagnostics(t *testing.T) {
	h := testHandler(t)
	ctx, captured := capturingContext()

	open(t, h, ctx, "file:///game.luma", "charakters\r\n")

	require.Len(t, *captured, 1)
	pub := (*captured)[0]
	assert.Equal(t, protocol.DocumentUri("file:///game.luma"), pub.URI)
	require.Len(t, pub.Diagnostics, 1)

	d := pub.Diagnostics[0]
	assert.Equal(t, "Cannot find 'charakters'. Did you mean 'characters'?", d.Message)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, "LUMA", *d.Source)
	assert.Equal(t, protocol.UInteger(0), d.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(0), d.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(10), d.Range.End.Character)
}

func TestDidOpen_ValidTextPublishesEmptyReport(t *testing.T) {
	h := testHandler(t)
	ctx, captured := capturingContext()

	open(t, h, ctx, "file:///game.luma", "project MyGame;\r\n")

	require.Len(t, *captured, 1)
	assert.Empty(t, (*captured)[0].Diagnostics)
}

func TestDidChange_Revalidates(t *testing.T) {
	h := testHandler(t)
	ctx, captured := capturingContext()

	open(t, h, ctx, "file:///game.luma", "project MyGame;\r\n")

	err := h.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///game.luma"},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "project MyGame\r\n"},
		},
	})
	require.NoError(t, err)

	require.Len(t, *captured, 2, "open and change should each publish")
	diags := (*captured)[1].Diagnostics
	require.Len(t, diags, 1)
	assert.Equal(t, "Expected ; after project name.", diags[0].Message)
}

func TestDiagnosticPositions_SecondLine(t *testing.T) {
	h := testHandler(t)
	open(t, h, mockContext(), "file:///game.luma", "project MyGame;\r\nbanana\r\n")

	diags, err := h.DiagnosticsFor("file:///game.luma")
	require.NoError(t, err)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Contains(t, d.Message, "Cannot find 'banana'.")
	assert.Equal(t, protocol.UInteger(1), d.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(0), d.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(6), d.Range.End.Character)
}

func TestDiagnosticsFor_FreshPerRequest(t *testing.T) {
	h := testHandler(t)
	open(t, h, mockContext(), "file:///game.luma", "xx\r\n")

	first, err := h.DiagnosticsFor("file:///game.luma")
	require.NoError(t, err)
	second, err := h.DiagnosticsFor("file:///game.luma")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDiagnosticsFor_UnknownDocument(t *testing.T) {
	h := testHandler(t)
	_, err := h.DiagnosticsFor("file:///missing.luma")
	assert.True(t, errors.IsNotFound(err))
}

func TestDidClose_ClearsDiagnosticsAndState(t *testing.T) {
	h := testHandler(t)
	open(t, h, mockContext(), "file:///game.luma", "charakters\r\n")

	ctx, captured := capturingContext()
	err := h.TextDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///game.luma"},
	})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	assert.Empty(t, (*captured)[0].Diagnostics, "close should clear diagnostics")

	_, err = h.DiagnosticsFor("file:///game.luma")
	assert.True(t, errors.IsNotFound(err), "document should be gone after close")
}

func TestDidOpen_DocumentLimit(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.MaxNumberOfProblems = 1000
	cfg.Server.MaxOpenDocuments = 1
	h := NewHandler(cfg, "test")

	open(t, h, mockContext(), "file:///one.luma", "")

	err := h.TextDocumentDidOpen(mockContext(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///two.luma", Version: 1},
	})
	assert.True(t, errors.IsLimitExceeded(err))

	// Re-opening an already open document is not a new slot.
	open(t, h, mockContext(), "file:///one.luma", "xx\r\n")
}

// --- Completion ---

func TestCompletion_StaticList(t *testing.T) {
	h := testHandler(t)
	result, err := h.TextDocumentCompletion(mockContext(), &protocol.CompletionParams{})
	require.NoError(t, err)

	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "completion should return []CompletionItem, got %T", result)
	require.Len(t, items, 2)

	assert.Equal(t, "characters", items[0].Label)
	assert.Equal(t, 1, items[0].Data)
	assert.Equal(t, "project", items[1].Label)
	assert.Equal(t, 2, items[1].Data)
	for _, item := range items {
		assert.Equal(t, protocol.CompletionItemKindKeyword, *item.Kind)
	}
}

func TestCompletionResolve(t *testing.T) {
	h := testHandler(t)

	t.Run("characters gains detail", func(t *testing.T) {
		// Data arrives as float64 after the JSON round trip.
		item := &protocol.CompletionItem{Label: "characters", Data: float64(1)}
		resolved, err := h.CompletionItemResolve(mockContext(), item)
		require.NoError(t, err)
		require.NotNil(t, resolved.Detail)
		assert.NotEmpty(t, *resolved.Detail)
		assert.NotNil(t, resolved.Documentation)
	})

	t.Run("project unchanged", func(t *testing.T) {
		item := &protocol.CompletionItem{Label: "project", Data: float64(2)}
		resolved, err := h.CompletionItemResolve(mockContext(), item)
		require.NoError(t, err)
		assert.Nil(t, resolved.Detail)
	})

	t.Run("missing data unchanged", func(t *testing.T) {
		item := &protocol.CompletionItem{Label: "stray"}
		resolved, err := h.CompletionItemResolve(mockContext(), item)
		require.NoError(t, err)
		assert.Nil(t, resolved.Detail)
	})
}

// --- Configuration ---

func TestDidChangeConfiguration_PushedSettings(t *testing.T) {
	h := testHandler(t)
	ctx, captured := capturingContext()

	open(t, h, ctx, "file:///game.luma", "xx\r\n")
	require.Len(t, *captured, 1)

	err := h.WorkspaceDidChangeConfiguration(ctx, &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{
			"luma": map[string]any{"maxNumberOfProblems": float64(25)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 25, h.settings.Fallback().MaxNumberOfProblems)
	assert.Equal(t, 25, h.settings.Get("file:///game.luma").MaxNumberOfProblems,
		"cache should refetch after invalidation")
	require.Len(t, *captured, 2, "open documents should be revalidated")
}

func TestDidChangeConfiguration_MalformedPayload(t *testing.T) {
	h := testHandler(t)

	err := h.WorkspaceDidChangeConfiguration(mockContext(), &protocol.DidChangeConfigurationParams{
		Settings: "not a map",
	})
	require.NoError(t, err)
	assert.Equal(t, 1000, h.settings.Fallback().MaxNumberOfProblems, "fallback unchanged")
}
