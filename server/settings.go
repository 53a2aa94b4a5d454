package server

import (
	"sync"

	"github.com/teranos/luma-ls/luma"
)

// SettingsFetcher resolves validation settings for one document.
type SettingsFetcher func(uri string) (luma.Settings, error)

// SettingsCache caches per-document validation settings. Concurrent lookups
// for the same URI share a single in-flight fetch; the whole cache is
// invalidated when the global configuration changes and individual entries
// are evicted when their document closes. A failed fetch falls back to the
// session defaults rather than failing validation.
type SettingsCache struct {
	mu       sync.Mutex
	entries  map[string]*settingsEntry
	fetch    SettingsFetcher
	fallback luma.Settings
}

// settingsEntry is either resolved (done closed) or an in-flight fetch
// other callers wait on.
type settingsEntry struct {
	done     chan struct{}
	settings luma.Settings
	err      error
}

// NewSettingsCache creates a cache whose default fetcher serves the
// fallback settings. Sessions with richer configuration sources install
// their own fetcher via SetFetcher.
func NewSettingsCache(fallback luma.Settings) *SettingsCache {
	c := &SettingsCache{
		entries:  make(map[string]*settingsEntry),
		fallback: fallback,
	}
	c.fetch = func(string) (luma.Settings, error) {
		return c.Fallback(), nil
	}
	return c
}

// SetFetcher replaces the per-document resolution function.
func (c *SettingsCache) SetFetcher(fetch SettingsFetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetch = fetch
}

// Get returns the settings for uri, fetching them once per cache lifetime.
func (c *SettingsCache) Get(uri string) luma.Settings {
	c.mu.Lock()
	entry, ok := c.entries[uri]
	if !ok {
		entry = &settingsEntry{done: make(chan struct{})}
		c.entries[uri] = entry
		fetch := c.fetch
		c.mu.Unlock()

		entry.settings, entry.err = fetch(uri)
		close(entry.done)
	} else {
		c.mu.Unlock()
		<-entry.done
	}

	if entry.err != nil {
		return c.Fallback()
	}
	return entry.settings
}

// Fallback returns the session default settings.
func (c *SettingsCache) Fallback() luma.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fallback
}

// SetFallback replaces the session default settings.
func (c *SettingsCache) SetFallback(settings luma.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = settings
}

// Invalidate drops every cached entry. In-flight fetches complete against
// their old entry; the next Get refetches.
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*settingsEntry)
}

// Evict drops the entry for one document.
func (c *SettingsCache) Evict(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}

// settingsFromPayload extracts the luma section of a
// workspace/didChangeConfiguration payload. Absent or malformed sections
// leave the fallback untouched.
func settingsFromPayload(payload any, fallback luma.Settings) (luma.Settings, bool) {
	root, ok := payload.(map[string]any)
	if !ok {
		return fallback, false
	}
	section, ok := root["luma"].(map[string]any)
	if !ok {
		return fallback, false
	}

	out := fallback
	if n, ok := numberValue(section["maxNumberOfProblems"]); ok {
		out.MaxNumberOfProblems = n
	}
	return out, true
}

func numberValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
