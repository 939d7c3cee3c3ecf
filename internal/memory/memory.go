// Package memory keeps the assistant's process-lifetime conversation
// state: the last few classified commands and recent tab analyses.
package memory

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"deskvox/internal/nlu"
)

const (
	DefaultCapacity = 10
	DefaultTabTTL   = 30 * time.Minute
)

type CommandRecord struct {
	Timestamp time.Time
	Intent    nlu.Intent
	Language  string
}

// TabEntry is a cached page analysis. Content is whatever the reader
// extracted from the page and is kept opaque here.
type TabEntry struct {
	Timestamp time.Time
	Analysis  string
	Content   any
}

// Conversation is safe for concurrent use.
type Conversation struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	commands []CommandRecord
	tabs     map[string]TabEntry
}

type Option func(*Conversation)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) { c.now = now }
}

func New(capacity int, ttl time.Duration, opts ...Option) *Conversation {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTabTTL
	}
	c := &Conversation{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		tabs:     make(map[string]TabEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record appends a command, evicting the oldest one once full.
func (c *Conversation) Record(in nlu.Intent, lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commands = append(c.commands, CommandRecord{Timestamp: c.now(), Intent: in, Language: lang})
	if over := len(c.commands) - c.capacity; over > 0 {
		c.commands = append(c.commands[:0:0], c.commands[over:]...)
	}
}

// Commands returns a copy of the buffer, oldest first.
func (c *Conversation) Commands() []CommandRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]CommandRecord, len(c.commands))
	copy(out, c.commands)
	return out
}

// Recent returns up to n of the newest commands, oldest first.
func (c *Conversation) Recent(n int) []CommandRecord {
	all := c.Commands()
	if n < 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// CachedAnalysis looks up a still-valid analysis for rawURL. An expired
// entry is dropped on the way out.
func (c *Conversation) CachedAnalysis(rawURL string) (TabEntry, bool) {
	key := NormalizeURL(rawURL)
	if key == "" {
		return TabEntry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.tabs[key]
	if !ok {
		return TabEntry{}, false
	}
	if c.now().Sub(e.Timestamp) > c.ttl {
		delete(c.tabs, key)
		return TabEntry{}, false
	}
	return e, true
}

func (c *Conversation) StoreAnalysis(rawURL, analysis string, content any) {
	key := NormalizeURL(rawURL)
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabs[key] = TabEntry{Timestamp: c.now(), Analysis: analysis, Content: content}
}

// CachedTabs reports how many entries are held, expired ones included.
func (c *Conversation) CachedTabs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tabs)
}

func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = nil
	c.tabs = make(map[string]TabEntry)
}

// NormalizeURL lower-cases scheme and host, drops the fragment and trims a
// trailing slash. Unparsable input is only trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return strings.TrimSuffix(u.String(), "/")
}
