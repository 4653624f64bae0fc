// README: Debounced, cancellable address suggestions merged with the saved places.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"zekken/internal/ai"
	"zekken/internal/modules/search"
	"zekken/internal/observability"
)

// DefaultDebounce is the quiet period after the last keystroke before a request is sent.
const DefaultDebounce = 500 * time.Millisecond

var ErrUnknownField = errors.New("unknown field")

type Field string

const (
	FieldPickup  Field = "pickup"
	FieldDropoff Field = "dropoff"
)

func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldPickup, FieldDropoff:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Suggestions is what the input box should offer. Saved is always the full bookmark list.
type Suggestions struct {
	Field    Field             `json:"field"`
	// Query is the trimmed input the update belongs to.
	Query    string            `json:"query"`
	Saved    []search.Bookmark `json:"saved"`
	Fetched  []string          `json:"fetched"`
	Fetching bool              `json:"fetching"`
}

type Listener func(Suggestions)

// BookmarkSource is satisfied by *search.Service.
type BookmarkSource interface {
	Bookmarks() []search.Bookmark
}

type stopper interface {
	Stop() bool
}

type Option func(*Fetcher)

func WithDebounce(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.debounce = d
		}
	}
}

type Fetcher struct {
	provider ai.SuggestionProvider
	saved    BookmarkSource
	listener Listener
	log      *slog.Logger
	debounce time.Duration
	after    func(time.Duration, func()) stopper

	ctx  context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	emitMu   sync.Mutex
	gen      uint64
	timer    stopper
	inflight context.CancelFunc
	closed   bool
}

func NewFetcher(provider ai.SuggestionProvider, saved BookmarkSource, listener Listener, log *slog.Logger, opts ...Option) *Fetcher {
	ctx, stop := context.WithCancel(context.Background())
	f := &Fetcher{
		provider: provider,
		saved:    saved,
		listener: listener,
		log:      log,
		debounce: DefaultDebounce,
		after: func(d time.Duration, fn func()) stopper {
			return time.AfterFunc(d, fn)
		},
		ctx:  ctx,
		stop: stop,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OnQueryChange clears the current suggestions and, for queries longer than two characters,
// schedules a fetch once typing pauses. Each call supersedes the previous one.
func (f *Fetcher) OnQueryChange(text string, field Field) {
	saved := f.saved.Bookmarks()
	query := strings.TrimSpace(text)
	fire := len([]rune(query)) >= ai.MinSuggestionQuery

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.gen++
	gen := f.gen
	f.resetLocked()
	if fire {
		f.timer = f.after(f.debounce, func() { f.fetch(gen, field, query) })
	}
	f.emitLocked(Suggestions{Field: field, Query: query, Saved: saved, Fetched: []string{}, Fetching: fire})
}

func (f *Fetcher) fetch(gen uint64, field Field, query string) {
	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(f.ctx)
	f.timer = nil
	f.inflight = cancel
	f.mu.Unlock()

	results, err := f.provider.FetchLocationSuggestions(ctx, query)
	cancel()
	saved := f.saved.Bookmarks()

	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		observability.SuggestionRequestsTotal.WithLabelValues(observability.OutcomeSuperseded).Inc()
		return
	}
	f.inflight = nil
	if err != nil {
		observability.SuggestionRequestsTotal.WithLabelValues(observability.OutcomeFailure).Inc()
		f.log.Warn("suggestion request failed", "field", field, "err", err)
		results = nil
	} else {
		observability.SuggestionRequestsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	}
	if results == nil {
		results = []string{}
	}
	f.emitLocked(Suggestions{Field: field, Query: query, Saved: saved, Fetched: results})
}

// Close cancels the pending timer and any request in flight. Later keystrokes are ignored.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.resetLocked()
	f.stop()
}

func (f *Fetcher) resetLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.inflight != nil {
		f.inflight()
		f.inflight = nil
	}
}

// emitLocked releases mu and delivers s; emitMu keeps deliveries in generation order.
func (f *Fetcher) emitLocked(s Suggestions) {
	f.emitMu.Lock()
	f.mu.Unlock()
	defer f.emitMu.Unlock()
	if f.listener != nil {
		f.listener(s)
	}
}
