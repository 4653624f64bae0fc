package suggest

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"zekken/internal/logging"
	"zekken/internal/modules/search"
)

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) after(d time.Duration, fn func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) last(t *testing.T) *fakeTimer {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		t.Fatal("no timer scheduled")
	}
	return c.timers[len(c.timers)-1]
}

type suggestFunc func(ctx context.Context, query string) ([]string, error)

func (f suggestFunc) FetchLocationSuggestions(ctx context.Context, query string) ([]string, error) {
	return f(ctx, query)
}

type savedPlaces []search.Bookmark

func (s savedPlaces) Bookmarks() []search.Bookmark { return s }

type recorder struct {
	mu  sync.Mutex
	got []Suggestions
}

func (r *recorder) listen(s Suggestions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, s)
}

func (r *recorder) all() []Suggestions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Suggestions(nil), r.got...)
}

var home = search.Bookmark{ID: "1", Name: "Home", Address: "123 Main St"}

func newTestFetcher(provider suggestFunc) (*Fetcher, *fakeClock, *recorder) {
	clock := &fakeClock{}
	rec := &recorder{}
	f := NewFetcher(provider, savedPlaces{home}, rec.listen, logging.Discard())
	f.after = clock.after
	return f, clock, rec
}

func TestShortQueryDoesNotFetch(t *testing.T) {
	called := false
	f, clock, rec := newTestFetcher(func(context.Context, string) ([]string, error) {
		called = true
		return nil, nil
	})
	defer f.Close()

	f.OnQueryChange("  ab  ", FieldPickup)

	if len(clock.timers) != 0 || called {
		t.Fatal("queries of two characters or fewer must not be sent")
	}
	got := rec.all()
	if len(got) != 1 || got[0].Fetching || !reflect.DeepEqual(got[0].Saved, []search.Bookmark{home}) {
		t.Fatalf("unexpected update %+v", got)
	}
}

func TestDebounceSendsOnlyLastQuery(t *testing.T) {
	var queries []string
	f, clock, rec := newTestFetcher(func(_ context.Context, q string) ([]string, error) {
		queries = append(queries, q)
		return []string{"Gateway Of India, Mumbai"}, nil
	})
	defer f.Close()

	f.OnQueryChange("Gat", FieldDropoff)
	f.OnQueryChange("Gate", FieldDropoff)
	f.OnQueryChange(" Gateway ", FieldDropoff)

	if len(clock.timers) != 3 || !clock.timers[0].stopped || !clock.timers[1].stopped {
		t.Fatal("each keystroke must cancel the pending timer")
	}
	if clock.last(t).d != DefaultDebounce {
		t.Fatalf("debounce = %v", clock.last(t).d)
	}

	// A timer that fires after being superseded does nothing.
	clock.timers[0].fn()
	clock.last(t).fn()

	if !reflect.DeepEqual(queries, []string{"Gateway"}) {
		t.Fatalf("provider queries = %v", queries)
	}
	got := rec.all()
	final := got[len(got)-1]
	if final.Fetching || final.Field != FieldDropoff || len(final.Fetched) != 1 || len(final.Saved) != 1 {
		t.Fatalf("final update %+v", final)
	}
	if keystroke := got[len(got)-2]; keystroke.Query != "Gateway" || final.Query != keystroke.Query {
		t.Fatalf("keystroke query %q and result query %q must both be the trimmed input", keystroke.Query, final.Query)
	}
	if !got[0].Fetching || len(got[0].Fetched) != 0 {
		t.Fatalf("keystroke update should clear results and show fetching: %+v", got[0])
	}
}

func TestProviderFailureYieldsEmptyList(t *testing.T) {
	f, clock, rec := newTestFetcher(func(context.Context, string) ([]string, error) {
		return nil, errors.New("quota exceeded")
	})
	defer f.Close()

	f.OnQueryChange("Bandra", FieldPickup)
	clock.last(t).fn()

	got := rec.all()
	final := got[len(got)-1]
	if final.Fetching || final.Fetched == nil || len(final.Fetched) != 0 {
		t.Fatalf("expected an empty, settled list, got %+v", final)
	}
}

func TestNewKeystrokeDropsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f, clock, rec := newTestFetcher(func(ctx context.Context, q string) ([]string, error) {
		if q == "Gate" {
			close(started)
			<-release
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	})
	defer f.Close()

	f.OnQueryChange("Gate", FieldPickup)
	first := clock.last(t)
	done := make(chan struct{})
	go func() {
		first.fn()
		close(done)
	}()
	<-started

	f.OnQueryChange("Gateway", FieldPickup)
	close(release)
	<-done
	clock.last(t).fn()

	for _, s := range rec.all() {
		if len(s.Fetched) == 1 && s.Fetched[0] == "stale" {
			t.Fatal("superseded result was delivered")
		}
	}
	got := rec.all()
	if final := got[len(got)-1]; len(final.Fetched) != 1 || final.Fetched[0] != "fresh" {
		t.Fatalf("final update %+v", final)
	}
}

func TestNewKeystrokeCancelsInFlightRequest(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	f, clock, _ := newTestFetcher(func(ctx context.Context, q string) ([]string, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})
	defer f.Close()

	f.OnQueryChange("Powai", FieldPickup)
	pending := clock.last(t)
	go pending.fn()
	<-started

	f.OnQueryChange("Po", FieldPickup)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight request was not cancelled")
	}
}

func TestCloseStopsEverything(t *testing.T) {
	f, clock, rec := newTestFetcher(func(context.Context, string) ([]string, error) {
		return []string{"x"}, nil
	})

	f.OnQueryChange("Colaba", FieldPickup)
	pending := clock.last(t)
	f.Close()
	f.Close()

	if !pending.stopped {
		t.Fatal("Close must stop the pending timer")
	}
	pending.fn()
	f.OnQueryChange("Colaba Causeway", FieldPickup)

	if got := rec.all(); len(got) != 1 {
		t.Fatalf("expected no updates after Close, got %+v", got)
	}
}

func TestRealTimerDebounce(t *testing.T) {
	done := make(chan Suggestions, 1)
	f := NewFetcher(suggestFunc(func(_ context.Context, q string) ([]string, error) {
		return []string{q + ", India"}, nil
	}), savedPlaces{}, func(s Suggestions) {
		if !s.Fetching {
			done <- s
		}
	}, logging.Discard(), WithDebounce(10*time.Millisecond))
	defer f.Close()

	f.OnQueryChange("Juhu", FieldDropoff)
	select {
	case s := <-done:
		if len(s.Fetched) != 1 || s.Fetched[0] != "Juhu, India" {
			t.Fatalf("unexpected suggestions %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced fetch never ran")
	}
}

func TestParseField(t *testing.T) {
	if f, err := ParseField(" Pickup "); err != nil || f != FieldPickup {
		t.Fatalf("ParseField(pickup) = %q, %v", f, err)
	}
	if _, err := ParseField("via"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}
