// README: Search session controller: owns form, request lifecycle, results, history and bookmarks.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"zekken/internal/ai"
	"zekken/internal/modules/location"
	"zekken/internal/observability"
)

var (
	ErrValidation = errors.New("invalid search")
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	// ErrSuperseded is returned by a search whose result was discarded because a newer one was submitted.
	ErrSuperseded = errors.New("search superseded by a newer submission")
)

// UserMessage returns the text to show for an error returned by Submit.
func UserMessage(err error) string {
	switch {
	case err == nil, errors.Is(err, ErrSuperseded):
		return ""
	case errors.Is(err, ErrValidation):
		return validationMessage
	default:
		return ai.UserMessage(err)
	}
}

// Listener receives every state change, in publication order. Listeners run synchronously
// and must not call back into the Service; hand the snapshot off instead.
type Listener func(State)

type Option func(*Service)

// WithIDGenerator replaces uuid.NewString for new bookmark IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

type Service struct {
	fares ai.FareProvider
	store *Store
	log   *slog.Logger
	newID func() string

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc

	// notifyMu is taken before mu is released so listeners see snapshots in publication order.
	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewService loads persisted history and bookmarks and returns an idle session.
func NewService(ctx context.Context, fares ai.FareProvider, store *Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		fares:     fares,
		store:     store,
		log:       log,
		newID:     uuid.NewString,
		listeners: make(map[int]Listener),
		state: State{
			Form:   SearchParams{Seats: MinSeats},
			Filter: FilterAll,
			Sort:   SortFareAsc,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Recent = store.LoadRecent(ctx)
	s.state.Bookmarks = store.LoadBookmarks(ctx)
	return s
}

// State returns the current snapshot including the projected view.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers l and returns a function that removes it.
func (s *Service) Subscribe(l Listener) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.listeners, id)
	}
}

// Submit runs one search to completion. It returns nil on success (including zero usable
// cabs), an error wrapping ErrValidation, an *ai.Error, or ErrSuperseded.
func (s *Service) Submit(ctx context.Context, p SearchParams) error {
	p = normalizeParams(p)
	if err := validateParams(p); err != nil {
		s.reject(p, err)
		return err
	}

	seq, reqCtx, cancel := s.begin(ctx, p)
	defer s.end(seq, cancel)

	s.log.Info("search started", "seq", seq, "pickup", p.Pickup, "dropoff", p.Dropoff, "seats", p.Seats)
	start := time.Now()
	resp, err := s.fares.FetchFareEstimates(reqCtx, p.Pickup, p.Dropoff, p.Seats)
	observability.SearchLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		return s.fail(ctx, seq, err)
	}
	return s.succeed(ctx, seq, p, resp)
}

// SubmitForm submits the current form fields.
func (s *Service) SubmitForm(ctx context.Context) error {
	return s.Submit(ctx, s.State().Form)
}

// SelectRecent fills the form from entry and searches with it.
func (s *Service) SelectRecent(ctx context.Context, entry SearchParams) error {
	s.SetForm(entry)
	return s.Submit(ctx, entry)
}

// SelectRecentAt is SelectRecent for the i-th recent search, most recent first.
func (s *Service) SelectRecentAt(ctx context.Context, i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.state.Recent) {
		s.mu.Unlock()
		return fmt.Errorf("%w: recent search %d", ErrNotFound, i)
	}
	entry := s.state.Recent[i]
	s.mu.Unlock()
	return s.SelectRecent(ctx, entry)
}

func (s *Service) reject(p SearchParams, err error) {
	observability.SearchesTotal.WithLabelValues(observability.OutcomeInvalid).Inc()
	s.log.Info("search rejected", "err", err)
	s.update(func(st *State) {
		// A rejected submission still supersedes whatever was in flight.
		s.seq++
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		st.Form = p
		st.Searching = false
		st.Error = validationMessage
	})
}

func (s *Service) begin(ctx context.Context, p SearchParams) (uint64, context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	var seq uint64
	s.update(func(st *State) {
		s.seq++
		seq = s.seq
		if s.cancel != nil {
			s.cancel()
		}
		s.cancel = cancel

		params := p
		st.Form = p
		st.Params = &params
		st.Searching = true
		st.HasSearched = true
		st.Error = ""
		st.Results = nil
		st.Route = nil
		st.Filter = FilterAll
		st.Sort = SortFareAsc
		st.FareRange = nil
		st.FareWindow = nil
	})
	return seq, reqCtx, cancel
}

// end always runs; it only publishes if the normal paths did not settle the latest search.
func (s *Service) end(seq uint64, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	if !s.state.Searching {
		s.mu.Unlock()
		return
	}
	s.state.Searching = false
	s.publishLocked()
}

func (s *Service) fail(ctx context.Context, seq uint64, err error) error {
	classified := ai.Classify(err)
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return s.superseded(seq)
	}
	s.state.Searching = false
	s.state.Error = classified.Message
	s.state.Results = nil
	s.state.Route = nil
	s.publishLocked()

	observability.SearchesTotal.WithLabelValues(observability.OutcomeFailure).Inc()
	s.log.ErrorContext(ctx, "search failed", "seq", seq, "kind", classified.Kind.String(), "err", err)
	return classified
}

func (s *Service) succeed(ctx context.Context, seq uint64, p SearchParams, resp *ai.FareResponse) error {
	cabs := Sanitize(resp.Cabs)
	route := resp.Locations

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return s.superseded(seq)
	}
	s.state.Searching = false
	s.state.Results = cabs
	s.state.Route = &route
	outcome := observability.OutcomeEmpty
	if bounds := ComputeFareRange(cabs); bounds != nil {
		window := *bounds
		s.state.FareRange = bounds
		s.state.FareWindow = &window
		s.state.Recent = pushRecent(s.state.Recent, p)
		if err := s.store.SaveRecent(ctx, s.state.Recent); err != nil {
			s.log.Warn("could not persist recent searches", "err", err)
		}
		outcome = observability.OutcomeSuccess
	}
	s.publishLocked()

	observability.SearchesTotal.WithLabelValues(outcome).Inc()
	s.log.Info("search finished", "seq", seq, "received", len(resp.Cabs), "kept", len(cabs))
	return nil
}

func (s *Service) superseded(seq uint64) error {
	observability.SearchesTotal.WithLabelValues(observability.OutcomeSuperseded).Inc()
	s.log.Info("search superseded", "seq", seq)
	return ErrSuperseded
}

// Close cancels the in-flight search, if any.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Service) SetPickup(v string) {
	s.update(func(st *State) { st.Form.Pickup = v })
}

func (s *Service) SetDropoff(v string) {
	s.update(func(st *State) { st.Form.Dropoff = v })
}

// SetSeats clamps n into [MinSeats, MaxSeats]. The seat count also drives the capacity filter.
func (s *Service) SetSeats(n int) {
	s.update(func(st *State) { st.Form.Seats = clampSeats(n) })
}

func (s *Service) SetForm(p SearchParams) {
	s.update(func(st *State) {
		st.Form = SearchParams{Pickup: p.Pickup, Dropoff: p.Dropoff, Seats: clampSeats(p.Seats)}
	})
}

// SetFilter selects a cab type; blank selects FilterAll.
func (s *Service) SetFilter(cabType string) {
	cabType = strings.TrimSpace(cabType)
	if cabType == "" {
		cabType = FilterAll
	}
	s.update(func(st *State) { st.Filter = cabType })
}

func (s *Service) SetSort(order SortOrder) error {
	if order != SortFareAsc && order != SortFareDesc {
		return fmt.Errorf("%w: unknown sort order %q", ErrBadRequest, order)
	}
	s.update(func(st *State) { st.Sort = order })
	return nil
}

// SetFareWindow clamps w into the fare range. It is a no-op until a search has produced fares.
func (s *Service) SetFareWindow(w FareRange) {
	s.update(func(st *State) {
		if st.FareRange == nil || st.FareWindow == nil {
			return
		}
		next := clampWindow(*st.FareRange, *st.FareWindow, w)
		st.FareWindow = &next
	})
}

// SetFareMin moves only the low handle.
func (s *Service) SetFareMin(v float64) {
	s.update(func(st *State) {
		if st.FareRange == nil || st.FareWindow == nil {
			return
		}
		next := clampWindow(*st.FareRange, *st.FareWindow, FareRange{Min: v, Max: st.FareWindow.Max})
		st.FareWindow = &next
	})
}

// SetFareMax moves only the high handle.
func (s *Service) SetFareMax(v float64) {
	s.update(func(st *State) {
		if st.FareRange == nil || st.FareWindow == nil {
			return
		}
		next := clampWindow(*st.FareRange, *st.FareWindow, FareRange{Min: st.FareWindow.Min, Max: v})
		st.FareWindow = &next
	})
}

// UseCurrentLocation writes the located position into the pickup field. Failures leave the
// session untouched; location.Message turns them into alert text.
func (s *Service) UseCurrentLocation(ctx context.Context, loc location.Locator) error {
	pos, err := loc.CurrentPosition(ctx)
	if err != nil {
		s.log.Info("geolocation failed", "err", err)
		return err
	}
	s.SetPickup(location.PickupLabel(pos))
	return nil
}

// AddOrUpdateBookmark renames the bookmark with an equivalent address or adds a new one at the front.
func (s *Service) AddOrUpdateBookmark(ctx context.Context, name, address string) (Bookmark, error) {
	if strings.TrimSpace(address) == "" {
		return Bookmark{}, fmt.Errorf("%w: bookmark address is required", ErrBadRequest)
	}
	var saved Bookmark
	s.update(func(st *State) {
		st.Bookmarks, saved = upsertBookmark(st.Bookmarks, name, address, s.newID)
		s.persistBookmarksLocked(ctx)
	})
	return saved, nil
}

func (s *Service) RemoveBookmark(ctx context.Context, id string) error {
	var found bool
	s.update(func(st *State) {
		var next []Bookmark
		if next, found = removeBookmark(st.Bookmarks, id); found {
			st.Bookmarks = next
			s.persistBookmarksLocked(ctx)
		}
	})
	if !found {
		return fmt.Errorf("%w: bookmark %s", ErrNotFound, id)
	}
	return nil
}

// ToggleBookmark removes the bookmark for address if there is one, otherwise adds it named
// after the address. Blank addresses are ignored. It reports whether address is now bookmarked.
func (s *Service) ToggleBookmark(ctx context.Context, address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}
	var bookmarked bool
	s.update(func(st *State) {
		if i := bookmarkIndex(st.Bookmarks, address); i >= 0 {
			st.Bookmarks, _ = removeBookmark(st.Bookmarks, st.Bookmarks[i].ID)
		} else {
			st.Bookmarks, _ = upsertBookmark(st.Bookmarks, address, address, s.newID)
			bookmarked = true
		}
		s.persistBookmarksLocked(ctx)
	})
	return bookmarked
}

func (s *Service) IsBookmarked(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(address) != "" && bookmarkIndex(s.state.Bookmarks, address) >= 0
}

// Bookmarks returns the saved places, most recently added first.
func (s *Service) Bookmarks() []Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Bookmarks)
}

func (s *Service) persistBookmarksLocked(ctx context.Context) {
	if err := s.store.SaveBookmarks(ctx, s.state.Bookmarks); err != nil {
		s.log.Warn("could not persist bookmarks", "err", err)
	}
}

// update applies fn under the lock and publishes the resulting snapshot.
func (s *Service) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	s.publishLocked()
}

// publishLocked snapshots the state, releases mu and notifies listeners in order.
func (s *Service) publishLocked() {
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, id := range sortedKeys(s.listeners) {
		s.listeners[id](snap)
	}
}

func (s *Service) snapshotLocked() State {
	snap := s.state
	snap.Results = slices.Clone(s.state.Results)
	snap.Recent = slices.Clone(s.state.Recent)
	snap.Bookmarks = slices.Clone(s.state.Bookmarks)
	snap.View = buildView(&s.state)
	return snap
}

func sortedKeys(m map[int]Listener) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
