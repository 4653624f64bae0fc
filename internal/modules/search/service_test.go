// README: Search session tests (lifecycle, races, history, bookmarks, view state).
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"zekken/internal/ai"
	"zekken/internal/kv"
	"zekken/internal/logging"
	"zekken/internal/modules/location"
	"zekken/internal/types"
)

type fareFunc func(ctx context.Context, pickup, dropoff string, seats int) (*ai.FareResponse, error)

type fakeFares struct {
	mu    sync.Mutex
	calls []SearchParams
	fn    fareFunc
}

func (f *fakeFares) FetchFareEstimates(ctx context.Context, pickup, dropoff string, seats int) (*ai.FareResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, SearchParams{Pickup: pickup, Dropoff: dropoff, Seats: seats})
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, pickup, dropoff, seats)
}

func (f *fakeFares) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var testRoute = types.Route{
	Pickup:  types.Coordinates{Latitude: 19.0896, Longitude: 72.8656},
	Dropoff: types.Coordinates{Latitude: 18.9220, Longitude: 72.8347},
}

func fareResponse(t *testing.T, cabs ...CabOption) *ai.FareResponse {
	t.Helper()
	resp := &ai.FareResponse{Locations: testRoute}
	for _, c := range cabs {
		b, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		resp.Cabs = append(resp.Cabs, b)
	}
	return resp
}

func respondWith(resp *ai.FareResponse) fareFunc {
	return func(context.Context, string, string, int) (*ai.FareResponse, error) { return resp, nil }
}

func newTestService(t *testing.T, fares *fakeFares) (*Service, kv.Store) {
	t.Helper()
	mem := kv.NewMemory()
	svc := NewService(context.Background(), fares, NewStore(mem, logging.Discard()), logging.Discard(),
		WithIDGenerator(sequentialIDs()))
	t.Cleanup(svc.Close)
	return svc, mem
}

func mustSubmit(t *testing.T, svc *Service, p SearchParams) {
	t.Helper()
	if err := svc.Submit(context.Background(), p); err != nil {
		t.Fatalf("submit %+v: %v", p, err)
	}
}

var airport = SearchParams{Pickup: "Airport", Dropoff: "Downtown", Seats: 2}

func TestSubmitAirportScenario(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, _ := newTestService(t, fares)

	mustSubmit(t, svc, airport)
	st := svc.State()

	if st.Searching || st.Error != "" || !st.HasSearched {
		t.Fatalf("unexpected lifecycle state %+v", st)
	}
	if *st.FareRange != (FareRange{Min: 89, Max: 691}) || *st.FareWindow != *st.FareRange {
		t.Fatalf("fare range %+v window %+v", st.FareRange, st.FareWindow)
	}
	if st.View.TotalCount != 10 || len(st.View.Cabs) != 8 {
		t.Fatalf("expected 8 of 10 cabs visible, got %d of %d", len(st.View.Cabs), st.View.TotalCount)
	}
	for i := 1; i < len(st.View.Cabs); i++ {
		if st.View.Cabs[i-1].Fare > st.View.Cabs[i].Fare {
			t.Fatalf("view not ascending: %v", fareList(st.View.Cabs))
		}
	}
	if st.Route == nil || *st.Route != testRoute {
		t.Fatalf("route not stored: %+v", st.Route)
	}
	if len(st.Recent) != 1 || st.Recent[0] != airport {
		t.Fatalf("recent = %+v", st.Recent)
	}
}

func TestSubmitTogglesSearching(t *testing.T) {
	fares := &fakeFares{}
	svc, _ := newTestService(t, fares)

	var during State
	fares.fn = func(context.Context, string, string, int) (*ai.FareResponse, error) {
		during = svc.State()
		return fareResponse(t, airportCabs()[0]), nil
	}

	var seen []State
	unsubscribe := svc.Subscribe(func(s State) { seen = append(seen, s) })
	defer unsubscribe()

	mustSubmit(t, svc, airport)

	if !during.Searching || during.Error != "" || during.Results != nil || during.Filter != FilterAll {
		t.Fatalf("state while fetching: %+v", during)
	}
	if len(seen) != 2 || !seen[0].Searching || seen[1].Searching {
		t.Fatalf("expected searching then idle, got %d snapshots", len(seen))
	}
}

func TestSubmitClearsPreviousSessionState(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, _ := newTestService(t, fares)

	mustSubmit(t, svc, airport)
	svc.SetFilter("Sedan")
	if err := svc.SetSort(SortFareDesc); err != nil {
		t.Fatal(err)
	}
	svc.SetFareMin(300)

	fares.fn = func(context.Context, string, string, int) (*ai.FareResponse, error) {
		return nil, errors.New("connection reset")
	}
	err := svc.Submit(context.Background(), SearchParams{Pickup: "X", Dropoff: "Y", Seats: 1})
	var aiErr *ai.Error
	if !errors.As(err, &aiErr) || aiErr.Kind != ai.KindUnavailable {
		t.Fatalf("expected unavailable provider error, got %v", err)
	}

	st := svc.State()
	if st.Results != nil || st.Route != nil || st.FareRange != nil || st.FareWindow != nil {
		t.Fatalf("failure must leave no results or route: %+v", st)
	}
	if st.Filter != FilterAll || st.Sort != SortFareAsc || st.Searching {
		t.Fatalf("view state not reset: filter=%s sort=%s searching=%v", st.Filter, st.Sort, st.Searching)
	}
	if st.Error != ai.UserMessage(errors.New("connection reset")) {
		t.Fatalf("unexpected error message %q", st.Error)
	}
}

func TestSubmitPermissionDeniedMessage(t *testing.T) {
	fares := &fakeFares{}
	denied := errors.New("googleapi: Error 403: PERMISSION_DENIED")
	fares.fn = func(context.Context, string, string, int) (*ai.FareResponse, error) { return nil, denied }
	svc, _ := newTestService(t, fares)

	err := svc.Submit(context.Background(), airport)
	var aiErr *ai.Error
	if !errors.As(err, &aiErr) || aiErr.Kind != ai.KindPermission {
		t.Fatalf("expected permission error, got %v", err)
	}
	st := svc.State()
	if st.Error != ai.UserMessage(denied) || st.Error == ai.UserMessage(errors.New("timeout")) {
		t.Fatalf("expected the API key message, got %q", st.Error)
	}
}

func TestSubmitValidation(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t))
	svc, _ := newTestService(t, fares)

	for _, p := range []SearchParams{
		{Pickup: "", Dropoff: "Downtown", Seats: 1},
		{Pickup: "Airport", Dropoff: "   ", Seats: 1},
	} {
		err := svc.Submit(context.Background(), p)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("Submit(%+v) = %v, want ErrValidation", p, err)
		}
	}
	if fares.callCount() != 0 {
		t.Fatal("no request may be issued for invalid params")
	}
	st := svc.State()
	if st.Error != validationMessage || st.Searching || st.HasSearched {
		t.Fatalf("unexpected state after validation failure: %+v", st)
	}
}

func TestSubmitNormalizesParams(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, _ := newTestService(t, fares)

	mustSubmit(t, svc, SearchParams{Pickup: "  Airport ", Dropoff: "Downtown\t", Seats: 0})
	if got := fares.calls[0]; got != (SearchParams{Pickup: "Airport", Dropoff: "Downtown", Seats: 1}) {
		t.Fatalf("provider called with %+v", got)
	}
}

func TestSubmitAllRecordsMalformedIsZeroResults(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(&ai.FareResponse{
		Locations: testRoute,
		Cabs:      []json.RawMessage{json.RawMessage(`{"provider":"Uber"}`), json.RawMessage(`null`)},
	})
	svc, _ := newTestService(t, fares)

	if err := svc.Submit(context.Background(), airport); err != nil {
		t.Fatalf("zero usable cabs is not an error: %v", err)
	}
	st := svc.State()
	if st.Error != "" || len(st.Results) != 0 || st.FareRange != nil || len(st.Recent) != 0 {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Route == nil {
		t.Fatal("route is kept for a zero-result search")
	}
}

func TestSubmitMissingCapacityShowsNine(t *testing.T) {
	resp := fareResponse(t, airportCabs()[:9]...)
	resp.Cabs = append(resp.Cabs, json.RawMessage(`{"provider":"Ola","cabType":"Mini","fare":150,"eta":5}`))
	fares := &fakeFares{}
	fares.fn = respondWith(resp)
	svc, _ := newTestService(t, fares)

	mustSubmit(t, svc, SearchParams{Pickup: "A", Dropoff: "B", Seats: 1})
	st := svc.State()
	if st.View.TotalCount != 9 || len(st.View.Cabs) != 9 || st.Error != "" {
		t.Fatalf("expected 9 visible cabs and no error, got %d/%d %q", len(st.View.Cabs), st.View.TotalCount, st.Error)
	}
}

func TestNewerSubmissionWins(t *testing.T) {
	release := make(chan struct{})
	slowStarted := make(chan struct{})
	slowCab := CabOption{Provider: "Ola", CabType: "Slow", Fare: 1, ETA: 1, Capacity: 4}
	fastCab := CabOption{Provider: "Uber", CabType: "Fast", Fare: 2, ETA: 1, Capacity: 4}

	fares := &fakeFares{}
	fares.fn = func(_ context.Context, pickup, _ string, _ int) (*ai.FareResponse, error) {
		if pickup == "Slow" {
			close(slowStarted)
			<-release
			return fareResponse(t, slowCab), nil
		}
		return fareResponse(t, fastCab), nil
	}
	svc, _ := newTestService(t, fares)

	errc := make(chan error, 1)
	go func() { errc <- svc.Submit(context.Background(), SearchParams{Pickup: "Slow", Dropoff: "B", Seats: 1}) }()
	<-slowStarted

	mustSubmit(t, svc, SearchParams{Pickup: "Fast", Dropoff: "B", Seats: 1})
	close(release)
	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("older search returned %v, want ErrSuperseded", err)
	}

	st := svc.State()
	if len(st.Results) != 1 || st.Results[0].CabType != "Fast" || st.Searching {
		t.Fatalf("stale response applied: %+v", st)
	}
	if len(st.Recent) != 1 || st.Recent[0].Pickup != "Fast" {
		t.Fatalf("stale search recorded in history: %+v", st.Recent)
	}
}

func TestNewerSubmissionCancelsOlderRequest(t *testing.T) {
	slowStarted := make(chan struct{})
	fares := &fakeFares{}
	fares.fn = func(ctx context.Context, pickup, _ string, _ int) (*ai.FareResponse, error) {
		if pickup == "Slow" {
			close(slowStarted)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return fareResponse(t, airportCabs()...), nil
	}
	svc, _ := newTestService(t, fares)

	errc := make(chan error, 1)
	go func() { errc <- svc.Submit(context.Background(), SearchParams{Pickup: "Slow", Dropoff: "B", Seats: 1}) }()
	<-slowStarted

	mustSubmit(t, svc, airport)
	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("older search returned %v, want ErrSuperseded", err)
	}
	if st := svc.State(); st.Error != "" || len(st.Results) != 10 {
		t.Fatalf("cancelled search leaked into state: error=%q results=%d", st.Error, len(st.Results))
	}
}

func TestValidationFailureSupersedesInFlightSearch(t *testing.T) {
	slowStarted := make(chan struct{})
	fares := &fakeFares{}
	fares.fn = func(ctx context.Context, _, _ string, _ int) (*ai.FareResponse, error) {
		close(slowStarted)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	svc, _ := newTestService(t, fares)

	errc := make(chan error, 1)
	go func() { errc <- svc.Submit(context.Background(), airport) }()
	<-slowStarted

	if err := svc.Submit(context.Background(), SearchParams{Seats: 1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("in-flight search returned %v", err)
	}
	if st := svc.State(); st.Searching || st.Error != validationMessage {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestRecentSearchDedupAndPersistence(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, mem := newTestService(t, fares)

	mustSubmit(t, svc, SearchParams{Pickup: "Andheri", Dropoff: "Bandra", Seats: 1})
	mustSubmit(t, svc, airport)
	mustSubmit(t, svc, SearchParams{Pickup: "airport ", Dropoff: " DOWNTOWN", Seats: 2})

	st := svc.State()
	if len(st.Recent) != 2 || st.Recent[0].Pickup != "airport" || st.Recent[1].Pickup != "Andheri" {
		t.Fatalf("recent = %+v", st.Recent)
	}

	reloaded := NewStore(mem, logging.Discard()).LoadRecent(context.Background())
	if len(reloaded) != 2 || reloaded[0] != st.Recent[0] {
		t.Fatalf("persisted recent = %+v", reloaded)
	}
}

func TestRecentSearchBound(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, _ := newTestService(t, fares)

	for i := range 6 {
		mustSubmit(t, svc, SearchParams{Pickup: fmt.Sprintf("P%d", i), Dropoff: "D", Seats: 1})
	}
	st := svc.State()
	if len(st.Recent) != MaxRecentSearches || st.Recent[0].Pickup != "P5" || st.Recent[4].Pickup != "P1" {
		t.Fatalf("recent = %+v", st.Recent)
	}
}

func TestSelectRecent(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, _ := newTestService(t, fares)

	mustSubmit(t, svc, airport)
	mustSubmit(t, svc, SearchParams{Pickup: "Colaba", Dropoff: "Powai", Seats: 3})

	if err := svc.SelectRecentAt(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.SelectRecentAt(context.Background(), 1); err != nil {
		t.Fatalf("SelectRecentAt: %v", err)
	}
	st := svc.State()
	if st.Form != airport || *st.Params != airport || st.Recent[0] != airport {
		t.Fatalf("selecting a recent search must refill the form and search again: %+v", st)
	}
	if fares.callCount() != 3 {
		t.Fatalf("expected 3 provider calls, got %d", fares.callCount())
	}
}

func TestFareWindowStaysInsideRange(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, _ := newTestService(t, fares)

	svc.SetFareWindow(FareRange{Min: 200, Max: 300})
	if svc.State().FareWindow != nil {
		t.Fatal("window must stay unset before any results")
	}

	mustSubmit(t, svc, airport)
	steps := []func(){
		func() { svc.SetFareWindow(FareRange{Min: -50, Max: 5000}) },
		func() { svc.SetFareMin(400) },
		func() { svc.SetFareMax(100) },
		func() { svc.SetFareMin(900) },
		func() { svc.SetFareWindow(FareRange{Min: 500, Max: 200}) },
	}
	for i, step := range steps {
		step()
		st := svc.State()
		w, r := st.FareWindow, st.FareRange
		if w.Min > w.Max || w.Min < r.Min || w.Max > r.Max {
			t.Fatalf("step %d broke the window invariant: window %+v range %+v", i, *w, *r)
		}
	}

	svc.SetFareWindow(FareRange{Min: 300, Max: 380})
	if got := fareList(svc.State().View.Cabs); len(got) != 4 {
		t.Fatalf("expected 4 cabs inside the window, got %v", got)
	}
}

func TestSeatsDriveCapacityFilter(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, _ := newTestService(t, fares)

	mustSubmit(t, svc, SearchParams{Pickup: "A", Dropoff: "B", Seats: 1})
	if got := len(svc.State().View.Cabs); got != 10 {
		t.Fatalf("expected all 10 cabs for one seat, got %d", got)
	}
	svc.SetSeats(5)
	if st := svc.State(); len(st.View.Cabs) != 2 || st.View.TotalCount != 10 {
		t.Fatalf("expected 2 of 10 cabs for five seats, got %d of %d", len(st.View.Cabs), st.View.TotalCount)
	}

	svc.SetSeats(0)
	if got := svc.State().Form.Seats; got != MinSeats {
		t.Fatalf("seats = %d, want %d", got, MinSeats)
	}
	svc.SetSeats(40)
	if got := svc.State().Form.Seats; got != MaxSeats {
		t.Fatalf("seats = %d, want %d", got, MaxSeats)
	}
}

func TestFilterAndSort(t *testing.T) {
	fares := &fakeFares{}
	fares.fn = respondWith(fareResponse(t, airportCabs()...))
	svc, _ := newTestService(t, fares)
	mustSubmit(t, svc, airport)

	svc.SetFilter("Sedan")
	if got := svc.State().View.Cabs; len(got) != 2 {
		t.Fatalf("expected 2 sedans, got %+v", got)
	}
	svc.SetFilter(" ")
	if st := svc.State(); st.Filter != FilterAll || len(st.View.Cabs) != 8 {
		t.Fatalf("blank filter must select all, got %q with %d cabs", st.Filter, len(st.View.Cabs))
	}

	if err := svc.SetSort("cheapest"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if err := svc.SetSort(SortFareDesc); err != nil {
		t.Fatal(err)
	}
	if got := svc.State().View.Cabs; got[0].Fare != 690.2 {
		t.Fatalf("expected most expensive first, got %v", fareList(got))
	}
	if cabTypes := svc.State().View.CabTypes; len(cabTypes) != 8 || cabTypes[0] != "Auto" {
		t.Fatalf("cab types = %v", cabTypes)
	}
}

func TestBookmarkDedupScenario(t *testing.T) {
	svc, mem := newTestService(t, &fakeFares{})
	ctx := context.Background()

	if _, err := svc.AddOrUpdateBookmark(ctx, "Home", "123 Main St"); err != nil {
		t.Fatal(err)
	}
	b, err := svc.AddOrUpdateBookmark(ctx, "Office", "123 main st ")
	if err != nil {
		t.Fatal(err)
	}

	got := svc.Bookmarks()
	if len(got) != 1 || got[0].Name != "Office" || got[0].ID != b.ID {
		t.Fatalf("bookmarks = %+v", got)
	}
	if persisted := NewStore(mem, logging.Discard()).LoadBookmarks(ctx); len(persisted) != 1 || persisted[0].Name != "Office" {
		t.Fatalf("persisted bookmarks = %+v", persisted)
	}
	if _, err := svc.AddOrUpdateBookmark(ctx, "Nowhere", "  "); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for blank address, got %v", err)
	}
}

func TestRemoveBookmark(t *testing.T) {
	svc, mem := newTestService(t, &fakeFares{})
	ctx := context.Background()

	b, _ := svc.AddOrUpdateBookmark(ctx, "Home", "123 Main St")
	if err := svc.RemoveBookmark(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.RemoveBookmark(ctx, b.ID); err != nil {
		t.Fatalf("RemoveBookmark: %v", err)
	}
	if len(svc.Bookmarks()) != 0 {
		t.Fatal("bookmark not removed")
	}
	if persisted := NewStore(mem, logging.Discard()).LoadBookmarks(ctx); len(persisted) != 0 {
		t.Fatalf("removal not persisted: %+v", persisted)
	}
}

func TestToggleBookmark(t *testing.T) {
	svc, _ := newTestService(t, &fakeFares{})
	ctx := context.Background()

	if svc.ToggleBookmark(ctx, "   ") {
		t.Fatal("blank address must be ignored")
	}
	if !svc.ToggleBookmark(ctx, "Gateway of India") {
		t.Fatal("expected address to become bookmarked")
	}
	if !svc.IsBookmarked(" gateway OF india ") {
		t.Fatal("IsBookmarked must ignore case and whitespace")
	}
	if got := svc.Bookmarks(); got[0].Name != "Gateway of India" {
		t.Fatalf("toggled bookmark should be named after its address: %+v", got)
	}
	if svc.ToggleBookmark(ctx, "GATEWAY OF INDIA") {
		t.Fatal("expected second toggle to remove the bookmark")
	}
	if svc.IsBookmarked("Gateway of India") || len(svc.Bookmarks()) != 0 {
		t.Fatal("bookmark still present")
	}
}

func TestHistoryLoadedAtStartup(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	store := NewStore(mem, logging.Discard())
	_ = store.SaveRecent(ctx, []SearchParams{airport})
	_ = store.SaveBookmarks(ctx, []Bookmark{{ID: "1", Name: "Home", Address: "123 Main St"}})

	svc := NewService(ctx, &fakeFares{}, store, logging.Discard())
	st := svc.State()
	if len(st.Recent) != 1 || len(st.Bookmarks) != 1 || st.HasSearched {
		t.Fatalf("startup state %+v", st)
	}
}

func TestUseCurrentLocation(t *testing.T) {
	svc, _ := newTestService(t, &fakeFares{})
	ctx := context.Background()

	err := svc.UseCurrentLocation(ctx, location.Reported{Err: location.ErrTimeout})
	if !errors.Is(err, location.ErrTimeout) || svc.State().Form.Pickup != "" {
		t.Fatalf("failed lookup must leave the form alone: %v", err)
	}

	pos := types.Coordinates{Latitude: 19.07601, Longitude: 72.87775}
	if err := svc.UseCurrentLocation(ctx, location.Reported{Position: pos}); err != nil {
		t.Fatal(err)
	}
	if got := svc.State().Form.Pickup; got != "Lat: 19.07601, Lon: 72.87775" {
		t.Fatalf("pickup = %q", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	svc, _ := newTestService(t, &fakeFares{})
	calls := 0
	unsubscribe := svc.Subscribe(func(State) { calls++ })
	svc.SetPickup("A")
	unsubscribe()
	svc.SetPickup("B")
	if calls != 1 {
		t.Fatalf("listener called %d times, want 1", calls)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(fmt.Errorf("%w: blank", ErrValidation)); got != validationMessage {
		t.Fatalf("validation message = %q", got)
	}
	if UserMessage(ErrSuperseded) != "" || UserMessage(nil) != "" {
		t.Fatal("superseded and nil errors have no message")
	}
	denied := errors.New("PERMISSION_DENIED")
	if UserMessage(denied) != ai.UserMessage(denied) {
		t.Fatal("provider errors use the provider message")
	}
}
