package search

import (
	"cmp"
	"math"
	"slices"
)

// Project filters results by type, fare window and seat capacity, then stable-sorts by fare.
// An empty filter behaves like FilterAll and a nil window admits every fare.
func Project(results []CabOption, filter string, window *FareRange, order SortOrder, minSeats int) []CabOption {
	out := make([]CabOption, 0, len(results))
	for _, c := range results {
		if filter != "" && filter != FilterAll && c.CabType != filter {
			continue
		}
		if window != nil && (c.Fare < window.Min || c.Fare > window.Max) {
			continue
		}
		if c.Capacity < minSeats {
			continue
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b CabOption) int {
		if order == SortFareDesc {
			return cmp.Compare(b.Fare, a.Fare)
		}
		return cmp.Compare(a.Fare, b.Fare)
	})
	return out
}

// DistinctCabTypes returns each cab type once, in lexicographic order.
func DistinctCabTypes(results []CabOption) []string {
	out := make([]string, 0, len(results))
	for _, c := range results {
		out = append(out, c.CabType)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ComputeFareRange returns [floor(min fare), ceil(max fare)], or nil for no results.
func ComputeFareRange(results []CabOption) *FareRange {
	if len(results) == 0 {
		return nil
	}
	lo, hi := results[0].Fare, results[0].Fare
	for _, c := range results[1:] {
		lo = min(lo, c.Fare)
		hi = max(hi, c.Fare)
	}
	return &FareRange{Min: math.Floor(lo), Max: math.Ceil(hi)}
}

// clampWindow pins the requested window into bounds. When the handles cross, the one that
// moved stops at the one that did not.
func clampWindow(bounds FareRange, prev, next FareRange) FareRange {
	lo := clampFloat(next.Min, bounds.Min, bounds.Max)
	hi := clampFloat(next.Max, bounds.Min, bounds.Max)
	if lo > hi {
		if next.Min != prev.Min {
			lo = hi
		} else {
			hi = lo
		}
	}
	return FareRange{Min: lo, Max: hi}
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return max(lo, min(hi, v))
}

func buildView(s *State) View {
	return View{
		Cabs:       Project(s.Results, s.Filter, s.FareWindow, s.Sort, s.Form.Seats),
		CabTypes:   DistinctCabTypes(s.Results),
		TotalCount: len(s.Results),
	}
}
