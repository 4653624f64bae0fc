package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"zekken/internal/http/handlers"
	"zekken/internal/modules/search"
)

var (
	searchPickup  string
	searchDropoff string
	searchSeats   int
	searchType    string
	searchSort    string
	searchMin     float64
	searchMax     float64
	searchRecent  int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Fetch fares for a trip and print the filtered offers",
	Example: `  zekken search --pickup "Indiranagar, Bengaluru" --dropoff "Kempegowda Airport" --seats 2
  zekken search --recent 0 --type Sedan --sort fare-desc`,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchPickup, "pickup", "p", "", "pickup location")
	f.StringVarP(&searchDropoff, "dropoff", "d", "", "drop-off location")
	f.IntVarP(&searchSeats, "seats", "s", search.MinSeats, "seats needed (1-8)")
	f.StringVarP(&searchType, "type", "t", search.FilterAll, "only show this cab type")
	f.StringVar(&searchSort, "sort", string(search.SortFareAsc), "fare-asc or fare-desc")
	f.Float64Var(&searchMin, "min", 0, "lowest fare to show")
	f.Float64Var(&searchMax, "max", 0, "highest fare to show")
	f.IntVar(&searchRecent, "recent", -1, "repeat the n-th recent search instead, most recent is 0")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	order, err := search.ParseSortOrder(searchSort)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.search
	if searchRecent >= 0 {
		err = svc.SelectRecentAt(ctx, searchRecent)
	} else {
		err = svc.Submit(ctx, search.SearchParams{Pickup: searchPickup, Dropoff: searchDropoff, Seats: searchSeats})
	}
	if err != nil {
		if msg := search.UserMessage(err); msg != "" {
			return fmt.Errorf("%s (%w)", msg, err)
		}
		return err
	}

	// A new search resets the view, so view flags apply afterwards.
	svc.SetFilter(searchType)
	if err := svc.SetSort(order); err != nil {
		return err
	}
	if cmd.Flags().Changed("min") {
		svc.SetFareMin(searchMin)
	}
	if cmd.Flags().Changed("max") {
		svc.SetFareMax(searchMax)
	}

	return printSession(cmd.OutOrStdout(), handlers.NewSessionResponse(svc.State()))
}

func printSession(out io.Writer, s handlers.SessionResponse) error {
	if s.Route != nil {
		fmt.Fprintf(out, "%s -> %s (%.1f km)\n", s.Route.PickupLabel, s.Route.DropoffLabel, s.Route.DistanceKm)
	}
	if s.FareWindow != nil {
		fmt.Fprintf(out, "fares %.0f-%.0f of %.0f-%.0f\n", s.FareWindow.Min, s.FareWindow.Max, s.FareRange.Min, s.FareRange.Max)
	}
	if len(s.Cabs) == 0 {
		fmt.Fprintf(out, "No cabs match (%d offers before filtering).\n", s.TotalCount)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tTYPE\tFARE\tETA\tSEATS\tBOOK")
	for _, c := range s.Cabs {
		link := "-"
		if c.Bookable {
			link = c.BookingURL
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d min\t%d\t%s\n", c.Provider, c.CabType, c.FareLabel, c.ETA, c.Capacity, link)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d offers shown\n", s.VisibleCount, s.TotalCount)
	return nil
}
