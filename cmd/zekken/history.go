package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent searches, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		recent := a.search.State().Recent
		if len(recent) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No recent searches.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tPICKUP\tDROP-OFF\tSEATS")
		for i, r := range recent {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i, r.Pickup, r.Dropoff, r.Seats)
		}
		return w.Flush()
	},
}

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"bm"},
	Short:   "Manage bookmarked places",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarked places",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		list := a.search.Bookmarks()
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tADDRESS")
		for _, b := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Name, b.Address)
		}
		return w.Flush()
	},
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Bookmark an address, or rename an existing bookmark",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.search.AddOrUpdateBookmark(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", b.Name, b.ID)
		return nil
	},
}

var bookmarksRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a bookmark by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.search.RemoveBookmark(cmd.Context(), args[0])
	},
}

func init() {
	bookmarksCmd.AddCommand(bookmarksListCmd, bookmarksAddCmd, bookmarksRemoveCmd)
	rootCmd.AddCommand(recentCmd, bookmarksCmd)
}
