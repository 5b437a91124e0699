package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tangtown/tangdesk/pkg/index"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [snapshot]",
	Short: "Print market statistics from a snapshot file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("data.snapshot")
		if len(args) == 1 {
			path = args[0]
		}

		snap, err := index.Read(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("snapshot file not found: %s", path)
			}
			return err
		}

		fmt.Printf("Collection %s, generated %s\n\n", snap.CollectionID, snap.GeneratedAt)

		if snap.MarketStats == nil {
			fmt.Println("No listings in the snapshot to generate stats.")
			return nil
		}
		stats := snap.MarketStats

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "METRIC\tXCH\t")
		fmt.Fprintf(w, "floor\t%.3f\t\n", stats.FloorXCH)

		ranks := make([]string, 0, len(stats.Percentiles))
		for rank := range stats.Percentiles {
			ranks = append(ranks, rank)
		}
		sort.Strings(ranks)
		for _, rank := range ranks {
			fmt.Fprintf(w, "%s\t%.3f\t\n", rank, stats.Percentiles[rank])
		}
		w.Flush()

		fmt.Printf("\n%d listed ids, %d records fetched, %d duplicates, %d unresolved\n",
			snap.Count, snap.Stats.FetchedCount, snap.Stats.DuplicateCount, len(snap.UnresolvedListings))

		if len(stats.FloorMultiples) > 0 {
			fmt.Println("\nBest prices by floor multiple:")
			bw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
			for _, b := range stats.FloorMultiples {
				fmt.Fprintf(bw, "%s\t%d\t\n", b.Label, b.Count)
			}
			bw.Flush()
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
