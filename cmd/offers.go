package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tangtown/tangdesk/internal/utils"
	"github.com/tangtown/tangdesk/pkg/index"
	"github.com/tangtown/tangdesk/pkg/launchermap"
	"github.com/tangtown/tangdesk/pkg/market"
	"github.com/tangtown/tangdesk/pkg/mintgarden"
	"github.com/tangtown/tangdesk/pkg/whttp"
	"github.com/tidwall/gjson"
)

// offersCmd fetches every live offer for the collection and writes the
// aggregated snapshot. This is the command the cron job runs.
var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Fetch live MintGarden offers and write the market snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		proxy, _ := rootCmd.PersistentFlags().GetString("proxy")
		if proxy != "" {
			if err := whttp.SetupProxy(proxy); err != nil {
				return err
			}
		}

		collectionID, _ := cmd.Flags().GetString("collection")
		if collectionID == "" {
			collectionID = viper.GetString("collection.id")
		}
		if collectionID == "" {
			return fmt.Errorf("no collection id (pass --collection or set collection.id in config)")
		}
		mapPath, _ := cmd.Flags().GetString("map")
		if mapPath == "" {
			mapPath = viper.GetString("data.map")
		}
		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = viper.GetString("data.snapshot")
		}
		skipUSD, _ := cmd.Flags().GetBool("no-usd")

		resolver, err := launchermap.Load(mapPath)
		if err != nil {
			return err
		}
		utils.Log.Infof("Loaded launcher map with %d entries", resolver.Len())

		client := mintgarden.NewClient(mintgarden.Config{
			BaseURL: viper.GetString("mintgarden.base_url"),
		})
		ctx := cmd.Context()

		// The spot price is nice-to-have: a dead price API must not block
		// the XCH-denominated snapshot.
		var usdPerXCH *float64
		if !skipUSD {
			if price, err := client.XCHPriceUSD(ctx); err != nil {
				utils.Log.Warnf("Could not fetch XCH spot price, USD fields will be null: %v", err)
			} else {
				utils.Log.Infof("XCH spot price: $%.2f", price)
				usdPerXCH = &price
			}
		}

		normalizer := market.NewNormalizer(resolver, usdPerXCH)
		if err := client.CollectionOffers(ctx, collectionID, func(item gjson.Result) {
			normalizer.Add(item)
		}); err != nil {
			return fmt.Errorf("fetching offers: %w", err)
		}

		res := normalizer.Result()
		utils.Log.Infof("Fetched %d records: %d listings, %d duplicates, %d unresolved",
			res.FetchedCount, len(res.Listings), res.DuplicateCount, len(res.Unresolved))
		for field, count := range res.FieldUsage {
			utils.Log.Debugf("Price field %s used %d times", field, count)
		}

		snap := index.BuildSnapshot(collectionID, res, usdPerXCH, market.DefaultStatsConfig(), time.Now())
		if err := index.Write(outPath, snap); err != nil {
			return err
		}
		utils.Log.Infof("Wrote snapshot to %s (%d ids, floor %.3f XCH)", outPath, snap.Count, snap.FloorXCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(offersCmd)
	offersCmd.Flags().StringP("collection", "c", "", "MintGarden collection id")
	offersCmd.Flags().StringP("map", "m", "", "launcher map file (default from config)")
	offersCmd.Flags().StringP("output", "o", "", "snapshot output file (default from config)")
	offersCmd.Flags().Bool("no-usd", false, "Skip the XCH/USD spot price lookup")
}
