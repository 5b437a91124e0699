package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tangtown/tangdesk/internal/utils"
	"github.com/tangtown/tangdesk/pkg/launchermap"
	"github.com/tangtown/tangdesk/pkg/mintgarden"
	"github.com/tangtown/tangdesk/pkg/whttp"
)

// launchermapCmd rebuilds the internal-id -> launcher-id map from the
// collection's member list. Run rarely: only when the collection changes.
var launchermapCmd = &cobra.Command{
	Use:   "launchermap",
	Short: "Rebuild the internal-id to launcher-id map from the collection",
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
		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = viper.GetString("data.map")
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		client := mintgarden.NewClient(mintgarden.Config{
			BaseURL: viper.GetString("mintgarden.base_url"),
		})

		pairs, err := launchermap.Build(cmd.Context(), launchermap.BuildConfig{
			Source:       client,
			CollectionID: collectionID,
			Concurrency:  concurrency,
			Log:          utils.Log,
		})
		if err != nil {
			return err
		}

		if err := launchermap.Save(outPath, pairs); err != nil {
			return err
		}
		utils.Log.Infof("Wrote %d mapped pairs to %s", len(pairs), outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(launchermapCmd)
	launchermapCmd.Flags().StringP("collection", "c", "", "MintGarden collection id")
	launchermapCmd.Flags().StringP("output", "o", "", "map output file (default from config)")
	launchermapCmd.Flags().Int("concurrency", 5, "Concurrent per-NFT lookups")
}
