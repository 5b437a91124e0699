package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tangtown/tangdesk/internal/server"
	"github.com/tangtown/tangdesk/internal/utils"
	"github.com/tangtown/tangdesk/pkg/tangify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dev server for the desktop front-end",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		siteDir, _ := cmd.Flags().GetString("site")
		snapshotPath, _ := cmd.Flags().GetString("snapshot")
		if snapshotPath == "" {
			snapshotPath = viper.GetString("data.snapshot")
		}
		user, _ := cmd.Flags().GetString("user")
		pass, _ := cmd.Flags().GetString("pass")

		// Tangify is optional: without a key the endpoint answers 503 and
		// the rest of the server still works.
		var gen tangify.Generator
		apiKey := viper.GetString("tangify.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey != "" {
			var err error
			gen, err = tangify.NewGenerator(tangify.Config{
				APIKey:   apiKey,
				Model:    viper.GetString("tangify.model"),
				Fallback: viper.GetStringSlice("tangify.fallback_models"),
			})
			if err != nil {
				return err
			}
		} else {
			utils.Log.Warn("No Tangify API key configured, /api/tangify will be disabled")
		}

		return server.New(snapshotPath, siteDir, gen, user, pass).Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":7000", "HTTP listen address")
	serveCmd.Flags().String("site", "", "Directory of static site assets to serve at /")
	serveCmd.Flags().String("snapshot", "", "Snapshot file to serve (default from config)")
	serveCmd.Flags().String("user", "", "Basic auth username (empty disables auth)")
	serveCmd.Flags().String("pass", "", "Basic auth password")
}
