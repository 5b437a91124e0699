package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tangtown/tangdesk/pkg/index"
)

// validateCmd checks a snapshot file before it is deployed to the site.
var validateCmd = &cobra.Command{
	Use:   "validate [snapshot]",
	Short: "Validate a market snapshot file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("data.snapshot")
		if len(args) == 1 {
			path = args[0]
		}

		findings := index.Validate(path)
		if len(findings) == 0 {
			fmt.Printf("%s: OK\n", path)
			return nil
		}

		for _, f := range findings {
			fmt.Printf("[%s] %s\n", f.Level, f.Message)
		}
		if index.HasErrors(findings) {
			return fmt.Errorf("%s failed validation", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
