package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tangtown/tangdesk/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	 _____  _    _   _  ____ ____  _____ ____  _  __
	|_   _|/ \  | \ | |/ ___|  _ \| ____/ ___|| |/ /
	  | | / _ \ |  \| | |  _| | | |  _| \___ \| ' /
	  | |/ ___ \| |\  | |_| | |_| | |___ ___) | . \
	  |_/_/   \_\_| \_|\____|____/|_____|____/|_|\_\

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tangdesk",
	Short: "Market data tooling for the Tang Town desktop.",
	Long: LOGO + `tangdesk aggregates MintGarden market data for the Tang Town collection into
the flat JSON snapshot the desktop front-end reads, and runs the local dev
server that serves it.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tangdesk.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A .env next to the binary is handy in dev; ignore it when absent.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".tangdesk")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.tangdesk.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default values for all keys
	viper.SetDefault("collection.id", "")
	viper.SetDefault("mintgarden.base_url", "")
	viper.SetDefault("data.dir", "data")
	viper.SetDefault("data.map", "data/launcher_map.json")
	viper.SetDefault("data.snapshot", "data/snapshot.json")
	viper.SetDefault("tangify.api_key", "")
	viper.SetDefault("tangify.model", "")
	viper.SetDefault("tangify.fallback_models", []string{})

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
