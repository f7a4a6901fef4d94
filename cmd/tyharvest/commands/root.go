// Package commands implements the CLI commands for tyharvest.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "tyharvest",
	Short: "Marketplace catalog discovery and merchant extraction",
	Long: `Tyharvest searches the Trendyol marketplace for a term, walks the
paginated results, and extracts every merchant offering each product,
including registration details from the sellers' storefront pages.

Examples:
  # One-shot search written to an xlsx workbook
  tyharvest search "bluetooth kulaklık" -o results.xlsx

  # Limit the walk to 3 result pages and print JSON to stdout
  tyharvest search "bluetooth kulaklık" --pages 3 --format json

  # Run the HTTP job service
  tyharvest serve --addr :8080 --output-dir ./results`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.tyharvest.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("headless", true, "run the browser session headless")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("headless", rootCmd.PersistentFlags().Lookup("headless"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".tyharvest")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("TYHARVEST")
	viper.AutomaticEnv()

	_ = viper.BindEnv("webhook_url", "TYHARVEST_WEBHOOK_URL", "DISCORD_WEBHOOK_URL")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
