package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the asynchronous search job service",
	Long: `Serve exposes searches as background jobs over HTTP.

Endpoints:
  POST /api/search        start a job ({"query": "...", "max_pages": 7})
  GET  /api/progress/:id  job state and progress
  GET  /download/:id      completed job's xlsx workbook

Each job runs its own browser session; results are written to the
output directory and optionally reported to a Discord webhook.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("output-dir", "./results", "directory for result workbooks")
	flags.String("webhook-url", "", "Discord webhook URL for run reports")

	_ = viper.BindPFlag("addr", flags.Lookup("addr"))
	_ = viper.BindPFlag("output_dir", flags.Lookup("output-dir"))
	_ = viper.BindPFlag("webhook_url", flags.Lookup("webhook-url"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	srv := service.NewServer(service.Config{
		Addr:       viper.GetString("addr"),
		OutputDir:  viper.GetString("output_dir"),
		WebhookURL: viper.GetString("webhook_url"),
		Headless:   viper.GetBool("headless"),
	})

	if err := srv.ListenAndServe(); err != nil {
		logger.Error("service stopped", "error", err)
		return err
	}
	return nil
}
