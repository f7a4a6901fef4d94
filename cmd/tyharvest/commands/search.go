package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ckaraca/tyharvest/internal/export"
	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/notify"
	"github.com/ckaraca/tyharvest/internal/pipeline"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search the marketplace and extract merchant rows",
	Long: `Search runs one discovery and extraction pass for a term and writes
the result rows to a file or stdout.

The output format is derived from the output file's extension; --format
overrides it. Without --output, rows go to stdout as JSON.

Examples:
  # Default 7-page walk, xlsx workbook
  tyharvest search "bluetooth kulaklık" -o results.xlsx

  # CSV on stdout
  tyharvest search "bluetooth kulaklık" --format csv

  # Notify a Discord webhook when done
  tyharvest search "bluetooth kulaklık" -o results.xlsx \
      --webhook-url "https://discord.com/api/webhooks/..."`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	flags := searchCmd.Flags()
	flags.IntP("pages", "n", 7, "maximum result pages to walk (1-50)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "", "output format: json, jsonl, yaml, csv, xlsx")
	flags.String("webhook-url", "", "Discord webhook URL for the run report")

	_ = viper.BindPFlag("webhook_url", flags.Lookup("webhook-url"))
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	term := args[0]
	pages, _ := cmd.Flags().GetInt("pages")
	outPath, _ := cmd.Flags().GetString("output")

	format, err := resolveFormat(cmd, outPath)
	if err != nil {
		return err
	}

	logger.Info("starting search", "term", term, "max_pages", pages, "format", format)
	start := time.Now()

	p := pipeline.New(pipeline.Config{
		Headless: viper.GetBool("headless"),
		Progress: func(current, total int, stage pipeline.Stage, message string) {
			logger.Info("progress", "stage", stage, "current", current, "total", total, "message", message)
		},
	})

	rows, runErr := p.Run(ctx, pipeline.SearchRequest{Term: term, MaxPages: pages})

	webhook := notify.NewDiscord(viper.GetString("webhook_url"))
	if webhook.Enabled() {
		webhook.Send(ctx, notify.Report{
			Query:    term,
			MaxPages: pages,
			Rows:     rows,
			Duration: time.Since(start),
			Err:      runErr,
		})
	}
	if runErr != nil {
		logger.Error("search failed", "term", term, "error", runErr)
		return runErr
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := export.Write(out, format, rows); err != nil {
		logger.Error("failed to write output", "format", format, "error", err)
		return err
	}

	logger.Info("search complete",
		"rows", humanize.Comma(int64(len(rows))),
		"duration", time.Since(start).Round(time.Second))
	return nil
}

// resolveFormat picks the output format: the explicit flag wins, then the
// output file's extension, then JSON.
func resolveFormat(cmd *cobra.Command, outPath string) (export.Format, error) {
	if formatStr, _ := cmd.Flags().GetString("format"); formatStr != "" {
		return export.Format(formatStr), nil
	}
	if outPath != "" {
		if format := export.FromExtension(outPath); format != "" {
			return format, nil
		}
		return "", fmt.Errorf("cannot derive output format from %q, use --format", outPath)
	}
	return export.FormatJSON, nil
}
