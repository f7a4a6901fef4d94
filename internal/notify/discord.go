// Package notify posts run summaries to a Discord webhook. Notification
// failures are logged and swallowed; a run's outcome never depends on the
// webhook being reachable.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"

	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/pipeline"
)

const (
	colorSuccess = 0x2ecc71
	colorFailure = 0xe74c3c

	maxSampleRows  = 5
	requestTimeout = 15 * time.Second
)

// Report summarizes one finished run.
type Report struct {
	Query       string
	VisitorName string
	MaxPages    int
	Rows        []pipeline.Row
	Duration    time.Duration
	Err         error

	// AttachmentName and Attachment optionally carry a workbook to upload
	// alongside the summary.
	AttachmentName string
	Attachment     []byte
}

// Discord delivers reports to a single webhook URL.
type Discord struct {
	client     *resty.Client
	webhookURL string
}

// NewDiscord returns a notifier for the given webhook URL. An empty URL
// yields a disabled notifier whose Send is a no-op.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     resty.New().SetTimeout(requestTimeout),
		webhookURL: webhookURL,
	}
}

// Enabled reports whether a webhook URL is configured.
func (d *Discord) Enabled() bool {
	return d != nil && d.webhookURL != ""
}

// Send posts the report. Errors are logged, never returned.
func (d *Discord) Send(ctx context.Context, report Report) {
	if !d.Enabled() {
		return
	}

	payload, err := json.Marshal(webhookPayload(report))
	if err != nil {
		logger.Warn("failed to encode webhook payload", "error", err)
		return
	}

	req := d.client.R().SetContext(ctx)
	if len(report.Attachment) > 0 {
		req.SetMultipartField("payload_json", "", "application/json", bytes.NewReader(payload)).
			SetFileReader("files[0]", report.AttachmentName, bytes.NewReader(report.Attachment))
	} else {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Post(d.webhookURL)
	if err != nil {
		logger.Warn("webhook delivery failed", "error", err)
		return
	}
	if resp.IsError() {
		logger.Warn("webhook rejected", "status", resp.StatusCode(), "body", resp.String())
		return
	}
	logger.Debug("webhook delivered", "status", resp.StatusCode())
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Timestamp   string       `json:"timestamp"`
}

type payload struct {
	Embeds []embed `json:"embeds"`
}

func webhookPayload(report Report) payload {
	status := "completed"
	color := colorSuccess
	if report.Err != nil {
		status = "failed"
		color = colorFailure
	}

	fields := []embedField{
		{Name: "Query", Value: report.Query, Inline: true},
		{Name: "Status", Value: status, Inline: true},
		{Name: "Duration", Value: report.Duration.Round(time.Second).String(), Inline: true},
		{Name: "Rows", Value: humanize.Comma(int64(len(report.Rows))), Inline: true},
	}
	if report.MaxPages > 0 {
		fields = append(fields, embedField{Name: "Page Limit", Value: fmt.Sprintf("%d", report.MaxPages), Inline: true})
	}
	if report.VisitorName != "" {
		fields = append(fields, embedField{Name: "Requested By", Value: report.VisitorName, Inline: true})
	}
	if report.Err != nil {
		fields = append(fields, embedField{Name: "Error", Value: report.Err.Error()})
	}
	if sample := sampleList(report.Rows); sample != "" {
		fields = append(fields, embedField{Name: "Sample Products", Value: sample})
	}

	return payload{Embeds: []embed{{
		Title:     "Search Run Report",
		Color:     color,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}}}
}

// sampleList renders up to maxSampleRows distinct products as a bullet list.
func sampleList(rows []pipeline.Row) string {
	var (
		lines []string
		seen  = map[string]bool{}
	)
	for _, row := range rows {
		if seen[row.ProductID] {
			continue
		}
		seen[row.ProductID] = true
		lines = append(lines, fmt.Sprintf("• %s (%s)", row.ProductName, row.PriceText))
		if len(lines) == maxSampleRows {
			break
		}
	}
	return strings.Join(lines, "\n")
}
