// Package export serializes result rows to the supported output formats.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ckaraca/tyharvest/internal/pipeline"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// FromExtension maps a file name to its format; "" means unrecognized.
func FromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return ""
	}
}

// Write serializes the rows in the given format. Every format emits the same
// columns in the same order.
func Write(w io.Writer, format Format, rows []pipeline.Row) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatJSONL:
		return writeJSONL(w, rows)
	case FormatYAML:
		return writeYAML(w, rows)
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatXLSX:
		return writeXLSX(w, rows)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeJSON(w io.Writer, rows []pipeline.Row) error {
	bw := bufio.NewWriter(w)
	output, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	if _, err := bw.Write(output); err != nil {
		return err
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func writeJSONL(w io.Writer, rows []pipeline.Row) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeYAML(w io.Writer, rows []pipeline.Row) error {
	bw := bufio.NewWriter(w)
	encoder := yaml.NewEncoder(bw)
	encoder.SetIndent(2)
	if err := encoder.Encode(rows); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

func writeCSV(w io.Writer, rows []pipeline.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pipeline.Headers()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
