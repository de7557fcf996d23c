package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/terraincognita07/tukicale/internal/services"
)

const (
	ExportFormatJSON   = "json"
	ExportFormatCSV    = "csv"
	ExportFormatLegacy = "legacy"
)

var ErrUnknownExportFormat = errors.New("unknown export format")

// RunImport replaces every stored record with the legacy JSON blob at path
// and resyncs the calendar.
func RunImport(ctx context.Context, configPath string, path string, out io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	records, err := services.DecodeLegacyBlob(file)
	if err != nil {
		return err
	}

	rt, err := openRuntime(ctx, configPath, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	synced, err := rt.records.Replace(ctx, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported periods=%d intimacy=%d health=%d synced=%t\n",
		len(records.Periods), len(records.Intimacy), len(records.Health), synced)
	return nil
}

type ExportOptions struct {
	Format string
	// Path is the output file. Empty or "-" writes to the command output.
	Path string
	From string
	To   string
}

// RunExport writes the records in the requested format. The date range
// applies to json and csv; the legacy blob always holds every record.
func RunExport(ctx context.Context, configPath string, options ExportOptions, out io.Writer) error {
	format := strings.ToLower(strings.TrimSpace(options.Format))
	switch format {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatLegacy:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExportFormat, format)
	}
	exportRange, err := services.ParseExportRange(options.From, options.To)
	if err != nil {
		return err
	}

	rt, err := openRuntime(ctx, configPath, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	output := out
	if path := options.Path; path != "" && path != "-" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer file.Close()
		output = file
	}

	switch format {
	case ExportFormatJSON:
		document, err := rt.exports.BuildJSON(ctx, rt.now().In(rt.cfg.Location()), exportRange)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(document)
	case ExportFormatCSV:
		rows, err := rt.exports.BuildCSVRows(ctx, exportRange)
		if err != nil {
			return err
		}
		return services.WriteExportCSV(output, rows)
	default:
		records, err := rt.records.Load(ctx)
		if err != nil {
			return err
		}
		return services.EncodeLegacyBlob(output, records)
	}
}
