// Package export writes the unified record collection in interchange formats.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
	"github.com/KaramelBytes/petroloom-cli/internal/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format selects an exporter.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// DefaultBaseName is the file name stem used when no output path is given.
const DefaultBaseName = "unified_reservoir_model"

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: export format %q (use json or csv)", errs.ErrUnsupportedFormat, s)
}

// DefaultFileName is DefaultBaseName with the extension of f.
func (f Format) DefaultFileName() string { return DefaultBaseName + "." + string(f) }

// Exporter writes records to w.
type Exporter interface {
	Export(ctx context.Context, w io.Writer, records []dataset.UnifiedRecord) error
}

func For(f Format) (Exporter, error) {
	switch f {
	case FormatJSON:
		return JSONExporter{Indent: "  "}, nil
	case FormatCSV:
		return CSVExporter{}, nil
	}
	return nil, fmt.Errorf("%w: export format %q", errs.ErrUnsupportedFormat, f)
}

// Export writes records to w in format f.
func Export(ctx context.Context, w io.Writer, records []dataset.UnifiedRecord, f Format) error {
	e, err := For(f)
	if err != nil {
		return err
	}
	return e.Export(ctx, w, records)
}

// WriteFile renders records in memory and writes them atomically to path.
func WriteFile(ctx context.Context, path string, records []dataset.UnifiedRecord, f Format) error {
	var buf bytes.Buffer
	if err := Export(ctx, &buf, records, f); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// JSONExporter writes a single JSON array. An empty Indent gives compact output.
type JSONExporter struct {
	Indent string
}

func (e JSONExporter) Export(ctx context.Context, w io.Writer, records []dataset.UnifiedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []dataset.UnifiedRecord{}
	}
	var (
		b   []byte
		err error
	)
	if e.Indent != "" {
		b, err = json.MarshalIndent(records, "", e.Indent)
	} else {
		b, err = json.Marshal(records)
	}
	if err != nil {
		return fmt.Errorf("encode unified records: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// CSVExporter writes a header row in dataset.UnifiedFields order followed by
// one row per record.
type CSVExporter struct{}

func (CSVExporter) Export(ctx context.Context, w io.Writer, records []dataset.UnifiedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dataset.UnifiedFields); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, r := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func row(r dataset.UnifiedRecord) []string {
	return []string{
		r.ID,
		r.Timestamp,
		num(r.Depth),
		num(r.Pressure),
		num(r.Temperature),
		num(r.Porosity),
		num(r.Permeability),
		num(r.Saturation),
		r.Source,
		string(r.DataType),
	}
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
