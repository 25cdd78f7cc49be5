// Package ingest turns uploaded files into datasets.
package ingest

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
)

// Options control how a file is read.
type Options struct {
	// Type overrides the type guessed from the file name.
	Type dataset.Type
	// Name overrides the file base name.
	Name string

	// Delimiter for CSV input. Zero sniffs it.
	Delimiter rune
	// DecimalSeparator and ThousandsSeparator. Zero auto-detects per cell.
	DecimalSeparator   rune
	ThousandsSeparator rune

	// SheetName selects an XLSX sheet by name; SheetIndex is 1-based and
	// used when no name is given.
	SheetName  string
	SheetIndex int
}

// Supported lists the accepted file extensions.
var Supported = []string{".csv", ".tsv", ".txt", ".json", ".xlsx"}

// LoadFile reads path into a dataset with name, type and file metadata set.
// The dataset is not persisted and carries no id.
func LoadFile(path string, opt Options) (dataset.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var load func(string, Options) ([]dataset.Record, error)
	switch ext {
	case ".csv", ".tsv", ".txt":
		load = readCSV
	case ".json":
		load = readJSON
	case ".xlsx":
		load = readXLSX
	default:
		return dataset.Dataset{}, fmt.Errorf("%w: %q (supported: %s)", errs.ErrUnsupportedFormat, ext, strings.Join(Supported, ", "))
	}
	info, err := os.Stat(path)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return dataset.Dataset{}, fmt.Errorf("%s is a directory", path)
	}
	data, err := load(path, opt)
	if err != nil {
		return dataset.Dataset{}, err
	}

	base := filepath.Base(path)
	ds := dataset.Dataset{
		Name:     strings.TrimSpace(opt.Name),
		Type:     opt.Type,
		Data:     data,
		FileName: base,
		FileSize: info.Size(),
		FileType: strings.TrimPrefix(ext, "."),
	}
	if ds.Name == "" {
		ds.Name = base
	}
	if ds.Type == "" {
		ds.Type = dataset.GuessType(base)
	} else if _, err := dataset.ParseType(string(ds.Type)); err != nil {
		return dataset.Dataset{}, err
	}
	return ds, nil
}

// ParseCell maps raw cell text onto a Value: blank is missing, a number in
// any common locale is numeric, anything else is kept as text.
func ParseCell(s string, opt Options) dataset.Value {
	t := strings.TrimSpace(s)
	if t == "" {
		return dataset.Null()
	}
	if f, ok := parseNumeric(t, opt); ok {
		return dataset.Num(f)
	}
	return dataset.Str(t)
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" || !looksNumeric(raw) {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	switch {
	case dec != 0:
	case thou == ',':
		dec = '.'
	case thou == '.':
		dec = ','
	default:
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		if strings.Contains(raw, " ") && !spaceGrouped(raw, dec) {
			return 0, false
		}
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// spaceGrouped reports whether the spaces in the integer part of raw split it
// into thousands groups ("12 500", "1 234 567,5"). Text like "12 34" is a
// label, not a number.
func spaceGrouped(raw string, dec rune) bool {
	intPart := raw
	if i := strings.LastIndex(raw, string(dec)); i >= 0 {
		intPart = raw[:i]
	}
	if strings.Contains(raw[len(intPart):], " ") {
		return false
	}
	groups := strings.Split(strings.TrimLeft(intPart, "+-"), " ")
	for i, g := range groups {
		if g == "" || len(g) > 3 || (i > 0 && len(g) != 3) {
			return false
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// looksNumeric rejects words ParseFloat would otherwise accept (NaN, Inf,
// hex floats).
func looksNumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == ',' || r == ' ' || r == '+' || r == '-' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return true
}

// columnNames cleans a header row: blanks get positional names and repeats
// get a numeric suffix.
func columnNames(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

// rowRecord builds a record from one row. Short rows leave the trailing
// columns absent; blank rows return nil.
func rowRecord(cols, row []string, opt Options) dataset.Record {
	rec := make(dataset.Record, len(cols))
	blank := true
	for i, name := range cols {
		if i >= len(row) {
			break
		}
		v := ParseCell(row[i], opt)
		if !v.IsNull() {
			blank = false
		}
		rec[name] = v
	}
	if blank {
		return nil
	}
	return rec
}
