package ingest

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
)

// readXLSX loads the selected worksheet. The first row is the header.
func readXLSX(p string, opt Options) ([]dataset.Record, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()

	wb, err := readZipEntry(&zr.Reader, "xl/workbook.xml")
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	rels, _ := readZipEntry(&zr.Reader, "xl/_rels/workbook.xml.rels")
	sheets := parseWorkbook(wb)
	target, err := resolveSheet(sheets, parseRelationships(rels), opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path.Base(p), err)
	}
	var shared []string
	if b, err := readZipEntry(&zr.Reader, "xl/sharedStrings.xml"); err == nil {
		shared = parseSharedStrings(b)
	}
	sheet, err := readZipEntry(&zr.Reader, target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}

	rr := newRowReader(sheet, shared)
	header, ok := rr.next()
	if !ok {
		return []dataset.Record{}, nil
	}
	names := make([]string, len(header))
	for i, c := range header {
		names[i] = c.text
	}
	cols := columnNames(names)
	out := []dataset.Record{}
	for {
		row, ok := rr.next()
		if !ok {
			break
		}
		rec := make(dataset.Record, len(cols))
		blank := true
		for i, name := range cols {
			if i >= len(row) {
				break
			}
			v := row[i].value(opt)
			if !v.IsNull() {
				blank = false
			}
			rec[name] = v
		}
		if !blank {
			out = append(out, rec)
		}
	}
	if rr.err != nil {
		return nil, fmt.Errorf("parse sheet: %w", rr.err)
	}
	return out, nil
}

type wbSheet struct {
	name string
	id   int
	rid  string
}

func resolveSheet(sheets []wbSheet, rels map[string]string, opt Options) (string, error) {
	if opt.SheetName != "" {
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.name
			if strings.EqualFold(s.name, opt.SheetName) {
				if t, ok := rels[s.rid]; ok {
					return relPath(t), nil
				}
			}
		}
		return "", fmt.Errorf("sheet %q not found (available: %s)", opt.SheetName, strings.Join(names, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	// position in workbook order first, then the sheetN.xml convention
	if idx <= len(sheets) {
		if t, ok := rels[sheets[idx-1].rid]; ok {
			return relPath(t), nil
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", idx), nil
}

// relPath maps a relationship target onto its zip entry name.
func relPath(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func parseWorkbook(b []byte) []wbSheet {
	var out []wbSheet
	dec := xml.NewDecoder(strings.NewReader(string(b)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.name = a.Value
			case "sheetId":
				s.id, _ = strconv.Atoi(a.Value)
			case "id":
				s.rid = a.Value
			}
		}
		out = append(out, s)
	}
}

func parseRelationships(b []byte) map[string]string {
	out := map[string]string{}
	dec := xml.NewDecoder(strings.NewReader(string(b)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

// parseSharedStrings concatenates the text runs of each <si>, skipping
// phonetic hints.
func parseSharedStrings(b []byte) []string {
	var out []string
	var sb strings.Builder
	inT, inPh := false, false
	dec := xml.NewDecoder(strings.NewReader(string(b)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				sb.Reset()
			case "t":
				inT = true
			case "rPh":
				inPh = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				out = append(out, sb.String())
			case "t":
				inT = false
			case "rPh":
				inPh = false
			}
		case xml.CharData:
			if inT && !inPh {
				sb.Write(t)
			}
		}
	}
}

type xlsxCell struct {
	text string
	typ  string
}

// value converts a cell: untyped and "n" cells hold numbers in invariant
// notation, everything else goes through ParseCell.
func (c xlsxCell) value(opt Options) dataset.Value {
	if strings.TrimSpace(c.text) == "" {
		return dataset.Null()
	}
	if c.typ == "" || c.typ == "n" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(c.text), 64); err == nil {
			return dataset.Num(f)
		}
	}
	if c.typ == "b" {
		if c.text == "1" {
			return dataset.Str("true")
		}
		return dataset.Str("false")
	}
	return ParseCell(c.text, opt)
}

type rowReader struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func newRowReader(b []byte, shared []string) *rowReader {
	return &rowReader{dec: xml.NewDecoder(strings.NewReader(string(b))), shared: shared}
}

// next returns the cells of the next <row>, indexed by column letter so
// sparse rows keep their positions.
func (r *rowReader) next() ([]xlsxCell, bool) {
	var row []xlsxCell
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return nil, false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "row" {
				inRow, row = true, nil
				continue
			}
			if !inRow || t.Name.Local != "c" {
				continue
			}
			var ref, typ string
			for _, a := range t.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				}
			}
			col := len(row)
			if c := columnIndex(ref); c >= 0 {
				col = c
			}
			text, err := r.cellText(typ)
			if err != nil {
				r.err = err
				return nil, false
			}
			for len(row) <= col {
				row = append(row, xlsxCell{})
			}
			row[col] = xlsxCell{text: text, typ: typ}
		case xml.EndElement:
			if t.Name.Local == "row" && inRow {
				return row, true
			}
		}
	}
}

// cellText reads up to </c> and resolves shared string indexes.
func (r *rowReader) cellText(typ string) (string, error) {
	var sb strings.Builder
	inVal := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "v" || t.Name.Local == "t" {
				inVal = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				inVal = false
			case "c":
				s := sb.String()
				if typ == "s" {
					i, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || i < 0 || i >= len(r.shared) {
						return "", nil
					}
					return r.shared[i], nil
				}
				return s, nil
			}
		case xml.CharData:
			if inVal {
				sb.Write(t)
			}
		}
	}
}

// columnIndex turns a cell reference such as "C12" into a 0-based column.
func columnIndex(ref string) int {
	idx := 0
	for _, ch := range strings.ToUpper(ref) {
		if ch < 'A' || ch > 'Z' {
			break
		}
		idx = idx*26 + int(ch-'A'+1)
	}
	return idx - 1
}
