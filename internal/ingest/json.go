package ingest

import (
	"bytes"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// readJSON accepts a top-level array of flat objects or an object whose
// "data" field holds that array.
func readJSON(path string, _ Options) ([]dataset.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return parseJSON(b)
}

func parseJSON(b []byte) ([]dataset.Record, error) {
	b = bytes.TrimSpace(bytes.TrimPrefix(b, []byte("\xef\xbb\xbf")))
	if len(b) == 0 {
		return []dataset.Record{}, nil
	}
	var rows []dataset.Record
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &rows); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case '{':
		var doc struct {
			Data []dataset.Record `json:"data"`
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		rows = doc.Data
	default:
		return nil, fmt.Errorf("parse json: expected an array of records or an object with a \"data\" array")
	}
	out := make([]dataset.Record, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
