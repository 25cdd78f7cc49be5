package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/petroloom-cli/internal/errs"
)

// Type is the closed set of source kinds a dataset can declare.
type Type string

const (
	TypeLogs       Type = "logs"
	TypeSeismic    Type = "seismic"
	TypeProduction Type = "production"
	TypeCore       Type = "core"
)

// Types lists every dataset type in a stable order.
var Types = []Type{TypeLogs, TypeSeismic, TypeProduction, TypeCore}

// ParseType maps a user-supplied name onto a Type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeLogs:
		return TypeLogs, nil
	case TypeSeismic:
		return TypeSeismic, nil
	case TypeProduction:
		return TypeProduction, nil
	case TypeCore:
		return TypeCore, nil
	}
	return "", fmt.Errorf("%w: %q (use logs, seismic, production or core)", errs.ErrUnsupportedType, s)
}

func (t Type) Valid() bool {
	_, err := ParseType(string(t))
	return err == nil
}

// GuessType infers a dataset type from its file name.
func GuessType(fileName string) Type {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, "log") || strings.Contains(name, "well"):
		return TypeLogs
	case strings.Contains(name, "seismic") || strings.Contains(name, "seis"):
		return TypeSeismic
	case strings.Contains(name, "production") || strings.Contains(name, "prod"):
		return TypeProduction
	default:
		return TypeCore
	}
}

// Method selects a per-column normalization transform.
type Method string

const (
	MethodZScore   Method = "zscore"
	MethodMinMax   Method = "minmax"
	MethodRobust   Method = "robust"
	MethodQuantile Method = "quantile"
)

var Methods = []Method{MethodZScore, MethodMinMax, MethodRobust, MethodQuantile}

func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodZScore:
		return MethodZScore, nil
	case MethodMinMax:
		return MethodMinMax, nil
	case MethodRobust:
		return MethodRobust, nil
	case MethodQuantile:
		return MethodQuantile, nil
	}
	return "", fmt.Errorf("%w: %q (use zscore, minmax, robust or quantile)", errs.ErrUnknownMethod, s)
}

// Dataset is one uploaded data source and its rows.
type Dataset struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id,omitempty"`
	ProjectID           string    `json:"project_id,omitempty"`
	Name                string    `json:"name"`
	Type                Type      `json:"type"`
	Data                []Record  `json:"data"`
	Normalized          bool      `json:"normalized"`
	NormalizationMethod Method    `json:"normalization_method,omitempty"`
	FileName            string    `json:"file_name,omitempty"`
	FileSize            int64     `json:"file_size,omitempty"`
	FileType            string    `json:"file_type,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Clone deep-copies the dataset rows.
func (d Dataset) Clone() Dataset {
	d.Data = CloneRecords(d.Data)
	return d
}

// WithData returns a copy of d that owns data.
func (d Dataset) WithData(data []Record) Dataset {
	d.Data = data
	return d
}

// MarkNormalized returns a copy of d carrying the transformed rows. The
// original values are not kept anywhere.
func (d Dataset) MarkNormalized(method Method, data []Record) Dataset {
	d.Data = data
	d.Normalized = true
	d.NormalizationMethod = method
	return d
}

// Validate checks the upload constraints: a 1..100 char name, a known type
// and at least one record.
func (d Dataset) Validate() error {
	name := strings.TrimSpace(d.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: dataset name is required", errs.ErrInvalidDataset)
	case len(name) > 100:
		return fmt.Errorf("%w: dataset name too long", errs.ErrInvalidDataset)
	case !d.Type.Valid():
		return fmt.Errorf("%w: invalid dataset type %q", errs.ErrInvalidDataset, d.Type)
	case len(d.Data) == 0:
		return fmt.Errorf("%w: dataset must contain at least one record", errs.ErrInvalidDataset)
	}
	return nil
}
