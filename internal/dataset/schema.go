package dataset

import "sort"

// SchemaFromFirstRecord is the column policy used by normalization, cleanup
// and outlier detection: a column is numeric when its value in record 0 is a
// number. Columns that only become numeric in later rows are never touched.
const SchemaFromFirstRecord = true

// NumericColumns returns the numeric columns of data under
// SchemaFromFirstRecord, sorted by name.
func NumericColumns(data []Record) []string {
	if len(data) == 0 {
		return nil
	}
	var cols []string
	for k, v := range data[0] {
		if v.IsNumber() {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

// UnifiedRecord is one row of the integrated model.
type UnifiedRecord struct {
	ID           string  `json:"id"`
	Timestamp    string  `json:"timestamp"`
	Depth        float64 `json:"depth"`
	Pressure     float64 `json:"pressure"`
	Temperature  float64 `json:"temperature"`
	Porosity     float64 `json:"porosity"`
	Permeability float64 `json:"permeability"`
	Saturation   float64 `json:"saturation"`
	Source       string  `json:"source"`
	DataType     Type    `json:"dataType"`
}

// UnifiedFields is the unified schema column order used by exporters.
var UnifiedFields = []string{
	"id", "timestamp", "depth", "pressure", "temperature",
	"porosity", "permeability", "saturation", "source", "dataType",
}
