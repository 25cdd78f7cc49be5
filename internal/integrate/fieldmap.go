package integrate

import "github.com/KaramelBytes/petroloom-cli/internal/dataset"

// Field names a numeric slot of dataset.UnifiedRecord.
type Field string

const (
	FieldPressure     Field = "pressure"
	FieldTemperature  Field = "temperature"
	FieldPorosity     Field = "porosity"
	FieldPermeability Field = "permeability"
	FieldSaturation   Field = "saturation"
)

// Mapping fills one unified field from the first source column, in order,
// whose value coerces to a non-zero number.
type Mapping struct {
	Field   Field
	Sources []string
}

// FieldMap is the schema reconciliation table. Fields without a mapping stay 0.
var FieldMap = map[dataset.Type][]Mapping{
	dataset.TypeLogs: {
		{FieldPorosity, []string{"porosity_norm", "porosity"}},
		{FieldPressure, []string{"resistivity_norm"}},
	},
	dataset.TypeSeismic: {
		{FieldPressure, []string{"amplitude_norm"}},
		{FieldTemperature, []string{"velocity_norm"}},
	},
	dataset.TypeProduction: {
		{FieldPressure, []string{"pressure_norm", "pressure"}},
		{FieldTemperature, []string{"oil_rate_norm"}},
	},
	dataset.TypeCore: {
		{FieldPorosity, []string{"porosity_norm", "porosity"}},
		{FieldPermeability, []string{"permeability_norm", "permeability"}},
		{FieldSaturation, []string{"saturation_norm", "saturation"}},
	},
}

func (m Mapping) resolve(r dataset.Record) float64 {
	for _, src := range m.Sources {
		if n := SafeNumber(r.Get(src)); n != 0 {
			return n
		}
	}
	return 0
}

func set(u *dataset.UnifiedRecord, f Field, v float64) {
	switch f {
	case FieldPressure:
		u.Pressure = v
	case FieldTemperature:
		u.Temperature = v
	case FieldPorosity:
		u.Porosity = v
	case FieldPermeability:
		u.Permeability = v
	case FieldSaturation:
		u.Saturation = v
	}
}
