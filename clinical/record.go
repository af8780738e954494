package clinical

import (
	"fmt"
	"sort"
	"strings"
)

// Record is one patient's 13 clinical attributes.
type Record struct {
	Age      int     `json:"age" schema:"age,required"`
	Sex      int     `json:"sex" schema:"sex,required"`
	CP       int     `json:"cp" schema:"cp,required"`
	Trestbps int     `json:"trestbps" schema:"trestbps,required"`
	Chol     int     `json:"chol" schema:"chol,required"`
	FBS      int     `json:"fbs" schema:"fbs,required"`
	Restecg  int     `json:"restecg" schema:"restecg,required"`
	Thalach  int     `json:"thalach" schema:"thalach,required"`
	Exang    int     `json:"exang" schema:"exang,required"`
	Oldpeak  float64 `json:"oldpeak" schema:"oldpeak,required"`
	Slope    int     `json:"slope" schema:"slope,required"`
	CA       int     `json:"ca" schema:"ca,required"`
	Thal     int     `json:"thal" schema:"thal,required"`
}

// Vector returns the record as a feature row in FeatureNames order.
func (r Record) Vector() []float64 {
	return []float64{
		float64(r.Age),
		float64(r.Sex),
		float64(r.CP),
		float64(r.Trestbps),
		float64(r.Chol),
		float64(r.FBS),
		float64(r.Restecg),
		float64(r.Thalach),
		float64(r.Exang),
		r.Oldpeak,
		float64(r.Slope),
		float64(r.CA),
		float64(r.Thal),
	}
}

// Values returns the record keyed by column name.
func (r Record) Values() map[string]float64 {
	vector := r.Vector()
	values := make(map[string]float64, len(vector))
	for i, name := range FeatureNames() {
		values[name] = vector[i]
	}
	return values
}

// DefaultRecord returns the record the form starts with.
func DefaultRecord() Record {
	values := make(map[string]float64, len(fields))
	for _, f := range fields {
		values[f.Name] = f.Default
	}
	record, _ := FromMap(values)
	return record
}

// FromMap builds a record from named values. Every column must be present and
// integer columns must hold whole numbers.
func FromMap(values map[string]float64) (Record, error) {
	var missing []string
	for _, f := range fields {
		if _, ok := values[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return Record{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	var unknown []string
	for name := range values {
		if _, ok := fieldIndex[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Record{}, fmt.Errorf("unknown fields: %s", strings.Join(unknown, ", "))
	}
	for _, f := range fields {
		v := values[f.Name]
		if f.Integer && v != float64(int64(v)) {
			return Record{}, fmt.Errorf("field %s must be a whole number, got %v", f.Name, v)
		}
	}

	return Record{
		Age:      int(values["age"]),
		Sex:      int(values["sex"]),
		CP:       int(values["cp"]),
		Trestbps: int(values["trestbps"]),
		Chol:     int(values["chol"]),
		FBS:      int(values["fbs"]),
		Restecg:  int(values["restecg"]),
		Thalach:  int(values["thalach"]),
		Exang:    int(values["exang"]),
		Oldpeak:  values["oldpeak"],
		Slope:    int(values["slope"]),
		CA:       int(values["ca"]),
		Thal:     int(values["thal"]),
	}, nil
}

// FromNullable is FromMap for decoded JSON, where a null value counts as missing.
func FromNullable(values map[string]*float64) (Record, error) {
	present := make(map[string]float64, len(values))
	for name, v := range values {
		if v != nil {
			present[name] = *v
		}
	}
	return FromMap(present)
}

// FieldError describes one out-of-domain value.
type FieldError struct {
	Field string
	Value float64
}

// ValidationError lists every field of a record that is outside its domain.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s=%v", f.Field, f.Value)
	}
	return "values out of range: " + strings.Join(parts, ", ")
}

// Validate checks every field against its declared domain.
func (r Record) Validate() error {
	vector := r.Vector()
	var bad []FieldError
	for i, f := range fields {
		if !f.Contains(vector[i]) {
			bad = append(bad, FieldError{Field: f.Name, Value: vector[i]})
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}
