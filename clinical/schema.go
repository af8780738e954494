package clinical

import "strconv"

// FieldKind selects how a field is collected on the form.
type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindSelect FieldKind = "select"
)

// Option is one entry of an enumerated field.
type Option struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// FieldSpec declares one input column: its name in the training data, how the
// form renders it and which values are in domain.
type FieldSpec struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Help    string    `json:"help,omitempty"`
	Kind    FieldKind `json:"kind"`
	Min     float64   `json:"min,omitempty"`
	Max     float64   `json:"max,omitempty"`
	Step    float64   `json:"step,omitempty"`
	Default float64   `json:"default"`
	Integer bool      `json:"integer"`
	Options []Option  `json:"options,omitempty"`
}

// Contains reports whether v is inside the field's domain.
func (f FieldSpec) Contains(v float64) bool {
	if f.Integer && v != float64(int64(v)) {
		return false
	}
	switch f.Kind {
	case KindSelect:
		for _, opt := range f.Options {
			if opt.Value == v {
				return true
			}
		}
		return false
	default:
		return v >= f.Min && v <= f.Max
	}
}

// FormatValue renders v the way the form control expects it.
func (f FieldSpec) FormatValue(v float64) string {
	if f.Integer {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// TargetColumn is the label column of the training CSV.
const TargetColumn = "target"

var fields = []FieldSpec{
	{Name: "age", Label: "Age", Help: "Age in years (20-100).", Kind: KindNumber, Min: 20, Max: 100, Step: 1, Default: 50, Integer: true},
	{Name: "sex", Label: "Sex", Kind: KindSelect, Default: 1, Integer: true, Options: []Option{
		{Value: 1, Label: "Male"},
		{Value: 0, Label: "Female"},
	}},
	{Name: "cp", Label: "Chest pain type", Kind: KindSelect, Default: 0, Integer: true, Options: []Option{
		{Value: 0, Label: "Type 0 - Typical angina"},
		{Value: 1, Label: "Type 1 - Atypical angina"},
		{Value: 2, Label: "Type 2 - Non-anginal pain"},
		{Value: 3, Label: "Type 3 - Asymptomatic"},
	}},
	{Name: "trestbps", Label: "Resting blood pressure", Help: "In mm Hg (90-200).", Kind: KindNumber, Min: 90, Max: 200, Step: 1, Default: 120, Integer: true},
	{Name: "chol", Label: "Serum cholesterol", Help: "In mg/dl (100-600).", Kind: KindNumber, Min: 100, Max: 600, Step: 1, Default: 200, Integer: true},
	{Name: "fbs", Label: "Fasting blood sugar > 120 mg/dl", Kind: KindSelect, Default: 1, Integer: true, Options: []Option{
		{Value: 1, Label: "Yes (true)"},
		{Value: 0, Label: "No (false)"},
	}},
	{Name: "restecg", Label: "Resting ECG result", Help: "0: normal, 1: ST-T wave abnormality, 2: left ventricular hypertrophy.", Kind: KindSelect, Default: 0, Integer: true, Options: []Option{
		{Value: 0, Label: "0 - Normal"},
		{Value: 1, Label: "1 - ST-T wave abnormality"},
		{Value: 2, Label: "2 - Left ventricular hypertrophy"},
	}},
	{Name: "thalach", Label: "Maximum heart rate", Help: "Beats per minute (60-220).", Kind: KindNumber, Min: 60, Max: 220, Step: 1, Default: 150, Integer: true},
	{Name: "exang", Label: "Exercise-induced angina", Kind: KindSelect, Default: 1, Integer: true, Options: []Option{
		{Value: 1, Label: "Yes"},
		{Value: 0, Label: "No"},
	}},
	{Name: "oldpeak", Label: "ST depression", Help: "ST depression induced by exercise (0.0-6.2).", Kind: KindNumber, Min: 0, Max: 6.2, Step: 0.1, Default: 1.0},
	{Name: "slope", Label: "ST segment slope", Help: "0: upsloping, 1: flat, 2: downsloping.", Kind: KindSelect, Default: 0, Integer: true, Options: []Option{
		{Value: 0, Label: "0 - Upsloping"},
		{Value: 1, Label: "1 - Flat"},
		{Value: 2, Label: "2 - Downsloping"},
	}},
	{Name: "ca", Label: "Major vessels coloured by fluoroscopy", Help: "Number of major vessels (0-4).", Kind: KindSelect, Default: 0, Integer: true, Options: []Option{
		{Value: 0, Label: "0"},
		{Value: 1, Label: "1"},
		{Value: 2, Label: "2"},
		{Value: 3, Label: "3"},
		{Value: 4, Label: "4"},
	}},
	{Name: "thal", Label: "Thalassemia", Help: "1: normal, 2: fixed defect, 3: reversible defect.", Kind: KindSelect, Default: 0, Integer: true, Options: []Option{
		{Value: 0, Label: "0 - Unknown"},
		{Value: 1, Label: "1 - Normal"},
		{Value: 2, Label: "2 - Fixed defect"},
		{Value: 3, Label: "3 - Reversible defect"},
	}},
}

var fieldIndex = func() map[string]int {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	return index
}()

// Fields returns a copy of the schema in column order.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(fields))
	copy(out, fields)
	return out
}

// FeatureNames returns the model input columns in training order.
func FeatureNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the field definition for a column name.
func Lookup(name string) (FieldSpec, bool) {
	i, ok := fieldIndex[name]
	if !ok {
		return FieldSpec{}, false
	}
	return fields[i], true
}

// ColumnIndex returns the position of name in the feature vector, or -1.
func ColumnIndex(name string) int {
	i, ok := fieldIndex[name]
	if !ok {
		return -1
	}
	return i
}

// NumFeatures is the width of every feature vector.
func NumFeatures() int {
	return len(fields)
}
