package clinical

import (
	"errors"
	"strings"
	"testing"
)

func scenarioRecord() Record {
	return Record{
		Age: 50, Sex: 1, CP: 0, Trestbps: 120, Chol: 200, FBS: 0, Restecg: 0,
		Thalach: 150, Exang: 0, Oldpeak: 1.0, Slope: 0, CA: 0, Thal: 1,
	}
}

func TestVectorFollowsFeatureOrder(t *testing.T) {
	record := scenarioRecord()
	vector := record.Vector()
	names := FeatureNames()
	if len(vector) != len(names) || len(names) != 13 {
		t.Fatalf("expected 13 columns, got vector=%d names=%d", len(vector), len(names))
	}
	values := record.Values()
	for i, name := range names {
		if values[name] != vector[i] {
			t.Fatalf("column %s: map=%v vector=%v", name, values[name], vector[i])
		}
	}
	if names[0] != "age" || names[12] != "thal" {
		t.Fatalf("unexpected column order: %v", names)
	}
}

func TestDefaultRecordIsValid(t *testing.T) {
	record := DefaultRecord()
	if err := record.Validate(); err != nil {
		t.Fatalf("default record invalid: %v", err)
	}
	if record.Age != 50 || record.Oldpeak != 1.0 || record.Sex != 1 {
		t.Fatalf("unexpected defaults: %+v", record)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Record)
		wantBad []string
	}{
		{name: "valid", mutate: func(r *Record) {}},
		{name: "age too low", mutate: func(r *Record) { r.Age = 19 }, wantBad: []string{"age"}},
		{name: "sex not enumerated", mutate: func(r *Record) { r.Sex = 2 }, wantBad: []string{"sex"}},
		{name: "oldpeak above max", mutate: func(r *Record) { r.Oldpeak = 6.3 }, wantBad: []string{"oldpeak"}},
		{name: "oldpeak at max", mutate: func(r *Record) { r.Oldpeak = 6.2 }},
		{name: "two bad fields", mutate: func(r *Record) { r.CA = 5; r.Thal = 4 }, wantBad: []string{"ca", "thal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := scenarioRecord()
			tt.mutate(&record)
			err := record.Validate()
			if len(tt.wantBad) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != len(tt.wantBad) {
				t.Fatalf("expected %d bad fields, got %v", len(tt.wantBad), verr.Fields)
			}
			for i, name := range tt.wantBad {
				if verr.Fields[i].Field != name {
					t.Errorf("field %d: expected %s, got %s", i, name, verr.Fields[i].Field)
				}
			}
		})
	}
}

func TestFromMap(t *testing.T) {
	values := scenarioRecord().Values()
	record, err := FromMap(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != scenarioRecord() {
		t.Fatalf("round trip mismatch: %+v", record)
	}

	delete(values, "thal")
	if _, err := FromMap(values); err == nil {
		t.Fatal("expected error for missing field")
	}

	values = scenarioRecord().Values()
	values["age"] = 50.5
	if _, err := FromMap(values); err == nil {
		t.Fatal("expected error for fractional integer field")
	}

	values = scenarioRecord().Values()
	values["weight"] = 80
	if _, err := FromMap(values); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestFromNullableTreatsNullAsMissing(t *testing.T) {
	values := map[string]*float64{}
	for name, v := range scenarioRecord().Values() {
		v := v
		values[name] = &v
	}
	record, err := FromNullable(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != scenarioRecord() {
		t.Fatalf("round trip mismatch: %+v", record)
	}

	values["cp"] = nil
	_, err = FromNullable(values)
	if err == nil || !strings.Contains(err.Error(), "missing fields: cp") {
		t.Fatalf("expected cp reported missing, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	field, ok := Lookup("cp")
	if !ok {
		t.Fatal("expected cp in schema")
	}
	if field.Kind != KindSelect || len(field.Options) != 4 {
		t.Fatalf("unexpected cp field: %+v", field)
	}
	if _, ok := Lookup("target"); ok {
		t.Fatal("target must not be a feature")
	}
	if ColumnIndex("oldpeak") != 9 {
		t.Fatalf("unexpected oldpeak index %d", ColumnIndex("oldpeak"))
	}
}
