package intent

import (
	"reflect"
	"testing"

	"github.com/refresh-agent/refresh-api/internal/models"
)

func sampleFields() []models.Field {
	return []models.Field{
		{FieldName: "recipient", FieldLabel: "To", CurrentValue: "All Staff", FieldType: "text", Required: true},
		{FieldName: "date", FieldLabel: "Date", CurrentValue: "September 1, 2025", FieldType: "date", Required: true},
		{FieldName: "subject", FieldLabel: "Subject", CurrentValue: "Schedule", FieldType: "text", Required: false},
	}
}

func TestMergeFields(t *testing.T) {
	merged := MergeFields(sampleFields(), map[string]string{
		"date":    "October 1, 2025",
		"unknown": "ignored",
	})

	if len(merged) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(merged))
	}

	// Input order preserved.
	for i, name := range []string{"recipient", "date", "subject"} {
		if merged[i].FieldName != name {
			t.Errorf("field %d: expected %s, got %s", i, name, merged[i].FieldName)
		}
	}

	if merged[0].NewValue != "All Staff" || merged[0].PreFilled {
		t.Errorf("untouched field should carry current value, got %+v", merged[0])
	}
	if merged[1].NewValue != "October 1, 2025" || !merged[1].PreFilled || !merged[1].Changed {
		t.Errorf("overridden field should be pre-filled and changed, got %+v", merged[1])
	}
}

func TestMergeFieldsOverrideEqualToCurrent(t *testing.T) {
	merged := MergeFields(sampleFields(), map[string]string{"subject": "Schedule"})
	if !merged[2].PreFilled {
		t.Error("override should set pre_filled even when value matches")
	}
	if merged[2].Changed {
		t.Error("override equal to current value is not a change")
	}
}

func TestMergeFieldsIdempotent(t *testing.T) {
	overrides := map[string]string{"date": "October 1, 2025"}
	once := MergeFields(sampleFields(), overrides)
	twice := MergeFields(once, overrides)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeFieldsEmptyInputs(t *testing.T) {
	if got := MergeFields(nil, map[string]string{"a": "b"}); len(got) != 0 {
		t.Errorf("expected empty output for nil fields, got %v", got)
	}
	merged := MergeFields(sampleFields(), nil)
	for _, f := range merged {
		if f.NewValue != f.CurrentValue || f.PreFilled {
			t.Errorf("nil overrides should pass fields through, got %+v", f)
		}
	}
}
