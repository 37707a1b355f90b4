package intent

import (
	"github.com/refresh-agent/refresh-api/internal/models"
)

// MergeFields merges a flat map of overrides into previously extracted
// fields. Pure and total: one output field per input field, input order
// preserved, pre_filled set exactly when the field's name was overridden.
func MergeFields(originalFields []models.Field, overrides map[string]string) []models.Field {
	merged := make([]models.Field, 0, len(originalFields))

	for _, field := range originalFields {
		fieldCopy := field
		if value, ok := overrides[field.FieldName]; ok {
			fieldCopy.NewValue = value
			fieldCopy.PreFilled = true
			fieldCopy.Changed = value != field.CurrentValue
		} else {
			fieldCopy.NewValue = field.CurrentValue
			fieldCopy.PreFilled = false
			fieldCopy.Changed = false
		}
		merged = append(merged, fieldCopy)
	}

	return merged
}
