// Package masking redacts personal data before it enters the audit
// trail.
package masking

import "strings"

const maskToken = "****"

// sensitiveKeys are metadata fields that hold personal or banking data.
var sensitiveKeys = map[string]bool{
	"email":      true,
	"iban":       true,
	"bic":        true,
	"tax_number": true,
	"vat_id":     true,
	"phone":      true,
}

// MaskValue redacts a value while keeping a minimal suffix so entries
// stay correlatable.
func MaskValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskSensitive returns a copy of the metadata with the values of
// sensitive keys redacted. Nested maps are walked recursively.
func MaskSensitive(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskField(trimmedKey, value)
	}

	if len(masked) == 0 {
		return nil
	}
	return masked
}

func maskField(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if sensitiveKeys[strings.ToLower(key)] {
			return MaskValue(cast)
		}
		return cast
	case map[string]any:
		return MaskSensitive(cast)
	default:
		return value
	}
}
