package masking

import "strings"

const maskToken = "****"

// sensitiveKeys are metadata keys whose values identify a person.
var sensitiveKeys = map[string]struct{}{
	"badge_uid": {},
	"email":     {},
}

// MaskSecret redacts a value while keeping a short suffix for correlation.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskMetadata returns a copy of input with sensitive string values masked.
func MaskMetadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		masked[key] = maskValue(key, value)
	}
	return masked
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if _, ok := sensitiveKeys[key]; ok {
			return MaskSecret(cast)
		}
		return cast
	case *string:
		if cast == nil {
			return nil
		}
		return maskValue(key, *cast)
	case map[string]any:
		return MaskMetadata(cast)
	default:
		return value
	}
}
