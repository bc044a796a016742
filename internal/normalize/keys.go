package normalize

import (
	"strings"
	"unicode"
)

// ToLowerDotPath normalizes an environment key to a lowercase dot-separated path.
// Double underscores (__) are treated as level separators and converted to dots.
// Single underscores within a level are preserved.
// Examples:
//   - "VALMAP__ENGINE__FAIL_FAST" → "valmap.engine.fail_fast"
//   - "CACHE_SIZE" → "cache_size"
func ToLowerDotPath(key string) string {
	normalized := strings.ReplaceAll(key, "__", ".")
	return strings.ToLower(normalized)
}

// PropertyName derives a property name from a struct field or getter name.
// It lowercases the first letter.
// Examples:
//   - "FirstName" → "firstName"
//   - "URL" → "uRL"
func PropertyName(fieldName string) string {
	if fieldName == "" {
		return ""
	}

	runes := []rune(fieldName)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// ExportedName is the inverse of PropertyName: it uppercases the first letter.
func ExportedName(property string) string {
	if property == "" {
		return ""
	}

	runes := []rune(property)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// GetterNames lists the method names that may expose a property, in lookup order.
// Examples:
//   - "name" → ["Name", "GetName", "IsName"]
func GetterNames(property string) []string {
	exported := ExportedName(property)
	if exported == "" {
		return nil
	}
	return []string{exported, "Get" + exported, "Is" + exported}
}

// ApplyPrefix combines a prefix with a key to create a nested path.
// If prefix is empty, returns the key unchanged.
// Examples:
//   - ApplyPrefix("types[0]", "properties[1]") → "types[0].properties[1]"
//   - ApplyPrefix("", "types[0]") → "types[0]"
func ApplyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}
