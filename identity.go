package annotate

import "strings"

// Normalize canonicalises an external identifier. Surrounding whitespace is
// trimmed and purely numeric values lose their leading zeros ("06" -> "6").
// Anything else is returned trimmed but otherwise verbatim.
func Normalize(value string) string {
	trimmed := strings.TrimSpace(value)
	if !isDigits(trimmed) {
		return trimmed
	}
	canonical := strings.TrimLeft(trimmed, "0")
	if canonical == "" {
		return "0"
	}
	return canonical
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

// matchExternalID returns the index of the group matching externalID, or -1.
// Exact equality wins; the normalized scan only runs when nothing matched
// exactly and returns the first hit in slice order.
func matchExternalID(groups []Group, externalID string) int {
	if externalID == "" {
		return -1
	}
	for i := range groups {
		if groups[i].ExternalID == externalID {
			return i
		}
	}
	key := Normalize(externalID)
	if key == "" {
		return -1
	}
	for i := range groups {
		if Normalize(groups[i].ExternalID) == key {
			return i
		}
	}
	return -1
}
