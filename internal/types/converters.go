package types

import "strings"

// EquipmentNameSeparator joins equipment names in storage, so it may not
// appear inside a name.
const EquipmentNameSeparator = ","

// JoinEquipmentNames flattens equipment names into the comma-separated
// column format used by the classification table.
func JoinEquipmentNames(names []string) string {
	return strings.Join(names, EquipmentNameSeparator)
}

// SplitEquipmentNames reverses JoinEquipmentNames. Empty input yields an empty slice.
func SplitEquipmentNames(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return []string{}
	}
	parts := strings.Split(joined, EquipmentNameSeparator)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
