// Package device handles the serialized-unit registry attached to products
// and document lines: an ordered list of device IDs (IMEI/serial) with an
// optional size/variant label per unit, stored as two comma-joined text
// columns kept in positional sync.
package device

import (
	"strings"
)

// Unit is one serialized unit: a device ID and its size/variant label.
// Size is empty for products without variants.
type Unit struct {
	ID   string
	Size string
}

// Normalize trims surrounding whitespace from a device ID.
// Matching is done on normalized IDs; storage keeps the normalized form.
func Normalize(deviceID string) string {
	return strings.TrimSpace(deviceID)
}

// Equal reports whether two device IDs refer to the same unit.
// Comparison is case-insensitive after trimming.
func Equal(a, b string) bool {
	return strings.EqualFold(Normalize(a), Normalize(b))
}

// Parse decodes comma-joined id and size columns into ordered units.
// Blank ID segments are dropped together with their positional size.
// A size list shorter than the ID list yields empty sizes for the tail;
// extra sizes are ignored. Parse never fails.
func Parse(ids, sizes string) []Unit {
	if strings.TrimSpace(ids) == "" {
		return nil
	}

	idParts := strings.Split(ids, ",")
	var sizeParts []string
	if sizes != "" {
		sizeParts = strings.Split(sizes, ",")
	}

	units := make([]Unit, 0, len(idParts))
	for i, raw := range idParts {
		id := Normalize(raw)
		if id == "" {
			continue
		}
		size := ""
		if i < len(sizeParts) {
			size = strings.TrimSpace(sizeParts[i])
		}
		units = append(units, Unit{ID: id, Size: size})
	}

	if len(units) == 0 {
		return nil
	}
	return units
}

// Join encodes units back into the two comma-joined columns.
// Units with blank IDs are skipped; order is preserved.
// Join(Parse(ids, sizes)) returns the normalized form of the input.
func Join(units []Unit) (ids, sizes string) {
	if len(units) == 0 {
		return "", ""
	}

	idParts := make([]string, 0, len(units))
	sizeParts := make([]string, 0, len(units))
	for _, u := range units {
		id := Normalize(u.ID)
		if id == "" {
			continue
		}
		idParts = append(idParts, id)
		sizeParts = append(sizeParts, strings.TrimSpace(u.Size))
	}

	return strings.Join(idParts, ","), strings.Join(sizeParts, ",")
}

// IDs returns just the device IDs of units, in order.
func IDs(units []Unit) []string {
	if len(units) == 0 {
		return nil
	}
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.ID
	}
	return out
}

// Contains reports whether units hold the given device ID (case-insensitive).
func Contains(units []Unit, deviceID string) bool {
	for _, u := range units {
		if Equal(u.ID, deviceID) {
			return true
		}
	}
	return false
}

// SizeFor returns the size label recorded for deviceID, or empty string
// if the ID is not in the registry.
func SizeFor(units []Unit, deviceID string) string {
	for _, u := range units {
		if Equal(u.ID, deviceID) {
			return u.Size
		}
	}
	return ""
}
