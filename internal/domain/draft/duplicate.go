package draft

import (
	"tillpoint/internal/domain/device"
)

// HasDuplicate reports whether candidate already occupies a slot anywhere
// in the draft. Comparison is trimmed and case-insensitive. The excluded
// slot (the scan target itself, during a rescan-in-place) is skipped so a
// unit can be re-scanned into its own position.
func HasDuplicate(d *Draft, candidate string, exclude *SlotRef) bool {
	norm := device.Normalize(candidate)
	if norm == "" {
		return false
	}

	for li, line := range d.Lines {
		for si, u := range line.Units {
			if exclude != nil && exclude.LineIndex == li && exclude.SlotIndex == si {
				continue
			}
			if device.Equal(u.ID, norm) {
				return true
			}
		}
	}
	return false
}
