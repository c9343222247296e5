package rendersuperv

import (
	"sort"
	"time"
)

const figureSetLayout = "20060102150405"

// filterFigureSetsToDelete returns archived figure-set dir names to delete.
// setDirs: list of dir names in "YYYYMMDDHHMMSS" format.
// keepLast: how many sets to keep.
func filterFigureSetsToDelete(setDirs []string, keepLast int) []string {
	type dirWithTime struct {
		name string
		t    time.Time
	}

	parsed := make([]dirWithTime, 0, len(setDirs))
	for _, name := range setDirs {
		t, err := time.Parse(figureSetLayout, name)
		if err != nil {
			// Skip invalid format
			continue
		}
		parsed = append(parsed, dirWithTime{name, t})
	}

	sort.Slice(parsed, func(i, j int) bool {
		return parsed[i].t.After(parsed[j].t) // newest first
	})

	if keepLast >= len(parsed) {
		return nil
	}

	toDelete := make([]string, 0, len(parsed))
	for _, entry := range parsed[keepLast:] {
		toDelete = append(toDelete, entry.name)
	}

	return toDelete
}
