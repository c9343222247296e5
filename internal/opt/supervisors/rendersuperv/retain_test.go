package rendersuperv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterFigureSetsToDelete(t *testing.T) {
	tests := []struct {
		name       string
		setDirs    []string
		keepLast   int
		wantDelete []string
	}{
		{
			name: "nothing to delete when under the limit",
			setDirs: []string{
				"20250613100000",
				"20250612120000",
			},
			keepLast:   3,
			wantDelete: nil,
		},
		{
			name: "oldest sets deleted",
			setDirs: []string{
				"20250613100000",
				"20250611100000",
				"20250610090000",
				"20250609080000",
			},
			keepLast: 2,
			wantDelete: []string{
				"20250610090000",
				"20250609080000",
			},
		},
		{
			name: "unsorted input handled",
			setDirs: []string{
				"20250609080000",
				"20250613100000",
				"20250610090000",
			},
			keepLast: 1,
			wantDelete: []string{
				"20250610090000",
				"20250609080000",
			},
		},
		{
			name: "invalid dir names ignored",
			setDirs: []string{
				"20250613100000",
				"manifest.json",
				"20250609000000",
			},
			keepLast: 1,
			wantDelete: []string{
				"20250609000000",
			},
		},
		{
			name:       "empty input",
			setDirs:    []string{},
			keepLast:   5,
			wantDelete: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDelete := filterFigureSetsToDelete(tt.setDirs, tt.keepLast)
			assert.Equal(t, tt.wantDelete, gotDelete)
		})
	}
}
