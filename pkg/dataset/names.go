package dataset

import (
	"fmt"
	"path/filepath"
	"sort"

	"mriregdata/internal/models"
)

// Glob returns the files matching pattern in sorted order, so pair indices
// stay stable between runs
func Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no volumes found matching pattern %s: %w", pattern, models.ErrFileNotFound)
	}
	sort.Strings(matches)
	return matches, nil
}
