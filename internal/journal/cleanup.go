package journal

import (
	"fmt"
	"os"
	"time"
)

// Prune removes journal files last modified before cutoff and returns
// the paths it removed.
func Prune(dir string, cutoff time.Time) ([]string, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(file); err != nil {
			return removed, fmt.Errorf("remove %s: %w", file, err)
		}
		removed = append(removed, file)
	}
	return removed, nil
}
