package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"cayman-scraper/utils"
)

// DefaultLogPatterns are the run-log files the scrapers and cron wrappers
// leave behind.
var DefaultLogPatterns = []string{
	"cireba-*.txt",
	"ecaytrade-*.txt",
	"mls-filter-*.txt",
	"run-all-*.txt",
	"database-cleanup-*.txt",
}

// Logs removes log files under dir matching the given patterns whose
// modification time is older than ttlDays. Returns the number of files
// removed. Individual removal failures are logged and skipped; log cleanup
// never fails a run.
func Logs(dir string, patterns []string, ttlDays int, logger *utils.Logger) int {
	cutoff := time.Now().AddDate(0, 0, -ttlDays)
	removed := 0

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			logger.Warn("[cleanup] Bad log pattern %q: %v", pattern, err)
			continue
		}

		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				logger.Warn("[cleanup] Could not remove %s: %v", path, err)
				continue
			}
			removed++
		}
	}

	logger.Info("[cleanup] Removed %d log files older than %d days", removed, ttlDays)
	return removed
}
