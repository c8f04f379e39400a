package dedup

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"threadscraper/pkg/logger"
	"threadscraper/pkg/models"
)

// sourceLinePattern matches the permalink line previous exports wrote for
// each record. The renderer and this pattern form a contract: if one
// changes shape, the other must follow or cross-run deduplication silently
// stops working.
var sourceLinePattern = regexp.MustCompile(`\*\*Source\*\*:\s*\[View on Threads\]\((https?://(?:www\.)?threads\.net/@[^/]+/post/[^)]+)\)`)

// Index holds the permalinks already exported for one profile. Built by
// scanning that profile's previous export files in the output directory.
type Index struct {
	username string
	seen     map[string]struct{}
	files    int
	logger   logger.Logger
}

// NormalizeURL canonicalizes a permalink for comparison. The host appears
// both with and without the www prefix depending on how the page rendered.
func NormalizeURL(url string) string {
	return strings.Replace(url, "www.threads.net", "threads.net", 1)
}

// Load scans dir for previous exports of username's reposts and builds
// the permalink index. A missing or empty directory yields an empty index,
// not an error: first runs are the common case.
func Load(dir, username string) (*Index, error) {
	idx := &Index{
		username: username,
		seen:     make(map[string]struct{}),
		logger:   logger.GetLogger(),
	}

	pattern := filepath.Join(dir, fmt.Sprintf("threads_reposts_@%s_*.md", username))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("scanning previous exports: %w", err)
	}

	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			// A single unreadable export should not abort the run.
			idx.logger.WithError(err).WithField("file", path).Warn("Skipping unreadable export file")
			continue
		}
		for _, m := range sourceLinePattern.FindAllStringSubmatch(string(content), -1) {
			idx.seen[NormalizeURL(m[1])] = struct{}{}
		}
		idx.files++
	}

	idx.logger.DebugWithFields("Deduplication index loaded", map[string]interface{}{
		"username":   username,
		"files":      idx.files,
		"permalinks": len(idx.seen),
	})
	return idx, nil
}

// Size returns the number of known permalinks.
func (idx *Index) Size() int {
	return len(idx.seen)
}

// Files returns the number of export files scanned.
func (idx *Index) Files() int {
	return idx.files
}

// Known reports whether url was seen in a previous export. Records
// without a permalink are never considered known; there is nothing to
// compare, and dropping them would lose real content.
func (idx *Index) Known(url string) bool {
	if url == "" {
		return false
	}
	_, ok := idx.seen[NormalizeURL(url)]
	return ok
}

// Filter partitions a batch into fresh records and duplicates of earlier
// runs, preserving order. Filtering is idempotent: the index is not
// updated with the batch's own permalinks, so re-filtering the fresh set
// returns it unchanged.
func (idx *Index) Filter(reposts []models.Repost) (fresh, duplicates []models.Repost) {
	for _, r := range reposts {
		if idx.Known(r.SourceURL) {
			duplicates = append(duplicates, r)
			continue
		}
		fresh = append(fresh, r)
	}
	logger.LogDedup(idx.username, len(fresh), len(duplicates))
	return fresh, duplicates
}
