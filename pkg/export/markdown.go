package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"threadscraper/pkg/errors"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/models"
)

// Writer renders scraping results to markdown files in the output
// directory. File naming and the per-record Source line are load-bearing:
// later runs rebuild their deduplication index by scanning them.
type Writer struct {
	dir    string
	logger logger.Logger
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger.GetLogger(),
	}
}

// Filename returns the export filename for a result.
func (w *Writer) Filename(result *models.Result) string {
	return fmt.Sprintf("threads_reposts_@%s_%s.md",
		result.Username, result.ScrapedAt.Format("20060102_150405"))
}

// Write renders the result and writes it atomically, returning the final
// path. A partially written file must never be left behind: the next run
// would index it.
func (w *Writer) Write(result *models.Result) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrorTypeExport, "creating output directory", err)
	}

	path := filepath.Join(w.dir, w.Filename(result))
	content := Render(result)

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(content), 0644); err != nil {
		return "", errors.Wrap(errors.ErrorTypeExport, "writing export file", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", errors.Wrap(errors.ErrorTypeExport, "finalizing export file", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"file":    path,
		"reposts": len(result.Reposts),
	}).Info("Export written")
	return path, nil
}

// Render produces the markdown document for a result.
func Render(result *models.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Reposts by @%s\n\n", result.Username)
	fmt.Fprintf(&b, "**Scraped**: %s\n", result.ScrapedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "**Reposts**: %d new", result.NewCount)
	if result.DuplicateCount > 0 {
		fmt.Fprintf(&b, " (%d already exported)", result.DuplicateCount)
	}
	b.WriteString("\n")

	if oldest, newest, ok := result.DateRange(); ok {
		fmt.Fprintf(&b, "**Date range**: %s to %s\n",
			oldest.Format("2006-01-02"), newest.Format("2006-01-02"))
	}

	b.WriteString("\n---\n")

	for i, r := range result.Reposts {
		b.WriteString("\n")
		renderRepost(&b, i+1, r)
		b.WriteString("\n---\n")
	}

	if len(result.Errors) > 0 {
		b.WriteString("\n## Run errors\n\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	return b.String()
}

func renderRepost(b *strings.Builder, n int, r models.Repost) {
	switch {
	case r.IsDeleted:
		fmt.Fprintf(b, "## %d. %s\n", n, models.DeletedText)
		return
	case r.AuthorDisplayName != "" && r.AuthorHandle != "":
		fmt.Fprintf(b, "## %d. %s (@%s)\n", n, r.AuthorDisplayName, r.AuthorHandle)
	case r.AuthorHandle != "":
		fmt.Fprintf(b, "## %d. @%s\n", n, r.AuthorHandle)
	default:
		fmt.Fprintf(b, "## %d. Unknown author\n", n)
	}

	if posted := postedLine(r); posted != "" {
		fmt.Fprintf(b, "\n**Posted**: %s\n", posted)
	}
	if r.IsComposite {
		fmt.Fprintf(b, "\n_Multi-part thread (%d parts)_\n", r.PartCount)
	}

	if r.Text != "" {
		fmt.Fprintf(b, "\n%s\n", r.Text)
	}

	if r.SourceURL != "" {
		fmt.Fprintf(b, "\n**Source**: [View on Threads](%s)\n", r.SourceURL)
	}
}

// postedLine prefers the parsed timestamp and falls back to the raw label
// scraped off the page ("15h" style), which is better than nothing.
func postedLine(r models.Repost) string {
	if r.Timestamp != nil {
		return r.Timestamp.Format("2006-01-02 15:04 MST")
	}
	return r.RawTimestamp
}
