package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadscraper/pkg/dedup"
	"threadscraper/pkg/models"
)

func sampleResult() *models.Result {
	posted := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	return &models.Result{
		Username: "janedoe",
		Reposts: []models.Repost{
			{
				Text:              "Hello world, this is my post",
				AuthorHandle:      "alice",
				AuthorDisplayName: "Alice A",
				Timestamp:         &posted,
				SourceURL:         "https://www.threads.net/@alice/post/C111",
				PartCount:         1,
			},
			{
				Text:         "[1/2]\nFirst part\n\n---\n\n[2/2]\nSecond part",
				AuthorHandle: "bob",
				RawTimestamp: "15h",
				SourceURL:    "https://threads.net/@bob/post/C222",
				IsComposite:  true,
				PartCount:    2,
			},
			models.DeletedRepost(),
		},
		TotalCount:   3,
		SuccessCount: 2,
		NewCount:     3,
		ScrapedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestFilename(t *testing.T) {
	w := NewWriter(t.TempDir())
	assert.Equal(t, "threads_reposts_@janedoe_20260830_120000.md", w.Filename(sampleResult()))
}

func TestRender(t *testing.T) {
	content := Render(sampleResult())

	assert.Contains(t, content, "# Reposts by @janedoe")
	assert.Contains(t, content, "## 1. Alice A (@alice)")
	assert.Contains(t, content, "**Posted**: 2026-01-15 10:30 UTC")
	assert.Contains(t, content, "**Source**: [View on Threads](https://www.threads.net/@alice/post/C111)")
	assert.Contains(t, content, "## 2. @bob")
	assert.Contains(t, content, "**Posted**: 15h")
	assert.Contains(t, content, "_Multi-part thread (2 parts)_")
	assert.Contains(t, content, "## 3. "+models.DeletedText)
	assert.Contains(t, content, "**Date range**: 2026-01-15 to 2026-01-15")

	// Deleted records carry no permalink line.
	assert.Equal(t, 2, strings.Count(content, "**Source**:"))
}

func TestWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Write(sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "threads_reposts_@janedoe_20260830_120000.md"), path)

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestExportsFeedTheDedupIndex(t *testing.T) {
	// The index built from a written export must recognize every
	// permalink that went into it.
	dir := t.TempDir()
	w := NewWriter(dir)
	result := sampleResult()

	_, err := w.Write(result)
	require.NoError(t, err)

	idx, err := dedup.Load(dir, result.Username)
	require.NoError(t, err)
	require.Equal(t, 2, idx.Size())
	assert.True(t, idx.Known("https://threads.net/@alice/post/C111"))
	assert.True(t, idx.Known("https://www.threads.net/@bob/post/C222"))
}
