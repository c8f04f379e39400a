package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadscraper/pkg/config"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/models"
	"threadscraper/pkg/ratelimit"
	"threadscraper/pkg/threads"
)

// fakeExpander serves canned fragments per permalink.
type fakeExpander struct {
	fragments map[string][]string
	calls     []string
}

func (f *fakeExpander) Expand(_ context.Context, permalink, _ string) ([]string, error) {
	f.calls = append(f.calls, permalink)
	return f.fragments[permalink], nil
}

func listingItem(handle, text, postID string) threads.Snapshot {
	return threads.Snapshot{
		HTML: `<div data-pressable-container="true">
			<a href="/@` + handle + `">` + handle + `</a>
			<div dir="auto">` + text + `</div>
			<a href="/@` + handle + `/post/` + postID + `">permalink</a>
		</div>`,
		Text: handle + "\n" + text,
	}
}

func newTestScraper(t *testing.T, cfg *config.Config, expander Expander) *Scraper {
	t.Helper()
	cascades := threads.DefaultCascades()
	return &Scraper{
		cfg:       cfg,
		cascades:  cascades,
		extractor: threads.NewExtractor(cascades),
		expander:  expander,
		limiter:   ratelimit.PerMinute(10000),
		logger:    logger.GetLogger(),
	}
}

func TestPipelineProcessesListing(t *testing.T) {
	outputDir := t.TempDir()

	// A previous export already contains the duplicate's permalink.
	previous := "**Source**: [View on Threads](https://www.threads.net/@dave/post/Cdup)\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(outputDir, "threads_reposts_@janedoe_20260101_120000.md"),
		[]byte(previous), 0644))

	cfg := config.DefaultConfig()
	cfg.Output.Directory = outputDir

	expander := &fakeExpander{fragments: map[string][]string{
		"https://www.threads.net/@bob/post/Cthread": {
			"First part of the thread",
			"Second part of the thread",
			"Third part of the thread",
		},
	}}
	s := newTestScraper(t, cfg, expander)

	snaps := []threads.Snapshot{
		listingItem("alice", "A plain repost with some words", "C1"),
		listingItem("bob", "1/3 A thread about something...", "Cthread"),
		listingItem("ghost", "Sorry, this post is unavailable", "Cgone"),
		listingItem("carol", "Another plain repost entirely", "C2"),
		listingItem("dave", "Already exported in a previous run", "Cdup"),
	}

	reposts, itemErrors := s.processItems(context.Background(), snaps)
	require.Empty(t, itemErrors)
	require.Len(t, reposts, 5)

	result := &models.Result{Username: "janedoe", ScrapedAt: time.Now().UTC()}
	require.NoError(t, s.finalize(result, reposts))

	// The duplicate is dropped, everything else survives.
	assert.Equal(t, 4, result.TotalCount)
	assert.Equal(t, 4, result.NewCount)
	assert.Equal(t, 1, result.DuplicateCount)
	assert.Equal(t, 3, result.SuccessCount) // deleted stub is not a success
	assert.Equal(t, 1, result.FailedCount())

	// The composite was expanded and folded.
	var thread models.Repost
	for _, r := range result.Reposts {
		if r.AuthorHandle == "bob" {
			thread = r
		}
	}
	assert.True(t, thread.IsComposite)
	assert.Equal(t, 3, thread.PartCount)
	assert.Contains(t, thread.Text, "[1/3]\nFirst part of the thread")
	assert.Contains(t, thread.Text, "\n\n---\n\n[2/3]\n")

	// Only the composite's permalink was fetched.
	assert.Equal(t, []string{"https://www.threads.net/@bob/post/Cthread"}, expander.calls)

	// The deleted stub kept its sentinel shape.
	var deleted models.Repost
	for _, r := range result.Reposts {
		if r.IsDeleted {
			deleted = r
		}
	}
	assert.Equal(t, models.DeletedText, deleted.Text)
	assert.Empty(t, deleted.SourceURL)
}

func TestProcessItemsSkipsUnusableSnapshots(t *testing.T) {
	s := newTestScraper(t, config.DefaultConfig(), &fakeExpander{})

	snaps := []threads.Snapshot{
		{HTML: "   "},
		listingItem("alice", "A plain repost with some words", "C1"),
	}

	reposts, itemErrors := s.processItems(context.Background(), snaps)
	assert.Len(t, reposts, 1)
	assert.Len(t, itemErrors, 1)
}

func TestExpandKeepsOriginalOnEmptyThreadPage(t *testing.T) {
	s := newTestScraper(t, config.DefaultConfig(), &fakeExpander{})

	snaps := []threads.Snapshot{
		listingItem("bob", "1/2 A thread that will not expand", "Cthread"),
	}

	reposts, itemErrors := s.processItems(context.Background(), snaps)
	require.Empty(t, itemErrors)
	require.Len(t, reposts, 1)

	assert.Equal(t, "1/2 A thread that will not expand", reposts[0].Text)
	assert.False(t, reposts[0].IsComposite)
	assert.Equal(t, 1, reposts[0].PartCount)
}

func TestExpandSingleFragmentReplacesText(t *testing.T) {
	expander := &fakeExpander{fragments: map[string][]string{
		"https://www.threads.net/@bob/post/Cthread": {"The full untruncated text of the post"},
	}}
	s := newTestScraper(t, config.DefaultConfig(), expander)

	snaps := []threads.Snapshot{
		listingItem("bob", "The full untruncated text of the...", "Cthread"),
	}

	reposts, _ := s.processItems(context.Background(), snaps)
	require.Len(t, reposts, 1)
	assert.Equal(t, "The full untruncated text of the post", reposts[0].Text)
	assert.False(t, reposts[0].IsComposite)
	assert.Equal(t, 1, reposts[0].PartCount)
}

func TestFinalizeAppliesPostCap(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Directory = t.TempDir()
	cfg.Scraper.MaxPosts = 2
	s := newTestScraper(t, cfg, &fakeExpander{})

	reposts := []models.Repost{
		{Text: "one", SourceURL: "https://threads.net/@a/post/1"},
		{Text: "two", SourceURL: "https://threads.net/@a/post/2"},
		{Text: "three", SourceURL: "https://threads.net/@a/post/3"},
	}

	result := &models.Result{Username: "janedoe"}
	require.NoError(t, s.finalize(result, reposts))
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, "one", result.Reposts[0].Text)
	assert.Equal(t, "two", result.Reposts[1].Text)
}

func TestFinalizeSkipDedup(t *testing.T) {
	outputDir := t.TempDir()
	previous := "**Source**: [View on Threads](https://threads.net/@a/post/1)\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(outputDir, "threads_reposts_@janedoe_20260101_120000.md"),
		[]byte(previous), 0644))

	cfg := config.DefaultConfig()
	cfg.Output.Directory = outputDir
	cfg.Scraper.SkipDedup = true
	s := newTestScraper(t, cfg, &fakeExpander{})

	reposts := []models.Repost{
		{Text: "would be a duplicate", SourceURL: "https://threads.net/@a/post/1"},
	}

	result := &models.Result{Username: "janedoe"}
	require.NoError(t, s.finalize(result, reposts))
	assert.Equal(t, 1, result.TotalCount)
	assert.Zero(t, result.DuplicateCount)
}
