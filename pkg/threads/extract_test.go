package threads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadscraper/pkg/models"
)

func mustItem(t *testing.T, html, text string) *Item {
	t.Helper()
	item, err := NewItem(Snapshot{HTML: html, Text: text})
	require.NoError(t, err)
	return item
}

func TestExtractItemFullRecord(t *testing.T) {
	html := `<div data-pressable-container="true">
		<a href="/@janedoe">janedoe</a>
		<span dir="auto">Jane Doe</span>
		<div dir="auto">Hello world, this is my post</div>
		<time datetime="2026-01-15T10:30:00Z">15h</time>
		<a href="/@janedoe/post/C12345abcde">permalink</a>
	</div>`

	e := NewExtractor(DefaultCascades())
	repost, err := e.ExtractItem(mustItem(t, html, ""))
	require.NoError(t, err)

	assert.Equal(t, "janedoe", repost.AuthorHandle)
	assert.Equal(t, "Jane Doe", repost.AuthorDisplayName)
	assert.Equal(t, "Hello world, this is my post", repost.Text)
	assert.Equal(t, "https://www.threads.net/@janedoe/post/C12345abcde", repost.SourceURL)
	assert.False(t, repost.IsDeleted)
	assert.Equal(t, 1, repost.PartCount)

	require.NotNil(t, repost.Timestamp)
	want := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	assert.True(t, repost.Timestamp.Equal(want), "got %v", repost.Timestamp)
	assert.Equal(t, "2026-01-15T10:30:00Z", repost.RawTimestamp)
}

func TestExtractItemCandidateSelection(t *testing.T) {
	// Author echoes must lose to the multi-word body even when they match
	// the same cascade entry.
	html := `<div data-pressable-container="true">
		<a href="/@janedoe">janedoe</a>
		<div dir="auto">janedoe</div>
		<div dir="auto">Jane Doe</div>
		<div dir="auto">Hello world, this is my post</div>
	</div>`

	e := NewExtractor(DefaultCascades())
	repost, err := e.ExtractItem(mustItem(t, html, ""))
	require.NoError(t, err)
	assert.Equal(t, "Hello world, this is my post", repost.Text)
}

func TestExtractItemDiscardsCountersAndTimeTokens(t *testing.T) {
	html := `<div data-pressable-container="true">
		<a href="/@bob">bob</a>
		<div dir="auto">1524</div>
		<div dir="auto">5h</div>
		<div dir="auto">A real sentence about something</div>
	</div>`

	e := NewExtractor(DefaultCascades())
	repost, err := e.ExtractItem(mustItem(t, html, ""))
	require.NoError(t, err)
	assert.Equal(t, "A real sentence about something", repost.Text)
}

func TestExtractItemDeletedSentinel(t *testing.T) {
	html := `<div data-pressable-container="true">
		<a href="/@ghost">ghost</a>
		<div dir="auto">Sorry, this post is unavailable</div>
		<time datetime="2026-01-15T10:30:00Z">15h</time>
		<a href="/@ghost/post/Cdead">permalink</a>
	</div>`

	e := NewExtractor(DefaultCascades())
	repost, err := e.ExtractItem(mustItem(t, html, ""))
	require.NoError(t, err)

	assert.True(t, repost.IsDeleted)
	assert.Equal(t, models.DeletedText, repost.Text)
	assert.Empty(t, repost.AuthorHandle)
	assert.Empty(t, repost.SourceURL)
	assert.Nil(t, repost.Timestamp)
}

func TestExtractItemTimestampFallsBackToRawText(t *testing.T) {
	html := `<div data-pressable-container="true">
		<a href="/@carol">carol</a>
		<div dir="auto">Words that form a real post body</div>
		<time>15h</time>
	</div>`

	e := NewExtractor(DefaultCascades())
	repost, err := e.ExtractItem(mustItem(t, html, ""))
	require.NoError(t, err)

	assert.Nil(t, repost.Timestamp)
	assert.Equal(t, "15h", repost.RawTimestamp)
}

func TestExtractItemHandleTextFallback(t *testing.T) {
	html := `<div data-pressable-container="true">
		<span dir="ltr">@someuser</span>
		<div dir="auto">Body text with several words</div>
	</div>`

	e := NewExtractor(DefaultCascades())
	repost, err := e.ExtractItem(mustItem(t, html, ""))
	require.NoError(t, err)
	assert.Equal(t, "someuser", repost.AuthorHandle)
}

func TestExtractItemFlattenedFallback(t *testing.T) {
	// Markup matched by no text selector; extraction falls back to
	// filtering the visible text.
	cascades := DefaultCascades()
	cascades.PostText = []string{`p[data-missing]`}

	html := `<div data-pressable-container="true"><a href="/@dave">dave</a></div>`
	text := "dave\n42\nThe actual body of the repost lives here\n5h"

	e := NewExtractor(cascades)
	repost, err := e.ExtractItem(mustItem(t, html, text))
	require.NoError(t, err)
	assert.Equal(t, "The actual body of the repost lives here", repost.Text)
}

func TestExtractItemPartialFailureDegrades(t *testing.T) {
	// Nothing matches anything: an empty record, not an error.
	repost, err := NewExtractor(DefaultCascades()).ExtractItem(mustItem(t, "<div><p>ok</p></div>", ""))
	require.NoError(t, err)
	assert.Empty(t, repost.AuthorHandle)
	assert.Empty(t, repost.SourceURL)
	assert.Nil(t, repost.Timestamp)
}

func TestExtractItemNilItem(t *testing.T) {
	_, err := NewExtractor(DefaultCascades()).ExtractItem(nil)
	assert.Error(t, err)
}

func TestNewItemRejectsEmptySnapshot(t *testing.T) {
	_, err := NewItem(Snapshot{HTML: "   "})
	assert.Error(t, err)
}

func TestHandleFromHref(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/@janedoe", "janedoe"},
		{"/@janedoe/post/C123", "janedoe"},
		{"https://www.threads.net/@janedoe?igshid=x", "janedoe"},
		{"/post/C123", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, handleFromHref(tt.href), "href %q", tt.href)
	}
}
