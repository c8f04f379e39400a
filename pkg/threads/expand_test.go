package threads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsComposite(t *testing.T) {
	tests := []struct {
		name string
		html string
		text string
		want bool
	}{
		{
			name: "numbered marker",
			html: "<div><p>1/5 How I migrated our stack</p></div>",
			text: "1/5 How I migrated our stack",
			want: true,
		},
		{
			name: "parenthesized marker",
			html: "<div><p>(1/3) A short story</p></div>",
			text: "(1/3) A short story",
			want: true,
		},
		{
			name: "thread glyph",
			html: "<div><p>Big announcement \U0001F9F5</p></div>",
			text: "Big announcement \U0001F9F5",
			want: true,
		},
		{
			name: "truncation ellipsis",
			html: "<div><p>It was the best of times...</p></div>",
			text: "It was the best of times...",
			want: true,
		},
		{
			name: "unicode ellipsis",
			html: "<div><p>It was the best of times…</p></div>",
			text: "It was the best of times…",
			want: true,
		},
		{
			name: "long text ending in colon",
			html: "<div><p>x</p></div>",
			text: strings.Repeat("words and more words ", 12) + "and here is the list:",
			want: true,
		},
		{
			name: "continuation anchor",
			html: `<div><p>A teaser line</p><a href="/@a/post/C1">Show more</a></div>`,
			text: "A teaser line",
			want: true,
		},
		{
			name: "plain post",
			html: "<div><p>Just a regular single post.</p></div>",
			text: "Just a regular single post.",
			want: false,
		},
		{
			name: "short colon text",
			html: "<div><p>Heads up:</p></div>",
			text: "Heads up:",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := mustItem(t, tt.html, tt.text)
			assert.Equal(t, tt.want, IsComposite(item))
		})
	}
}

func TestIsCompositeNilItem(t *testing.T) {
	assert.False(t, IsComposite(nil))
}

func TestOwnedBy(t *testing.T) {
	item := mustItem(t, `<div><a href="/@janedoe/post/C1">x</a></div>`, "")

	assert.True(t, OwnedBy(item, "janedoe"))
	assert.False(t, OwnedBy(item, "someoneelse"))
	assert.False(t, OwnedBy(item, ""))
	assert.False(t, OwnedBy(nil, "janedoe"))
}

func TestFragmentText(t *testing.T) {
	text := strings.Join([]string{
		"janedoe",
		"@janedoe",
		"Jane Doe",
		"128",
		"5h",
		"The first real line of the thread post",
		"and its continuation",
	}, "\n")

	item := mustItem(t, "<div>x</div>", text)
	got := FragmentText(item, "janedoe")

	// Display name survives here: ownership is already established and the
	// name may be part of the body.
	want := "Jane Doe\nThe first real line of the thread post\nand its continuation"
	assert.Equal(t, want, got)
}

func TestKeepFragment(t *testing.T) {
	assert.False(t, KeepFragment(""))
	assert.False(t, KeepFragment("too short"))
	assert.True(t, KeepFragment("long enough to keep"))
}

func TestFoldFragments(t *testing.T) {
	t.Run("zero keeps original", func(t *testing.T) {
		text, composite, parts := FoldFragments(nil)
		assert.Empty(t, text)
		assert.False(t, composite)
		assert.Zero(t, parts)
	})

	t.Run("one replaces verbatim", func(t *testing.T) {
		text, composite, parts := FoldFragments([]string{"The whole post, untruncated"})
		assert.Equal(t, "The whole post, untruncated", text)
		assert.False(t, composite)
		assert.Equal(t, 1, parts)
	})

	t.Run("two joined as numbered blocks", func(t *testing.T) {
		text, composite, parts := FoldFragments([]string{"A", "B"})
		assert.Equal(t, "[1/2]\nA\n\n---\n\n[2/2]\nB", text)
		assert.True(t, composite)
		assert.Equal(t, 2, parts)
	})

	t.Run("three", func(t *testing.T) {
		text, _, parts := FoldFragments([]string{"A", "B", "C"})
		assert.Equal(t, 3, parts)
		assert.Contains(t, text, "[2/3]\nB")
	})
}
