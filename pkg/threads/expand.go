package threads

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// minFragmentLength filters noise fragments collected on a thread page.
const minFragmentLength = 10

// threadMarkers are tokens whose presence anywhere in an item's text flag
// it as part of a multi-post thread.
var threadMarkers = []string{
	"1/",
	"(1/",
	"\U0001F9F5", // thread glyph
	"Thread:",
	"thread:",
}

// moreLinkVocabulary matches anchors that lead to the full thread.
var moreLinkVocabulary = []string{
	"view",
	"thread",
	"more",
	"see more",
	"show more",
}

// IsComposite reports whether an item looks like a truncated view of a
// multi-part post. First heuristic match wins; detection is independent of
// field extraction.
func IsComposite(item *Item) bool {
	if item == nil {
		return false
	}
	text := item.InnerText()

	for _, marker := range threadMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "...") || strings.HasSuffix(trimmed, "…") {
		return true
	}

	// A long block that stops on a colon usually continues in a reply.
	if utf8.RuneCountInString(trimmed) > 200 && strings.HasSuffix(trimmed, ":") {
		return true
	}

	var hasMoreLink bool
	item.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		linkText := strings.ToLower(strings.TrimSpace(s.Text()))
		if linkText == "" {
			return true
		}
		for _, phrase := range moreLinkVocabulary {
			if strings.Contains(linkText, phrase) {
				hasMoreLink = true
				return false
			}
		}
		return true
	})
	return hasMoreLink
}

// OwnedBy reports whether the item was authored by handle. Ownership is
// determined by the presence of a profile link prefixed with the handle,
// not by display name, which is not reliably unique.
func OwnedBy(item *Item, handle string) bool {
	if item == nil || handle == "" {
		return false
	}
	sel := fmt.Sprintf(`a[href^="/@%s"]`, handle)
	return item.Find(sel).Length() > 0
}

// FragmentText extracts one thread post's text for expansion. The
// exclusion rules match regular text extraction except that author-name
// elimination is skipped: ownership is already confirmed, and the display
// name may legitimately appear in the body.
func FragmentText(item *Item, handle string) string {
	var kept []string
	for _, line := range item.Lines() {
		if strings.EqualFold(line, handle) || strings.EqualFold(line, "@"+handle) {
			continue
		}
		if utf8.RuneCountInString(line) < 3 {
			continue
		}
		if isNumeric(line) || isRelativeTimeToken(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// KeepFragment reports whether a collected fragment is substantial enough
// to include in the chain.
func KeepFragment(text string) bool {
	return utf8.RuneCountInString(text) >= minFragmentLength
}

// FoldFragments folds an expanded thread chain into a single text block.
//
// Zero fragments means the expansion found nothing usable and the caller
// keeps its original text. A single fragment replaces the original
// verbatim (the thread page copy is typically cleaner than the truncated
// listing copy). Two or more are joined as numbered blocks.
func FoldFragments(fragments []string) (text string, composite bool, parts int) {
	switch len(fragments) {
	case 0:
		return "", false, 0
	case 1:
		return fragments[0], false, 1
	}

	blocks := make([]string, len(fragments))
	for i, frag := range fragments {
		blocks[i] = fmt.Sprintf("[%d/%d]\n%s", i+1, len(fragments), frag)
	}
	return strings.Join(blocks, "\n\n---\n\n"), true, len(fragments)
}
