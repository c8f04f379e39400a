package threads

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"threadscraper/pkg/errors"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/models"
)

// deletedKeywords mark a post the host has withdrawn. English-only, like
// the rest of the heuristics; other locales are a known limitation.
var deletedKeywords = []string{
	"unavailable",
	"deleted",
	"removed",
	"no longer available",
	"not available",
}

// Extractor turns item snapshots into repost records. Every field degrades
// to an empty value on its own; only an unusable snapshot fails the item.
type Extractor struct {
	cascades Cascades
	logger   logger.Logger
}

// NewExtractor creates an extractor over the given selector cascades.
func NewExtractor(cascades Cascades) *Extractor {
	return &Extractor{
		cascades: cascades,
		logger:   logger.GetLogger(),
	}
}

// ExtractItem extracts a repost record from one item snapshot.
//
// Author fields are resolved first so the text strategy can eliminate
// them from its candidate pool. The deletion check runs on the resolved
// text and short-circuits timestamp and permalink extraction.
func (e *Extractor) ExtractItem(item *Item) (models.Repost, error) {
	if item == nil {
		return models.Repost{}, errors.New(errors.ErrorTypeExtraction, "nil item")
	}

	handle := e.extractAuthorHandle(item)
	name := e.extractAuthorName(item, handle)
	text := e.extractText(item, handle, name)

	if isDeletedText(text) {
		e.logger.Debug("Item marked deleted, using sentinel record")
		return models.DeletedRepost(), nil
	}

	ts, rawTS := e.extractTimestamp(item)
	postURL := e.extractPostURL(item)

	repost := models.Repost{
		Text:              text,
		AuthorHandle:      handle,
		AuthorDisplayName: name,
		Timestamp:         ts,
		RawTimestamp:      rawTS,
		SourceURL:         postURL,
		PartCount:         1,
	}

	e.logger.WithField("author", repost.AuthorHandle).Debug("Extracted repost")
	return repost, nil
}

// extractAuthorHandle resolves the author handle from profile-link targets,
// with the link's own text as fallback.
func (e *Extractor) extractAuthorHandle(item *Item) string {
	for _, sel := range e.cascades.AuthorUsername {
		s := item.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if href, ok := s.Attr("href"); ok {
			if handle := handleFromHref(href); handle != "" {
				return handle
			}
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			return strings.TrimPrefix(text, "@")
		}
	}
	return ""
}

// handleFromHref extracts the path segment following the profile marker.
func handleFromHref(href string) string {
	idx := strings.Index(href, "/@")
	if idx < 0 {
		return ""
	}
	handle := href[idx+2:]
	for _, cut := range []string{"/", "?", "#"} {
		if j := strings.Index(handle, cut); j >= 0 {
			handle = handle[:j]
		}
	}
	return handle
}

// extractAuthorName returns the first non-empty, non-handle text among the
// first 3 candidates matched by the name cascade, in document order.
func (e *Extractor) extractAuthorName(item *Item, handle string) string {
	for _, sel := range e.cascades.AuthorName {
		var name string
		item.Find(sel).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= 3 {
				return false
			}
			text := strings.TrimSpace(s.Text())
			if text == "" || strings.HasPrefix(text, "@") {
				return true
			}
			if handle != "" && strings.EqualFold(text, handle) {
				return true
			}
			name = text
			return false
		})
		if name != "" {
			return name
		}
	}
	return ""
}

// extractText resolves the post body with the candidate-gathering strategy:
// the first cascade entry whose matches survive the exclusion rules
// provides the candidate pool, and the longest multi-word candidate wins.
func (e *Extractor) extractText(item *Item, handle, name string) string {
	for _, sel := range e.cascades.PostText {
		candidates := e.gatherCandidates(item, sel, handle, name)
		if len(candidates) == 0 {
			continue
		}
		return pickCandidate(candidates)
	}
	return e.flattenedTextFallback(item, handle, name)
}

func (e *Extractor) gatherCandidates(item *Item, sel, handle, name string) []string {
	var candidates []string
	seen := make(map[string]struct{})
	item.Find(sel).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || excludedCandidate(text, handle, name) {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		candidates = append(candidates, text)
	})
	return candidates
}

// excludedCandidate drops author echoes, tiny tokens, bare engagement
// counters and relative-time labels from the candidate pool.
func excludedCandidate(text, handle, name string) bool {
	if handle != "" {
		if strings.EqualFold(text, handle) || strings.EqualFold(text, "@"+handle) {
			return true
		}
	}
	if name != "" && strings.EqualFold(text, name) {
		return true
	}
	if !containsWhitespace(text) && utf8.RuneCountInString(text) <= 3 {
		return true
	}
	if isNumeric(text) {
		return true
	}
	if isRelativeTimeToken(text) {
		return true
	}
	return false
}

// pickCandidate prefers the longest candidate that reads like prose
// (contains whitespace or exceeds 30 characters); multi-word content beats
// single-token matches such as usernames. Falls back to the longest
// candidate overall.
func pickCandidate(candidates []string) string {
	var best, bestAny string
	for _, c := range candidates {
		if len(c) > len(bestAny) {
			bestAny = c
		}
		if containsWhitespace(c) || utf8.RuneCountInString(c) > 30 {
			if len(c) > len(best) {
				best = c
			}
		}
	}
	if best != "" {
		return best
	}
	return bestAny
}

// flattenedTextFallback filters the item's full visible text by the same
// exclusion rules when the cascade yields nothing.
func (e *Extractor) flattenedTextFallback(item *Item, handle, name string) string {
	var filtered, content []string
	for _, line := range item.Lines() {
		if excludedCandidate(line, handle, name) {
			continue
		}
		filtered = append(filtered, line)
		if containsWhitespace(line) || utf8.RuneCountInString(line) > 30 {
			content = append(content, line)
		}
	}
	if len(content) > 0 {
		return strings.Join(content, "\n")
	}
	return strings.Join(filtered, "\n")
}

// extractTimestamp prefers a machine-readable datetime attribute, then the
// element's visible text; on total parse failure the raw text is retained
// with a nil parsed time rather than dropping the item.
func (e *Extractor) extractTimestamp(item *Item) (*time.Time, string) {
	for _, sel := range e.cascades.Timestamp {
		s := item.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if attr, ok := s.Attr("datetime"); ok && attr != "" {
			if t, err := dateparse.ParseAny(attr); err == nil {
				return &t, attr
			}
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			if t, err := dateparse.ParseAny(text); err == nil {
				return &t, text
			}
			return nil, text
		}
	}
	return nil, ""
}

// extractPostURL locates the permalink anchor and normalizes relative
// paths to absolute.
func (e *Extractor) extractPostURL(item *Item) string {
	for _, sel := range e.cascades.PostLink {
		s := item.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if href, ok := s.Attr("href"); ok && href != "" {
			if strings.HasPrefix(href, "/") {
				return SiteOrigin + href
			}
			return href
		}
	}
	return ""
}

func isDeletedText(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range deletedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func containsWhitespace(s string) bool {
	return strings.ContainsAny(s, " \t\n")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// relativeTimePattern matches compact relative-time labels ("5h", "12m").
var relativeTimePattern = regexp.MustCompile(`^\d+\s*[smhdw]$`)

// cjkTimeSuffixes are the relative-time suffixes observed in the wild on
// localized listings. Other locales will slip through; carried forward as
// a known limitation.
var cjkTimeSuffixes = []string{"시간", "분", "일", "주"}

func isRelativeTimeToken(s string) bool {
	if utf8.RuneCountInString(s) >= 10 {
		return false
	}
	if relativeTimePattern.MatchString(s) {
		return true
	}
	for _, suffix := range cjkTimeSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
