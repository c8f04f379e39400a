package threads

// SiteOrigin is prefixed to relative permalinks.
const SiteOrigin = "https://www.threads.net"

// Cascades holds the ordered structural-query fallback lists per logical
// field. Threads ships obfuscated CSS classes that rotate frequently, so
// every query targets attributes instead of class names and each field
// carries alternatives in decreasing order of confidence. Engines must try
// entries in order and stop at the first that yields a non-empty result for
// an item; winners from different positions are never mixed for the same
// field on the same item.
type Cascades struct {
	// ItemContainer locates one listing entry (a repost)
	ItemContainer []string
	// PostText locates candidate text nodes inside an item
	PostText []string
	// AuthorUsername locates the profile link carrying the handle
	AuthorUsername []string
	// AuthorName locates display-name text nodes
	AuthorName []string
	// Timestamp locates the time-bearing element
	Timestamp []string
	// PostLink locates the permalink anchor
	PostLink []string
}

// DefaultCascades returns the selector set known to work against the
// current markup. Order matters: the first entry is the one observed
// working most recently.
func DefaultCascades() Cascades {
	return Cascades{
		ItemContainer: []string{
			`div[data-pressable-container="true"]`,
			`article[role="presentation"]`,
			`div[role="article"]`,
			`article`,
		},
		PostText: []string{
			`div[dir="auto"]:not([role="button"])`,
			`span[dir="auto"]:not([role="button"])`,
			`article div[dir="auto"]`,
			`div[dir="auto"]`,
			`span[dir="auto"]`,
			`span`,
		},
		AuthorUsername: []string{
			`a[href^="/@"]`,
			`a[role="link"][href*="@"]`,
			`span[dir="ltr"]`,
		},
		AuthorName: []string{
			`span[dir="auto"]`,
			`div[dir="auto"] span`,
		},
		Timestamp: []string{
			`time[datetime]`,
			`time`,
			`a[href*="/post/"] time`,
		},
		PostLink: []string{
			`a[href*="/post/"]`,
			`a[role="link"][href*="/post/"]`,
		},
	}
}

// ItemContainerJS returns a javascript expression that snapshots every item
// container on the current page as {html, text} pairs, using the first
// cascade entry that matches anything. Evaluated inside the browsing
// context because the cascade fallback must be decided against the live
// document, not selector by selector over the wire.
func (c Cascades) ItemContainerJS() string {
	return buildSnapshotJS(c.ItemContainer)
}

func buildSnapshotJS(selectors []string) string {
	var quoted string
	for i, sel := range selectors {
		if i > 0 {
			quoted += ","
		}
		quoted += jsQuote(sel)
	}
	return `(() => {
	const sels = [` + quoted + `];
	for (const sel of sels) {
		const els = document.querySelectorAll(sel);
		if (els.length > 0) {
			return Array.from(els, e => ({html: e.outerHTML, text: e.innerText || ''}));
		}
	}
	return [];
})()`
}

// CountItemsJS returns a javascript expression yielding the number of item
// containers currently rendered, using the same cascade fallback as the
// snapshot query so pagination and extraction agree on what an item is.
func (c Cascades) CountItemsJS() string {
	var quoted string
	for i, sel := range c.ItemContainer {
		if i > 0 {
			quoted += ","
		}
		quoted += jsQuote(sel)
	}
	return `(() => {
	const sels = [` + quoted + `];
	for (const sel of sels) {
		const n = document.querySelectorAll(sel).length;
		if (n > 0) return n;
	}
	return 0;
})()`
}

func jsQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '\\':
			out = append(out, '\\', s[i])
		default:
			out = append(out, s[i])
		}
	}
	return string(append(out, '\''))
}
