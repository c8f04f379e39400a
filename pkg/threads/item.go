package threads

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"threadscraper/pkg/errors"
)

// Item is a detached snapshot of one listing entry: its markup parsed for
// structural queries plus the browser-computed visible text. Snapshots are
// taken once per item so extraction never races the live DOM.
type Item struct {
	doc  *goquery.Document
	text string
}

// Snapshot is the raw {html, text} pair captured from the browsing context.
type Snapshot struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// NewItem parses a snapshot into an Item. An empty or unparseable snapshot
// is the one condition that fails a whole item (the handle was detached or
// destroyed before capture).
func NewItem(snap Snapshot) (*Item, error) {
	if strings.TrimSpace(snap.HTML) == "" {
		return nil, errors.New(errors.ErrorTypeExtraction, "item snapshot is empty")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeExtraction, "item markup unparseable", err)
	}
	return &Item{doc: doc, text: snap.Text}, nil
}

// Find runs a structural query against the item's markup.
func (it *Item) Find(selector string) *goquery.Selection {
	return it.doc.Find(selector)
}

// InnerText returns the browser-computed visible text of the item. Falls
// back to the flattened markup text for snapshots captured without it.
func (it *Item) InnerText() string {
	if it.text != "" {
		return it.text
	}
	return it.doc.Text()
}

// Lines splits the item's visible text into trimmed non-empty lines.
func (it *Item) Lines() []string {
	raw := strings.Split(it.InnerText(), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
