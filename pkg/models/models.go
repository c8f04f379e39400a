package models

import "time"

// DeletedText is the sentinel stored for posts the host reports as removed
// or unavailable. All other fields of such a record are blanked.
const DeletedText = "[Post unavailable]"

// Repost is one extracted listing entry. It is immutable once returned by
// the scraper; extraction failures degrade individual fields to zero values
// instead of dropping the record.
type Repost struct {
	Text              string     `json:"text"`
	AuthorHandle      string     `json:"author_handle"`
	AuthorDisplayName string     `json:"author_display_name"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
	RawTimestamp      string     `json:"raw_timestamp,omitempty"`
	SourceURL         string     `json:"source_url,omitempty"`
	IsDeleted         bool       `json:"is_deleted"`
	IsComposite       bool       `json:"is_composite"`
	PartCount         int        `json:"part_count"`
}

// DeletedRepost returns the canonical record for an unavailable post.
func DeletedRepost() Repost {
	return Repost{
		Text:      DeletedText,
		IsDeleted: true,
		PartCount: 1,
	}
}

// Result is the outcome of one scraping run, handed to the renderer.
type Result struct {
	Username       string    `json:"username"`
	Reposts        []Repost  `json:"reposts"`
	TotalCount     int       `json:"total_count"`
	SuccessCount   int       `json:"success_count"`
	DuplicateCount int       `json:"duplicate_count"`
	NewCount       int       `json:"new_count"`
	ScrapedAt      time.Time `json:"scraped_at"`
	Errors         []string  `json:"errors,omitempty"`
}

// FailedCount is the number of records that were deleted stubs or otherwise
// produced no usable content.
func (r *Result) FailedCount() int {
	return r.TotalCount - r.SuccessCount
}

// DateRange returns the oldest and newest parsed timestamps in the batch.
// ok is false when no record carries a parsed timestamp.
func (r *Result) DateRange() (oldest, newest time.Time, ok bool) {
	for _, rp := range r.Reposts {
		if rp.Timestamp == nil {
			continue
		}
		t := *rp.Timestamp
		if !ok {
			oldest, newest, ok = t, t, true
			continue
		}
		if t.Before(oldest) {
			oldest = t
		}
		if t.After(newest) {
			newest = t
		}
	}
	return oldest, newest, ok
}
