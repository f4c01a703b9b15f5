package models

import "time"

// Source IDs of the vendor sites the scrapers harvest.
const (
	SourceHyundai = 0
	SourceKia     = 1
)

type FAQRecord struct {
	Category  *string // nil when the site has no category column
	Question  string
	Answer    string
	Source    int
	CreatedAt time.Time // assigned by the database
}
