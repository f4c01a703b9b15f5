package crawl

import (
	"context"
	"time"

	"github.com/AlfredBerg/regsido/internal/models"
	"go.uber.org/zap"
)

// Site is the part of a scrape that differs between vendor pages. The
// traversal in Job.Crawl drives it page by page and item by item.
type Site interface {
	Name() string
	Source() int
	StartURL() string

	// Prepare runs once after the first navigation. Errors are logged and
	// the run continues.
	Prepare(ctx context.Context, d *Driver) error
	LocateItems(ctx context.Context, d *Driver) ([]Element, error)
	Expand(ctx context.Context, d *Driver, it Item) error
	Extract(ctx context.Context, d *Driver, it Item) (models.FAQRecord, error)
	Collapse(ctx context.Context, d *Driver, it Item) error
	// FindNext advances to the following page. It returns false once the
	// last page has been reached. current holds the items of the page being
	// left.
	FindNext(ctx context.Context, d *Driver, current []Element) (bool, error)
}

// Item is one accordion entry on a page.
type Item struct {
	Page    int // 1-based
	Index   int // 0-based position on the page
	Element Element
}

// OutputHandler stores the records of one run.
type OutputHandler interface {
	HandleRecords(ctx context.Context, records []models.FAQRecord) error
}

type Job struct {
	Session       Session
	Site          Site
	OutputHandler OutputHandler
	Logger        *zap.Logger

	// Timeout bounds every wait on asynchronous page state.
	Timeout      time.Duration
	PollInterval time.Duration
	// MaxPages stops the run after that many pages, 0 means no limit.
	MaxPages int
}
