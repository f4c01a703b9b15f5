package crawl

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/AlfredBerg/regsido/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State int

const (
	StateDone State = iota + 1
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Result struct {
	RunID   string
	State   State
	Pages   int
	Skipped int
	Records []models.FAQRecord

	// Err is the navigation error that aborted the run.
	Err error
	// SaveErr is set when the records could not be stored.
	SaveErr error
}

// Crawl scrapes every page of the site, stores what was collected in one
// batch and closes the session. The session is closed on every path.
func (j *Job) Crawl(ctx context.Context) Result {
	res := Result{RunID: uuid.NewString()}
	log := j.logger().With(
		zap.String("run_id", res.RunID),
		zap.String("site", j.Site.Name()),
		zap.Int("source", j.Site.Source()),
	)

	res.State, res.Err = j.traverse(ctx, log, &res)
	if res.Err != nil {
		log.Error("crawl aborted", zap.Error(res.Err), zap.Int("pages", res.Pages))
	}
	log.Info("crawl finished",
		zap.Stringer("state", res.State),
		zap.Int("pages", res.Pages),
		zap.Int("records", len(res.Records)),
		zap.Int("skipped", res.Skipped),
	)

	if len(res.Records) > 0 {
		// Store even when the caller gave up on the run.
		saveCtx := context.WithoutCancel(ctx)
		if err := j.OutputHandler.HandleRecords(saveCtx, res.Records); err != nil {
			res.SaveErr = err
			log.Error("failed to store records", zap.Error(err))
		} else {
			log.Info("stored records", zap.Int("records", len(res.Records)))
		}
	}

	if err := j.Session.Close(); err != nil {
		log.Warn("failed closing browser session", zap.Error(err))
	}
	return res
}

func (j *Job) traverse(ctx context.Context, log *zap.Logger, res *Result) (state State, err error) {
	defer func() {
		if r := recover(); r != nil {
			state, err = StateAborted, fmt.Errorf("crawl panicked: %v", r)
		}
	}()

	d := &Driver{Session: j.Session, Timeout: j.Timeout, Interval: j.PollInterval}

	log.Info("navigating", zap.String("url", j.Site.StartURL()))
	if err := d.Navigate(ctx, j.Site.StartURL()); err != nil {
		return StateAborted, fmt.Errorf("navigate to %s: %w", j.Site.StartURL(), err)
	}
	if err := j.Site.Prepare(ctx, d); err != nil {
		log.Warn("page preparation failed, continuing", zap.Error(err))
	}

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return StateAborted, err
		}

		items, err := j.Site.LocateItems(ctx, d)
		if err != nil {
			return StateAborted, fmt.Errorf("locate items on page %d: %w", page, err)
		}
		res.Pages = page
		log.Info("page loaded", zap.Int("page", page), zap.Int("items", len(items)))

		for i, el := range items {
			it := Item{Page: page, Index: i, Element: el}
			rec, err := j.harvest(ctx, d, it)
			if err != nil {
				res.Skipped++
				log.Warn("skipping item", zap.Int("page", page), zap.Int("index", i), zap.Error(err))
				continue
			}
			rec.Source = j.Site.Source()
			res.Records = append(res.Records, rec)
			log.Debug("collected item", zap.Int("page", page), zap.String("question", preview(rec.Question, 30)))
		}

		if j.MaxPages > 0 && page >= j.MaxPages {
			log.Info("page limit reached", zap.Int("max_pages", j.MaxPages))
			return StateDone, nil
		}

		advanced, err := j.next(ctx, d, items, log)
		if err != nil {
			return StateAborted, fmt.Errorf("advance from page %d: %w", page, err)
		}
		if !advanced {
			log.Info("last page reached", zap.Int("page", page))
			return StateDone, nil
		}
	}
}

func (j *Job) harvest(ctx context.Context, d *Driver, it Item) (models.FAQRecord, error) {
	if err := j.Site.Expand(ctx, d, it); err != nil {
		return models.FAQRecord{}, fmt.Errorf("expand: %w", err)
	}
	rec, err := j.Site.Extract(ctx, d, it)
	if err != nil {
		return models.FAQRecord{}, fmt.Errorf("extract: %w", err)
	}
	if err := j.Site.Collapse(ctx, d, it); err != nil {
		return models.FAQRecord{}, fmt.Errorf("collapse: %w", err)
	}
	return rec, nil
}

// next runs FindNext, retrying once when the page went stale under it.
func (j *Job) next(ctx context.Context, d *Driver, items []Element, log *zap.Logger) (bool, error) {
	advanced, err := j.Site.FindNext(ctx, d, items)
	if errors.Is(err, ErrStale) {
		log.Warn("stale element during pagination, retrying once", zap.Error(err))
		advanced, err = j.Site.FindNext(ctx, d, items)
	}
	return advanced, err
}

func (j *Job) logger() *zap.Logger {
	if j.Logger == nil {
		return zap.NewNop()
	}
	return j.Logger
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
