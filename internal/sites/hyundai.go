package sites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/AlfredBerg/regsido/internal/crawl"
	"github.com/AlfredBerg/regsido/internal/models"
)

const HyundaiURL = "https://www.hyundai.com/kr/ko/faq.html"

const (
	hyundaiItems    = "div.ui_accordion > dl"
	hyundaiHeader   = "dt"
	hyundaiCategory = "dt i"
	hyundaiQuestion = "dt .brief"
	hyundaiAnswer   = "dd .exp"
	hyundaiToggle   = "dt > button.more"
	hyundaiNext     = "nav.pagination button.navi.next"

	// class set on the item header while its answer is open
	hyundaiOpenClass = "on"
)

// Hyundai pages with a single "next" button that becomes disabled on the last
// page. Every item carries a category.
type Hyundai struct {
	url    string
	settle Settle
}

func NewHyundai(url string, settle Settle) *Hyundai {
	if url == "" {
		url = HyundaiURL
	}
	return &Hyundai{url: url, settle: settle}
}

func (h *Hyundai) Name() string     { return "hyundai" }
func (h *Hyundai) Source() int      { return models.SourceHyundai }
func (h *Hyundai) StartURL() string { return h.url }

func (h *Hyundai) Prepare(ctx context.Context, _ *crawl.Driver) error {
	return crawl.Settle(ctx, h.settle.Load)
}

func (h *Hyundai) LocateItems(ctx context.Context, d *crawl.Driver) ([]crawl.Element, error) {
	return d.WaitElements(ctx, hyundaiItems)
}

// The first item of the first page is already open when the page loads.
func preopened(it crawl.Item) bool {
	return it.Page == 1 && it.Index == 0
}

func (h *Hyundai) Expand(ctx context.Context, d *crawl.Driver, it crawl.Item) error {
	if preopened(it) {
		return nil
	}
	return h.toggle(ctx, d, it.Element, true)
}

func (h *Hyundai) Extract(_ context.Context, _ *crawl.Driver, it crawl.Item) (models.FAQRecord, error) {
	category, err := text(it.Element, hyundaiCategory)
	if err != nil {
		return models.FAQRecord{}, err
	}
	question, err := text(it.Element, hyundaiQuestion)
	if err != nil {
		return models.FAQRecord{}, err
	}
	answer, err := text(it.Element, hyundaiAnswer)
	if err != nil {
		return models.FAQRecord{}, err
	}
	return models.FAQRecord{Category: &category, Question: question, Answer: answer}, nil
}

func (h *Hyundai) Collapse(ctx context.Context, d *crawl.Driver, it crawl.Item) error {
	if preopened(it) {
		return nil
	}
	return h.toggle(ctx, d, it.Element, false)
}

func (h *Hyundai) toggle(ctx context.Context, d *crawl.Driver, item crawl.Element, open bool) error {
	btn, err := item.Find(hyundaiToggle)
	if err != nil {
		return fmt.Errorf("%s: %w", hyundaiToggle, err)
	}
	if err := btn.Click(); err != nil {
		return fmt.Errorf("click toggle: %w", err)
	}
	err = d.Until(ctx, func() (bool, error) {
		isOpen, err := hyundaiIsOpen(item)
		return isOpen == open, err
	})
	if err != nil {
		return fmt.Errorf("waiting for item open=%t: %w", open, err)
	}
	return nil
}

func hyundaiIsOpen(item crawl.Element) (bool, error) {
	header, err := item.Find(hyundaiHeader)
	if err != nil {
		return false, err
	}
	class, err := header.Attribute("class")
	if err != nil || class == nil {
		return false, err
	}
	return slices.Contains(strings.Fields(*class), hyundaiOpenClass), nil
}

func (h *Hyundai) FindNext(ctx context.Context, d *crawl.Driver, current []crawl.Element) (bool, error) {
	next, err := d.Find(hyundaiNext)
	if errors.Is(err, crawl.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("next button: %w", err)
	}
	disabled, err := next.Attribute("disabled")
	if err != nil {
		return false, fmt.Errorf("next button state: %w", err)
	}
	if disabled != nil {
		return false, nil
	}
	if err := next.Click(); err != nil {
		return false, fmt.Errorf("click next: %w", err)
	}
	if len(current) > 0 {
		if err := d.WaitStale(ctx, current[0]); err != nil {
			return false, err
		}
	}
	return true, crawl.Settle(ctx, h.settle.Page)
}
