package sites

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlfredBerg/regsido/internal/crawl"
	"github.com/AlfredBerg/regsido/internal/models"
)

const KiaURL = "https://www.kia.com/kr/customer-service/center/faq"

const (
	kiaAllTab     = "#tab-list > li:nth-child(2) > button"
	kiaItems      = "div.cmp-accordion__item"
	kiaActivePage = "div.faq-bottom-paging > div > ul > li.is-active > a"
	kiaArrow      = "div.faq-bottom-paging > div > button.pagigation-btn-next"
	kiaPageLink   = "div.faq-bottom-paging > div > ul > li:nth-child(%d) > a"

	// numbered links are shown in groups of this size
	kiaPageGroup = 5
)

func kiaButton(i int) string { return fmt.Sprintf("#accordion-item-%d-button", i) }
func kiaTitle(i int) string  { return kiaButton(i) + " > span.cmp-accordion__title" }
func kiaPanel(i int) string  { return fmt.Sprintf("#accordion-item-%d-panel", i) }

// Kia pages with numbered links in groups of five and an arrow that opens the
// next group. Items are addressed by their position on the page and have no
// category.
type Kia struct {
	url    string
	settle Settle
}

func NewKia(url string, settle Settle) *Kia {
	if url == "" {
		url = KiaURL
	}
	return &Kia{url: url, settle: settle}
}

func (k *Kia) Name() string     { return "kia" }
func (k *Kia) Source() int      { return models.SourceKia }
func (k *Kia) StartURL() string { return k.url }

// Prepare switches the list to the "all" tab once.
func (k *Kia) Prepare(ctx context.Context, d *crawl.Driver) error {
	if err := crawl.Settle(ctx, k.settle.Load); err != nil {
		return err
	}
	tab, err := d.WaitElement(ctx, kiaAllTab)
	if err != nil {
		return fmt.Errorf("all tab: %w", err)
	}
	if err := tab.Click(); err != nil {
		return fmt.Errorf("click all tab: %w", err)
	}
	return crawl.Settle(ctx, k.settle.Load)
}

func (k *Kia) LocateItems(ctx context.Context, d *crawl.Driver) ([]crawl.Element, error) {
	return d.WaitElements(ctx, kiaItems)
}

func (k *Kia) Expand(ctx context.Context, d *crawl.Driver, it crawl.Item) error {
	if err := k.clickButton(ctx, d, it.Index); err != nil {
		return err
	}
	_, err := d.WaitVisible(ctx, kiaPanel(it.Index))
	return err
}

func (k *Kia) Extract(ctx context.Context, d *crawl.Driver, it crawl.Item) (models.FAQRecord, error) {
	title, err := d.WaitElement(ctx, kiaTitle(it.Index))
	if err != nil {
		return models.FAQRecord{}, err
	}
	question, err := title.Text()
	if err != nil {
		return models.FAQRecord{}, fmt.Errorf("question text: %w", err)
	}
	panel, err := d.Find(kiaPanel(it.Index))
	if err != nil {
		return models.FAQRecord{}, fmt.Errorf("%s: %w", kiaPanel(it.Index), err)
	}
	markup, err := panel.HTML()
	if err != nil {
		return models.FAQRecord{}, fmt.Errorf("panel html: %w", err)
	}
	answer, err := PanelAnswer(markup, k.url)
	if err != nil {
		return models.FAQRecord{}, err
	}
	return models.FAQRecord{Question: strings.TrimSpace(question), Answer: answer}, nil
}

func (k *Kia) Collapse(ctx context.Context, d *crawl.Driver, it crawl.Item) error {
	if err := k.clickButton(ctx, d, it.Index); err != nil {
		return err
	}
	return d.WaitInvisible(ctx, kiaPanel(it.Index))
}

func (k *Kia) clickButton(ctx context.Context, d *crawl.Driver, index int) error {
	btn, err := d.WaitElement(ctx, kiaButton(index))
	if err != nil {
		return err
	}
	if err := btn.Click(); err != nil {
		return fmt.Errorf("click %s: %w", kiaButton(index), err)
	}
	return nil
}

// FindNext clicks the next numbered link, or the group arrow when the active
// page closes a group of five. A missing control means the last page.
func (k *Kia) FindNext(ctx context.Context, d *crawl.Driver, current []crawl.Element) (bool, error) {
	active, err := d.WaitElement(ctx, kiaActivePage)
	if err != nil {
		return false, fmt.Errorf("active page: %w", err)
	}
	label, err := active.Text()
	if err != nil {
		return false, fmt.Errorf("active page text: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil {
		return false, fmt.Errorf("active page number %q: %w", label, err)
	}

	selector := fmt.Sprintf(kiaPageLink, n%kiaPageGroup+1)
	if n%kiaPageGroup == 0 {
		selector = kiaArrow
	}
	control, err := d.Find(selector)
	if errors.Is(err, crawl.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", selector, err)
	}
	if disabled, err := control.Attribute("disabled"); err != nil {
		return false, fmt.Errorf("%s state: %w", selector, err)
	} else if disabled != nil {
		return false, nil
	}
	if err := control.Click(); err != nil {
		return false, fmt.Errorf("click %s: %w", selector, err)
	}
	if selector == kiaArrow {
		if _, err := d.WaitElement(ctx, kiaActivePage); err != nil {
			return false, err
		}
	}

	if len(current) > 0 {
		if err := d.WaitStale(ctx, current[0]); err != nil {
			return false, err
		}
	}
	return true, crawl.Settle(ctx, k.settle.Page)
}
