package sites

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/AlfredBerg/regsido/internal/crawl"
	"github.com/AlfredBerg/regsido/internal/crawl/crawltest"
	"github.com/AlfredBerg/regsido/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noSettle = Settle{}

// hyundaiPages simulates the Hyundai FAQ list: accordion items whose header
// gets the "on" class when opened, and a next button that replaces the list.
type hyundaiPages struct {
	sess    *crawltest.Session
	pages   int
	perPage int
	current int

	items   []*crawltest.Node
	toggles []*crawltest.Node
	next    *crawltest.Node
}

func newHyundaiPages(pages, perPage int) *hyundaiPages {
	h := &hyundaiPages{sess: crawltest.NewSession(), pages: pages, perPage: perPage}
	h.next = &crawltest.Node{OnClick: h.advance}
	h.sess.Set(hyundaiNext, h.next)
	h.load(1)
	return h
}

func (h *hyundaiPages) load(page int) {
	h.current = page
	h.items, h.toggles = nil, nil
	for i := 0; i < h.perPage; i++ {
		header := &crawltest.Node{Attrs: map[string]string{"class": "tit"}}
		if page == 1 && i == 0 {
			header.Attrs["class"] = "tit on"
		}
		toggle := &crawltest.Node{}
		toggle.OnClick = func() error {
			classes := strings.Fields(header.Attrs["class"])
			if i := slices.Index(classes, "on"); i >= 0 {
				classes = slices.Delete(classes, i, i+1)
			} else {
				classes = append(classes, "on")
			}
			header.Attrs["class"] = strings.Join(classes, " ")
			return nil
		}
		item := &crawltest.Node{Kids: map[string][]*crawltest.Node{
			hyundaiHeader:   {header},
			hyundaiCategory: {{Content: " 차량구매 "}},
			hyundaiQuestion: {{Content: fmt.Sprintf(" p%d q%d ", page, i)}},
			hyundaiAnswer:   {{Content: fmt.Sprintf("answer %d-%d\n", page, i)}},
			hyundaiToggle:   {toggle},
		}}
		h.items = append(h.items, item)
		h.toggles = append(h.toggles, toggle)
	}
	h.sess.Set(hyundaiItems, h.items...)
	if page == h.pages {
		disabled := "disabled"
		h.next.SetAttr("disabled", &disabled)
	}
}

func (h *hyundaiPages) advance() error {
	for _, it := range h.items {
		it.Gone = true
	}
	h.load(h.current + 1)
	return nil
}

func runJob(t *testing.T, sess *crawltest.Session, site crawl.Site) (crawl.Result, *crawltest.Output) {
	t.Helper()
	out := &crawltest.Output{}
	job := &crawl.Job{
		Session:       sess,
		Site:          site,
		OutputHandler: out,
		Timeout:       50 * time.Millisecond,
		PollInterval:  time.Millisecond,
	}
	return job.Crawl(context.Background()), out
}

func TestHyundaiCrawlsAllPages(t *testing.T) {
	pages := newHyundaiPages(3, 4)
	firstPageToggles := pages.toggles

	res, out := runJob(t, pages.sess, NewHyundai("", noSettle))

	require.NoError(t, res.Err)
	assert.Equal(t, crawl.StateDone, res.State)
	assert.Equal(t, 3, res.Pages)
	require.Len(t, res.Records, 12)
	assert.Equal(t, 1, out.Calls)
	assert.Equal(t, []string{HyundaiURL}, pages.sess.Navigated)

	first := res.Records[0]
	require.NotNil(t, first.Category)
	assert.Equal(t, "차량구매", *first.Category)
	assert.Equal(t, "p1 q0", first.Question)
	assert.Equal(t, "answer 1-0", first.Answer)
	assert.Equal(t, models.SourceHyundai, first.Source)

	assert.Equal(t, 0, firstPageToggles[0].Clicks, "open item is read without clicking")
	for _, tg := range firstPageToggles[1:] {
		assert.Equal(t, 2, tg.Clicks, "expand then collapse")
	}
	assert.Equal(t, 2, pages.toggles[0].Clicks, "first item of later pages is expanded")
	assert.Equal(t, 2, pages.next.Clicks)
}

func TestHyundaiSkipsStaleItem(t *testing.T) {
	pages := newHyundaiPages(1, 5)
	pages.items[3].Faults = []error{crawl.ErrStale}

	res, out := runJob(t, pages.sess, NewHyundai("", noSettle))

	assert.Equal(t, crawl.StateDone, res.State)
	assert.Len(t, res.Records, 4)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, out.Calls)
}

func TestHyundaiMissingNextButtonEndsRun(t *testing.T) {
	pages := newHyundaiPages(3, 2)
	pages.sess.Set(hyundaiNext)

	res, _ := runJob(t, pages.sess, NewHyundai("", noSettle))

	assert.Equal(t, crawl.StateDone, res.State)
	assert.Equal(t, 1, res.Pages)
	assert.Len(t, res.Records, 2)
}

func TestHyundaiPageThatNeverChangesAborts(t *testing.T) {
	pages := newHyundaiPages(3, 2)
	pages.next.OnClick = nil

	res, out := runJob(t, pages.sess, NewHyundai("", noSettle))

	assert.Equal(t, crawl.StateAborted, res.State)
	assert.ErrorIs(t, res.Err, crawl.ErrTimeout)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 1, out.Calls)
}

func TestHyundaiRerunAppendsAgain(t *testing.T) {
	out := &crawltest.Output{}
	for run := 0; run < 2; run++ {
		pages := newHyundaiPages(2, 3)
		job := &crawl.Job{
			Session:       pages.sess,
			Site:          NewHyundai("", noSettle),
			OutputHandler: out,
			Timeout:       50 * time.Millisecond,
			PollInterval:  time.Millisecond,
		}
		job.Crawl(context.Background())
	}
	assert.Equal(t, 2, out.Calls)
	assert.Len(t, out.Records, 12, "no deduplication across runs")
}

func TestByName(t *testing.T) {
	s, err := ByName("Kia", "", noSettle)
	require.NoError(t, err)
	assert.Equal(t, models.SourceKia, s.Source())
	assert.Equal(t, KiaURL, s.StartURL())

	s, err = ByName("hyundai", "http://127.0.0.1:8080/faq", noSettle)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/faq", s.StartURL())

	_, err = ByName("genesis", "", noSettle)
	assert.ErrorContains(t, err, "hyundai, kia")
}
