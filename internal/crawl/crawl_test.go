package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AlfredBerg/regsido/internal/crawl"
	"github.com/AlfredBerg/regsido/internal/crawl/crawltest"
	"github.com/AlfredBerg/regsido/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedSite serves fixed pages of nodes and advances on FindNext.
type pagedSite struct {
	pages      [][]*crawltest.Node
	current    int
	staleNexts int
	nextErr    error
	prepareErr error
	nextCalls  int
}

func newPagedSite(pages, perPage int) *pagedSite {
	s := &pagedSite{}
	for p := 0; p < pages; p++ {
		var nodes []*crawltest.Node
		for i := 0; i < perPage; i++ {
			nodes = append(nodes, &crawltest.Node{Content: fmt.Sprintf("q%d-%d", p+1, i)})
		}
		s.pages = append(s.pages, nodes)
	}
	return s
}

func (s *pagedSite) Name() string     { return "paged" }
func (s *pagedSite) Source() int      { return 7 }
func (s *pagedSite) StartURL() string { return "https://faq.test/" }

func (s *pagedSite) Prepare(context.Context, *crawl.Driver) error { return s.prepareErr }

func (s *pagedSite) LocateItems(context.Context, *crawl.Driver) ([]crawl.Element, error) {
	var out []crawl.Element
	for _, n := range s.pages[s.current] {
		out = append(out, n)
	}
	return out, nil
}

func (s *pagedSite) Expand(_ context.Context, _ *crawl.Driver, it crawl.Item) error {
	return it.Element.Click()
}

func (s *pagedSite) Extract(_ context.Context, _ *crawl.Driver, it crawl.Item) (models.FAQRecord, error) {
	q, err := it.Element.Text()
	if err != nil {
		return models.FAQRecord{}, err
	}
	return models.FAQRecord{Question: q, Answer: "a", Source: 99}, nil
}

func (s *pagedSite) Collapse(_ context.Context, _ *crawl.Driver, it crawl.Item) error {
	return it.Element.Click()
}

func (s *pagedSite) FindNext(context.Context, *crawl.Driver, []crawl.Element) (bool, error) {
	s.nextCalls++
	if s.staleNexts > 0 {
		s.staleNexts--
		return false, fmt.Errorf("active page link: %w", crawl.ErrStale)
	}
	if s.nextErr != nil {
		return false, s.nextErr
	}
	if s.current == len(s.pages)-1 {
		return false, nil
	}
	s.current++
	return true, nil
}

func newJob(site crawl.Site) (*crawl.Job, *crawltest.Session, *crawltest.Output) {
	sess := crawltest.NewSession()
	out := &crawltest.Output{}
	return &crawl.Job{
		Session:       sess,
		Site:          site,
		OutputHandler: out,
		Timeout:       50 * time.Millisecond,
		PollInterval:  time.Millisecond,
	}, sess, out
}

func TestCrawlCollectsEveryPage(t *testing.T) {
	site := newPagedSite(3, 4)
	job, sess, out := newJob(site)

	res := job.Crawl(context.Background())

	require.NoError(t, res.Err)
	require.NoError(t, res.SaveErr)
	assert.Equal(t, crawl.StateDone, res.State)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Records, 12)
	assert.Equal(t, 1, out.Calls, "records are stored in one batch")
	assert.Len(t, out.Records, 12)
	assert.Equal(t, 1, sess.Closed)
	assert.Equal(t, []string{"https://faq.test/"}, sess.Navigated)
	assert.NotEmpty(t, res.RunID)

	for _, r := range res.Records {
		assert.Equal(t, 7, r.Source, "source comes from the site, not the extracted record")
	}
	assert.Equal(t, "q1-0", res.Records[0].Question)
	assert.Equal(t, "q3-3", res.Records[11].Question)
}

func TestCrawlSkipsStaleItem(t *testing.T) {
	site := newPagedSite(1, 5)
	site.pages[0][2].Gone = true
	job, _, out := newJob(site)

	res := job.Crawl(context.Background())

	assert.Equal(t, crawl.StateDone, res.State)
	assert.Len(t, res.Records, 4)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, out.Calls)
	for _, r := range res.Records {
		assert.NotEqual(t, "q1-2", r.Question)
	}
}

func TestCrawlRetriesStalePaginationOnce(t *testing.T) {
	site := newPagedSite(2, 2)
	site.staleNexts = 1
	job, _, _ := newJob(site)

	res := job.Crawl(context.Background())

	assert.Equal(t, crawl.StateDone, res.State)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Records, 4)
	assert.Equal(t, 3, site.nextCalls)
}

func TestCrawlAbortsOnRepeatedStaleness(t *testing.T) {
	site := newPagedSite(2, 2)
	site.staleNexts = 2
	job, sess, out := newJob(site)

	res := job.Crawl(context.Background())

	assert.Equal(t, crawl.StateAborted, res.State)
	assert.ErrorIs(t, res.Err, crawl.ErrStale)
	assert.Len(t, res.Records, 2, "records from finished pages are kept")
	assert.Equal(t, 1, out.Calls)
	assert.Equal(t, 1, sess.Closed)
}

func TestCrawlNavigationErrorStopsGracefully(t *testing.T) {
	site := newPagedSite(3, 2)
	site.nextErr = errors.New("click next: node detached")
	job, _, out := newJob(site)

	res := job.Crawl(context.Background())

	assert.Equal(t, crawl.StateAborted, res.State)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 1, out.Calls)
}

func TestCrawlInitialNavigateFailure(t *testing.T) {
	site := newPagedSite(1, 2)
	job, sess, out := newJob(site)
	sess.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	res := job.Crawl(context.Background())

	assert.Equal(t, crawl.StateAborted, res.State)
	assert.Error(t, res.Err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 0, out.Calls, "nothing collected, nothing stored")
	assert.Equal(t, 1, sess.Closed)
}

func TestCrawlPrepareFailureIsNotFatal(t *testing.T) {
	site := newPagedSite(1, 3)
	site.prepareErr = crawl.ErrTimeout
	job, _, _ := newJob(site)

	res := job.Crawl(context.Background())

	assert.Equal(t, crawl.StateDone, res.State)
	assert.Len(t, res.Records, 3)
}

func TestCrawlSaveFailureStillClosesSession(t *testing.T) {
	site := newPagedSite(1, 3)
	job, sess, out := newJob(site)
	out.Err = errors.New("dial tcp 127.0.0.1:3306: connection refused")

	res := job.Crawl(context.Background())

	assert.Equal(t, crawl.StateDone, res.State)
	assert.EqualError(t, res.SaveErr, out.Err.Error())
	assert.Equal(t, 1, sess.Closed)
}

func TestCrawlMaxPages(t *testing.T) {
	site := newPagedSite(5, 2)
	job, _, _ := newJob(site)
	job.MaxPages = 2

	res := job.Crawl(context.Background())

	assert.Equal(t, crawl.StateDone, res.State)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Records, 4)
}

func TestCrawlCanceledContextStillStores(t *testing.T) {
	site := newPagedSite(3, 2)
	job, sess, out := newJob(site)

	ctx, cancel := context.WithCancel(context.Background())
	site.pages[0][1].OnClick = func() error {
		cancel()
		return nil
	}

	res := job.Crawl(ctx)

	assert.Equal(t, crawl.StateAborted, res.State)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 1, out.Calls)
	assert.Equal(t, 1, sess.Closed)
}
