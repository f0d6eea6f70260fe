package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amzgrab/amzgrab/internal/catalog"
)

const searchPageURL = "https://www.amazon.com/s/ref=nb_sb_noss?sf=qz&keywords=mouse&ie=UTF8&unfiltered=1&page=1"

const searchPageMarkup = `
<html><body>
	<div data-asin="B000000001" data-component-type="s-search-result">
		<div><div>
			<a href="/Thing/dp/B000000001/ref=sr_1_1"><h2>Wireless Mouse</h2></a>
		</div></div>
	</div>
</body></html>`

const detailPageMarkup = `
<html><body><span id="productTitle">Wireless Mouse</span></body></html>`

type stubFetcher struct {
	pages map[string]string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	if markup, ok := f.pages[url]; ok {
		return markup, nil
	}
	return "", fmt.Errorf("fetch %s: unexpected status 503", url)
}

func newTestManager(fetcher catalog.Fetcher) *Manager {
	return NewManager(fetcher, 2, slog.Default())
}

func waitForStatus(t *testing.T, m *Manager, jobID, status string) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		var err error
		job, err = m.Get(jobID)
		return err == nil && job.Status == status
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestSubmitRunsToCompletion(t *testing.T) {
	m := newTestManager(&stubFetcher{pages: map[string]string{
		searchPageURL: searchPageMarkup,
	}})

	job, err := m.Submit(context.Background(), "mouse", []int{1}, "US", catalog.LevelSearch)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "mouse", job.Query)

	done := waitForStatus(t, m, job.ID, "completed")
	assert.Equal(t, 1, done.ProductsFound)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Zero(t, done.FetchErrors)

	col, err := m.Result(job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B000000001"}, col.ASINs())
}

func TestSubmitRejectsEmptyQuery(t *testing.T) {
	m := newTestManager(&stubFetcher{})
	_, err := m.Submit(context.Background(), "", nil, "US", catalog.LevelSearch)
	assert.Error(t, err)
}

func TestSubmitUnknownRegionFailsJob(t *testing.T) {
	m := newTestManager(&stubFetcher{})

	job, err := m.Submit(context.Background(), "mouse", []int{1}, "XX", catalog.LevelSearch)
	require.NoError(t, err)

	failed := waitForStatus(t, m, job.ID, "failed")
	assert.NotEmpty(t, failed.Error)

	_, err = m.Result(job.ID)
	assert.Error(t, err)
}

func TestSubmitEnrichesProducts(t *testing.T) {
	m := newTestManager(&stubFetcher{pages: map[string]string{
		searchPageURL: searchPageMarkup,
		"https://www.amazon.com/dp/B000000001": detailPageMarkup,
	}})

	job, err := m.Submit(context.Background(), "mouse", []int{1}, "US", catalog.LevelBasic)
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, "completed")
	assert.Equal(t, 1, done.Enriched)
	assert.Zero(t, done.FetchErrors)

	col, err := m.Result(job.ID)
	require.NoError(t, err)
	p, err := col.Get("B000000001")
	require.NoError(t, err)
	require.NotNil(t, p.Details)
	assert.Equal(t, "Wireless Mouse", p.Details.FullTitle)
}

func TestSubmitRecordsEnrichmentFailures(t *testing.T) {
	// Search page resolves; the detail page does not.
	m := newTestManager(&stubFetcher{pages: map[string]string{
		searchPageURL: searchPageMarkup,
	}})

	job, err := m.Submit(context.Background(), "mouse", []int{1}, "US", catalog.LevelBasic)
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, "completed")
	assert.Equal(t, "completed", done.Status, "fetch failures do not fail the job")
	assert.Equal(t, 1, done.FetchErrors)
	assert.Zero(t, done.Enriched)
}

func TestGetUnknownJob(t *testing.T) {
	m := newTestManager(&stubFetcher{})
	_, err := m.Get("no-such-id")
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	m := newTestManager(&stubFetcher{pages: map[string]string{
		searchPageURL: searchPageMarkup,
	}})

	first, err := m.Submit(context.Background(), "mouse", []int{1}, "US", catalog.LevelSearch)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := m.Submit(context.Background(), "mouse", []int{1}, "US", catalog.LevelSearch)
	require.NoError(t, err)

	jobs := m.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}

func TestGetStats(t *testing.T) {
	m := newTestManager(&stubFetcher{pages: map[string]string{
		searchPageURL: searchPageMarkup,
	}})

	job, err := m.Submit(context.Background(), "mouse", []int{1}, "US", catalog.LevelSearch)
	require.NoError(t, err)
	waitForStatus(t, m, job.ID, "completed")

	stats := m.GetStats()
	assert.Equal(t, 1, stats.TotalJobs)
	assert.Equal(t, 1, stats.CompletedJobs)
	assert.Equal(t, 1, stats.TotalProducts)
	assert.Equal(t, 100.0, stats.SuccessRate)
}

func TestGetReturnsCopy(t *testing.T) {
	m := newTestManager(&stubFetcher{pages: map[string]string{
		searchPageURL: searchPageMarkup,
	}})

	job, err := m.Submit(context.Background(), "mouse", []int{1}, "US", catalog.LevelSearch)
	require.NoError(t, err)
	waitForStatus(t, m, job.ID, "completed")

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	got.Status = "mutated"

	again, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", again.Status)
}
