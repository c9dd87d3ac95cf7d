package resource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Slowper/emmawebsitempa-sub001/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	mu          sync.Mutex
	blogs       []upstream.Blog
	useCases    []upstream.UseCase
	caseStudies []upstream.CaseStudy
	blogErr     error
	useCaseErr  error
	caseErr     error
	// gate 非 nil 时，Blogs 会阻塞到 gate 被关闭
	gate    chan struct{}
	started chan struct{}
	calls   int
}

func (f *fakeUpstream) Blogs(ctx context.Context) ([]upstream.Blog, error) {
	f.mu.Lock()
	f.calls++
	gate, started := f.gate, f.started
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blogs, f.blogErr
}

func (f *fakeUpstream) UseCases(context.Context) ([]upstream.UseCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.useCases, f.useCaseErr
}

func (f *fakeUpstream) CaseStudies(context.Context) ([]upstream.CaseStudy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caseStudies, f.caseErr
}

func sampleUpstream() *fakeUpstream {
	return &fakeUpstream{
		blogs: []upstream.Blog{
			{ID: 5, Title: "Scaling Retail With AI", Industry: "Retail", Tags: upstream.FlexStrings{"AI"}},
			{ID: 7, Title: "Cloud Migration Playbook", Excerpt: "Moving workloads safely"},
		},
		useCases: []upstream.UseCase{
			{ID: 5, Title: "Predictive Maintenance", Industry: "manufacturing", Description: "Sensors and models"},
		},
		caseStudies: []upstream.CaseStudy{
			{ID: 5, Title: "Hospital Scheduling", Industry: "Healthcare", Summary: "Reduced wait times"},
		},
	}
}

func newTestAggregator(up Upstream, opts Options) *Aggregator {
	if opts.Now == nil {
		fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		opts.Now = func() time.Time { return fixed }
	}
	return NewAggregator(up, opts)
}

func ids(rs []Resource) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestSync_Idempotent(t *testing.T) {
	agg := newTestAggregator(sampleUpstream(), Options{})

	first, err := agg.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, first.Added)
	assert.Equal(t, 4, first.Total)

	second, err := agg.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 4, second.Total)
	assert.Equal(t, 4, agg.Len())
}

func TestSync_OffsetIDs(t *testing.T) {
	agg := newTestAggregator(sampleUpstream(), Options{})
	_, err := agg.Sync(context.Background())
	require.NoError(t, err)

	got := agg.List(Filter{}).Resources
	assert.ElementsMatch(t, []int{5, 7, 1005, 2005}, ids(got))

	uc, err := agg.GetByID(1005)
	require.NoError(t, err)
	assert.Equal(t, TypeUseCase, uc.Type)
	assert.Equal(t, &SourceKey{Type: TypeUseCase, ID: 5}, uc.Source)
	assert.Equal(t, 4, uc.IndustryID)
	assert.Equal(t, "Manufacturing", uc.IndustryName)
	assert.Equal(t, "predictive-maintenance", uc.Slug)
	assert.Equal(t, StatusPublished, uc.Status)
	assert.Equal(t, "Sensors and models", uc.Excerpt)
}

func TestSync_DefaultsUnknownIndustryToTechnology(t *testing.T) {
	agg := newTestAggregator(sampleUpstream(), Options{})
	_, err := agg.Sync(context.Background())
	require.NoError(t, err)

	r, err := agg.GetByID(7)
	require.NoError(t, err)
	assert.Equal(t, DefaultIndustryID, r.IndustryID)
	assert.Equal(t, "Technology", r.IndustryName)
	assert.Equal(t, DefaultAuthor, r.AuthorName)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", r.CreatedAt)
}

func TestSync_KeepsUpstreamSlug(t *testing.T) {
	up := &fakeUpstream{blogs: []upstream.Blog{{ID: 1, Title: "Some Title", Slug: "custom-slug"}}}
	agg := newTestAggregator(up, Options{})
	_, err := agg.Sync(context.Background())
	require.NoError(t, err)

	r, err := agg.GetBySlug("custom-slug")
	require.NoError(t, err)
	assert.Equal(t, 1, r.ID)
}

func TestSync_NeverOverwritesLocalEdits(t *testing.T) {
	up := sampleUpstream()
	agg := newTestAggregator(up, Options{})
	ctx := context.Background()
	_, err := agg.Sync(ctx)
	require.NoError(t, err)

	title := "Locally Edited"
	_, err = agg.Update(ctx, 7, Input{Title: &title})
	require.NoError(t, err)

	up.mu.Lock()
	up.blogs[1].Title = "Upstream Changed"
	up.mu.Unlock()

	_, err = agg.Sync(ctx)
	require.NoError(t, err)

	r, err := agg.GetByID(7)
	require.NoError(t, err)
	assert.Equal(t, "Locally Edited", r.Title)
	assert.Equal(t, "locally-edited", r.Slug)
	assert.Equal(t, 4, agg.Len())
}

func TestSync_PartialFailure(t *testing.T) {
	up := sampleUpstream()
	up.useCaseErr = errors.New("connection refused")
	agg := newTestAggregator(up, Options{})

	res, err := agg.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Type{TypeUseCase}, res.Failed)
	assert.ElementsMatch(t, []int{5, 7, 2005}, ids(agg.List(Filter{}).Resources))
	assert.False(t, agg.LastSync().IsZero())
}

func TestSync_ConcurrentCallIsSkipped(t *testing.T) {
	up := sampleUpstream()
	up.gate = make(chan struct{})
	up.started = make(chan struct{})
	agg := newTestAggregator(up, Options{})

	done := make(chan SyncResult, 1)
	go func() {
		res, err := agg.Sync(context.Background())
		assert.NoError(t, err)
		done <- res
	}()

	<-up.started
	assert.True(t, agg.Syncing())

	skipped, err := agg.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, skipped.Skipped)
	assert.Equal(t, 0, skipped.Total)

	close(up.gate)
	first := <-done
	assert.False(t, first.Skipped)
	assert.Equal(t, 4, agg.Len())
	assert.Equal(t, 1, up.calls)
	assert.False(t, agg.Syncing())
}

func TestSync_TotalFailureSeedsPlaceholder(t *testing.T) {
	boom := errors.New("boom")
	up := &fakeUpstream{blogErr: boom, useCaseErr: boom, caseErr: boom}
	agg := newTestAggregator(up, Options{})

	res, err := agg.Sync(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Len(t, res.Failed, 3)
	assert.Equal(t, 1, agg.Len())
	assert.True(t, agg.LastSync().IsZero())

	// 再失败一次不会重复塞占位记录
	_, err = agg.Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, agg.Len())

	// 上游恢复后占位记录被真实数据替换
	good := sampleUpstream()
	up.mu.Lock()
	up.blogs, up.useCases, up.caseStudies = good.blogs, good.useCases, good.caseStudies
	up.blogErr, up.useCaseErr, up.caseErr = nil, nil, nil
	up.mu.Unlock()

	_, err = agg.Sync(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{5, 7, 1005, 2005}, ids(agg.List(Filter{}).Resources))
}

func TestSync_EditedPlaceholderSurvivesSync(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	up := &fakeUpstream{blogErr: boom, useCaseErr: boom, caseErr: boom}
	agg := newTestAggregator(up, Options{})

	_, err := agg.Sync(ctx)
	require.Error(t, err)
	title := "Admin edited welcome"
	_, err = agg.Update(ctx, 1, Input{Title: &title})
	require.NoError(t, err)

	good := sampleUpstream()
	up.mu.Lock()
	up.blogs, up.useCases, up.caseStudies = good.blogs, good.useCases, good.caseStudies
	up.blogErr, up.useCaseErr, up.caseErr = nil, nil, nil
	up.mu.Unlock()

	_, err = agg.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, agg.Len())

	r, err := agg.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Admin edited welcome", r.Title)
}

func TestSync_PlaceholderKeptWhenNothingAdded(t *testing.T) {
	ctx := context.Background()
	up := sampleUpstream()
	agg := newTestAggregator(up, Options{Tombstones: true})
	_, err := agg.Sync(ctx)
	require.NoError(t, err)
	for _, id := range []int{5, 7, 1005, 2005} {
		_, err := agg.Delete(ctx, id)
		require.NoError(t, err)
	}

	boom := errors.New("boom")
	up.mu.Lock()
	up.blogErr, up.useCaseErr, up.caseErr = boom, boom, boom
	up.mu.Unlock()
	_, err = agg.Sync(ctx)
	require.Error(t, err)
	require.Equal(t, 1, agg.Len())

	// 上游恢复，但所有记录都已被删除过
	up.mu.Lock()
	up.blogErr, up.useCaseErr, up.caseErr = nil, nil, nil
	up.mu.Unlock()
	res, err := agg.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 1, agg.Len())

	r, err := agg.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Our Resources", r.Title)
}

func TestSync_TotalFailureKeepsExistingCache(t *testing.T) {
	up := sampleUpstream()
	agg := newTestAggregator(up, Options{})
	_, err := agg.Sync(context.Background())
	require.NoError(t, err)

	boom := errors.New("boom")
	up.mu.Lock()
	up.blogErr, up.useCaseErr, up.caseErr = boom, boom, boom
	up.mu.Unlock()

	_, err = agg.Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, 4, agg.Len())
}

func TestDelete_Tombstones(t *testing.T) {
	tests := []struct {
		name       string
		tombstones bool
		wantLen    int
	}{
		{name: "tombstones on", tombstones: true, wantLen: 3},
		{name: "tombstones off resurrects", tombstones: false, wantLen: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			agg := newTestAggregator(sampleUpstream(), Options{Tombstones: tt.tombstones})
			_, err := agg.Sync(ctx)
			require.NoError(t, err)

			removed, err := agg.Delete(ctx, 1005)
			require.NoError(t, err)
			assert.Equal(t, "Predictive Maintenance", removed.Title)

			_, err = agg.Sync(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, agg.Len())
		})
	}
}

func TestSync_SequenceStrategy(t *testing.T) {
	up := &fakeUpstream{
		blogs:    []upstream.Blog{{ID: 1500, Title: "Big Blog"}},
		useCases: []upstream.UseCase{{ID: 500, Title: "Use Case"}},
	}
	agg := newTestAggregator(up, Options{IDStrategy: IDSequence})
	_, err := agg.Sync(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, ids(agg.List(Filter{}).Resources))

	// offset 策略下这两条会撞到同一个 id 1500
	off := newTestAggregator(up, Options{IDStrategy: IDOffset})
	_, err = off.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, off.Len())

	_, err = agg.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Len())
}

type memSnapshot struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (m *memSnapshot) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, m.err
}

func (m *memSnapshot) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return m.err
}

func TestSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	snap := &memSnapshot{}
	agg := newTestAggregator(sampleUpstream(), Options{Snapshot: snap, Tombstones: true})
	_, err := agg.Sync(ctx)
	require.NoError(t, err)
	_, err = agg.Delete(ctx, 2005)
	require.NoError(t, err)
	created := agg.Create(ctx, Input{})
	data, _ := snap.Load(ctx)
	require.NotEmpty(t, data)

	restored := newTestAggregator(sampleUpstream(), Options{Snapshot: snap, Tombstones: true})
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = restored.GetByID(created.ID)
	require.NoError(t, err)

	res, err := restored.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
}

func TestSnapshot_LoadError(t *testing.T) {
	agg := newTestAggregator(sampleUpstream(), Options{Snapshot: &memSnapshot{err: errors.New("down")}})
	_, err := agg.Restore(context.Background())
	require.Error(t, err)
}

func TestSnapshot_LastSaveHasAllWrites(t *testing.T) {
	ctx := context.Background()
	snap := &memSnapshot{}
	agg := newTestAggregator(&fakeUpstream{}, Options{Snapshot: snap})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Create(ctx, Input{})
		}()
	}
	wg.Wait()

	restored := newTestAggregator(&fakeUpstream{}, Options{Snapshot: snap})
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
