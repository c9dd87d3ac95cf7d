package resource

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBySlug_IncrementsViews(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator(&fakeUpstream{}, Options{})
	agg.Create(ctx, Input{Title: ptr("x")})

	for want := 1; want <= 3; want++ {
		r, err := agg.GetBySlug("x")
		require.NoError(t, err)
		assert.Equal(t, want, r.ViewCount)
	}

	// GetByID 不计数
	r, err := agg.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, 3, r.ViewCount)

	_, err = agg.GetBySlug("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, agg.Stats().TotalViews)
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator(sampleUpstream(), Options{})
	_, err := agg.Sync(ctx)
	require.NoError(t, err)
	agg.Create(ctx, Input{Title: ptr("Draft About Retail"), IndustryID: ptr(3)})

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []int
	}{
		{name: "all", filter: Filter{}, wantIDs: []int{5, 7, 1005, 2005, 2006}},
		{name: "type", filter: Filter{Type: TypeCaseStudy}, wantIDs: []int{2005}},
		{name: "status draft", filter: Filter{Status: StatusDraft}, wantIDs: []int{2006}},
		{name: "industry", filter: Filter{IndustryID: 3}, wantIDs: []int{5, 2006}},
		{name: "search title", filter: Filter{Search: "RETAIL"}, wantIDs: []int{5, 2006}},
		{name: "search excerpt", filter: Filter{Search: "workloads"}, wantIDs: []int{7}},
		{name: "combined", filter: Filter{Search: "retail", Status: StatusPublished}, wantIDs: []int{5}},
		{name: "no match", filter: Filter{Search: "zzz"}, wantIDs: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.List(tt.filter)
			assert.ElementsMatch(t, tt.wantIDs, ids(got.Resources))
			assert.Equal(t, len(tt.wantIDs), got.Pagination.Total)
			assert.Equal(t, 1, got.Pagination.Page)
		})
	}
}

func TestList_Limit(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator(&fakeUpstream{}, Options{})
	for i := 0; i < 60; i++ {
		agg.Create(ctx, Input{Title: ptr(fmt.Sprintf("Post %d", i))})
	}

	got := agg.List(Filter{})
	assert.Len(t, got.Resources, DefaultLimit)
	assert.Equal(t, DefaultLimit, got.Pagination.Limit)
	assert.Equal(t, 60, got.Pagination.Total)

	got = agg.List(Filter{Limit: 10})
	assert.Len(t, got.Resources, 10)
	assert.Equal(t, 1, got.Resources[0].ID)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator(sampleUpstream(), Options{})
	_, err := agg.Sync(ctx)
	require.NoError(t, err)
	agg.Create(ctx, Input{})
	_, err = agg.GetBySlug("hospital-scheduling")
	require.NoError(t, err)

	s := agg.Stats()
	assert.Equal(t, Stats{
		Total:       5,
		Published:   4,
		Draft:       1,
		Blogs:       3,
		UseCases:    1,
		CaseStudies: 1,
		TotalViews:  1,
		LastSync:    "2024-03-01T10:00:00.000Z",
	}, s)
}
