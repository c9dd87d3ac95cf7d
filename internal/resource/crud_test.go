package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreate_Defaults(t *testing.T) {
	agg := newTestAggregator(&fakeUpstream{}, Options{})

	r := agg.Create(context.Background(), Input{})
	assert.Equal(t, 1, r.ID)
	assert.Equal(t, DefaultTitle, r.Title)
	assert.Equal(t, "untitled-resource", r.Slug)
	assert.Equal(t, TypeBlog, r.Type)
	assert.Equal(t, StatusDraft, r.Status)
	assert.Equal(t, DefaultAuthor, r.AuthorName)
	assert.Equal(t, DefaultIndustryID, r.IndustryID)
	assert.Empty(t, r.PublishedAt)
	assert.NotEmpty(t, r.CreatedAt)
	assert.Equal(t, []string{}, r.Tags)
	assert.Nil(t, r.Source)

	second := agg.Create(context.Background(), Input{})
	assert.Equal(t, 2, second.ID)
}

func TestCreate_UsesMaxIDPlusOne(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator(sampleUpstream(), Options{})
	_, err := agg.Sync(ctx)
	require.NoError(t, err)

	r := agg.Create(ctx, Input{
		Title:      ptr("Fresh Case"),
		Type:       ptr(TypeCaseStudy),
		Status:     ptr(StatusPublished),
		IndustryID: ptr(2),
		Tags:       ptr([]string{"AI", "", "AI", "Cloud"}),
	})
	assert.Equal(t, 2006, r.ID)
	assert.Equal(t, "fresh-case", r.Slug)
	assert.Equal(t, "Finance", r.IndustryName)
	assert.Equal(t, r.CreatedAt, r.PublishedAt)
	assert.Equal(t, []string{"AI", "Cloud"}, r.Tags)
}

func TestCreate_InvalidEnumsFallBack(t *testing.T) {
	agg := newTestAggregator(&fakeUpstream{}, Options{})
	r := agg.Create(context.Background(), Input{
		Type:         ptr(Type("podcast")),
		Status:       ptr(Status("archived")),
		IndustryName: ptr("retail"),
	})
	assert.Equal(t, TypeBlog, r.Type)
	assert.Equal(t, StatusDraft, r.Status)
	assert.Equal(t, 3, r.IndustryID)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator(&fakeUpstream{}, Options{})
	created := agg.Create(ctx, Input{Title: ptr("First Draft"), Excerpt: ptr("keep me")})

	updated, err := agg.Update(ctx, created.ID, Input{
		Title:      ptr("Final Title"),
		Status:     ptr(StatusPublished),
		IndustryID: ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Final Title", updated.Title)
	assert.Equal(t, "final-title", updated.Slug)
	assert.Equal(t, "keep me", updated.Excerpt)
	assert.Equal(t, "Education", updated.IndustryName)
	assert.NotEmpty(t, updated.PublishedAt)
	assert.NotEmpty(t, updated.UpdatedAt)

	// 标题不变时保留手动设置的 slug
	updated, err = agg.Update(ctx, created.ID, Input{Slug: ptr("Custom Slug")})
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", updated.Slug)
	assert.Equal(t, "Final Title", updated.Title)

	updated, err = agg.Update(ctx, created.ID, Input{Title: ptr("Renamed"), Slug: ptr("pinned")})
	require.NoError(t, err)
	assert.Equal(t, "pinned", updated.Slug)
}

func TestUpdate_NotFound(t *testing.T) {
	agg := newTestAggregator(&fakeUpstream{}, Options{})
	_, err := agg.Update(context.Background(), 99, Input{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator(&fakeUpstream{}, Options{})
	a := agg.Create(ctx, Input{Title: ptr("A")})
	b := agg.Create(ctx, Input{Title: ptr("B")})

	removed, err := agg.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", removed.Title)
	assert.Equal(t, 1, agg.Len())

	_, err = agg.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 删除后 id 按剩余最大值继续
	c := agg.Create(ctx, Input{})
	assert.Equal(t, b.ID+1, c.ID)
}
