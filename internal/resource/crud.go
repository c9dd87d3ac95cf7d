package resource

import (
	"context"
	"strings"

	"github.com/samber/lo"
)

// Create 新建资源，缺失字段按默认值补齐，id 取当前最大 id + 1
func (a *Aggregator) Create(ctx context.Context, in Input) Resource {
	now := a.now()

	r := Resource{
		Title:      strings.TrimSpace(lo.FromPtr(in.Title)),
		Type:       lo.FromPtr(in.Type),
		Status:     lo.FromPtr(in.Status),
		Excerpt:    lo.FromPtr(in.Excerpt),
		Content:    lo.FromPtr(in.Content),
		AuthorName: strings.TrimSpace(lo.FromPtr(in.AuthorName)),
		Tags:       lo.Uniq(lo.Compact(lo.FromPtr(in.Tags))),
		CreatedAt:  now,

		FeaturedImage: lo.FromPtr(in.FeaturedImage),
	}
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if !r.Type.Valid() {
		r.Type = TypeBlog
	}
	if !r.Status.Valid() {
		r.Status = StatusDraft
	}
	if r.AuthorName == "" {
		r.AuthorName = DefaultAuthor
	}
	r.Slug = DeriveSlug(r.Title)
	r.IndustryID, r.IndustryName = resolveIndustry(in.IndustryID, in.IndustryName)
	if r.IsPublished() {
		r.PublishedAt = now
	}

	a.mu.Lock()
	r.ID = a.maxIDLocked() + 1
	a.items = append(a.items, r)
	a.mu.Unlock()

	a.persist(ctx)
	return r.clone()
}

// Update 浅合并补丁字段，id 不变；标题变化时重新生成 slug
func (a *Aggregator) Update(ctx context.Context, id int, patch Input) (Resource, error) {
	now := a.now()

	a.mu.Lock()
	i := a.indexLocked(id)
	if i < 0 {
		a.mu.Unlock()
		return Resource{}, ErrNotFound
	}
	r := a.items[i].clone()
	oldTitle := r.Title

	if patch.Title != nil {
		r.Title = strings.TrimSpace(*patch.Title)
		if r.Title == "" {
			r.Title = DefaultTitle
		}
	}
	if patch.Slug != nil {
		r.Slug = DeriveSlug(*patch.Slug)
	}
	if patch.Type != nil && patch.Type.Valid() {
		r.Type = *patch.Type
	}
	if patch.Status != nil && patch.Status.Valid() {
		r.Status = *patch.Status
	}
	if patch.Excerpt != nil {
		r.Excerpt = *patch.Excerpt
	}
	if patch.Content != nil {
		r.Content = *patch.Content
	}
	if patch.AuthorName != nil {
		r.AuthorName = *patch.AuthorName
	}
	if patch.Tags != nil {
		r.Tags = lo.Uniq(lo.Compact(*patch.Tags))
	}
	if patch.FeaturedImage != nil {
		r.FeaturedImage = *patch.FeaturedImage
	}
	if patch.IndustryID != nil || patch.IndustryName != nil {
		r.IndustryID, r.IndustryName = resolveIndustry(patch.IndustryID, patch.IndustryName)
	}
	// 显式传入的 slug 优先
	if r.Title != oldTitle && patch.Slug == nil {
		r.Slug = DeriveSlug(r.Title)
	}
	if r.IsPublished() && r.PublishedAt == "" {
		r.PublishedAt = now
	}
	r.UpdatedAt = now

	a.items[i] = r
	// 编辑过的占位记录按普通记录对待，同步不再移除
	if a.placeholderID == id {
		a.placeholderID = 0
	}
	a.mu.Unlock()

	a.persist(ctx)
	return r.clone(), nil
}

// Delete 删除并返回被删记录。开启墓碑时同步记录的来源键会被记住。
func (a *Aggregator) Delete(ctx context.Context, id int) (Resource, error) {
	a.mu.Lock()
	i := a.indexLocked(id)
	if i < 0 {
		a.mu.Unlock()
		return Resource{}, ErrNotFound
	}
	r := a.removeLocked(i)
	if r.Source != nil {
		delete(a.byKey, *r.Source)
		if a.opts.Tombstones {
			a.tombstones.Add(*r.Source)
		}
	}
	if a.placeholderID == id {
		a.placeholderID = 0
	}
	a.mu.Unlock()

	a.persist(ctx)
	return r.clone(), nil
}

// resolveIndustry 优先按 id，其次按名称，都没有时归到默认行业
func resolveIndustry(id *int, name *string) (int, string) {
	if id != nil {
		if ind, ok := IndustryByID(*id); ok {
			return ind.ID, ind.Name
		}
	}
	ind := IndustryByName(lo.FromPtr(name))
	return ind.ID, ind.Name
}
