package resource

import (
	"github.com/Slowper/emmawebsitempa-sub001/internal/upstream"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/utils"

	"github.com/samber/lo"
)

// 三种上游记录各有一个适配函数，输出统一的 Resource。
// id 在合并阶段按策略分配，这里只记录来源键。

func fromBlog(b upstream.Blog, now string) Resource {
	r := Resource{
		Title:         b.Title,
		Slug:          b.Slug,
		Type:          TypeBlog,
		Excerpt:       b.Excerpt,
		Content:       b.Content,
		AuthorName:    lo.CoalesceOrEmpty(b.AuthorName, b.Author),
		Tags:          b.Tags,
		FeaturedImage: lo.CoalesceOrEmpty(b.FeaturedImage, b.Image),
		CreatedAt:     b.CreatedAt,
		PublishedAt:   b.PublishedAt,
	}
	return normalizeSynced(r, b.Industry, SourceKey{Type: TypeBlog, ID: int(b.ID)}, now)
}

func fromUseCase(u upstream.UseCase, now string) Resource {
	r := Resource{
		Title:         u.Title,
		Slug:          u.Slug,
		Type:          TypeUseCase,
		Excerpt:       u.Description,
		Content:       lo.CoalesceOrEmpty(u.Content, u.Details),
		Tags:          u.Tags,
		FeaturedImage: u.Image,
		CreatedAt:     u.CreatedAt,
	}
	return normalizeSynced(r, u.Industry, SourceKey{Type: TypeUseCase, ID: int(u.ID)}, now)
}

func fromCaseStudy(c upstream.CaseStudy, now string) Resource {
	r := Resource{
		Title:         c.Title,
		Slug:          c.Slug,
		Type:          TypeCaseStudy,
		Excerpt:       c.Summary,
		Content:       lo.CoalesceOrEmpty(c.Content, c.Body),
		AuthorName:    c.ClientName,
		Tags:          c.Tags,
		FeaturedImage: c.Image,
		CreatedAt:     c.CreatedAt,
	}
	return normalizeSynced(r, c.Industry, SourceKey{Type: TypeCaseStudy, ID: int(c.ID)}, now)
}

// normalizeSynced 补齐同步记录的默认值：已发布、slug、行业、作者、时间
func normalizeSynced(r Resource, industry string, key SourceKey, now string) Resource {
	r.Source = &key
	r.Status = StatusPublished
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Slug == "" {
		r.Slug = DeriveSlug(r.Title)
	}
	if r.AuthorName == "" {
		r.AuthorName = DefaultAuthor
	}
	ind := IndustryByName(industry)
	r.IndustryID, r.IndustryName = ind.ID, ind.Name
	r.Tags = lo.Uniq(lo.Compact(r.Tags))
	r.CreatedAt = lo.CoalesceOrEmpty(utils.NormalizeISO(r.CreatedAt), now)
	r.PublishedAt = lo.CoalesceOrEmpty(utils.NormalizeISO(r.PublishedAt), r.CreatedAt)
	return r
}
