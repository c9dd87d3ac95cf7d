// Package resource 维护 CMS 资源 (博客、用例、案例) 的统一内存缓存：
// 从主站同步、合并、以及管理端的增删改查都在这里完成。
package resource

import (
	"slices"
)

// Type 资源来源类别
type Type string

const (
	TypeBlog      Type = "blog"
	TypeUseCase   Type = "use-case"
	TypeCaseStudy Type = "case-study"
)

// Types 按同步顺序排列的全部类别
var Types = []Type{TypeBlog, TypeUseCase, TypeCaseStudy}

func (t Type) Valid() bool {
	return slices.Contains(Types, t)
}

// Status 发布状态
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

const (
	DefaultTitle  = "Untitled Resource"
	DefaultAuthor = "Admin"
)

// SourceKey 同步记录的复合来源键 (类别, 上游 id)
type SourceKey struct {
	Type Type `json:"type"`
	ID   int  `json:"id"`
}

// Resource 统一的资源记录
type Resource struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Type          Type       `json:"type"`
	Status        Status     `json:"status"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content"`
	AuthorName    string     `json:"author_name"`
	IndustryID    int        `json:"industry_id"`
	IndustryName  string     `json:"industry_name"`
	Tags          []string   `json:"tags"`
	FeaturedImage string     `json:"featured_image,omitempty"`
	ViewCount     int        `json:"view_count"`
	CreatedAt     string     `json:"created_at"`
	PublishedAt   string     `json:"published_at,omitempty"`
	UpdatedAt     string     `json:"updated_at,omitempty"`
	Source        *SourceKey `json:"source,omitempty"`
}

// IsPublished 是否已发布
func (r *Resource) IsPublished() bool {
	return r.Status == StatusPublished
}

// clone 深拷贝，避免调用方拿到缓存内部的切片/指针
func (r Resource) clone() Resource {
	r.Tags = slices.Clone(r.Tags)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Source != nil {
		src := *r.Source
		r.Source = &src
	}
	return r
}

// Input 创建请求体与更新补丁共用，nil 字段表示未提供
type Input struct {
	Title         *string   `json:"title"`
	Slug          *string   `json:"slug"`
	Type          *Type     `json:"type"`
	Status        *Status   `json:"status"`
	Excerpt       *string   `json:"excerpt"`
	Content       *string   `json:"content"`
	AuthorName    *string   `json:"author_name"`
	IndustryID    *int      `json:"industry_id"`
	IndustryName  *string   `json:"industry_name"`
	Tags          *[]string `json:"tags"`
	FeaturedImage *string   `json:"featured_image"`
}
