package resource

import (
	"strings"

	"github.com/Slowper/emmawebsitempa-sub001/pkg/utils"
)

// DefaultLimit 列表默认返回条数
const DefaultLimit = 50

// Filter 列表过滤条件，零值表示不过滤
type Filter struct {
	Type       Type
	Status     Status
	IndustryID int
	// Search 对标题和摘要做不区分大小写的子串匹配
	Search string
	Limit  int
}

// Pagination 只有一页，page 恒为 1
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type ListResult struct {
	Resources  []Resource `json:"resources"`
	Pagination Pagination `json:"pagination"`
}

func (f Filter) match(r *Resource, search string) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.IndustryID != 0 && r.IndustryID != f.IndustryID {
		return false
	}
	if search != "" &&
		!strings.Contains(strings.ToLower(r.Title), search) &&
		!strings.Contains(strings.ToLower(r.Excerpt), search) {
		return false
	}
	return true
}

// List 线性扫描整个缓存并按条件过滤
func (a *Aggregator) List(f Filter) ListResult {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Resource, 0, min(limit, len(a.items)))
	total := 0
	for i := range a.items {
		if !f.match(&a.items[i], search) {
			continue
		}
		total++
		if len(out) < limit {
			out = append(out, a.items[i].clone())
		}
	}
	return ListResult{
		Resources:  out,
		Pagination: Pagination{Page: 1, Limit: limit, Total: total},
	}
}

// GetBySlug 按 slug 查找，命中时阅读数 +1
func (a *Aggregator) GetBySlug(slug string) (Resource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.items {
		if a.items[i].Slug == slug {
			a.items[i].ViewCount++
			return a.items[i].clone(), nil
		}
	}
	return Resource{}, ErrNotFound
}

// GetByID 按 id 查找，不计入阅读数
func (a *Aggregator) GetByID(id int) (Resource, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i := a.indexLocked(id); i >= 0 {
		return a.items[i].clone(), nil
	}
	return Resource{}, ErrNotFound
}

// Stats 缓存统计
type Stats struct {
	Total       int    `json:"total"`
	Published   int    `json:"published"`
	Draft       int    `json:"draft"`
	Blogs       int    `json:"blogs"`
	UseCases    int    `json:"use_cases"`
	CaseStudies int    `json:"case_studies"`
	TotalViews  int    `json:"total_views"`
	LastSync    string `json:"last_sync,omitempty"`
}

func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Stats{Total: len(a.items)}
	for i := range a.items {
		r := &a.items[i]
		switch r.Status {
		case StatusPublished:
			s.Published++
		case StatusDraft:
			s.Draft++
		}
		switch r.Type {
		case TypeBlog:
			s.Blogs++
		case TypeUseCase:
			s.UseCases++
		case TypeCaseStudy:
			s.CaseStudies++
		}
		s.TotalViews += r.ViewCount
	}
	if !a.lastSync.IsZero() {
		s.LastSync = utils.FormatISO(a.lastSync)
	}
	return s
}
