package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Slowper/emmawebsitempa-sub001/internal/upstream"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/utils"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotFound 按 id 或 slug 查找失败
	ErrNotFound = errors.New("resource not found")
	// ErrUpstreamUnavailable 三个上游集合全部拉取失败
	ErrUpstreamUnavailable = errors.New("all upstream collections failed")
)

// IDStrategy 同步记录的对外 id 分配方式
type IDStrategy string

const (
	// IDOffset 博客保持上游 id，用例 +1000，案例 +2000
	IDOffset IDStrategy = "offset"
	// IDSequence 按复合键分配自增 id，不受每类 1000 条的限制
	IDSequence IDStrategy = "sequence"
)

var typeOffsets = map[Type]int{
	TypeBlog:      0,
	TypeUseCase:   1000,
	TypeCaseStudy: 2000,
}

// OffsetID offset 策略下的对外 id
func (k SourceKey) OffsetID() int {
	return k.ID + typeOffsets[k.Type]
}

// Upstream 主站内容服务
type Upstream interface {
	Blogs(ctx context.Context) ([]upstream.Blog, error)
	UseCases(ctx context.Context) ([]upstream.UseCase, error)
	CaseStudies(ctx context.Context) ([]upstream.CaseStudy, error)
}

// Snapshotter 缓存快照的持久化后端 (可选)
type Snapshotter interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

type Options struct {
	IDStrategy IDStrategy
	// Tombstones 开启后，被删除的同步记录不会在下次同步时复活
	Tombstones bool
	Snapshot   Snapshotter
	Logger     *zap.Logger
	Now        func() time.Time
}

// SyncResult 一次同步的结果
type SyncResult struct {
	Skipped bool   `json:"skipped"`
	Fetched int    `json:"fetched"`
	Added   int    `json:"added"`
	Failed  []Type `json:"failed,omitempty"`
	Total   int    `json:"total"`
}

// Aggregator 进程内唯一的资源缓存
type Aggregator struct {
	mu         sync.RWMutex
	items      []Resource
	byKey      map[SourceKey]int
	tombstones mapset.Set[SourceKey]
	// placeholderID 非 0 表示缓存里只有首次同步失败时塞入的占位记录
	placeholderID int
	lastSync      time.Time

	syncing atomic.Bool
	// saveMu 串行化快照的读取与写入，保证后写入的快照不比先写入的旧
	saveMu sync.Mutex

	upstream Upstream
	opts     Options
	log      *zap.Logger
}

func NewAggregator(up Upstream, opts Options) *Aggregator {
	if opts.IDStrategy == "" {
		opts.IDStrategy = IDOffset
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Aggregator{
		byKey:      make(map[SourceKey]int),
		tombstones: mapset.NewSet[SourceKey](),
		upstream:   up,
		opts:       opts,
		log:        opts.Logger,
	}
}

func (a *Aggregator) now() string {
	return utils.FormatISO(a.opts.Now())
}

// Len 当前缓存条数
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// LastSync 最近一次完成同步的时间
func (a *Aggregator) LastSync() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastSync
}

// Syncing 是否有同步正在进行
func (a *Aggregator) Syncing() bool {
	return a.syncing.Load()
}

type fetchResult struct {
	typ       Type
	resources []Resource
	err       error
}

// Sync 并发拉取三个上游集合并合并进缓存。
// 单个集合失败按空集合处理；已有同步在跑时直接跳过。
// 只有三个集合全部失败时才返回 ErrUpstreamUnavailable。
func (a *Aggregator) Sync(ctx context.Context) (SyncResult, error) {
	if !a.syncing.CompareAndSwap(false, true) {
		a.log.Info("⏭️ sync already in progress, skipped")
		return SyncResult{Skipped: true, Total: a.Len()}, nil
	}
	defer a.syncing.Store(false)

	start := a.opts.Now()
	results := a.fetchAll(ctx)
	now := utils.FormatISO(start)

	var (
		res      SyncResult
		incoming []Resource
		errs     []error
	)
	for _, fr := range results {
		if fr.err != nil {
			a.log.Warn("⚠️ upstream fetch failed, treating as empty",
				zap.String("type", string(fr.typ)), zap.Error(fr.err))
			res.Failed = append(res.Failed, fr.typ)
			errs = append(errs, fr.err)
			continue
		}
		incoming = append(incoming, fr.resources...)
	}
	res.Fetched = len(incoming)

	a.mu.Lock()
	res.Added = a.mergeLocked(incoming)
	totalFailure := len(res.Failed) == len(results)
	if totalFailure && len(a.items) == 0 {
		a.seedPlaceholderLocked(now)
		a.log.Warn("⚠️ sync failed on empty cache, seeded placeholder")
	}
	if !totalFailure {
		a.lastSync = start
	}
	res.Total = len(a.items)
	a.mu.Unlock()

	a.persist(ctx)

	a.log.Info("✅ sync finished",
		zap.Int("fetched", res.Fetched),
		zap.Int("added", res.Added),
		zap.Int("total", res.Total),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("took", a.opts.Now().Sub(start)))

	if totalFailure {
		return res, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, errors.Join(errs...))
	}
	return res, nil
}

func (a *Aggregator) fetchAll(ctx context.Context) []fetchResult {
	now := a.now()
	results := make([]fetchResult, len(Types))

	// 每个集合的错误单独记录，不能用 WithContext，否则一个失败会取消其余请求
	var g errgroup.Group
	g.Go(func() error {
		recs, err := a.upstream.Blogs(ctx)
		results[0] = fetchResult{typ: TypeBlog, err: err,
			resources: lo.Map(recs, func(b upstream.Blog, _ int) Resource { return fromBlog(b, now) })}
		return nil
	})
	g.Go(func() error {
		recs, err := a.upstream.UseCases(ctx)
		results[1] = fetchResult{typ: TypeUseCase, err: err,
			resources: lo.Map(recs, func(u upstream.UseCase, _ int) Resource { return fromUseCase(u, now) })}
		return nil
	})
	g.Go(func() error {
		recs, err := a.upstream.CaseStudies(ctx)
		results[2] = fetchResult{typ: TypeCaseStudy, err: err,
			resources: lo.Map(recs, func(c upstream.CaseStudy, _ int) Resource { return fromCaseStudy(c, now) })}
		return nil
	})
	_ = g.Wait()

	return results
}

// mergeLocked 只追加缓存中没有的记录，从不覆盖已有记录
func (a *Aggregator) mergeLocked(incoming []Resource) int {
	// 占位记录先摘出，本轮一条都没加进来时再放回
	var placeholder *Resource
	if a.placeholderID != 0 {
		if i := a.indexLocked(a.placeholderID); i >= 0 {
			p := a.removeLocked(i)
			placeholder = &p
		}
	}

	next := a.maxIDLocked() + 1
	added := 0
	for _, r := range incoming {
		key := *r.Source
		if a.tombstones.Contains(key) {
			continue
		}
		if _, ok := a.byKey[key]; ok {
			continue
		}

		switch a.opts.IDStrategy {
		case IDSequence:
			r.ID = next
			next++
		default:
			r.ID = key.OffsetID()
			if a.indexLocked(r.ID) >= 0 {
				continue
			}
		}

		a.items = append(a.items, r)
		a.byKey[key] = r.ID
		added++
	}

	switch {
	case placeholder != nil && added == 0:
		a.items = append([]Resource{*placeholder}, a.items...)
	case placeholder != nil:
		a.placeholderID = 0
	}
	return added
}

func (a *Aggregator) seedPlaceholderLocked(now string) {
	title := "Welcome to Our Resources"
	ind := IndustryByName("")
	p := Resource{
		ID:           1,
		Title:        title,
		Slug:         DeriveSlug(title),
		Type:         TypeBlog,
		Status:       StatusPublished,
		Excerpt:      "Our latest insights are on their way. Please check back soon.",
		AuthorName:   DefaultAuthor,
		IndustryID:   ind.ID,
		IndustryName: ind.Name,
		Tags:         []string{"Digital Transformation"},
		CreatedAt:    now,
		PublishedAt:  now,
	}
	a.items = append(a.items, p)
	a.placeholderID = p.ID
}

func (a *Aggregator) indexLocked(id int) int {
	for i := range a.items {
		if a.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (a *Aggregator) maxIDLocked() int {
	if len(a.items) == 0 {
		return 0
	}
	return max(0, lo.MaxBy(a.items, func(x, y Resource) bool { return x.ID > y.ID }).ID)
}

func (a *Aggregator) removeLocked(i int) Resource {
	if i < 0 {
		return Resource{}
	}
	r := a.items[i]
	a.items = append(a.items[:i], a.items[i+1:]...)
	return r
}

// snapshot 是快照的持久化格式
type snapshot struct {
	Resources  []Resource  `json:"resources"`
	Tombstones []SourceKey `json:"tombstones,omitempty"`
	SavedAt    string      `json:"saved_at"`
}

// persist 把当前缓存写入快照后端，失败只记日志
func (a *Aggregator) persist(ctx context.Context) {
	if a.opts.Snapshot == nil {
		return
	}
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.RLock()
	snap := snapshot{
		Resources:  lo.Map(a.items, func(r Resource, _ int) Resource { return r.clone() }),
		Tombstones: a.tombstones.ToSlice(),
		SavedAt:    a.now(),
	}
	a.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		a.log.Error("❌ encode snapshot", zap.Error(err))
		return
	}
	if err := a.opts.Snapshot.Save(ctx, data); err != nil {
		a.log.Error("❌ save snapshot", zap.Error(err))
	}
}

// Restore 从快照后端恢复缓存，返回恢复的条数。没有快照时返回 0。
func (a *Aggregator) Restore(ctx context.Context) (int, error) {
	if a.opts.Snapshot == nil {
		return 0, nil
	}
	data, err := a.opts.Snapshot.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading snapshot: %w", err)
	}
	if len(data) == 0 {
		return 0, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("decoding snapshot: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = a.items[:0]
	a.byKey = make(map[SourceKey]int)
	a.tombstones = mapset.NewSet(snap.Tombstones...)
	a.placeholderID = 0
	for _, r := range snap.Resources {
		if a.indexLocked(r.ID) >= 0 {
			continue
		}
		a.items = append(a.items, r)
		if r.Source != nil {
			a.byKey[*r.Source] = r.ID
		}
	}
	return len(a.items), nil
}
