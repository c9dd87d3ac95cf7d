package tasks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Slowper/emmawebsitempa-sub001/internal/core"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/constants"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"

	"go.uber.org/zap"
)

type Scheduler interface {
	AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error
}

// AutoJob 定义一个“自启动任务”的结构
type AutoJob struct {
	Name    string           // 任务唯一标识
	Cron    string           // Cron 表达式
	Creator core.TaskCreator // 构造函数
	Params  map[string]any   // 默认参数
}

// Registry 任务注册表。每个服务实例持有自己的注册表，
// 任务实现依赖的对象 (缓存、客户端) 通过闭包注入 TaskCreator。
type Registry struct {
	mu       sync.RWMutex
	creators map[string]core.TaskCreator // 普通任务 (供 Config 调用)
	autoJobs []*AutoJob                  // 自动任务 (随调度器启动)
}

func NewRegistry() *Registry {
	return &Registry{creators: make(map[string]core.TaskCreator)}
}

// Register 注册任务实现，供配置文件 jobs 段按名称引用
func (r *Registry) Register(name string, creator core.TaskCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creators[name] = creator
}

// RegisterAuto 注册并自动启动，逻辑 + 调度配置一站式搞定
func (r *Registry) RegisterAuto(name string, cron string, creator core.TaskCreator, defaultParams map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. 先注册到普通池子 (这样 Web 界面也能手动触发)
	r.creators[name] = creator

	// 2. 加入自动启动列表
	r.autoJobs = append(r.autoJobs, &AutoJob{
		Name:    name,
		Cron:    cron,
		Creator: creator,
		Params:  defaultParams,
	})
}

func (r *Registry) GetTask(name string) (core.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	creator, ok := r.creators[name]
	if !ok {
		return nil, fmt.Errorf("task implementation '%s' not found", name)
	}
	return creator(), nil
}

// Names 已注册的任务名，按字母序
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyAutoJobs 把自动任务挂到调度器上
func (r *Registry) ApplyAutoJobs(sched Scheduler) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, job := range r.autoJobs {
		err := sched.AddJob(job.Cron, job.Name, job.Name, job.Params, string(constants.TaskTypeSYSTEM))
		if err != nil {
			logger.Error("❌ [AutoLoad] Failed to load job", zap.String("job", job.Name), zap.Error(err))
		} else {
			logger.Info("✅ [AutoLoad] Loaded job", zap.String("job", job.Name), zap.String("cron", job.Cron))
		}
	}
}
