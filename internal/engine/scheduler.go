package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Slowper/emmawebsitempa-sub001/internal/core"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/constants"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/db/objects"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrJobNotFound 手动触发了未注册的任务
var ErrJobNotFound = errors.New("job not found")

// TaskProvider 按名称提供任务实现
type TaskProvider interface {
	GetTask(name string) (core.Task, error)
}

// RunRecorder 持久化每次运行记录 (可选)
type RunRecorder interface {
	StartRun(ctx context.Context, jobName, handler string, start time.Time) (uint, error)
	FinishRun(ctx context.Context, id uint, runErr error, end time.Time) error
}

// RunHistory 能查询历史运行记录的 recorder
type RunHistory interface {
	RecentRuns(ctx context.Context, jobName string, limit int) ([]objects.SysJobLog, error)
}

type registeredJob struct {
	task    core.Task
	params  map[string]any
	entryID cron.EntryID
	manual  bool
}

type Scheduler struct {
	cron       *cron.Cron
	Stats      *StatManager
	tasks      TaskProvider
	recorder   RunRecorder
	timeout    time.Duration
	mu         sync.RWMutex
	registered map[string]registeredJob
	wg         sync.WaitGroup
}

type Option func(*Scheduler)

// WithRecorder 记录每次运行到数据库
func WithRecorder(r RunRecorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithTimeout 单次运行的超时时间
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

func NewScheduler(tasks TaskProvider, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		Stats:      NewStatManager(),
		tasks:      tasks,
		timeout:    5 * time.Minute,
		registered: make(map[string]registeredJob),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Has 是否已有同名任务
func (s *Scheduler) Has(uniqueJobName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registered[uniqueJobName]
	return ok
}

// AddJob 添加任务
func (s *Scheduler) AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error {
	if s.Has(uniqueJobName) {
		return fmt.Errorf("job %q already scheduled", uniqueJobName)
	}

	// 1. 获取任务实现
	taskInstance, err := s.tasks.GetTask(taskName)
	if err != nil {
		return err
	}

	// 2. 加入 Cron
	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.runTaskWithStats(uniqueJobName, taskInstance, params)
	})
	if err != nil {
		return err
	}

	// 3. 初始化状态，保存引用以便手动触发
	next := s.cron.Entry(entryID).Next
	s.Stats.Set(uniqueJobName, &JobStats{
		Name:        uniqueJobName,
		CronExpr:    cronExpr,
		Status:      constants.JobStatusIdle,
		LastResult:  "Pending",
		Source:      source,
		rawNext:     next,
		NextRunTime: formatTime(next),
	})

	s.mu.Lock()
	s.registered[uniqueJobName] = registeredJob{task: taskInstance, params: params, entryID: entryID}
	s.mu.Unlock()
	return nil
}

// AddManualJob 只登记不进 Cron，用于手动触发与启动时的首次运行
func (s *Scheduler) AddManualJob(taskName, uniqueJobName string, params map[string]any, source string) error {
	if s.Has(uniqueJobName) {
		return fmt.Errorf("job %q already scheduled", uniqueJobName)
	}
	taskInstance, err := s.tasks.GetTask(taskName)
	if err != nil {
		return err
	}

	s.Stats.Set(uniqueJobName, &JobStats{
		Name:       uniqueJobName,
		Status:     constants.JobStatusIdle,
		LastResult: "Pending",
		Source:     source,
	})

	s.mu.Lock()
	s.registered[uniqueJobName] = registeredJob{task: taskInstance, params: params, manual: true}
	s.mu.Unlock()
	return nil
}

// runTaskWithStats 执行并记录状态，同一任务正在运行时跳过本次
func (s *Scheduler) runTaskWithStats(name string, task core.Task, params map[string]any) {
	s.wg.Add(1)
	defer s.wg.Done()

	started := false
	start := time.Now()
	s.Stats.Update(name, func(stat *JobStats) {
		if stat.Status == constants.JobStatusRunning {
			return
		}
		started = true
		stat.Status = constants.JobStatusRunning
		stat.LastRunTime = formatTime(start)
		stat.RunCount++
	})
	if !started {
		logger.Warn("⏭️ [Schedule] Job still running, skipped", zap.String("job", name))
		return
	}

	logger.Info("🚀 [Schedule] Starting job", zap.String("job", name))

	// 执行 (带超时控制)
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var runID uint
	if s.recorder != nil {
		id, err := s.recorder.StartRun(ctx, name, task.Identifier(), start)
		if err != nil {
			logger.Warn("⚠️ [Schedule] Failed to record job start", zap.String("job", name), zap.Error(err))
		}
		runID = id
	}

	err := task.Run(ctx, params)

	if s.recorder != nil && runID != 0 {
		if recErr := s.recorder.FinishRun(ctx, runID, err, time.Now()); recErr != nil {
			logger.Warn("⚠️ [Schedule] Failed to record job result", zap.String("job", name), zap.Error(recErr))
		}
	}

	// 更新结束状态
	next := s.nextRun(name)
	s.Stats.Update(name, func(stat *JobStats) {
		if err != nil {
			stat.LastResult = fmt.Sprintf("Error: %v", err)
			stat.Status = constants.JobStatusError
		} else {
			stat.LastResult = "Success"
			stat.Status = constants.JobStatusIdle
		}
		if !next.IsZero() {
			stat.rawNext = next
			stat.NextRunTime = formatTime(next)
		}
	})

	if err != nil {
		logger.Error("❌ [Schedule] Job failed", zap.String("job", name), zap.Error(err), zap.Duration("took", time.Since(start)))
	} else {
		logger.Info("✅ [Schedule] Job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

// ManualRun 手动触发，异步执行
func (s *Scheduler) ManualRun(uniqueJobName string) error {
	s.mu.RLock()
	reg, ok := s.registered[uniqueJobName]
	s.mu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}
	go s.runTaskWithStats(uniqueJobName, reg.task, reg.params)
	return nil
}

// RunNow 同步执行一次 (启动时的首次同步使用)
func (s *Scheduler) RunNow(uniqueJobName string) error {
	s.mu.RLock()
	reg, ok := s.registered[uniqueJobName]
	s.mu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}
	s.runTaskWithStats(uniqueJobName, reg.task, reg.params)
	return nil
}

// RecentRuns 最近的运行记录，recorder 不支持查询时返回空
func (s *Scheduler) RecentRuns(ctx context.Context, jobName string, limit int) ([]objects.SysJobLog, error) {
	h, ok := s.recorder.(RunHistory)
	if !ok {
		return nil, nil
	}
	return h.RecentRuns(ctx, jobName, limit)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在运行的任务结束，ctx 到期时放弃等待
func (s *Scheduler) Stop(ctx context.Context) {
	cronCtx := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("⚠️ [Schedule] Stop timed out with jobs still running")
	}
}

func (s *Scheduler) nextRun(name string) time.Time {
	s.mu.RLock()
	reg, ok := s.registered[name]
	s.mu.RUnlock()
	if !ok || reg.manual {
		return time.Time{}
	}
	return s.cron.Entry(reg.entryID).Next
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(constants.TimeLayout)
}
