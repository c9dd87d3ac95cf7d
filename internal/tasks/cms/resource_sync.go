package cms

import (
	"context"

	"github.com/Slowper/emmawebsitempa-sub001/internal/core"
	"github.com/Slowper/emmawebsitempa-sub001/internal/resource"
	"github.com/Slowper/emmawebsitempa-sub001/internal/tasks"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"

	"go.uber.org/zap"
)

const TaskName = "cms:resource_sync"

// Syncer 由 resource.Aggregator 实现
type Syncer interface {
	Sync(ctx context.Context) (resource.SyncResult, error)
}

// ResourceSyncTask 定时从主站拉取资源并合并到缓存
type ResourceSyncTask struct {
	syncer Syncer
}

// Register 注册同步任务，cron 为空时只注册不自动调度
func Register(reg *tasks.Registry, syncer Syncer, cron string) {
	creator := func() core.Task { return &ResourceSyncTask{syncer: syncer} }
	if cron == "" {
		reg.Register(TaskName, creator)
		return
	}
	reg.RegisterAuto(TaskName, cron, creator, nil)
}

func (t *ResourceSyncTask) Identifier() string {
	return TaskName
}

func (t *ResourceSyncTask) Run(ctx context.Context, _ map[string]any) error {
	res, err := t.syncer.Sync(ctx)
	if err != nil {
		return err
	}
	if res.Skipped {
		logger.Info("⏭️ [Sync] Previous sync still running", zap.Int("total", res.Total))
		return nil
	}
	if len(res.Failed) > 0 {
		logger.Warn("⚠️ [Sync] Partial sync",
			zap.Any("failed", res.Failed), zap.Int("added", res.Added), zap.Int("total", res.Total))
	}
	return nil
}
