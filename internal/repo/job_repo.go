package repo

import (
	"context"
	"time"

	"github.com/Slowper/emmawebsitempa-sub001/pkg/db/objects"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/transaction"

	"gorm.io/gorm"
)

// JobRepo 任务运行日志，实现 engine.RunRecorder
type JobRepo struct {
	db *gorm.DB
	tx *transaction.Manager
}

func NewJobRepo(db *gorm.DB) *JobRepo {
	return &JobRepo{db: db, tx: transaction.NewManager(db)}
}

// Migrate 建表
func (r *JobRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&objects.SysJobLog{})
}

// StartRun 开始记录日志
func (r *JobRepo) StartRun(ctx context.Context, jobName, handler string, start time.Time) (uint, error) {
	log := &objects.SysJobLog{
		JobName:     jobName,
		HandlerName: handler,
		Status:      objects.JobLogRunning,
		StartTime:   start,
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return 0, err
	}
	return log.ID, nil
}

// FinishRun 任务结束更新日志，读改写放在同一事务里
func (r *JobRepo) FinishRun(ctx context.Context, id uint, runErr error, end time.Time) error {
	return r.tx.Execute(ctx, nil, func(ctx context.Context) error {
		conn := transaction.Conn(ctx, r.db)

		var log objects.SysJobLog
		if err := conn.First(&log, id).Error; err != nil {
			return err
		}
		log.EndTime = &end
		log.DurationMs = end.Sub(log.StartTime).Milliseconds()
		log.Status = objects.JobLogSuccess
		if runErr != nil {
			log.Status = objects.JobLogFailed
			log.ErrorMsg = runErr.Error()
		}
		return conn.Save(&log).Error
	})
}

// RecentRuns 最近的运行记录，jobName 为空时不过滤
func (r *JobRepo) RecentRuns(ctx context.Context, jobName string, limit int) ([]objects.SysJobLog, error) {
	var list []objects.SysJobLog
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if jobName != "" {
		q = q.Where("job_name = ?", jobName)
	}
	err := q.Find(&list).Error
	return list, err
}
