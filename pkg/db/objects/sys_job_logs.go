package objects

import "time"

// 任务运行状态
const (
	JobLogRunning = 0
	JobLogSuccess = 1
	JobLogFailed  = 2
)

// SysJobLog 对应 sys_job_logs 表，每次任务运行一行
type SysJobLog struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	JobName     string     `gorm:"index;size:128" json:"job_name"`
	HandlerName string     `gorm:"size:128" json:"handler"`
	Status      int        `json:"status"` // 0 Running, 1 Success, 2 Failed
	ErrorMsg    string     `gorm:"type:text" json:"error,omitempty"`
	DurationMs  int64      `json:"duration_ms"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

func (s SysJobLog) TableName() string {
	return "sys_job_logs"
}
