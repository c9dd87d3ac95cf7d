package constants

// TaskType 任务来源
type TaskType string

const (
	TaskTypeSYSTEM TaskType = "SYSTEM" // 代码内自动注册
	TaskTypeYAML   TaskType = "YAML"   // 配置文件 jobs 段
	TaskTypeAPI    TaskType = "API"    // 管理端手动触发
)

// 任务运行状态
const (
	JobStatusIdle    = "Idle"
	JobStatusRunning = "Running"
	JobStatusError   = "Error"
)

// TimeLayout 任务面板展示用的时间格式
const TimeLayout = "2006-01-02 15:04:05"
