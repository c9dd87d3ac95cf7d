package core

import "context"

// TaskCreator 定义任务构造函数签名
type TaskCreator func() Task

// Task 任务接口
type Task interface {
	// Run 执行任务逻辑
	// params 来自自动注册时的默认参数或配置文件 jobs 段
	Run(ctx context.Context, params map[string]any) error

	// Identifier 返回任务唯一标识 (用于日志和 /api/jobs)
	Identifier() string
}
