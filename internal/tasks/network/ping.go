package network

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Slowper/emmawebsitempa-sub001/internal/core"
	"github.com/Slowper/emmawebsitempa-sub001/internal/tasks"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"

	"go.uber.org/zap"
)

const TaskName = "sys:upstream_ping"

// PingTask 探测主站是否可用，只用于任务面板展示，不影响同步
type PingTask struct {
	client *http.Client
}

// Register 注册探测任务，url 与 timeout(秒) 作为默认参数
func Register(reg *tasks.Registry, cron, url string, timeout time.Duration) {
	defaultParams := map[string]any{
		"url":     url,
		"timeout": int(timeout / time.Second),
	}
	reg.RegisterAuto(TaskName, cron, NewPingTask, defaultParams)
}

func NewPingTask() core.Task {
	return &PingTask{client: &http.Client{}}
}

func (t *PingTask) Identifier() string {
	return TaskName
}

func (t *PingTask) Run(ctx context.Context, params map[string]any) error {
	url, _ := params["url"].(string)
	if url == "" {
		return fmt.Errorf("missing url param")
	}

	timeout := 5 * time.Second
	switch v := params["timeout"].(type) {
	case int:
		if v > 0 {
			timeout = time.Duration(v) * time.Second
		}
	case float64:
		if v > 0 {
			timeout = time.Duration(v * float64(time.Second))
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("status code %d", resp.StatusCode)
	}

	logger.Debug("✅ [Ping] Upstream reachable", zap.String("url", url), zap.Int("status", resp.StatusCode))
	return nil
}
