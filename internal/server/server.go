package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Slowper/emmawebsitempa-sub001/internal/conf"
	"github.com/Slowper/emmawebsitempa-sub001/internal/engine"
	"github.com/Slowper/emmawebsitempa-sub001/internal/resource"
	"github.com/Slowper/emmawebsitempa-sub001/internal/tasks"
	"github.com/Slowper/emmawebsitempa-sub001/internal/tasks/cms"
	"github.com/Slowper/emmawebsitempa-sub001/internal/tasks/network"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/constants"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Server struct {
	cfg       *conf.Config
	engine    *gin.Engine
	handler   http.Handler
	scheduler *engine.Scheduler
	agg       *resource.Aggregator
	tokens    *TokenStore
	files     storage.FileStorage
	http      *http.Server
}

func NewServer(cfg *conf.Config, agg *resource.Aggregator, opts ...engine.Option) *Server {
	registry := tasks.NewRegistry()
	cms.Register(registry, agg, cfg.Sync.Cron)
	if cfg.Upstream.PingCron != "" {
		network.Register(registry, cfg.Upstream.PingCron, cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	}

	scheduler := engine.NewScheduler(registry, opts...)
	registry.ApplyAutoJobs(scheduler)
	// sync.cron 为空时同步任务不定时运行，但仍可手动触发和启动时执行
	if !scheduler.Has(cms.TaskName) {
		if err := scheduler.AddManualJob(cms.TaskName, cms.TaskName, nil, string(constants.TaskTypeSYSTEM)); err != nil {
			logger.Error("❌ Failed to register sync job", zap.Error(err))
		}
	}

	// 注册所有配置型任务
	for _, job := range cfg.Jobs {
		if !job.Enable {
			continue
		}
		uniqueName := job.Name
		if scheduler.Has(uniqueName) {
			uniqueName = fmt.Sprintf("%s [%s]", job.Name, job.Cron)
		}
		err := scheduler.AddJob(job.Cron, job.Name, uniqueName, job.Params, string(constants.TaskTypeYAML))
		if err != nil {
			logger.Warn("⚠️ Failed to schedule job", zap.String("job", job.Name), zap.Error(err))
		} else {
			logger.Info("✅ Job scheduled", zap.String("job", uniqueName), zap.String("cron", job.Cron))
		}
	}

	s := &Server{
		cfg:       cfg,
		scheduler: scheduler,
		agg:       agg,
		tokens:    NewTokenStore(),
	}
	if cfg.Uploads.Dir != "" {
		s.files = storage.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	}
	s.engine = s.routes()
	s.handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(s.engine)
	s.http = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/auth/login", s.login)

		api.GET("/resources", s.listResources)
		api.GET("/resources/:slug", s.getResource)
		api.GET("/stats", s.stats)
		api.GET("/industries", s.industries)
		api.GET("/tags", s.tags)

		write := api.Group("", s.requireToken())
		write.POST("/resources", s.createResource)
		write.PUT("/resources/:id", s.updateResource)
		write.DELETE("/resources/:id", s.deleteResource)
		write.POST("/sync", s.sync)

		api.GET("/jobs", s.jobs)
		write.POST("/jobs/:name/run", s.runJob)
		write.GET("/admin/resources/:id", s.getResourceByID)

		if s.files != nil {
			write.POST("/uploads", s.upload)
		}
	}

	// base_url 配成 CDN 地址时由外部提供静态访问
	if s.files != nil && strings.HasPrefix(s.cfg.Uploads.BaseURL, "/") {
		router.Static(s.cfg.Uploads.BaseURL, s.cfg.Uploads.Dir)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "API not found"})
	})

	return router
}

// Handler 返回带 CORS 的完整 handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run 启动调度器与 HTTP 服务，阻塞直到服务关闭
func (s *Server) Run(addr string) error {
	// 启动任务调度器
	s.scheduler.Start()

	if s.cfg.Sync.OnStart {
		go func() {
			if err := s.scheduler.RunNow(cms.TaskName); err != nil {
				logger.Error("❌ Initial sync not started", zap.Error(err))
			}
		}()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	// 启动 web server
	err = s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 先停 HTTP，再等待正在运行的任务
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.scheduler.Stop(ctx)
	return err
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
