package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Slowper/emmawebsitempa-sub001/internal/engine"
	"github.com/Slowper/emmawebsitempa-sub001/internal/resource"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/db/objects"
	xerrors "github.com/Slowper/emmawebsitempa-sub001/pkg/errors"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/utils"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/xerr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func fail(c *gin.Context, err error) {
	cm := xerrors.FromError(err)
	if cm.Code == xerr.ErrInternalServer {
		logger.Error("❌ request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(xerr.HTTPStatus(cm.Code), gin.H{
		"success": false,
		"code":    cm.Code,
		"message": cm.Msg,
	})
}

func notFound(err error) error {
	if errors.Is(err, resource.ErrNotFound) {
		return xerrors.Wrap(xerr.ErrResourceNotFound, "Resource not found", err)
	}
	return err
}

// optionalInt 空串视为未提供
func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, xerrors.Wrap(xerr.ErrInvalidInput, key+" must be an integer", err)
	}
	return n, nil
}

func pathID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, xerrors.Wrap(xerr.ErrInvalidInput, "id must be an integer", err)
	}
	return id, nil
}

// bindInput 空请求体按 {} 处理
func bindInput(c *gin.Context) (resource.Input, error) {
	var in resource.Input
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		return in, xerrors.Wrap(xerr.ErrInvalidJSON, "", err)
	}
	return in, nil
}

func (s *Server) listResources(c *gin.Context) {
	industry, err := optionalInt(c, "industry")
	if err != nil {
		fail(c, err)
		return
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		fail(c, err)
		return
	}

	res := s.agg.List(resource.Filter{
		Type:       resource.Type(c.Query("type")),
		Status:     resource.Status(c.Query("status")),
		IndustryID: industry,
		Search:     c.Query("search"),
		Limit:      limit,
	})
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       res.Resources,
		"pagination": res.Pagination,
	})
}

func (s *Server) getResource(c *gin.Context) {
	r, err := s.agg.GetBySlug(c.Param("slug"))
	if err != nil {
		fail(c, notFound(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": r})
}

// getResourceByID 后台编辑用，不计阅读数
func (s *Server) getResourceByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	r, err := s.agg.GetByID(id)
	if err != nil {
		fail(c, notFound(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": r})
}

func (s *Server) createResource(c *gin.Context) {
	in, err := bindInput(c)
	if err != nil {
		fail(c, err)
		return
	}
	r := s.agg.Create(c.Request.Context(), in)
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Resource created successfully",
		"resource": r,
	})
}

func (s *Server) updateResource(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	patch, err := bindInput(c)
	if err != nil {
		fail(c, err)
		return
	}
	r, err := s.agg.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, notFound(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Resource updated successfully",
		"resource": r,
	})
}

func (s *Server) deleteResource(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	r, err := s.agg.Delete(c.Request.Context(), id)
	if err != nil {
		fail(c, notFound(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Resource deleted successfully",
		"resource": r,
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.agg.Stats()})
}

// sync 同步失败不返回错误码，调用方拿到当前缓存大小
func (s *Server) sync(c *gin.Context) {
	res, err := s.agg.Sync(c.Request.Context())
	message := "Sync completed"
	switch {
	case err != nil:
		message = "Sync failed: " + err.Error()
	case res.Skipped:
		message = "Sync already in progress"
	case len(res.Failed) > 0:
		message = "Sync completed with errors"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": err == nil,
		"message": message,
		"count":   res.Total,
		"result":  res,
	})
}

func (s *Server) industries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resource.Industries()})
}

func (s *Server) tags(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resource.Tags()})
}

func (s *Server) health(c *gin.Context) {
	lastSync := ""
	if t := s.agg.LastSync(); !t.IsZero() {
		lastSync = utils.FormatISO(t)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "ok",
		"resources": s.agg.Len(),
		"syncing":   s.agg.Syncing(),
		"last_sync": lastSync,
	})
}

const defaultRunsLimit = 20

// jobs 任务状态，配置了运行日志库时附带最近的运行记录
func (s *Server) jobs(c *gin.Context) {
	limit, err := optionalInt(c, "limit")
	if err != nil {
		fail(c, err)
		return
	}
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	runs, err := s.scheduler.RecentRuns(c.Request.Context(), c.Query("job"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	if runs == nil {
		runs = []objects.SysJobLog{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    s.scheduler.Stats.GetAll(),
		"runs":    runs,
	})
}

func (s *Server) runJob(c *gin.Context) {
	name := c.Param("name")
	if err := s.scheduler.ManualRun(name); err != nil {
		if errors.Is(err, engine.ErrJobNotFound) {
			err = xerrors.Wrap(xerr.ErrJobNotFound, "", err)
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Triggered"})
}
