package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// OpenGorm 按驱动名打开数据库连接，driver 取 mysql 或 postgres
func OpenGorm(driver, dsn, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return Open(dialector, logLevel, log)
}

// Open 用给定的 Dialector 打开连接 (测试里传 sqlite)
func Open(dialector gorm.Dialector, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: &ZapGormLogger{
			Logger: log,
			Config: gormLogger.Config{
				LogLevel:                  gormLevel(logLevel),
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             500 * time.Millisecond,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pool, err := conn.DB()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(10)
	pool.SetMaxIdleConns(5)

	if logLevel == "debug" {
		conn = conn.Debug()
	}
	return conn, nil
}

func gormLevel(level string) gormLogger.LogLevel {
	switch level {
	case "debug", "info":
		return gormLogger.Info
	case "warning", "warn":
		return gormLogger.Warn
	case "error", "fatal", "panic", "dpanic":
		return gormLogger.Error
	case "silent":
		return gormLogger.Silent
	default:
		return gormLogger.Warn
	}
}

// ZapGormLogger 把 gorm 日志转到 zap
type ZapGormLogger struct {
	Logger *zap.Logger
	Config gormLogger.Config
}

func (l *ZapGormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

func (l *ZapGormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Info {
		l.Logger.Info(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()), zap.String("agg_type", "gorm"))
	}
}

func (l *ZapGormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Warn {
		l.Logger.Warn(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()), zap.String("agg_type", "gorm"))
	}
}

// Error print error messages
func (l *ZapGormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Error {
		l.Logger.Error(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()), zap.String("agg_type", "gorm"))
	}
}

// Trace 记录 SQL、耗时与错误，慢查询按 Warn 输出
func (l *ZapGormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.Config.LogLevel >= gormLogger.Error &&
		(!errors.Is(err, gormLogger.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		sql, rows := fc()
		l.Logger.Error("gorm trace", zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows),
			zap.String("sql", sql), zap.String("agg_type", "gorm"))
	case l.Config.SlowThreshold != 0 && elapsed > l.Config.SlowThreshold && l.Config.LogLevel >= gormLogger.Warn:
		sql, rows := fc()
		l.Logger.Warn("gorm slow sql", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows),
			zap.String("sql", sql), zap.String("agg_type", "gorm"))
	case l.Config.LogLevel >= gormLogger.Info:
		sql, rows := fc()
		l.Logger.Debug("gorm trace", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows),
			zap.String("sql", sql), zap.String("agg_type", "gorm"))
	}
}
