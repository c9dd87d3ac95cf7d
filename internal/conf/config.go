package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Jobs     []JobConfig    `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig 主站内容服务
type UpstreamConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed"`
	PingCron        string        `mapstructure:"ping_cron"`
}

type SyncConfig struct {
	Cron       string `mapstructure:"cron"`
	IDStrategy string `mapstructure:"id_strategy"` // offset / sequence
	Tombstones bool   `mapstructure:"tombstones"`
	Snapshot   bool   `mapstructure:"snapshot"`
	OnStart    bool   `mapstructure:"on_start"`
}

type AuthConfig struct {
	Username     string `mapstructure:"username"`
	RequireToken bool   `mapstructure:"require_token"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// DatabaseConfig 任务运行日志库，dsn 为空时不记录
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql / postgres
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
}

// UploadsConfig 封面图本地存储，dir 为空时关闭上传接口
type UploadsConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
	MaxSize int64  `mapstructure:"max_size"`
}

type JobConfig struct {
	Name   string                 `mapstructure:"name"`
	Cron   string                 `mapstructure:"cron"`
	Enable bool                   `mapstructure:"enable"`
	Params map[string]interface{} `mapstructure:"params"`
}

const defaultBaseURL = "http://localhost:3000"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("upstream.base_url", defaultBaseURL)
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.retry_max_elapsed", 0)
	v.SetDefault("upstream.ping_cron", "@every 1m")
	v.SetDefault("sync.cron", "@every 5m")
	v.SetDefault("sync.id_strategy", "offset")
	v.SetDefault("sync.tombstones", false)
	v.SetDefault("sync.snapshot", false)
	v.SetDefault("sync.on_start", true)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.require_token", false)
	v.SetDefault("redis.key", "cms:resources:snapshot")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.log_level", "warning")
	v.SetDefault("uploads.base_url", "/uploads")
	v.SetDefault("uploads.max_size", 5<<20)
}

// LoadConfig 加载配置，path 为空或文件不存在时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // 自动读取环境变量，例如 CMS_UPSTREAM_BASE_URL

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	// 显式展开环境变量，允许 YAML 中写 ${VAR}
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	// ${MAIN_SERVER_URL} 未设置时展开为空串
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = defaultBaseURL
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	switch c.Sync.IDStrategy {
	case "offset", "sequence":
	default:
		return fmt.Errorf("sync.id_strategy must be offset or sequence, got %q", c.Sync.IDStrategy)
	}
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be positive")
	}
	if c.Database.DSN != "" {
		switch c.Database.Driver {
		case "mysql", "postgres":
		default:
			return fmt.Errorf("database.driver must be mysql or postgres, got %q", c.Database.Driver)
		}
	}
	return nil
}
