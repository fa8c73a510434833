// Package config 提供配置管理
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/stats"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Export    ExportConfig    `mapstructure:"export"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port int    `mapstructure:"port"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"` // 需大于 scheduler.timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	APIKeys         []string      `mapstructure:"api_keys"`   // 为空时不校验
	RateLimit       int           `mapstructure:"rate_limit"` // 每个客户端每分钟请求数，0 不限流
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"` // json/console
	Output   string `mapstructure:"output"` // stdout/stderr/file
	FilePath string `mapstructure:"file_path"`
}

// Logger 转换为日志器配置
func (c LogConfig) Logger() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Level
	cfg.Format = c.Format
	cfg.Output = c.Output
	cfg.FilePath = c.FilePath
	return cfg
}

// SchedulerConfig 排班引擎配置
type SchedulerConfig struct {
	Solver         string        `mapstructure:"solver"`
	Timeout        time.Duration `mapstructure:"timeout"`
	BoundaryAsRest bool          `mapstructure:"boundary_as_rest"` // 统计时区间外视为休息
	Workers        int           `mapstructure:"workers"`          // 批量求解并发数
}

// Engine 转换为引擎配置
func (c SchedulerConfig) Engine() scheduler.Config {
	return scheduler.Config{
		Solver:  c.Solver,
		Timeout: c.Timeout,
		Stats:   stats.Options{BoundaryAsRest: c.BoundaryAsRest},
	}
}

// DatabaseConfig 数据库配置，未启用时不归档排班结果
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ExportConfig 导出配置
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// 数据库相关环境变量沿用 DB_ 前缀
var databaseEnv = map[string]string{
	"database.enabled":           "DB_ENABLED",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.name":              "DB_NAME",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASSWORD",
	"database.ssl_mode":          "DB_SSL_MODE",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "kinmu")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 7012)

	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", scheduler.DefaultTimeout+time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.api_keys", []string{})
	v.SetDefault("server.rate_limit", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "")

	v.SetDefault("scheduler.solver", "auto")
	v.SetDefault("scheduler.timeout", scheduler.DefaultTimeout)
	v.SetDefault("scheduler.boundary_as_rest", false)
	v.SetDefault("scheduler.workers", 2)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "kinmu")
	v.SetDefault("database.user", "kinmu")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("export.dir", "out")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值；path 为空时在当前目录和 ./configs 下查找 config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range databaseEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("配置校验失败: app.port 必须在 1-65535 之间")
	}
	if c.Scheduler.Timeout < 0 {
		return fmt.Errorf("配置校验失败: scheduler.timeout 不能为负")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("配置校验失败: server.rate_limit 不能为负")
	}
	if c.Scheduler.Workers <= 0 {
		return fmt.Errorf("配置校验失败: scheduler.workers 必须大于 0")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("配置校验失败: metrics.path 必须以 / 开头")
	}
	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("配置校验失败: 启用数据库时 database.host 不能为空")
	}
	return nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
