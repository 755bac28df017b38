package app

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/hestia-go/pkg/logger"
)

// Config 表示应用配置结构。
type Config struct {
	// Loggers 表示日志配置段。
	Loggers []logger.NamedConfig `yaml:"loggers"`

	// AppLogger 表示应用根节点使用的具名日志实例。
	AppLogger string `yaml:"app_logger"`

	// ShutdownTimeout 表示优雅关闭超时时间，如 "30s"。
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// LoadConfigFromFile 从 YAML 文件加载应用配置。
func LoadConfigFromFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "app: read config")
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "app: parse config")
	}
	return cfg, nil
}

// applyConfig 加载配置文件并初始化日志与关闭超时。
func (a *BaseApplication) applyConfig(path string) error {
	if path == "" {
		return nil
	}
	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		return err
	}

	if len(cfg.Loggers) > 0 {
		if err := logger.InitFromConfig(logger.Config{Loggers: cfg.Loggers}); err != nil {
			return err
		}
	}
	if cfg.AppLogger != "" {
		a.root.SetLogger(logger.Get(cfg.AppLogger))
	}
	if cfg.ShutdownTimeout != "" {
		d, err := time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return errors.Wrap(err, "app: parse shutdown timeout")
		}
		a.SetShutdownTimeout(d)
	}
	return nil
}
