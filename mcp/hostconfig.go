package mcp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// HostConfig is the configuration a host binary (cmd/mcprtd) reads to
// build a Server and its transports. It is intentionally small: the
// runtime's own knobs (timeouts, logging, transports) live here, while
// tool/prompt/resource registration is left to the host's own code.
type HostConfig struct {
	Name           string        `mapstructure:"name"`
	Version        string        `mapstructure:"version"`
	Instructions   string        `mapstructure:"instructions"`
	ToolTimeout    time.Duration `mapstructure:"tool_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	LogMaxSizeMB   int           `mapstructure:"log_max_size_mb"`
	LogMaxBackups  int           `mapstructure:"log_max_backups"`
	Transport      string        `mapstructure:"transport"` // "stdio", "sse", "streamable"
	HTTPAddr       string        `mapstructure:"http_addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
	EnableTasks    bool          `mapstructure:"enable_tasks"`
}

func defaultHostConfig() HostConfig {
	return HostConfig{
		Name:          "mcp-runtime-go",
		Version:       "0.1.0",
		ToolTimeout:   30 * time.Second,
		LogLevel:      "info",
		LogMaxSizeMB:  100,
		LogMaxBackups: 3,
		Transport:     "stdio",
		HTTPAddr:      ":8080",
		MetricsAddr:   ":9090",
	}
}

// LoadHostConfig reads configuration from built-in defaults, configPath (if
// non-empty), and environment variables prefixed MCPRTD_, in that ascending
// precedence order, per viper's usual layering: an environment variable
// wins over the config file, which wins over the default.
func LoadHostConfig(configPath string) (*HostConfig, error) {
	v := viper.New()
	def := defaultHostConfig()
	v.SetDefault("name", def.Name)
	v.SetDefault("version", def.Version)
	v.SetDefault("tool_timeout", def.ToolTimeout)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_max_size_mb", def.LogMaxSizeMB)
	v.SetDefault("log_max_backups", def.LogMaxBackups)
	v.SetDefault("transport", def.Transport)
	v.SetDefault("http_addr", def.HTTPAddr)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("enable_tasks", def.EnableTasks)

	v.SetEnvPrefix("MCPRTD")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("mcp: reading config %s: %w", configPath, err)
		}
	}

	var cfg HostConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("mcp: unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// WatchHostConfig reloads HostConfig from configPath whenever the file
// changes on disk, invoking onChange with the newly parsed config. Errors
// parsing the changed file are logged and the previous config is retained.
func WatchHostConfig(configPath string, log *slog.Logger, onChange func(*HostConfig)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("mcp: creating config watcher: %w", err)
	}
	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("mcp: watching %s: %w", configPath, err)
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadHostConfig(configPath)
				if err != nil {
					log.Error("reloading config failed", "err", err)
					continue
				}
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		watcher.Close()
	}, nil
}

func logLevelFromString(s string) slog.Level {
	switch LoggingLevel(s) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError, LevelCritical, LevelAlert, LevelEmergency:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
