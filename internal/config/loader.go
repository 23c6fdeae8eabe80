package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(stringListDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.Global.AllowFilesystemFallback = parseFallbackFlag(v.Get("AllowFilesystemFallback"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absSiteRoot, err := filepath.Abs(cfg.Global.SiteRoot)
	if err != nil {
		return nil, fmt.Errorf("无法解析站点目录: %w", err)
	}
	cfg.Global.SiteRoot = absSiteRoot

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("SiteRoot", "./site")
	v.SetDefault("Pipeline", "static")
	v.SetDefault("AllowFilesystemFallback", false)
}

// parseFallbackFlag 宽松解析回退开关：缺失、类型不符或无法解析都归为
// false，保证路由默认偏向缓存。
func parseFallbackFlag(raw interface{}) bool {
	switch value := raw.(type) {
	case bool:
		return value
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return false
		}
		return parsed
	case int:
		return value != 0
	case int64:
		return value != 0
	case float64:
		return value != 0
	default:
		return false
	}
}

// stringListDecodeHook 允许 Exclude 写成单个字符串或字符串数组。
func stringListDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf([]string{})

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}
		if value, ok := data.(string); ok {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				return []string{}, nil
			}
			return []string{trimmed}, nil
		}
		return data, nil
	}
}
