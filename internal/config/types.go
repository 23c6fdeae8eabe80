package config

import (
	"fmt"
	"strings"

	"github.com/asp-hub/asp-hub/internal/cache"
)

// GlobalConfig 描述全局运行时行为，HTTP 服务与虚拟缓存共享同一份参数。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
	SiteRoot      string `mapstructure:"SiteRoot"`
	Pipeline      string `mapstructure:"Pipeline"`

	// AllowFilesystemFallback 单独走宽松解析：缺失或无法解析一律按 false
	// 处理（fail closed，优先缓存），因此不交给 mapstructure 反序列化。
	AllowFilesystemFallback bool `mapstructure:"-"`
}

// BindingConfig 把一个已注册 Bundle 绑定到其命名空间根。文件中的出现顺序
// 即抽取顺序，跨 Bundle 的虚拟路径冲突按该顺序首写者生效。
type BindingConfig struct {
	Bundle        string   `mapstructure:"Bundle"`
	NamespaceRoot string   `mapstructure:"NamespaceRoot"`
	Exclude       []string `mapstructure:"Exclude"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig    `mapstructure:",squash"`
	Bindings []BindingConfig `mapstructure:"Binding"`
}

// CacheBindings 转换为协调器使用的绑定序列，保持文件顺序。
func (c *Config) CacheBindings() []cache.Binding {
	if len(c.Bindings) == 0 {
		return nil
	}
	out := make([]cache.Binding, len(c.Bindings))
	for i, b := range c.Bindings {
		out[i] = cache.Binding{
			Bundle:        strings.ToLower(strings.TrimSpace(b.Bundle)),
			NamespaceRoot: b.NamespaceRoot,
			Exclude:       b.Exclude,
		}
	}
	return out
}

// BindingSummaries 输出 bundle:root 形式的摘要，供启动日志使用。
func BindingSummaries(bindings []BindingConfig) []string {
	if len(bindings) == 0 {
		return nil
	}
	result := make([]string, len(bindings))
	for i, b := range bindings {
		result[i] = fmt.Sprintf("%s:%s", b.Bundle, b.NamespaceRoot)
	}
	return result
}
