package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/asp-hub/asp-hub/internal/bundle"
	"github.com/asp-hub/asp-hub/internal/respath"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
// 绑定列表允许为空：没有绑定意味着空缓存，不算错误。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("LogLevel", "无法识别的日志级别")
	}
	if strings.TrimSpace(g.SiteRoot) == "" {
		return newFieldError("SiteRoot", "不能为空")
	}
	if strings.TrimSpace(g.Pipeline) == "" {
		return newFieldError("Pipeline", "不能为空")
	}

	seenBundles := map[string]struct{}{}
	for i := range c.Bindings {
		b := &c.Bindings[i]

		key := strings.ToLower(strings.TrimSpace(b.Bundle))
		if key == "" {
			return newFieldError("Binding[].Bundle", "不能为空")
		}
		if _, exists := seenBundles[key]; exists {
			return newFieldError(bindingField(key, "Bundle"), "重复")
		}
		seenBundles[key] = struct{}{}
		b.Bundle = key

		if err := respath.ValidateRoot(b.NamespaceRoot); err != nil {
			return fmt.Errorf("%s: %w", bindingField(key, "NamespaceRoot"), err)
		}

		if _, err := bundle.NewCatalog(b.Exclude); err != nil {
			return fmt.Errorf("%s: %w", bindingField(key, "Exclude"), err)
		}
	}

	return nil
}
