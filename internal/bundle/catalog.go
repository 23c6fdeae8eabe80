package bundle

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// pageExtension 是可服务页面模板的命名约定后缀，大小写不敏感。
const pageExtension = ".aspx"

// IsEligible reports whether a resource identifier names a servable page
// template. The rule is purely lexical: at least one character before a
// case-insensitive ".aspx" suffix.
func IsEligible(resourceID string) bool {
	if len(resourceID) < len(pageExtension)+1 {
		return false
	}
	suffix := resourceID[len(resourceID)-len(pageExtension):]
	return strings.EqualFold(suffix, pageExtension)
}

// Catalog 按命名约定（以及可选的排除模式）筛选 Bundle 内可服务的资源。
type Catalog struct {
	exclude []glob.Glob
}

// NewCatalog compiles the optional exclusion patterns. Patterns are matched
// against full resource identifiers.
func NewCatalog(excludePatterns []string) (*Catalog, error) {
	c := &Catalog{}
	for _, pattern := range excludePatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
		}
		c.exclude = append(c.exclude, g)
	}
	return c, nil
}

// ListEligible 返回 Bundle 中全部可服务资源，保持 Bundle 的枚举顺序。
// 返回的切片是独立副本。
func (c *Catalog) ListEligible(b Bundle) []string {
	if b == nil {
		return nil
	}
	var out []string
	for _, id := range b.Resources() {
		if !IsEligible(id) {
			continue
		}
		if c.excluded(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (c *Catalog) excluded(id string) bool {
	for _, g := range c.exclude {
		if g.Match(id) {
			return true
		}
	}
	return false
}
