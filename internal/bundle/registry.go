package bundle

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var globalRegistry = newRegistry()

type registry struct {
	mu      sync.RWMutex
	bundles map[string]Bundle
}

func newRegistry() *registry {
	return &registry{bundles: make(map[string]Bundle)}
}

// Register 将 Bundle 加入全局注册表，重复键会返回错误。
func Register(b Bundle) error {
	return globalRegistry.register(b)
}

// MustRegister 在注册失败时 panic，适合 Bundle 的 init() 中调用。
func MustRegister(b Bundle) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的 Bundle。
func Resolve(key string) (Bundle, bool) {
	return globalRegistry.resolve(key)
}

// Keys 返回所有已注册 Bundle 的键值（按字典序），供诊断端使用。
func Keys() []string {
	return globalRegistry.keys()
}

func (r *registry) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(b Bundle) error {
	if b == nil {
		return fmt.Errorf("bundle is required")
	}
	key := r.normalizeKey(b.Key())
	if key == "" {
		return fmt.Errorf("bundle key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bundles[key]; exists {
		return fmt.Errorf("bundle %s already registered", key)
	}
	r.bundles[key] = b
	return nil
}

func (r *registry) resolve(key string) (Bundle, bool) {
	normalized := r.normalizeKey(key)
	if normalized == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bundles[normalized]
	return b, ok
}

func (r *registry) keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.bundles) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.bundles))
	for key := range r.bundles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
