package server

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"

	"github.com/asp-hub/asp-hub/internal/bundle"
	"github.com/asp-hub/asp-hub/internal/cache"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newShopCoordinator 构建一个带单 Bundle 绑定的协调器，Index.aspx 的
// 内容固定为 "<bundled/>"。
func newShopCoordinator(t *testing.T) *cache.Coordinator {
	t.Helper()

	fsys := fstest.MapFS{
		"Index.aspx":     &fstest.MapFile{Data: []byte("<bundled/>")},
		"Shop/Cart.aspx": &fstest.MapFile{Data: []byte("<cart/>")},
	}
	b, err := bundle.NewFSBundle("shop", "App", fsys)
	if err != nil {
		t.Fatalf("build bundle: %v", err)
	}

	coord, err := cache.NewCoordinator(cache.CoordinatorOptions{
		Bindings: []cache.Binding{{Bundle: "shop", NamespaceRoot: "App"}},
		Logger:   newTestLogger(),
		Resolve: func(key string) (bundle.Bundle, bool) {
			if key == "shop" {
				return b, true
			}
			return nil, false
		},
	})
	if err != nil {
		t.Fatalf("coordinator error: %v", err)
	}
	t.Cleanup(func() { _ = coord.Teardown() })
	return coord
}

func newTestResolver(t *testing.T, coord *cache.Coordinator, siteRoot string, allowFallback bool) *Resolver {
	t.Helper()
	resolver, err := NewResolver(ResolverOptions{
		Coordinator:             coord,
		SiteRoot:                siteRoot,
		AllowFilesystemFallback: allowFallback,
		Logger:                  newTestLogger(),
	})
	if err != nil {
		t.Fatalf("resolver error: %v", err)
	}
	return resolver
}

func TestResolveFilesystemFallbackEnabled(t *testing.T) {
	siteRoot := t.TempDir()
	physical := filepath.Join(siteRoot, "Index.aspx")
	if err := os.WriteFile(physical, []byte("<live/>"), 0o644); err != nil {
		t.Fatalf("seed site file: %v", err)
	}

	resolver := newTestResolver(t, newShopCoordinator(t), siteRoot, true)
	target, err := resolver.Resolve("/Index.aspx", physical)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if target.Source != SourceFilesystem || target.Path != physical {
		t.Fatalf("expected filesystem target, got %+v", target)
	}
}

func TestResolvePrefersCacheWhenFallbackDisabled(t *testing.T) {
	siteRoot := t.TempDir()
	physical := filepath.Join(siteRoot, "Index.aspx")
	if err := os.WriteFile(physical, []byte("<live/>"), 0o644); err != nil {
		t.Fatalf("seed site file: %v", err)
	}

	coord := newShopCoordinator(t)
	resolver := newTestResolver(t, coord, siteRoot, false)

	// 即使真实文件存在，关闭回退时也必须指向缓存。
	target, err := resolver.Resolve("/Index.aspx", physical)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if target.Source != SourceCache {
		t.Fatalf("expected cache target, got %+v", target)
	}
	if target.Path != filepath.Join(coord.Root(), "Index.aspx") {
		t.Fatalf("cache path mismatch: %s", target.Path)
	}

	body, err := os.ReadFile(target.Path)
	if err != nil {
		t.Fatalf("read cache entry: %v", err)
	}
	if string(body) != "<bundled/>" {
		t.Fatalf("cache content mismatch: %q", body)
	}
}

func TestResolveFallbackMissesGoToCache(t *testing.T) {
	siteRoot := t.TempDir()
	coord := newShopCoordinator(t)
	resolver := newTestResolver(t, coord, siteRoot, true)

	physical := filepath.Join(siteRoot, "Shop", "Cart.aspx")
	target, err := resolver.Resolve("/Shop/Cart.aspx", physical)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if target.Source != SourceCache {
		t.Fatalf("expected cache target, got %+v", target)
	}
	if target.Path != filepath.Join(coord.Root(), "Shop", "Cart.aspx") {
		t.Fatalf("cache path mismatch: %s", target.Path)
	}
}

func TestResolveUnprefixedPhysicalPathMapsUnderRoot(t *testing.T) {
	coord := newShopCoordinator(t)
	resolver := newTestResolver(t, coord, filepath.Join(t.TempDir(), "site"), false)

	target, err := resolver.Resolve("/Index.aspx", filepath.Join("elsewhere", "Index.aspx"))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if target.Path != filepath.Join(coord.Root(), "elsewhere", "Index.aspx") {
		t.Fatalf("unexpected mapping: %s", target.Path)
	}
}

func TestResolveTraversalPathPinnedToCacheRoot(t *testing.T) {
	siteRoot := t.TempDir()
	coord := newShopCoordinator(t)
	resolver := newTestResolver(t, coord, siteRoot, false)

	// 手工拼出带 .. 的候选路径：剥掉站点根前缀后剩下的相对路径会试图
	// 越出缓存根，必须被钉在根目录上而不是指向缓存外的文件。
	physical := siteRoot + string(filepath.Separator) + filepath.Join("..", "..", "etc", "secrets.aspx")
	target, err := resolver.Resolve("/../../etc/secrets.aspx", physical)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if target.Source != SourceCache {
		t.Fatalf("expected cache target, got %+v", target)
	}
	if target.Path != coord.Root() {
		t.Fatalf("escaping path should be pinned to the cache root, got %s", target.Path)
	}
}

func TestResolvePropagatesInitializationFailure(t *testing.T) {
	coord, err := cache.NewCoordinator(cache.CoordinatorOptions{
		Bindings: []cache.Binding{{Bundle: "ghost", NamespaceRoot: "App"}},
		Logger:   newTestLogger(),
		Resolve:  func(string) (bundle.Bundle, bool) { return nil, false },
	})
	if err != nil {
		t.Fatalf("coordinator error: %v", err)
	}

	resolver := newTestResolver(t, coord, t.TempDir(), false)
	if _, err := resolver.Resolve("/Index.aspx", "whatever"); err == nil {
		t.Fatalf("initialization failure should propagate")
	}
}
