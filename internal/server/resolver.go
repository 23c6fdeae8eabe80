package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/asp-hub/asp-hub/internal/cache"
	"github.com/asp-hub/asp-hub/internal/logging"
)

// Source 标记解析结果的来源。
type Source string

const (
	SourceFilesystem Source = "filesystem"
	SourceCache      Source = "cache"
)

// Target 是一次请求解析的产物：来源 + 物理路径。路径是否真实存在由
// 渲染管线负责判断，解析器不做存在性承诺。
type Target struct {
	Source Source
	Path   string
}

// ResolverOptions 汇总解析器的构造依赖。
type ResolverOptions struct {
	Coordinator *cache.Coordinator
	Lifecycle   cache.Lifecycle
	SiteRoot    string
	// AllowFilesystemFallback 为 true 时优先尝试站点目录里的真实文件；
	// 默认 false，总是指向缓存。
	AllowFilesystemFallback bool
	Logger                  *logrus.Logger
}

// Resolver 决定每个请求从真实文件系统还是抽取缓存取页面。
type Resolver struct {
	coord         *cache.Coordinator
	lifecycle     cache.Lifecycle
	siteRoot      string
	allowFallback bool
	logger        *logrus.Logger
}

// NewResolver 构造解析器；Coordinator 与 Logger 是必填依赖。
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	if opts.Coordinator == nil {
		return nil, errors.New("coordinator is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Resolver{
		coord:         opts.Coordinator,
		lifecycle:     opts.Lifecycle,
		siteRoot:      opts.SiteRoot,
		allowFallback: opts.AllowFilesystemFallback,
		logger:        opts.Logger,
	}, nil
}

// Resolve 先惰性触发一次性初始化（Ready 之后近乎免费），再按回退策略
// 选择来源。初始化失败直接向上传播，由宿主返回对用户可见的错误。
func (r *Resolver) Resolve(requestedVirtualPath, physicalCandidatePath string) (Target, error) {
	if err := r.coord.EnsureInitialized(r.lifecycle); err != nil {
		return Target{}, err
	}

	if r.allowFallback && fileExists(physicalCandidatePath) {
		target := Target{Source: SourceFilesystem, Path: physicalCandidatePath}
		r.logResolve(requestedVirtualPath, target)
		return target, nil
	}

	target := Target{Source: SourceCache, Path: r.cachePathFor(physicalCandidatePath)}
	r.logResolve(requestedVirtualPath, target)
	return target, nil
}

// cachePathFor 剥掉站点根前缀（若存在）并替换为缓存根。不带该前缀的
// 路径按原样挂到缓存根下。
func (r *Resolver) cachePathFor(physical string) string {
	rel := physical
	if r.siteRoot != "" {
		switch {
		case physical == r.siteRoot:
			rel = ""
		case strings.HasPrefix(physical, r.siteRoot+string(filepath.Separator)):
			rel = physical[len(r.siteRoot)+1:]
		}
	}
	path, err := r.coord.PathUnder(rel)
	if err != nil {
		// 越出缓存根的路径钉在根目录上，由管线按不存在的页面处理。
		return r.coord.Root()
	}
	return path
}

func (r *Resolver) logResolve(virtualPath string, target Target) {
	r.logger.WithFields(logging.ResolveFields(virtualPath, target.Path, string(target.Source))).
		Debug("resolved page source")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
