package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/asp-hub/asp-hub/internal/bundle"
	"github.com/asp-hub/asp-hub/internal/respath"
)

// State 描述协调器所处的初始化阶段。
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

// String returns the lowercase state name used in logs and diagnostics.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Binding 把一个已注册的 Bundle 绑定到其命名空间根，顺序即抽取顺序。
type Binding struct {
	Bundle        string
	NamespaceRoot string
	Exclude       []string
}

// Entry 描述一条已抽取的缓存条目，虚拟路径是去重键。
type Entry struct {
	VirtualPath string `json:"virtual_path"`
	FilePath    string `json:"file_path"`
	Bundle      string `json:"bundle"`
	Resource    string `json:"resource"`
	SizeBytes   int64  `json:"size_bytes"`
	Digest      string `json:"digest"`
}

// Lifecycle 是宿主生命周期句柄：协调器通过它注册进程退出时的清理回调。
type Lifecycle interface {
	OnShutdown(func())
}

// Resolver looks up a registered bundle by key. The default is the global
// bundle registry; tests inject their own.
type Resolver func(key string) (bundle.Bundle, bool)

// CoordinatorOptions 汇总协调器的构造依赖。
type CoordinatorOptions struct {
	Bindings []Binding
	Logger   *logrus.Logger
	Resolve  Resolver
}

// Coordinator 负责进程周期内恰好一次的资源抽取：创建缓存根、按绑定顺序
// 枚举资源、映射目标路径、驱动抽取，并在全部完成后发布不可变的条目索引。
//
// 状态机：Uninitialized → Initializing →（成功）Ready；失败回退
// Uninitialized，后续调用可以重试。Ready 之后 EnsureInitialized 走无锁
// 快路径，索引与缓存根只读。
type Coordinator struct {
	mu    sync.Mutex
	state atomic.Int32
	snap  atomic.Pointer[snapshot]

	bindings []Binding
	logger   *logrus.Logger
	resolve  Resolver

	dir      Directory
	hookOnce sync.Once
}

// snapshot 是 Ready 之后唯一对外可见的只读视图，整体替换、绝不原地修改。
type snapshot struct {
	root  string
	index map[string]Entry
}

// NewCoordinator 构造协调器；Logger 是必填依赖。
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	resolve := opts.Resolve
	if resolve == nil {
		resolve = bundle.Resolve
	}
	return &Coordinator{
		bindings: opts.Bindings,
		logger:   opts.Logger,
		resolve:  resolve,
	}, nil
}

// State 返回当前状态的无锁快照。
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// EnsureInitialized 并发安全且幂等：同一进程周期内只有第一个生效的调用
// 执行抽取，其余调用在临界区外等待后直接复用结果。lc 不为空时注册一次
// 退出清理钩子。
func (c *Coordinator) EnsureInitialized(lc Lifecycle) error {
	if c.State() == StateReady {
		return nil
	}

	// 钩子注册必须留在临界区外：已经触发过的宿主句柄会同步执行晚注册的
	// 回调，而回调里的 Teardown 要拿同一把锁。
	if lc != nil {
		c.hookOnce.Do(func() {
			lc.OnShutdown(func() {
				if err := c.Teardown(); err != nil {
					c.logger.WithFields(logrus.Fields{
						"action": "virtual_teardown",
					}).Warn(err.Error())
				}
			})
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 双重检查：等锁期间可能已有调用完成了初始化。
	if c.State() == StateReady {
		return nil
	}

	c.state.Store(int32(StateInitializing))
	if err := c.initialize(); err != nil {
		c.state.Store(int32(StateUninitialized))
		return err
	}
	c.state.Store(int32(StateReady))
	return nil
}

// initialize 执行一轮完整抽取。失败时已创建的目录保留原样，等待
// Teardown 或下一次 Recreate 清理。
func (c *Coordinator) initialize() error {
	root, err := c.dir.Recreate()
	if err != nil {
		return err
	}

	index := make(map[string]Entry)
	for _, binding := range c.bindings {
		if err := c.extractBinding(binding, root, index); err != nil {
			return err
		}
	}

	c.snap.Store(&snapshot{root: root, index: index})
	c.logger.WithFields(logrus.Fields{
		"action":   "virtual_init",
		"root":     root,
		"bindings": len(c.bindings),
		"entries":  len(index),
	}).Info("页面缓存初始化完成")
	return nil
}

func (c *Coordinator) extractBinding(binding Binding, root string, index map[string]Entry) error {
	b, ok := c.resolve(binding.Bundle)
	if !ok {
		return fmt.Errorf("%w: %s is not registered", ErrBundleLoad, binding.Bundle)
	}

	catalog, err := bundle.NewCatalog(binding.Exclude)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBundleLoad, binding.Bundle, err)
	}

	for _, resourceID := range catalog.ListEligible(b) {
		dest, err := respath.Map(binding.NamespaceRoot, resourceID, root)
		if err != nil {
			return fmt.Errorf("map resource %s of bundle %s: %w", resourceID, binding.Bundle, err)
		}

		virtual, err := filepath.Rel(root, dest)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", dest, err)
		}
		virtual = filepath.ToSlash(virtual)

		// 跨 Bundle 的同名虚拟路径按绑定顺序首写者生效，后来者静默跳过。
		if _, exists := index[virtual]; exists {
			c.logger.WithFields(logrus.Fields{
				"action":       "extract_skip",
				"bundle":       binding.Bundle,
				"resource":     resourceID,
				"virtual_path": virtual,
			}).Debug("虚拟路径已被先前的绑定占用")
			continue
		}

		if err := Extract(b, resourceID, dest); err != nil {
			return err
		}

		entry, err := describeEntry(virtual, dest, binding.Bundle, resourceID)
		if err != nil {
			return err
		}
		index[virtual] = entry
	}
	return nil
}

// describeEntry 读取落盘文件补全大小与内容摘要，供诊断端比对。
func describeEntry(virtual, path, bundleKey, resourceID string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, &ExtractError{Bundle: bundleKey, Resource: resourceID, Destination: path, Err: err}
	}
	defer f.Close()

	digest := xxhash.New()
	size, err := io.Copy(digest, f)
	if err != nil {
		return Entry{}, &ExtractError{Bundle: bundleKey, Resource: resourceID, Destination: path, Err: err}
	}

	return Entry{
		VirtualPath: virtual,
		FilePath:    path,
		Bundle:      bundleKey,
		Resource:    resourceID,
		SizeBytes:   size,
		Digest:      fmt.Sprintf("%016x", digest.Sum64()),
	}, nil
}

// Root 返回当前缓存根；仅在 Ready 之后有意义。
func (c *Coordinator) Root() string {
	s := c.snap.Load()
	if s == nil {
		return ""
	}
	return s.root
}

// PathUnder 把请求推导出的相对路径落到当前缓存根下，复用目录层的越界
// 防护。缓存未激活或路径越出根目录时报错。
func (c *Coordinator) PathUnder(relative string) (string, error) {
	s := c.snap.Load()
	if s == nil {
		return "", fmt.Errorf("%w: no active root", ErrDirectoryLifecycle)
	}
	d := Directory{root: s.root}
	return d.PathUnder(relative)
}

// Lookup 按虚拟路径查询条目；仅在 Ready 之后有结果。
func (c *Coordinator) Lookup(virtualPath string) (Entry, bool) {
	s := c.snap.Load()
	if s == nil {
		return Entry{}, false
	}
	entry, ok := s.index[virtualPath]
	return entry, ok
}

// Snapshot 返回按虚拟路径排序的条目副本，供诊断端输出。
func (c *Coordinator) Snapshot() []Entry {
	s := c.snap.Load()
	if s == nil {
		return nil
	}
	entries := make([]Entry, 0, len(s.index))
	for _, entry := range s.index {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].VirtualPath < entries[j].VirtualPath
	})
	return entries
}

// Teardown 销毁缓存根并清空索引，状态回到 Uninitialized。幂等，宿主可能
// 从多条退出路径并发触发。
func (c *Coordinator) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Store(nil)
	c.state.Store(int32(StateUninitialized))
	return c.dir.Destroy()
}
