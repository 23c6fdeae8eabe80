package server

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
)

// Pipeline 接收解析出的物理路径并产出响应。内核只认识这个接口：管线
// 如何渲染内容（直接回传、模板编译、委托给宿主内部入口）与解析层无关。
type Pipeline interface {
	Render(c fiber.Ctx, target Target) error
}

// PipelineFunc adapts a function to the Pipeline interface.
type PipelineFunc func(fiber.Ctx, Target) error

// Render makes PipelineFunc satisfy Pipeline.
func (f PipelineFunc) Render(c fiber.Ctx, target Target) error {
	return f(c, target)
}

var pipelineRegistry sync.Map

// ErrDuplicatePipeline indicates a pipeline key is already taken.
var ErrDuplicatePipeline = errors.New("pipeline already registered")

// RegisterPipeline stores a pipeline under the given key. Startup resolves
// the configured key exactly once through LookupPipeline.
func RegisterPipeline(key string, p Pipeline) error {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return errors.New("pipeline key required")
	}
	if p == nil {
		return errors.New("pipeline required")
	}
	if _, loaded := pipelineRegistry.LoadOrStore(normalized, p); loaded {
		return ErrDuplicatePipeline
	}
	return nil
}

// MustRegisterPipeline panics on registration failure.
func MustRegisterPipeline(key string, p Pipeline) {
	if err := RegisterPipeline(key, p); err != nil {
		panic(err)
	}
}

// LookupPipeline retrieves a registered pipeline by key.
func LookupPipeline(key string) (Pipeline, bool) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return nil, false
	}
	if value, ok := pipelineRegistry.Load(normalized); ok {
		if p, ok := value.(Pipeline); ok {
			return p, true
		}
	}
	return nil, false
}

// staticPipeline 是内置的公开入口：把解析出的文件原样回传。缓存里
// 没有对应文件时返回 404，存在性检查在这里而不在解析层。
type staticPipeline struct{}

func (staticPipeline) Render(c fiber.Ctx, target Target) error {
	info, err := os.Stat(target.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "page_not_found"})
		}
		return err
	}
	if info.IsDir() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "page_not_found"})
	}
	return c.SendFile(target.Path)
}

func init() {
	MustRegisterPipeline("static", staticPipeline{})
}
