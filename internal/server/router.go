package server

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/asp-hub/asp-hub/internal/logging"
)

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Resolver   *Resolver
	Pipeline   Pipeline
	SiteRoot   string
	ListenPort int
}

const contextKeyRequestID = "_asphub_request_id"

// NewApp builds a Fiber application that routes page requests through the
// resolver and hands the outcome to the rendering pipeline. Diagnostics
// paths (/-/...) fall through to routes registered afterwards.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if opts.SiteRoot == "" {
		return nil, errors.New("site root is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	app.All("/*", func(c fiber.Ctx) error {
		path := string(c.Request().URI().Path())
		if isDiagnosticsPath(path) {
			return c.Next()
		}
		return servePage(c, opts, path)
	})

	return app, nil
}

// servePage 把请求虚拟路径换算成站点目录下的候选物理路径，再交给解析器。
func servePage(c fiber.Ctx, opts AppOptions, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".aspx") {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "page_not_found"})
	}

	physical := filepath.Join(opts.SiteRoot, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	target, err := opts.Resolver.Resolve(path, physical)
	if err != nil {
		// 初始化失败意味着没有可用缓存，只能对用户暴露内部错误。
		fields := logging.ResolveFields(path, physical, "")
		fields["request_id"] = RequestID(c)
		opts.Logger.WithFields(fields).Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "virtual_cache_unavailable"})
	}

	fields := logging.ResolveFields(path, target.Path, string(target.Source))
	fields["request_id"] = RequestID(c)
	opts.Logger.WithFields(fields).Info("serving page")

	return opts.Pipeline.Render(c, target)
}

// requestIDMiddleware 为每个请求生成 ID，并回写 X-Request-ID 响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
