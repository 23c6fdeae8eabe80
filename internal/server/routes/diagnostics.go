package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/asp-hub/asp-hub/internal/bundle"
	"github.com/asp-hub/asp-hub/internal/cache"
	"github.com/asp-hub/asp-hub/internal/config"
)

// RegisterDiagnosticsRoutes 暴露 /-/bundles 与 /-/vcache 诊断接口，
// 供运维查询 Bundle 注册情况与虚拟缓存状态。
func RegisterDiagnosticsRoutes(app *fiber.App, coord *cache.Coordinator, bindings []config.BindingConfig) {
	if app == nil || coord == nil {
		return
	}

	app.Get("/-/bundles", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"registered": bundle.Keys(),
			"bindings":   encodeBindings(bindings),
		})
	})

	app.Get("/-/vcache", func(c fiber.Ctx) error {
		entries := coord.Snapshot()
		return c.JSON(fiber.Map{
			"state":       coord.State().String(),
			"root":        coord.Root(),
			"entry_count": len(entries),
			"entries":     entries,
		})
	})
}

type bindingPayload struct {
	Bundle        string   `json:"bundle"`
	NamespaceRoot string   `json:"namespace_root"`
	Exclude       []string `json:"exclude,omitempty"`
	Registered    bool     `json:"registered"`
}

func encodeBindings(bindings []config.BindingConfig) []bindingPayload {
	if len(bindings) == 0 {
		return nil
	}
	result := make([]bindingPayload, 0, len(bindings))
	for _, b := range bindings {
		_, registered := bundle.Resolve(b.Bundle)
		result = append(result, bindingPayload{
			Bundle:        b.Bundle,
			NamespaceRoot: b.NamespaceRoot,
			Exclude:       b.Exclude,
			Registered:    registered,
		})
	}
	return result
}
