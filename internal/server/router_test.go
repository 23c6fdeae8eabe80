package server

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func mustNewApp(t *testing.T, resolver *Resolver, siteRoot string) *fiber.App {
	t.Helper()
	pipeline, ok := LookupPipeline("static")
	if !ok {
		t.Fatalf("static pipeline should be registered")
	}
	app, err := NewApp(AppOptions{
		Logger:     newTestLogger(),
		Resolver:   resolver,
		Pipeline:   pipeline,
		SiteRoot:   siteRoot,
		ListenPort: 5000,
	})
	if err != nil {
		t.Fatalf("app error: %v", err)
	}
	t.Cleanup(func() { _ = app.Shutdown() })
	return app
}

func TestAppServesPageFromCache(t *testing.T) {
	siteRoot := t.TempDir()
	resolver := newTestResolver(t, newShopCoordinator(t), siteRoot, false)
	app := mustNewApp(t, resolver, siteRoot)

	resp, err := app.Test(httptest.NewRequest("GET", "/Shop/Cart.aspx", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "<cart/>" {
		t.Fatalf("body mismatch: %q", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAppRejectsNonPagePaths(t *testing.T) {
	siteRoot := t.TempDir()
	resolver := newTestResolver(t, newShopCoordinator(t), siteRoot, false)
	app := mustNewApp(t, resolver, siteRoot)

	resp, err := app.Test(httptest.NewRequest("GET", "/styles/site.css", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAppMissingPageIs404(t *testing.T) {
	siteRoot := t.TempDir()
	resolver := newTestResolver(t, newShopCoordinator(t), siteRoot, false)
	app := mustNewApp(t, resolver, siteRoot)

	resp, err := app.Test(httptest.NewRequest("GET", "/Nope.aspx", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	resolver := newTestResolver(t, newShopCoordinator(t), t.TempDir(), false)
	pipeline, _ := LookupPipeline("static")

	cases := []struct {
		name string
		opts AppOptions
	}{
		{"missing logger", AppOptions{Resolver: resolver, Pipeline: pipeline, SiteRoot: "x", ListenPort: 5000}},
		{"missing resolver", AppOptions{Logger: newTestLogger(), Pipeline: pipeline, SiteRoot: "x", ListenPort: 5000}},
		{"missing pipeline", AppOptions{Logger: newTestLogger(), Resolver: resolver, SiteRoot: "x", ListenPort: 5000}},
		{"missing site root", AppOptions{Logger: newTestLogger(), Resolver: resolver, Pipeline: pipeline, ListenPort: 5000}},
		{"bad port", AppOptions{Logger: newTestLogger(), Resolver: resolver, Pipeline: pipeline, SiteRoot: "x"}},
	}
	for _, tc := range cases {
		if _, err := NewApp(tc.opts); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
