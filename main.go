package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/asp-hub/asp-hub/internal/cache"
	"github.com/asp-hub/asp-hub/internal/config"
	"github.com/asp-hub/asp-hub/internal/logging"
	"github.com/asp-hub/asp-hub/internal/server"
	"github.com/asp-hub/asp-hub/internal/server/routes"
	"github.com/asp-hub/asp-hub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["bindings"] = config.BindingSummaries(cfg.Bindings)
		fields["fallback"] = cfg.Global.AllowFilesystemFallback
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	coordinator, err := cache.NewCoordinator(cache.CoordinatorOptions{
		Bindings: cfg.CacheBindings(),
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "构建缓存协调器失败: %v\n", err)
		return 1
	}

	// 启动顺序：配置 → 日志 → 协调器 → 渲染管线 → Fiber server。
	// 抽取本身是惰性的，首个页面请求触发 EnsureInitialized。
	hooks := &server.ShutdownHooks{}
	resolver, err := server.NewResolver(server.ResolverOptions{
		Coordinator:             coordinator,
		Lifecycle:               hooks,
		SiteRoot:                cfg.Global.SiteRoot,
		AllowFilesystemFallback: cfg.Global.AllowFilesystemFallback,
		Logger:                  logger,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "构建解析器失败: %v\n", err)
		return 1
	}

	pipeline, ok := server.LookupPipeline(cfg.Global.Pipeline)
	if !ok {
		fmt.Fprintf(stdErr, "渲染管线未注册: %s\n", cfg.Global.Pipeline)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["bindings"] = config.BindingSummaries(cfg.Bindings)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["pipeline"] = cfg.Global.Pipeline
	fields["fallback"] = cfg.Global.AllowFilesystemFallback
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, resolver, pipeline, coordinator, hooks, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("asp-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 ASP_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("ASP_HUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, resolver *server.Resolver, pipeline server.Pipeline, coordinator *cache.Coordinator, hooks *server.ShutdownHooks, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Resolver:   resolver,
		Pipeline:   pipeline,
		SiteRoot:   cfg.Global.SiteRoot,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticsRoutes(app, coordinator, cfg.Bindings)

	// 收到退出信号后先停 HTTP，再触发注册在 hooks 上的缓存清理。
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			logger.WithFields(logrus.Fields{"action": "shutdown"}).Warn(err.Error())
		}
	}()
	defer hooks.Fire()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
