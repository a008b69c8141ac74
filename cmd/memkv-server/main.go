package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
	"github.com/yndnr/memkv-go/internal/infra/confloader"
	"github.com/yndnr/memkv-go/internal/infra/shutdown"
	"github.com/yndnr/memkv-go/internal/infra/tlsroots"
	"github.com/yndnr/memkv-go/internal/server/config"
	"github.com/yndnr/memkv-go/internal/server/httpserver"
	"github.com/yndnr/memkv-go/internal/server/localserver"
	"github.com/yndnr/memkv-go/internal/server/redisserver"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "memkv-server",
		Usage:   "in-memory key-value server speaking RESP",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to configuration file"},
			&cli.StringFlag{Name: "bind", Usage: "listen host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port"},
			&cli.IntFlag{Name: "databases", Usage: "number of logical databases"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, verbose, notice, warning or error"},
			&cli.StringFlag{Name: "log-format", Usage: "json, text or console"},
			&cli.StringFlag{Name: "admin-addr", Usage: "serve metrics, health checks and the admin API on this address"},
			&cli.StringFlag{Name: "unixsocket", Usage: "also serve RESP on this Unix socket path"},
			&cli.StringFlag{Name: "replicaof", Usage: "\"host port\" of a master"},
		},
		Action: run,
	}
}

// flagOverrides maps the flags the user actually set onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	flags := map[string]any{}
	set := func(name, key string, value any) {
		if c.IsSet(name) {
			flags[key] = value
		}
	}
	set("bind", "server.bind", c.String("bind"))
	set("port", "server.port", c.Int("port"))
	set("databases", "server.databases", c.Int("databases"))
	set("log-level", "log.level", c.String("log-level"))
	set("log-format", "log.format", c.String("log-format"))
	set("admin-addr", "admin.addr", c.String("admin-addr"))
	set("unixsocket", "server.unix_socket", c.String("unixsocket"))
	set("replicaof", "replication.replicaof", c.String("replicaof"))
	return flags
}

func run(c *cli.Context) error {
	path := c.String("config")
	flags := flagOverrides(c)

	cfg, err := config.Load(path, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(config.ToLoggerConfig(cfg))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting memkv-server",
		"version", info.Version,
		"commit", info.ShortCommit(),
		"config", path)
	log.Debug("effective configuration", "config", cfg)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	keyspace := memory.New(cfg.Server.Databases)
	registry := metric.NewRegistry()
	registry.MustRegister(metric.NewKeyspaceCollector(keyspace))

	opts := []redisserver.Option{
		redisserver.WithLogger(log.Slog()),
		redisserver.WithMetrics(registry),
		redisserver.WithVersion(info.Version),
	}
	if tlsOpts, ok := config.ToTLSOptions(cfg); ok {
		tlsCfg, certs, err := tlsroots.ServerConfig(tlsOpts, tlsroots.WithLogger(log.Slog()))
		if err != nil {
			return fmt.Errorf("init tls: %w", err)
		}
		opts = append(opts, redisserver.WithTLS(tlsCfg))
		g.Go(func() error { return certs.Run(gctx) })
	}

	redisCfg, err := config.ToRedisConfig(cfg)
	if err != nil {
		cancel()
		return errors.Join(err, g.Wait())
	}
	srv, err := redisserver.New(redisCfg, keyspace, opts...)
	if err != nil {
		cancel()
		return errors.Join(fmt.Errorf("init redis server: %w", err), g.Wait())
	}

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, log.Slog())
	shutdownHandler.OnShutdown("background", func(context.Context) error {
		cancel()
		return nil
	})

	if err := srv.Start(gctx); err != nil {
		cancel()
		return errors.Join(err, g.Wait())
	}
	shutdownHandler.OnShutdown("redis", srv.Shutdown)

	localCfg, ok, err := config.ToLocalConfig(cfg)
	if err != nil {
		_ = shutdownHandler.Shutdown()
		return errors.Join(err, g.Wait())
	}
	if ok {
		local := localserver.New(localCfg, srv, log.Slog())
		if err := local.Listen(); err != nil {
			_ = shutdownHandler.Shutdown()
			return errors.Join(err, g.Wait())
		}
		g.Go(local.Serve)
		shutdownHandler.OnShutdown("local", local.Shutdown)
	}

	if cfg.Admin.Addr != "" {
		admin, err := startAdmin(cfg, srv, registry, log)
		if err != nil {
			_ = shutdownHandler.Shutdown()
			return errors.Join(err, g.Wait())
		}
		g.Go(func() error {
			if err := admin.Serve(); err != nil {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		shutdownHandler.OnShutdown("admin", admin.Shutdown)
	}

	if path != "" {
		watcher, err := watchConfig(path, flags, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	g.Go(func() error { return shutdownHandler.Wait(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// startAdmin binds the admin HTTP listener.
func startAdmin(cfg *config.ServerConfig, srv *redisserver.Server, registry *metric.Registry, log logger.Logger) (*httpserver.Server, error) {
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Source:         srv,
		Metrics:        registry.Handler(),
		Logger:         log.Slog().With("component", "httpserver"),
		AdminAllowList: cfg.Admin.AllowList,
		RateLimit:      cfg.Admin.RateLimit,
		EnableAudit:    cfg.Admin.Audit,
	})
	admin := httpserver.New(cfg.Admin.Addr, router)
	if err := admin.Listen(); err != nil {
		return nil, fmt.Errorf("listen admin %s: %w", cfg.Admin.Addr, err)
	}
	log.Info("admin server listening", "addr", admin.Addr().String())
	return admin, nil
}

// watchConfig reloads path on change and applies the settings that can
// change at runtime. Currently that is the log level.
func watchConfig(path string, flags map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		return nil, err
	}
	w.OnChange(func(string) {
		next, err := config.Load(path, flags)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		logger.SetLevel(next.Log.Level)
		log.Info("config reloaded", "log_level", next.Log.Level)
	})
	return w, nil
}
