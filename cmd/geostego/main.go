// Command geostego 运行隐写编解码 HTTP 服务。
package main

import (
	"context"
	"flag"
	"time"

	"github.com/kochabx/geostego/app"
	"github.com/kochabx/geostego/collab/comments"
	"github.com/kochabx/geostego/collab/fetch"
	"github.com/kochabx/geostego/collab/keyword"
	"github.com/kochabx/geostego/config"
	"github.com/kochabx/geostego/core/rate"
	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/log/desensitize"
	"github.com/kochabx/geostego/service"
	"github.com/kochabx/geostego/service/httpapi"
	"github.com/kochabx/geostego/stego"
	"github.com/kochabx/geostego/stego/aead"
	"github.com/kochabx/geostego/store/db"
	"github.com/kochabx/geostego/store/kafka"
	"github.com/kochabx/geostego/store/oss/minio"
	"github.com/kochabx/geostego/store/redis"
	"github.com/kochabx/geostego/transport"
	transporthttp "github.com/kochabx/geostego/transport/http"
	httpmetrics "github.com/kochabx/geostego/transport/http/metrics"
)

const namespace = "geostego"

func main() {
	file := flag.String("config", "config.yaml", "config file name")
	dir := flag.String("dir", ".", "config file directory")
	flag.Parse()

	if err := run(*file, *dir); err != nil {
		log.Fatal().Err(err).Msg("geostego exited")
	}
}

func run(file, dir string) error {
	var (
		cfg  service.Config
		conf *config.Config
	)
	conf = config.New(&cfg,
		config.WithFile(file, dir),
		config.WithEnvPrefix("GEOSTEGO"),
		config.OnReload(func() {
			var level string
			conf.Read(func() { level = cfg.Log.Level })
			log.SetGlobalLevel(log.ParseLevel(level))
		}),
	)
	if err := conf.Load(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	log.SetGlobalLogger(logger)
	log.SetGlobalLevel(log.ParseLevel(cfg.Log.Level))

	if err := conf.Watch(); err != nil {
		logger.Warn().Err(err).Msg("config watch disabled")
	}

	ctx := context.Background()
	var (
		closers []app.Option
		checks  []transporthttp.Option
	)
	closers = append(closers, app.WithClose("logger", func(context.Context) error { return logger.Close() }))

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithLocationTTL(cfg.Stego.LocationTTL),
	}

	suite, err := aead.ParseSuite(cfg.Stego.Suite)
	if err != nil {
		return err
	}
	cipher, err := aead.New(suite)
	if err != nil {
		return err
	}
	opts = append(opts, service.WithEngine(stego.New(
		stego.WithCipher(cipher),
		stego.WithLocationCheck(cfg.Stego.VerifyLocation),
		stego.WithLogger(logger),
	)))

	// 位置存储与限流
	var (
		limiter   rate.Limiter
		memoryLoc *service.MemoryLocationStore
	)
	if cfg.Redis.Enabled() {
		rc, err := redis.New(ctx, &cfg.Redis, redis.WithLogger(logger))
		if err != nil {
			return err
		}
		closers = append(closers, app.WithClose("redis", func(context.Context) error { return rc.Close() }))
		checks = append(checks, transporthttp.WithHealthCheck("redis", rc.Ping))
		opts = append(opts, service.WithLocationStore(service.NewRedisLocationStore(rc)))
		if cfg.RateLimit.Enabled {
			limiter = newLimiter(rc, cfg.RateLimit)
		}
	} else {
		memoryLoc = service.NewMemoryLocationStore()
		opts = append(opts, service.WithLocationStore(memoryLoc))
		if cfg.RateLimit.Enabled {
			logger.Warn().Msg("rate limit requires redis, disabled")
		}
	}

	// 审计
	var (
		sinks  []service.AuditSink
		purger service.Purger
	)
	if cfg.Database.Enabled() {
		dc, err := db.New(&cfg.Database, db.WithLogger(logger))
		if err != nil {
			return err
		}
		closers = append(closers, app.WithClose("database", func(context.Context) error { return dc.Close() }))
		checks = append(checks, transporthttp.WithHealthCheck("database", dc.Ping))
		sink, err := service.NewGormAuditSink(ctx, dc)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
		purger = sink
	}
	if cfg.Kafka.Enabled() {
		kc, err := kafka.New(cfg.Kafka, kafka.WithLogger(logger))
		if err != nil {
			return err
		}
		closers = append(closers, app.WithClose("kafka", func(context.Context) error { return kc.Close() }))
		checks = append(checks, transporthttp.WithHealthCheck("kafka", kc.Ping))
		sinks = append(sinks, service.NewKafkaAuditSink(kc, cfg.Audit.Topic))
	}
	if len(sinks) > 0 {
		opts = append(opts, service.WithAuditSink(service.NewMultiAuditSink(logger, sinks...)))
	}

	// 输出存储
	if cfg.Minio.Enabled() {
		mc, err := minio.New(&cfg.Minio)
		if err != nil {
			return err
		}
		if err := mc.EnsureBucket(ctx); err != nil {
			return err
		}
		closers = append(closers, app.WithClose("minio", func(context.Context) error { return mc.Close() }))
		checks = append(checks, transporthttp.WithHealthCheck("minio", mc.Ping))
		opts = append(opts, service.WithImageStore(service.NewMinioImageStore(mc, cfg.Output.Prefix)))
	} else {
		store, err := service.NewTempImageStore(cfg.Output.Dir)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithImageStore(store))
	}

	pool, err := service.NewPool(cfg.Pool.Size, cfg.Pool.MaxBlocking)
	if err != nil {
		return err
	}
	opts = append(opts,
		service.WithPool(pool),
		service.WithFetcher(fetch.NewFromConfig(cfg.Fetch)),
		service.WithCommentFetcher(comments.NewRouterFromConfig(cfg.Comments)),
		service.WithMatcher(keyword.NewLexicalMatcher(), cfg.Keyword.Threshold),
	)

	var routerMetrics *httpmetrics.HTTP
	if cfg.Server.Metrics {
		reg := httpmetrics.Prom.Registry()
		opts = append(opts, service.WithMetrics(service.NewMetrics(namespace, reg, pool.Waiting)))
		routerMetrics = httpmetrics.NewHTTP(namespace, reg)
	}

	svc, err := service.New(opts...)
	if err != nil {
		return err
	}
	closers = append(closers, app.WithClose("service", func(context.Context) error { return svc.Close() }))

	sweeperOpts := []service.SweeperOption{service.WithSweeperLogger(logger)}
	if purger != nil {
		sweeperOpts = append(sweeperOpts, service.WithAuditPurger(purger, cfg.Audit.Retention))
	}
	if memoryLoc != nil {
		sweeperOpts = append(sweeperOpts, service.WithMemoryLocations(memoryLoc))
	}
	sweeper, err := service.NewSweeper(cfg.Sweeper.Schedule, svc.Images(), cfg.Sweeper.OutputTTL, sweeperOpts...)
	if err != nil {
		return err
	}
	sweeper.Start()
	closers = append(closers, app.WithClose("sweeper", sweeper.Stop))

	router := httpapi.NewRouter(svc, httpapi.RouterConfig{
		BodyLimit:    cfg.Server.BodyLimit,
		AllowOrigins: cfg.Server.AllowOrigins,
		Limiter:      limiter,
		Metrics:      routerMetrics,
		Logger:       logger,
	})
	addr, err := transport.Address(cfg.Server.Host, cfg.Server.Port)
	if err != nil {
		return err
	}
	server := transporthttp.NewServer(addr, router, append(checks,
		transporthttp.WithName(namespace),
		transporthttp.WithLogger(logger),
		transporthttp.WithMetrics(transporthttp.MetricsOption{Enabled: cfg.Server.Metrics, GoCollector: true, BuildInfo: true}),
		transporthttp.WithHealth(transporthttp.HealthOption{Enabled: true}),
	)...)

	application := app.New(append(closers,
		app.WithServer(server),
		app.WithLogger(logger),
		app.WithShutdownTimeout(15*time.Second),
	)...)
	return application.Start()
}

func newLimiter(rc *redis.Client, c service.RateLimitConfig) rate.Limiter {
	prefix := rc.Key("ratelimit")
	if c.Algorithm == "token_bucket" {
		return rate.NewTokenBucketLimiter(rc.UniversalClient(), prefix, c.Burst, c.Rate)
	}
	return rate.NewSlidingWindowLimiter(rc.UniversalClient(), prefix, c.Window, c.Limit)
}

func newLogger(c service.LogConfig) (*log.Logger, error) {
	hook := desensitize.NewHook()
	hook.AddBuiltin(desensitize.BuiltinRules()...)
	opts := []log.Option{
		log.WithCaller(),
		log.WithDesensitize(hook),
		log.WithField("app", namespace),
	}

	if c.Output == "multi" {
		return log.NewMulti(c.File, opts...)
	}
	return log.New(opts...), nil
}
