package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fjod/holiday-rush/internal/cache"
	"github.com/fjod/holiday-rush/internal/cart"
	"github.com/fjod/holiday-rush/internal/catalog"
	"github.com/fjod/holiday-rush/internal/checkout"
	"github.com/fjod/holiday-rush/internal/config"
	"github.com/fjod/holiday-rush/internal/coupon"
	h "github.com/fjod/holiday-rush/internal/http"
	"github.com/fjod/holiday-rush/internal/idempotency"
	"github.com/fjod/holiday-rush/internal/orders"
	"github.com/fjod/holiday-rush/internal/payment"
	"github.com/fjod/holiday-rush/internal/publisher"
	"github.com/fjod/holiday-rush/internal/session"
	"github.com/fjod/holiday-rush/pkg/circuitbreaker"
	"github.com/fjod/holiday-rush/pkg/logger"
)

const serviceName = "holiday-rush"

func main() {
	configDir := flag.String("config", "configs", "directory holding base.yaml and <env>.yaml")
	envName := flag.String("env", os.Getenv("APP_ENV"), "config overlay to apply")
	flag.Parse()

	cfg, err := config.Load(*configDir, *envName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service:    serviceName,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("storefront stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("storefront stopped")
}

// closers run in reverse order on shutdown.
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) closeAll(log *slog.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var cl closers
	defer cl.closeAll(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var rdb *redis.Client
	if cfg.Cart.Backend == config.BackendMongo || cfg.Idempotency.Backend == config.BackendRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cl.add(rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		log.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	productRepo, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	cl.add(productRepo.Close)
	products := catalog.New(productRepo)

	cartRepo, cartCache, err := openCart(ctx, cfg, rdb, &cl)
	if err != nil {
		return err
	}
	carts := cart.NewService(cartRepo, cartCache, products, log)
	cl.add(wrapUnsubscribe(carts.Subscribe(cart.NewMetricsObserver(reg))))
	cl.add(wrapUnsubscribe(carts.Subscribe(cart.NewLogObserver(log))))

	orderRepo, err := openOrders(ctx, cfg, &cl)
	if err != nil {
		return err
	}

	pub, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	cl.add(pub.Close)

	var idem idempotency.Store
	switch cfg.Idempotency.Backend {
	case config.BackendRedis:
		idem = idempotency.NewRedisStore(rdb, cfg.Idempotency.TTL)
	default:
		s := idempotency.NewMemoryStore(cfg.Idempotency.TTL)
		cl.add(s.Close)
		idem = s
	}

	gateway := payment.NewBreakerGateway(
		payment.NewSimulatedGateway(payment.SimulatedConfig{
			MinDelay:    cfg.Payment.MinDelay,
			MaxDelay:    cfg.Payment.MaxDelay,
			FailureRate: cfg.Payment.FailureRate,
		}, nil),
		breakerConfig(cfg),
		log,
	)

	flows := checkout.NewSessionStore(cfg.Checkout.FlowTTL)
	cl.add(flows.Close)

	engine := coupon.NewEngine(coupon.DefaultCoupons())
	checkoutSvc := checkout.NewService(checkout.Deps{
		Carts:       carts,
		Products:    products,
		Coupons:     engine,
		Gateway:     gateway,
		Orders:      orderRepo,
		Idempotency: idem,
		Flows:       flows,
		Metrics:     checkout.NewMetrics(reg),
		Logger:      log,
	}, checkout.Config{
		SubmitTimeout:      cfg.Checkout.SubmitTimeout,
		ProcessingDelayMin: cfg.Checkout.ProcessingDelayMin,
		ProcessingDelayMax: cfg.Checkout.ProcessingDelayMax,
	})

	sessions, err := session.NewManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	router := h.NewRouter(h.Handlers{
		Products:   h.NewProductHandler(products, cfg.HTTP.RequestTimeout),
		Storefront: h.NewStorefrontHandler(engine),
		Cart:       h.NewCartHandler(carts, cfg.HTTP.RequestTimeout),
		Checkout:   h.NewCheckoutHandler(checkoutSvc),
		Orders:     h.NewOrdersHandler(orderRepo, cfg.HTTP.RequestTimeout),
	}, h.RouterOptions{
		Logger:         log,
		Metrics:        h.NewMetrics(reg),
		Gatherer:       reg,
		Session:        session.Middleware(sessions, log, session.MiddlewareOptions{SecureCookie: cfg.Session.SecureCookie}),
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	healthSrv := health.NewServer()
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	poller := publisher.NewOutboxPoller(orderRepo, pub, log, cfg.Orders.OutboxInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		log.Info("grpc health server listening", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return poller.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	return g.Wait()
}

func wrapUnsubscribe(unsubscribe func()) func() error {
	return func() error {
		unsubscribe()
		return nil
	}
}

func breakerConfig(cfg config.Config) circuitbreaker.Config {
	bc := circuitbreaker.DefaultConfig("payment-gateway")
	b := cfg.Payment.Breaker
	if b.MaxRequests > 0 {
		bc.MaxRequests = b.MaxRequests
	}
	if b.Interval > 0 {
		bc.Interval = b.Interval
	}
	if b.Timeout > 0 {
		bc.Timeout = b.Timeout
	}
	if b.MinRequests > 0 {
		bc.MinRequests = b.MinRequests
	}
	if b.FailureRatio > 0 {
		bc.FailureRatio = b.FailureRatio
	}
	return bc
}

func openCatalog(cfg config.Config) (catalog.Repository, error) {
	if cfg.Catalog.Backend != config.BackendSQLite {
		return catalog.NewMemoryRepository(catalog.DefaultProducts()), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Catalog.SQLitePath), 0o755); err != nil {
		return nil, fmt.Errorf("catalog dir: %w", err)
	}
	repo, err := catalog.NewSQLiteRepository(cfg.Catalog.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := repo.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("catalog migrations: %w", err)
	}
	return repo, nil
}

func openCart(ctx context.Context, cfg config.Config, rdb *redis.Client, cl *closers) (cart.Repository, cache.CartCache, error) {
	if cfg.Cart.Backend != config.BackendMongo {
		repo := cart.NewMemoryRepository(cfg.Cart.IdleTTL, cfg.Cart.CleanupInterval)
		cl.add(repo.Close)
		return repo, nil, nil
	}

	db, err := cart.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, nil, err
	}
	repo := cart.NewMongoRepository(db, cfg.Cart.IdleTTL)
	cl.add(func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return repo.Close(closeCtx)
	})
	return repo, cache.NewRedisCache(rdb, cfg.Cart.CacheTTL), nil
}

func openOrders(ctx context.Context, cfg config.Config, cl *closers) (orders.Repository, error) {
	if cfg.Orders.Backend != config.BackendPostgres {
		return orders.NewMemoryRepository(), nil
	}
	repo, err := orders.NewPostgresRepository(ctx, &orders.Credentials{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		DBName:   cfg.Postgres.DBName,
		SSLMode:  cfg.Postgres.SSLMode,
	})
	if err != nil {
		return nil, err
	}
	cl.add(repo.Close)
	if err := repo.RunMigrations(cfg.Orders.MigrationsPath); err != nil {
		return nil, fmt.Errorf("orders migrations: %w", err)
	}
	return repo, nil
}

func openPublisher(cfg config.Config, log *slog.Logger) (publisher.Publisher, error) {
	switch cfg.Broker.Kind {
	case config.BrokerKafka:
		return publisher.NewKafkaPublisher(cfg.Broker.Kafka.Topic, cfg.Broker.Kafka.Brokers...), nil
	case config.BrokerRabbit:
		p, err := publisher.DialRabbit(cfg.Broker.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return publisher.NewLogPublisher(log), nil
	}
}
