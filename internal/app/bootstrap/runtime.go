package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viralforge/invoicing-service/internal/adapters/backend"
	"github.com/viralforge/invoicing-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/invoicing-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/invoicing-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/invoicing-service/internal/adapters/http"
	"github.com/viralforge/invoicing-service/internal/adapters/memory"
	"github.com/viralforge/invoicing-service/internal/adapters/postgres"
	"github.com/viralforge/invoicing-service/internal/adapters/security"
	"github.com/viralforge/invoicing-service/internal/application"
	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/platform/logger"
	"github.com/viralforge/invoicing-service/internal/platform/metrics"
	"github.com/viralforge/invoicing-service/internal/ports"
	"go.uber.org/zap"
)

type tokenSigner interface {
	Sign(claims ports.AuthClaims, ttl time.Duration) (string, error)
}

// announceDevToken writes a development admin token to out. The structured
// log only carries its masked form.
func announceDevToken(signer tokenSigner, out io.Writer, log *zap.Logger) error {
	token, err := signer.Sign(ports.AuthClaims{SubjectID: "dev-user", Role: application.RoleAdmin, TenantID: "dev-tenant"}, 12*time.Hour)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "development bearer token (12h): %s\n", token); err != nil {
		return err
	}
	log.Info("development bearer token issued", zap.String("token", logger.MaskBearer(token)))
	return nil
}

type Runtime struct {
	cfg        Config
	logger     *zap.Logger
	httpServer *http.Server
	grpcServer *grpcadapter.Server
	worker     *eventadapter.Worker
	// inProcessEvents is set when kafka is not configured; the API then drains
	// its own memory consumer so cache invalidation still happens.
	inProcessEvents bool
	cleanupFn       func(context.Context)
}

type storeSet struct {
	idempotency ports.IdempotencyRepository
	submissions ports.SubmissionRepository
	statsCache  ports.StatsCache
	locks       ports.SubmissionLock
	sequence    ports.InvoiceNumberSequence
}

type eventSet struct {
	publisher ports.EventPublisher
	consumer  ports.EventConsumer
	dlq       ports.DLQPublisher
	inProcess bool
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.ServiceID, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("env", cfg.Environment))
	zap.ReplaceGlobals(log)

	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		_ = log.Sync()
	}

	stores, storeClosers, err := buildStores(ctx, cfg, log)
	closers = append(closers, storeClosers...)
	if err != nil {
		closeAll()
		return nil, err
	}

	backendClient, err := backend.NewClient(backend.Config{BaseURL: cfg.BackendBaseURL, Timeout: cfg.BackendTimeout})
	if err != nil {
		closeAll()
		return nil, err
	}
	verifier, err := security.NewHMACVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		closeAll()
		return nil, err
	}

	events, eventClosers := buildEvents(cfg, log)
	closers = append(closers, eventClosers...)

	m := metrics.New(metrics.Config{ServiceName: cfg.ServiceID, Environment: cfg.Environment})
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:         cfg.ServiceID,
			IdempotencyTTL:      cfg.IdempotencyTTL,
			SubmissionLockTTL:   cfg.SubmissionLockTTL,
			StatsCacheTTL:       cfg.StatsCacheTTL,
			EventPublishTimeout: cfg.EventPublishTimeout,
			DefaultPageSize:     cfg.DefaultPageSize,
			MaxPageSize:         cfg.MaxPageSize,
		},
		Backend:     backendClient,
		Idempotency: stores.idempotency,
		Submissions: stores.submissions,
		StatsCache:  stores.statsCache,
		Locks:       stores.locks,
		Sequence:    stores.sequence,
		Publisher:   events.publisher,
		Logger:      log,
		Metrics:     m,
	})

	if cfg.Environment == "development" {
		if devErr := announceDevToken(verifier, os.Stderr, log); devErr != nil {
			log.Warn("development bearer token not issued", zap.Error(devErr))
		}
	}

	handler := httpadapter.NewHandler(service, verifier, log, m)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:             cfg,
		logger:          log,
		httpServer:      httpServer,
		grpcServer:      grpcadapter.NewServer(log, cfg.ServiceID),
		worker:          eventadapter.NewWorker(log, events.consumer, events.dlq, service, cfg.ConsumerPollInterval),
		inProcessEvents: events.inProcess,
		cleanupFn: func(context.Context) {
			closeAll()
		},
	}, nil
}

func buildStores(ctx context.Context, cfg Config, log *zap.Logger) (storeSet, []io.Closer, error) {
	mem := memory.NewStores()
	set := storeSet{
		idempotency: mem.Idempotency,
		submissions: mem.Submissions,
		statsCache:  mem.StatsCache,
		locks:       mem.Locks,
		sequence:    mem.Sequence,
	}
	var closers []io.Closer

	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return set, closers, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return set, closers, err
		}
		closers = append(closers, sqlDB)
		if err := postgres.RunMigrations(ctx, db); err != nil {
			return set, closers, err
		}
		repos := postgres.NewRepositories(db)
		set.idempotency = repos.Idempotency
		set.submissions = repos.Submissions
	} else {
		log.Warn("postgres not configured, submission ledger and idempotency are in-memory")
	}

	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return set, closers, err
		}
		closers = append(closers, redisClient)
		set.statsCache = cache.NewRedisStatsCache(redisClient)
		set.locks = cache.NewRedisSubmissionLock(redisClient)
		set.sequence = cache.NewRedisInvoiceSequence(redisClient)
	} else {
		log.Warn("redis not configured, stats cache and submission locks are in-memory")
	}
	return set, closers, nil
}

func buildEvents(cfg Config, log *zap.Logger) (eventSet, []io.Closer) {
	memConsumer := eventadapter.NewMemoryConsumer()
	set := eventSet{
		publisher: eventadapter.NewMemoryPublisher(memConsumer),
		consumer:  memConsumer,
		dlq:       eventadapter.NewLoggingDLQPublisher(log),
		inProcess: true,
	}
	if len(cfg.KafkaBrokers) == 0 {
		return set, nil
	}

	var closers []io.Closer
	kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
		contracts.EventInvoiceSubmitted: cfg.KafkaTopicInvoiceSubmitted,
		contracts.EventStatsRefreshed:   cfg.KafkaTopicStatsRefreshed,
	})
	if err != nil {
		log.Warn("kafka publisher disabled, using in-process publisher", zap.Error(err))
		return set, nil
	}
	kafkaConsumer, err := eventadapter.NewKafkaConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaConsumerGroup,
		[]string{cfg.KafkaTopicInvoiceSubmitted, cfg.KafkaTopicStatsRefreshed},
	)
	if err != nil {
		_ = kafkaPublisher.Close()
		log.Warn("kafka consumer disabled, using in-process events", zap.Error(err))
		return set, nil
	}
	closers = append(closers, kafkaPublisher, kafkaConsumer)
	set.publisher = kafkaPublisher
	set.consumer = kafkaConsumer
	set.inProcess = false

	dlq, err := eventadapter.NewKafkaDLQPublisher(cfg.KafkaBrokers, cfg.KafkaTopicDLQ)
	if err != nil {
		log.Warn("kafka dlq disabled, parking failed events in logs", zap.Error(err))
	} else {
		set.dlq = dlq
		closers = append(closers, dlq)
	}
	return set, closers
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(context.Background())
		return err
	}
	errCh := make(chan error, 3)
	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	if r.inProcessEvents {
		go func() {
			if err := r.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}
	r.logger.Info("api runtime started",
		zap.Int("http_port", r.cfg.HTTPPort),
		zap.Int("grpc_port", r.cfg.GRPCPort),
		zap.Bool("in_process_events", r.inProcessEvents),
	)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		r.logger.Error("runtime failure", zap.Error(runErr))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.cleanupFn(context.Background())

	if r.inProcessEvents {
		r.logger.Warn("kafka not configured, worker has nothing to consume besides its own process")
	}
	r.logger.Info("worker runtime started", zap.Duration("poll_interval", r.cfg.ConsumerPollInterval))
	if err := r.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
