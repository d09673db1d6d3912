package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/storefront-backend/internal/cfg"
	v1Http "github.com/DRSN-tech/storefront-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/storefront-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/storefront-backend/internal/repository/minio"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter/generated"
	"github.com/DRSN-tech/storefront-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/storefront-backend/internal/repository/redis/converter/generated"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/closer"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/DRSN-tech/storefront-backend/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App собирает все компоненты сервиса и управляет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	db           *postgres.PgDatabase
	redisClient  *clients.RedisClient
	imagesInfra  *minioInfra.MinioInfrastructure
	producer     *kafka.Producer
	outboxWorker *kafka.OutboxWorker
	httpSrv      *v1Http.Server
	closer       *closer.Closer

	shutdownCancel context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(2 * time.Second),
	}

	// Контекст живёт до конца graceful shutdown: фоновые задачи (очистка
	// MinIO, outbox-воркер) завершаются вместе с ним
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	app.shutdownCancel = shutdownCancel

	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.db = db
	app.closer.Add(func(ctx context.Context) error {
		db.Close()
		log.Infof("Database pool closed")
		return nil
	})

	productConv := pgdbConv.NewProductConverterImpl()
	customerConv := pgdbConv.NewCustomerConverterImpl()
	userConv := pgdbConv.NewUserConverterImpl()
	orderConv := pgdbConv.NewOrderConverterImpl()
	outboxConv := pgdbConv.NewOutboxEventConverterImpl()
	infoConv := redisConv.NewProductInfoConverterImpl()

	productRepo := pgdb.NewProductRepo(db.Pool, productConv)
	orderRepo := pgdb.NewOrderRepo(db.Pool, orderConv)
	customerRepo := pgdb.NewCustomerRepo(db.Pool, customerConv)
	userRepo := pgdb.NewUserRepo(db.Pool, userConv)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	minioCancel()

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	app.imagesInfra = minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, log, shutdownCtx)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.redisClient = redisClient
	app.closer.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, infoConv, cfg.Redis, log)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.producer = producer
	app.closer.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	app.outboxWorker = kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	orderUC := usecase.NewOrderUC(orderRepo, productRepo, outboxRepo, db.Pool, cacheRepo, log)
	productUC := usecase.NewProductUC(productRepo, orderRepo, db.Pool, app.imagesInfra, cacheRepo, log)
	authUC := usecase.NewAuthUC(userRepo, customerRepo, db.Pool, cfg.Auth, log)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(orderUC, productUC, authUC, v1Http.NewAuthMiddleware(cfg.Auth, log))

	app.httpSrv = v1Http.NewServer(r, cfg.Http)

	return app, nil
}

// Run запускает HTTP-сервер и outbox-воркера и блокируется до сигнала
// завершения или фатальной ошибки сервера.
func (a *App) Run() error {
	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.outboxWorker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	workerCancel()
	a.outboxWorker.Stop()
	a.logger.Infof("Outbox worker stopped")

	if err := a.imagesInfra.WaitForCleanup(shutdownCtx); err != nil {
		a.logger.Warnf("MinIO cleanup error: %v", err)
	} else {
		a.logger.Infof("MinIO cleanup completed")
	}

	a.shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("Close error: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
