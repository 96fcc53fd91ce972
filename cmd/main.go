package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/config"
	"github.com/oksasatya/issue-tracker-api/internal/container"
	pginfra "github.com/oksasatya/issue-tracker-api/internal/infrastructure/postgres"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/search"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/storage"
	"github.com/oksasatya/issue-tracker-api/internal/interface/middleware"
	"github.com/oksasatya/issue-tracker-api/internal/router"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
	"github.com/oksasatya/issue-tracker-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	c, err := buildContainer(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	defer c.Close()

	validation.Init()

	// Gin engine and global middleware
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.Recovery(logger, cfg.IsDevelopment()),
	)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.RequestLogger(logger))
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg, c)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server exited properly")
}

// buildContainer opens every configured backend. Only the store and the
// blob storage are required; the rest degrade to in-process fallbacks.
func buildContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*container.Container, error) {
	c := &container.Container{
		Config: cfg,
		Logger: logger,
		JWT:    helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL),
	}

	switch cfg.DBDriver {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		c.UseMemory()
	default:
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.UsePostgres(pool)
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			c.Close()
			return nil, err
		}
	}

	switch cfg.StorageDriver {
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.GCS = client
		c.Blobs = storage.NewGCSStore(client, cfg.GCSBucket, cfg.UploadDir)
	default:
		disk, err := storage.NewDiskStore(cfg.UploadDir)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Blobs = disk
	}

	if cfg.RedisEnabled {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Warn("redis unavailable; using in-process rate limits")
			_ = rdb.Close()
		} else {
			c.UseRedis(rdb)
		}
	}

	if cfg.ESEnabled {
		es, err := search.NewClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err == nil {
			idx := search.NewIssueIndex(es, cfg.ESIssuesIndex)
			ictx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = idx.EnsureIndex(ictx)
			cancel()
			if err == nil {
				c.ES = es
				c.Search = idx
			}
		}
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; search falls back to the store")
		}
	}

	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; notifications disabled")
		} else {
			c.RabbitPub = pub
		}
	}
	return c, nil
}
