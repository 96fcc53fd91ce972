// Package container holds the explicitly constructed process dependencies.
// cmd/main builds one Container and hands it to the router; nothing here is
// global.
package container

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/config"
	"github.com/oksasatya/issue-tracker-api/internal/application"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/issue-tracker-api/internal/infrastructure/postgres"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/search"
	blob "github.com/oksasatya/issue-tracker-api/internal/infrastructure/storage"
	"github.com/oksasatya/issue-tracker-api/internal/interface/middleware"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
)

// Container is what the HTTP layer is wired from. Optional backends are nil
// when not configured.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Users    repo.UserRepository
	Issues   repo.IssueRepository
	Comments repo.CommentRepository
	Files    repo.FileRepository
	// PingDB probes the store for the health check.
	PingDB func(ctx context.Context) error

	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	GCS       *storage.Client
	ES        *elasticsearch.Client
	RabbitPub *helpers.RabbitPublisher

	JWT     *helpers.JWTManager
	Blobs   blob.BlobStore
	Limiter middleware.Limiter
	Search  *search.IssueIndex
	Cache   *helpers.RedisCache
}

// UsePostgres points the repositories at pool.
func (c *Container) UsePostgres(pool *pgxpool.Pool) {
	c.PGPool = pool
	c.Users = pginfra.NewUserRepository(pool)
	c.Issues = pginfra.NewIssueRepository(pool)
	c.Comments = pginfra.NewCommentRepository(pool)
	c.Files = pginfra.NewFileRepository(pool)
	c.PingDB = pool.Ping
}

// UseMemory points the repositories at a fresh in-process store.
func (c *Container) UseMemory() *memory.Store {
	st := memory.NewStore()
	c.Users, c.Issues, c.Comments, c.Files = st.Repositories()
	c.PingDB = st.Ping
	return st
}

// UseRedis enables the shared rate limiter and the stats cache.
func (c *Container) UseRedis(rdb *redis.Client) {
	c.Redis = rdb
	c.Limiter = middleware.NewRedisLimiter(rdb)
	c.Cache = helpers.NewRedisCache(rdb, c.Config.AppName+":")
}

// Services are the application services built over the container.
type Services struct {
	Coordinator *application.Coordinator
	Notifier    *application.Notifier
	Auth        *application.AuthService
	Issues      *application.IssueService
	Comments    *application.CommentService
	Files       *application.FileService
}

// Services builds the application layer. Nil optional backends stay nil
// interfaces rather than typed nils.
func (c *Container) Services() *Services {
	log := c.Logger
	if c.Limiter == nil {
		c.Limiter = middleware.NewMemoryLimiter()
	}

	var pub application.Publisher
	if c.RabbitPub != nil && c.Config.MailSendEnabled {
		pub = c.RabbitPub
	}
	var searcher application.IssueSearcher
	if c.Search != nil {
		searcher = c.Search
	}
	var cache application.StatsCache
	if c.Cache != nil {
		cache = c.Cache
	}

	co := application.NewCoordinator(c.Issues, c.Comments, c.Files, c.Blobs, log)
	notifier := application.NewNotifier(pub, c.Config, log)
	return &Services{
		Coordinator: co,
		Notifier:    notifier,
		Auth:        application.NewAuthService(c.Users, c.JWT, notifier, log),
		Issues:      application.NewIssueService(c.Issues, c.Users, c.Comments, c.Files, co, searcher, notifier, log),
		Comments:    application.NewCommentService(c.Comments, c.Issues, c.Users, co, notifier, log),
		Files: application.NewFileService(c.Files, c.Issues, c.Users, c.Blobs, co, cache, application.FileConfig{
			MaxFileSize:  c.Config.MaxFileSize,
			MaxFiles:     c.Config.MaxFilesPerRequest,
			AllowedTypes: c.Config.MimeTypes(),
		}, log),
	}
}

// Close releases every optional backend that was opened.
func (c *Container) Close() {
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
