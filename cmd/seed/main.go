package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/config"
	"github.com/oksasatya/issue-tracker-api/internal/application"
	"github.com/oksasatya/issue-tracker-api/internal/container"
	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	pginfra "github.com/oksasatya/issue-tracker-api/internal/infrastructure/postgres"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/storage"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
)

const demoPassword = "password123"

type demoUser struct {
	email, first, last string
}

var demoUsers = []demoUser{
	{"alice@example.com", "Alice", "Smith"},
	{"bob@example.com", "Bob", "Jones"},
}

type demoIssue struct {
	title, description string
	priority           entity.IssuePriority
	assignTo           int // index into demoUsers, -1 for none
}

var demoIssues = []demoIssue{
	{"Login page returns 500", "Submitting the login form with an empty password crashes the handler.", entity.IssuePriorityHigh, 1},
	{"Typo on the dashboard", "\"Recieved\" should read \"Received\".", entity.IssuePriorityLow, -1},
	{"Export to CSV times out", "Exports with more than 10k rows never finish.", entity.IssuePriorityMedium, 0},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}
	blobs, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.WithError(err).Fatal("failed to open upload dir")
	}

	c := &container.Container{
		Config: cfg,
		Logger: logger,
		JWT:    helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL),
		Blobs:  blobs,
	}
	c.UsePostgres(pool)
	defer c.Close()
	svc := c.Services()

	ids := make([]string, len(demoUsers))
	for i, u := range demoUsers {
		id, err := ensureUser(ctx, svc.Auth, u)
		if err != nil {
			logger.WithError(err).WithField("email", u.email).Fatal("failed to seed user")
		}
		ids[i] = id
		fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, u.email, demoPassword)
	}

	existing, err := svc.Issues.ListMine(ctx, ids[0], application.MineCreated, repo.IssueFilter{}, application.ListParams{Limit: 1})
	if err != nil {
		logger.WithError(err).Fatal("failed to list issues")
	}
	if existing.Total > 0 {
		logger.Info("issues already seeded")
		return
	}
	var first string
	for _, d := range demoIssues {
		in := application.CreateIssueInput{Title: d.title, Description: d.description, Priority: d.priority}
		if d.assignTo >= 0 {
			in.AssignedTo = ids[d.assignTo]
		}
		v, err := svc.Issues.Create(ctx, ids[0], in)
		if err != nil {
			logger.WithError(err).Fatal("failed to seed issue")
		}
		if first == "" {
			first = v.ID
		}
		logger.WithFields(logrus.Fields{"id": v.ID, "title": v.Title}).Info("seeded issue")
	}
	if _, err := svc.Comments.Create(ctx, ids[1], first, "Seeing this too on staging."); err != nil {
		logger.WithError(err).Fatal("failed to seed comment")
	}
}

func ensureUser(ctx context.Context, auth *application.AuthService, u demoUser) (string, error) {
	res, err := auth.Register(ctx, application.RegisterInput{
		Email: u.email, Password: demoPassword, FirstName: u.first, LastName: u.last,
	})
	if apperror.IsKind(err, apperror.KindConflict) {
		res, err = auth.Login(ctx, u.email, demoPassword)
	}
	if err != nil {
		return "", err
	}
	return res.User.ID, nil
}
