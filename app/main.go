package main

import (
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/codestar/internal/commentservice"
	"github.com/sushihentaime/codestar/internal/common"
	"github.com/sushihentaime/codestar/internal/engagement"
	"github.com/sushihentaime/codestar/internal/likeservice"
	"github.com/sushihentaime/codestar/internal/mailservice"
	"github.com/sushihentaime/codestar/internal/postservice"
	"github.com/sushihentaime/codestar/internal/userservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	db             *sql.DB
	userService    *userservice.UserService
	postService    *postservice.PostService
	commentService *commentservice.CommentService
	engagement     *engagement.EngagementService
	mailService    *mailservice.MailService
	broker         *common.MessageBroker
	limiter        *ipRateLimiter
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.MigrationsPath != "" {
		dsn := common.DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		if _, err := common.MigrateDB(cfg.MigrationsPath, dsn); err != nil {
			logger.Error("failed to migrate the database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("database migrations applied", slog.String("source", cfg.MigrationsPath))
	}

	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 25, 25, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	broker, err := common.NewMessageBroker(common.AMQPURI(cfg.MQHost, cfg.MQPort, cfg.MQUser, cfg.MQPassword))
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupCommentExchange(broker)
	if err != nil {
		logger.Error("failed to setup the comment exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := common.NewCache(cfg.CacheTTL, 2*cfg.CacheTTL)

	postService := postservice.NewPostService(db, cache)
	commentService := commentservice.NewCommentService(db)

	app := &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		userService:    userservice.NewUserService(db, cache),
		postService:    postService,
		commentService: commentService,
		engagement:     engagement.NewEngagementService(db, postService, likeservice.NewLikeService(db), commentService, broker, logger),
		mailService:    mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, cfg.ModeratorEmail, logger),
		broker:         broker,
		limiter:        newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	app.mailService.NotifyModerators()
	defer app.mailService.Close()

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
