package service

import (
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"kumpul/internal/config"
	"kumpul/internal/realtime"
	"kumpul/internal/repository"
	"kumpul/internal/service/auth"
	"kumpul/internal/service/block"
	"kumpul/internal/service/chat"
	"kumpul/internal/service/comment"
	"kumpul/internal/service/email"
	"kumpul/internal/service/follow"
	"kumpul/internal/service/media"
	"kumpul/internal/service/notification"
	"kumpul/internal/service/post"
	"kumpul/internal/service/user"
)

type Services struct {
	Auth         auth.Service
	User         user.Service
	Follow       follow.Service
	Block        block.Service
	Post         post.Service
	Comment      comment.Service
	Media        media.Service
	Chat         chat.Service
	Email        email.Service
	Notification notification.Service
}

// NewServices builds every service. Producers receive the notification core
// as a notification.Emitter, so there is no setter wiring.
func NewServices(
	repos *repository.Repositories,
	hub *realtime.Hub,
	redis *redis.Client,
	minioClient *minio.Client,
	cfg *config.Config,
	log *slog.Logger,
) *Services {
	notification.SetLocale(cfg.DefaultLocale)

	notificationService := notification.NewService(repos.Notification, hub, redis, notification.Config{
		BatchInterval:    cfg.NotificationBatchInterval,
		BatchWindow:      cfg.NotificationBatchWindow,
		SummaryThreshold: cfg.NotificationBatchThreshold,
		Workers:          cfg.NotificationBatchWorkers,
	}, log.With(slog.String("component", "notification")))

	var store media.ObjectStore
	if minioClient != nil {
		store = minioClient
	}
	mediaService := media.NewService(repos.Media, store, cfg, log)

	emailService := email.NewService(cfg)
	authService := auth.NewService(repos.User, repos.Session, emailService, cfg, log)
	userService := user.NewService(repos.User, repos.Follow, repos.Block, repos.Post, repos.Session, mediaService, hub)
	followService := follow.NewService(repos.Follow, repos.Block, repos.User, notificationService)
	blockService := block.NewService(repos.Block, repos.User)

	postService := post.NewService(post.Deps{
		Posts:     repos.Post,
		Likes:     repos.Like,
		Views:     repos.View,
		Bookmarks: repos.Bookmark,
		Media:     repos.Media,
		Users:     repos.User,
		MediaSvc:  mediaService,
		Notifier:  notificationService,
		Redis:     redis,
		Log:       log,
	})
	commentService := comment.NewService(repos.Comment, repos.Post, repos.User, repos.Block, notificationService, redis, log)
	chatService := chat.NewService(repos.Chat, repos.Message, repos.User, repos.Block, hub, notificationService, log.With(slog.String("component", "chat")))

	return &Services{
		Auth:         authService,
		User:         userService,
		Follow:       followService,
		Block:        blockService,
		Post:         postService,
		Comment:      commentService,
		Media:        mediaService,
		Chat:         chatService,
		Email:        emailService,
		Notification: notificationService,
	}
}
