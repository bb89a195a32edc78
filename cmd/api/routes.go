package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kumpul/internal/handler"
	"kumpul/internal/middleware"
	"kumpul/internal/realtime"
	"kumpul/internal/service"
)

func setupRoutes(app *fiber.App, h *handler.Handlers, services *service.Services, gateway *realtime.Gateway, hub *realtime.Hub) {
	app.Get("/health", func(c *fiber.Ctx) error {
		channels, users := hub.Stats()
		return c.JSON(fiber.Map{
			"status":       "ok",
			"ws_channels":  channels,
			"online_users": users,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/ws", gateway.Authenticate(), gateway.Handler())

	v1 := app.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.RefreshToken)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/forgot-password", h.Auth.ForgotPassword)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Get("/verify-email", h.Auth.VerifyEmail)
	auth.Post("/resend-verification", h.Auth.ResendVerificationEmail)

	protected := v1.Group("", middleware.AuthRequired(services.Auth))

	me := protected.Group("/me")
	me.Get("/", h.User.Me)
	me.Put("/", h.User.UpdateProfile)
	me.Delete("/", h.User.DeleteAccount)
	me.Post("/avatar", h.User.UploadAvatar)
	me.Get("/blocks", h.Graph.ListBlocked)
	me.Get("/bookmarks", h.Post.ListBookmarks)

	users := protected.Group("/users")
	users.Get("/", h.User.Search)
	users.Get("/by-username/:username", h.User.GetProfile)
	users.Get("/:userId/posts", h.Post.ListByAuthor)
	users.Get("/:userId/followers", h.Graph.ListFollowers)
	users.Get("/:userId/following", h.Graph.ListFollowing)
	users.Post("/:userId/follow", h.Graph.Follow)
	users.Delete("/:userId/follow", h.Graph.Unfollow)
	users.Post("/:userId/block", h.Graph.Block)
	users.Delete("/:userId/block", h.Graph.Unblock)

	protected.Get("/feed", h.Post.Feed)

	posts := protected.Group("/posts")
	posts.Post("/", h.Post.Create)
	posts.Get("/:postId", h.Post.Get)
	posts.Put("/:postId", h.Post.Update)
	posts.Delete("/:postId", h.Post.Delete)
	posts.Post("/:postId/like", h.Post.Like)
	posts.Delete("/:postId/like", h.Post.Unlike)
	posts.Post("/:postId/view", h.Post.RecordView)
	posts.Post("/:postId/bookmark", h.Post.Bookmark)
	posts.Delete("/:postId/bookmark", h.Post.Unbookmark)
	posts.Get("/:postId/comments", h.Comment.List)
	posts.Post("/:postId/comments", h.Comment.Create)

	comments := protected.Group("/comments")
	comments.Put("/:commentId", h.Comment.Update)
	comments.Delete("/:commentId", h.Comment.Delete)

	media := protected.Group("/media")
	media.Post("/", h.Media.Upload)
	media.Get("/:mediaId", h.Media.Get)
	media.Delete("/:mediaId", h.Media.Delete)

	chats := protected.Group("/chats")
	chats.Post("/", h.Chat.Create)
	chats.Get("/", h.Chat.List)
	chats.Get("/:chatId", h.Chat.Get)
	chats.Get("/:chatId/messages", h.Chat.ListMessages)
	chats.Post("/:chatId/messages", h.Chat.SendMessage)
	protected.Delete("/messages/:messageId", h.Chat.DeleteMessage)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Post("/mark-all-read", h.Notification.MarkAllAsRead)
	notifications.Get("/:id", h.Notification.Get)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Delete("/:id", h.Notification.Delete)
}
