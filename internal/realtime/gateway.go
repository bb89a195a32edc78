package realtime

import (
	"log/slog"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const localsUserID = "ws_user_id"

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator func(token string) (uuid.UUID, error)

// Gateway upgrades authenticated HTTP requests to websocket channels and
// registers them with the hub.
type Gateway struct {
	hub        *Hub
	auth       Authenticator
	sendBuffer int
	log        *slog.Logger
}

func NewGateway(hub *Hub, auth Authenticator, sendBuffer int, log *slog.Logger) *Gateway {
	return &Gateway{hub: hub, auth: auth, sendBuffer: sendBuffer, log: log}
}

// Authenticate rejects anything that is not an authenticated upgrade
// request. It must run before Handler.
func (g *Gateway) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		if token == "" {
			header := c.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing access token")
		}

		userID, err := g.auth(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(localsUserID, userID)
		return c.Next()
	}
}

func (g *Gateway) Handler() fiber.Handler {
	return websocket.New(g.serve)
}

func (g *Gateway) serve(conn *websocket.Conn) {
	userID, ok := conn.Locals(localsUserID).(uuid.UUID)
	if !ok {
		return
	}

	client := NewClient(conn, g.sendBuffer)
	g.hub.Connect(userID, client)

	written := make(chan struct{})
	go func() {
		defer close(written)
		client.WritePump()
	}()

	client.ReadPump()
	g.hub.Disconnect(userID, client)
	_ = client.Close()
	<-written
}
