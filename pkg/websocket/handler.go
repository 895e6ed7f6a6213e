package websocket

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Mobile clients connect from app webviews and native sockets,
		// origin checks happen at the gateway.
		return true
	},
}

type Handler struct {
	hub        *Hub
	onLocation LocationFunc
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// OnLocation wires the sink for device location pushes. Must be called
// before the handler starts accepting connections.
func (h *Handler) OnLocation(fn LocationFunc) {
	h.onLocation = fn
}

func (h *Handler) HandleConnection(c *gin.Context) {
	userIDValue, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	userID, ok := userIDValue.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user context"})
		return
	}

	role, _ := c.Get("user_role")
	roleStr, _ := role.(string)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, userID, roleStr)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump(h.onLocation)
}
