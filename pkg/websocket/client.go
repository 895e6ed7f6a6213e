package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID primitive.ObjectID
	Role   string
	rooms  map[string]bool
}

// LocationFunc receives location_update messages pushed by connected
// devices. The transport layer stays ignorant of what happens to them.
type LocationFunc func(userID primitive.ObjectID, latitude, longitude, accuracy float64)

func NewClient(hub *Hub, conn *websocket.Conn, userID primitive.ObjectID, role string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		UserID: userID,
		Role:   role,
		rooms:  make(map[string]bool),
	}
}

func (c *Client) ReadPump(onLocation LocationFunc) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message, onLocation)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(raw []byte, onLocation LocationFunc) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error unmarshaling client message: %v", err)
		return
	}

	msg.UserID = c.UserID
	msg.Timestamp = getCurrentTimestamp()

	switch msg.Type {
	case "location_update":
		c.handleLocationUpdate(msg, onLocation)

	case "join_route":
		c.handleJoinRoute(msg)

	case "leave_room":
		if roomID, ok := msg.Data["room_id"].(string); ok {
			c.hub.LeaveRoom(c, roomID)
		}

	case "ping":
		data, _ := json.Marshal(Message{
			Type:      "pong",
			UserID:    c.UserID,
			Timestamp: getCurrentTimestamp(),
		})
		c.send <- data

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

func (c *Client) handleLocationUpdate(msg Message, onLocation LocationFunc) {
	lat, latOK := msg.Data["latitude"].(float64)
	lng, lngOK := msg.Data["longitude"].(float64)
	if !latOK || !lngOK {
		return
	}

	accuracy, _ := msg.Data["accuracy"].(float64)

	if onLocation != nil {
		onLocation(c.UserID, lat, lng, accuracy)
	}

	// Drivers stream their position to everyone watching their route.
	if c.Role == "driver" {
		if routeID, ok := msg.Data["route_id"].(string); ok && routeID != "" {
			msg.RoomID = "route_" + routeID
			data, _ := json.Marshal(msg)
			c.hub.broadcast <- data
		}
	}
}

func (c *Client) handleJoinRoute(msg Message) {
	routeHex, ok := msg.Data["route_id"].(string)
	if !ok {
		return
	}

	routeID, err := primitive.ObjectIDFromHex(routeHex)
	if err != nil {
		log.Printf("Invalid route id in join_route: %s", routeHex)
		return
	}

	c.hub.JoinRoute(c, routeID)
}
