// Package ws pushes live sensor readings and predictions to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types pushed to clients
const (
	EventConnected         = "connected"
	EventSensorReading     = "sensor_reading"
	EventDiseasePrediction = "disease_prediction"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client is one websocket connection
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	deviceID string // only readings from this device are sent when set
}

// Hub tracks connected clients and fans messages out to them
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger
}

// Message is the frame sent to clients
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type envelope struct {
	deviceID string
	payload  []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a hub; call Run to start it
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Websocket client connected", zap.Int("clients", total))

			if data, err := encode(EventConnected, map[string]string{"status": "connected"}); err == nil {
				h.deliver(client, data)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Websocket client disconnected", zap.Int("clients", total))

		case msg := <-h.broadcast:
			h.mu.RLock()
			var targets []*Client
			for client := range h.clients {
				if msg.deviceID == "" || client.deviceID == "" || client.deviceID == msg.deviceID {
					targets = append(targets, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range targets {
				h.deliver(client, msg.payload)
			}
		}
	}
}

// deliver drops clients whose send buffer is full
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		h.logger.Warn("Dropping slow websocket client")
	}
}

func encode(eventType string, data any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (h *Hub) publish(eventType, deviceID string, data any) {
	payload, err := encode(eventType, data)
	if err != nil {
		h.logger.Error("Failed to encode websocket message", zap.String("type", eventType), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- envelope{deviceID: deviceID, payload: payload}:
	default:
		h.logger.Warn("Broadcast channel is full, dropping message", zap.String("type", eventType))
	}
}

// BroadcastSensorReading pushes a newly stored reading
func (h *Hub) BroadcastSensorReading(reading *models.SensorReading) {
	h.publish(EventSensorReading, reading.DeviceID, reading)
}

// BroadcastPrediction pushes a newly stored prediction
func (h *Hub) BroadcastPrediction(record *models.PredictionRecord) {
	h.publish(EventDiseasePrediction, "", record)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request. The optional device_id query parameter limits
// sensor readings to one device.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		deviceID: r.URL.Query().Get("device_id"),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for close and pong frames
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("Websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
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
