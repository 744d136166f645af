// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"motion-service/internal/config"
	"motion-service/internal/model"
	"motion-service/internal/service"
	"motion-service/internal/utils"
)

// WebSocketHandler streams channel events and accepts commands over WebSocket
type WebSocketHandler struct {
	upgrader       websocket.Upgrader
	connections    *ConnectionManager
	channelService *service.ChannelService
	logger         *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(channelService *service.ChannelService, cfg *config.Config, logger *zap.Logger) *WebSocketHandler {
	allowed := cfg.Security.AllowedOrigins
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			for _, o := range allowed {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}

	return &WebSocketHandler{
		upgrader:       upgrader,
		connections:    NewConnectionManager(),
		channelService: channelService,
		logger:         utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	// All channel events
	router.GET("/events", h.HandleEventConnection)

	// Events of one channel, plus commands on it
	router.GET("/channels/:index", h.HandleChannelConnection)
}

// HandleEventConnection handles general event WebSocket connections
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	h.accept(c, "events", nil)
}

// HandleChannelConnection handles channel-specific WebSocket connections
func (h *WebSocketHandler) HandleChannelConnection(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid channel index", err)
		return
	}
	h.accept(c, "channel", &index)
}

func (h *WebSocketHandler) accept(c *gin.Context, clientType string, index *int) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Type:        clientType,
		Channel:     index,
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("type", clientType),
		zap.String("remote_addr", client.RemoteAddr),
	)

	if index != nil {
		go h.sendInitialChannelStatus(client, *index)
	}

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// Forward broadcasts events from sub until ctx is done or sub is closed
func (h *WebSocketHandler) Forward(ctx context.Context, sub <-chan model.ChannelEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			h.BroadcastChannelEvent(event)
		}
	}
}

// BroadcastChannelEvent sends an event to every interested client
func (h *WebSocketHandler) BroadcastChannelEvent(event model.ChannelEvent) {
	message := &WebSocketMessage{
		Type:      "channel_event",
		Data:      event,
		Timestamp: time.Now(),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	dropped := h.connections.Broadcast(messageBytes, func(c *Client) bool { return c.Wants(event) })
	for _, id := range dropped {
		h.logger.Warn("Client send channel full during broadcast", zap.String("client_id", id))
	}
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe", "unsubscribe":
		h.handleSubscription(client, message)
	case "exchange", "send":
		h.handleCommand(client, message)
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			RequestID: message.RequestID,
			Timestamp: time.Now(),
		})
	default:
		h.sendError(client, fmt.Sprintf("unknown message type: %s", message.Type))
	}
}

// handleSubscription narrows or widens the event types a client receives
func (h *WebSocketHandler) handleSubscription(client *Client, message *WebSocketMessage) {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		h.sendError(client, "subscription data is required")
		return
	}
	topic, ok := data["topic"].(string)
	if !ok || topic == "" {
		h.sendError(client, "topic is required")
		return
	}

	if message.Type == "subscribe" {
		client.Subscribe(model.EventType(topic))
	} else {
		client.Unsubscribe(model.EventType(topic))
	}

	h.sendMessage(client, &WebSocketMessage{
		Type:      message.Type + "_confirmed",
		Data:      map[string]interface{}{"topic": topic},
		RequestID: message.RequestID,
		Timestamp: time.Now(),
	})
}

// handleCommand runs a controller command on the client's channel
func (h *WebSocketHandler) handleCommand(client *Client, message *WebSocketMessage) {
	if client.Channel == nil {
		h.sendError(client, "commands are only available on channel connections")
		return
	}

	data, ok := message.Data.(map[string]interface{})
	if !ok {
		h.sendError(client, "invalid command data")
		return
	}
	command, ok := data["command"].(string)
	if !ok || command == "" {
		h.sendError(client, "command is required")
		return
	}

	go h.executeCommand(client, *client.Channel, message, command)
}

// executeCommand runs a command and replies with the exchange result
func (h *WebSocketHandler) executeCommand(client *Client, index int, message *WebSocketMessage, command string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		result *service.ExchangeResponse
		err    error
	)
	if message.Type == "send" {
		result, err = h.channelService.Send(ctx, index, command)
	} else {
		result, err = h.channelService.Exchange(ctx, index, command)
	}

	response := map[string]interface{}{
		"command": command,
		"success": err == nil,
		"result":  result,
	}
	if err != nil {
		response["error"] = err.Error()
	}

	h.sendMessage(client, &WebSocketMessage{
		Type:      "command_response",
		Data:      response,
		RequestID: message.RequestID,
		Timestamp: time.Now(),
	})
}

// sendInitialChannelStatus sends the channel state to a new client
func (h *WebSocketHandler) sendInitialChannelStatus(client *Client, index int) {
	info, err := h.channelService.Get(index)
	if err != nil {
		h.sendError(client, fmt.Sprintf("channel %d: %v", index, err))
		return
	}

	h.sendMessage(client, &WebSocketMessage{
		Type:      "initial_status",
		Data:      info,
		Timestamp: time.Now(),
	})
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	h.connections.Broadcast(messageBytes, func(c *Client) bool { return c == client })
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
	})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
