package handler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/CageChen/fileorganizer/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// The zero CheckOrigin accepts only requests whose Origin host matches the Host header.
var upgrader = websocket.Upgrader{}

// WSMessage represents a server-pushed WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSRequest is a command invocation sent by the GUI
type WSRequest struct {
	ID   json.RawMessage `json:"id"`
	Cmd  string          `json:"cmd"`
	Args json.RawMessage `json:"args,omitempty"`
}

// WSReply answers one WSRequest, echoing its id
type WSReply struct {
	ID     json.RawMessage `json:"id"`
	Result interface{}     `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// wsClient serializes writes; gorilla connections allow one concurrent writer.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cl *wsClient) write(data []byte) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHandler handles WebSocket connections: command invocation and change pushes
type WSHandler struct {
	registry *Registry
	logger   zerolog.Logger
	clients  map[*wsClient]bool
	mu       sync.RWMutex
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(registry *Registry, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry: registry,
		logger:   logger.With().Str("component", "websocket").Logger(),
		clients:  make(map[*wsClient]bool),
	}
}

// HandleWS handles WebSocket upgrade and connection
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())

	var inflight sync.WaitGroup
	defer func() {
		cancel()
		inflight.Wait()
		h.removeClient(client)
		_ = conn.Close()
	}()

	h.addClient(client)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req WSRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.reply(client, WSReply{Error: "invalid request: " + err.Error()})
			continue
		}
		// Each request runs on its own goroutine so a long scan does not
		// hold up later requests on the same connection.
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			result, err := h.registry.Invoke(ctx, req.Cmd, req.Args)
			rep := WSReply{ID: req.ID, Result: result}
			if err != nil {
				rep = WSReply{ID: req.ID, Error: err.Error()}
			}
			h.reply(client, rep)
		}()
	}
}

// OnFileChange is called when a file change is detected
func (h *WSHandler) OnFileChange(event watcher.Event) {
	msg := WSMessage{
		Type: "fileChange",
		Payload: map[string]string{
			"event": event.Type.String(),
			"path":  event.Path,
			"root":  event.Root,
		},
	}

	h.broadcast(msg)
}

func (h *WSHandler) reply(client *wsClient, rep WSReply) {
	data, err := json.Marshal(rep)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode reply")
		return
	}
	if err := client.write(data); err != nil {
		h.logger.Debug().Err(err).Msg("failed to write reply")
	}
}

func (h *WSHandler) addClient(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

func (h *WSHandler) removeClient(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *WSHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.removeClient(client)
		}
	}
}
