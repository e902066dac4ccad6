package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/startvr/kiosk-services/internal/socketsvc/ws"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	upgrader websocket.Upgrader
	ws       *ws.Ws
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func NewHandler(s *ws.Ws) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ws: s,
	}
	return h
}

// HandleWebSocket registers a lobby display. The display only listens for
// kiosk events; inbound frames are read to keep the connection alive and
// otherwise ignored.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		http.Error(w, "Failed to upgrade to WebSocket", http.StatusInternalServerError)
		return
	}

	socketId := uuid.New().String()
	h.ws.StoreConnection(socketId, conn)

	log.Infof("New lobby display connected: %s", socketId)

	go h.handleConnection(conn, socketId)
}

func (h *Handler) handleConnection(conn *websocket.Conn, socketId string) {
	defer func() {
		log.Infof("Closing WebSocket connection: %s", socketId)
		conn.Close()
		h.ws.HandleDisconnect(socketId)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", socketId, err)
			} else {
				log.Infof("WebSocket connection closed normally for socket: %s", socketId)
			}
			return
		}
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "socket service is running at port " + os.Getenv("SOCKET_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}
