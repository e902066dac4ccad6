package ws

import (
	"sync"

	"github.com/startvr/kiosk-services/internal/comm"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Ws tracks connected lobby displays. Connections only listen; every kiosk
// event is broadcast to all of them.
type Ws struct {
	connMap sync.Map // socketId -> *websocket.Conn
}

func NewWs() *Ws {
	return &Ws{}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

// Broadcast pushes a message to every connected display. Writes happen only
// from the NATS subscription goroutine, so no per-connection write lock is
// needed.
func (s *Ws) Broadcast(m *comm.WSMessage) {
	s.connMap.Range(func(key, value interface{}) bool {
		conn := value.(*websocket.Conn)
		if err := conn.WriteJSON(m); err != nil {
			log.Warnf("failed to push to socket %s, dropping connection: %v", key, err)
			conn.Close()
			s.connMap.Delete(key)
		}
		return true // continue iterating
	})
}
