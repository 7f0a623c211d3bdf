package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/avvvet/cardvault/internal/comm"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait = 10 * time.Second

	// MessageCardsUpdated tells a listing view its snapshot is stale.
	MessageCardsUpdated = "cards-updated"
)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer at a time per connection
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Ws keeps the open websocket connections and fans card events out to them.
type Ws struct {
	upgrader websocket.Upgrader
	connMap  sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Ws) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	socketId := uuid.New().String()
	s.connMap.Store(socketId, &client{conn: conn})

	log.Infof("New WebSocket connection established: %s", socketId)

	go s.handleConnection(conn, socketId)
}

// handleConnection drains incoming frames until the peer goes away. Clients
// only listen; anything they send is ignored.
func (s *Ws) handleConnection(conn *websocket.Conn, socketId string) {
	defer func() {
		conn.Close()
		s.connMap.Delete(socketId)
		log.Infof("Closing WebSocket connection: %s", socketId)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", socketId, err)
			}
			return
		}
	}
}

// Broadcast sends a cards-updated message carrying ev to every connection.
func (s *Ws) Broadcast(ev comm.CardEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("unable to marshal card event: %v", err)
		return
	}

	s.connMap.Range(func(key, value any) bool {
		socketId := key.(string)
		msg := comm.WSMessage{Type: MessageCardsUpdated, Data: data, SocketId: socketId}
		if err := value.(*client).writeJSON(msg); err != nil {
			log.Warnf("write to socket %s failed: %v", socketId, err)
		}
		return true
	})
}

// PublishCardEvent broadcasts ev to this instance's sockets only. It stands
// in for the broker when NATS is unavailable.
func (s *Ws) PublishCardEvent(ev comm.CardEvent) error {
	s.Broadcast(ev)
	return nil
}

func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// CloseAll closes every open connection, for shutdown.
func (s *Ws) CloseAll() {
	s.connMap.Range(func(key, value any) bool {
		c := value.(*client)
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait))
		c.mu.Unlock()
		c.conn.Close()
		s.connMap.Delete(key)
		return true
	})
}
