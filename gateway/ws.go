package gateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/auth"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	// Any origin may subscribe.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// feedMessage is one frame on /ws: a store change or a new auth state.
type feedMessage struct {
	Kind  string       `json:"kind"`
	Event *store.Event `json:"event,omitempty"`
	Auth  *auth.State  `json:"auth,omitempty"`
}

// feed fans store and auth changes out to websocket clients. Slow clients
// miss frames rather than stall the stores.
type feed struct {
	logger    *zap.Logger
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	done      chan struct{}
	mutex     sync.RWMutex

	once    sync.Once
	cancels []func()
}

func newFeed(logger *zap.Logger) *feed {
	return &feed{
		logger:    logger,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
	}
}

func (f *feed) attach(stores *store.Stores, authenticator *auth.Authenticator) {
	if stores != nil {
		f.cancels = append(f.cancels, stores.Subscribe(func(e store.Event) {
			f.publish(feedMessage{Kind: "store", Event: &e})
		}))
	}
	if authenticator != nil {
		f.cancels = append(f.cancels, authenticator.Subscribe(func(s auth.State) {
			f.publish(feedMessage{Kind: "auth", Auth: &s})
		}))
	}
	go f.run()
}

func (f *feed) publish(msg feedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		f.logger.Warn("Failed to encode feed message", zap.Error(err))
		return
	}
	select {
	case f.broadcast <- data:
	default:
	}
}

func (f *feed) run() {
	for {
		select {
		case <-f.done:
			return
		case msg := <-f.broadcast:
			f.mutex.RLock()
			var failed []*websocket.Conn
			for client := range f.clients {
				if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
					failed = append(failed, client)
				}
			}
			f.mutex.RUnlock()
			for _, client := range failed {
				f.remove(client)
			}
		}
	}
}

func (f *feed) add(conn *websocket.Conn) {
	f.mutex.Lock()
	f.clients[conn] = true
	f.mutex.Unlock()
}

func (f *feed) remove(conn *websocket.Conn) {
	f.mutex.Lock()
	if _, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		conn.Close()
	}
	f.mutex.Unlock()
}

func (f *feed) count() int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return len(f.clients)
}

func (f *feed) close() {
	f.once.Do(func() {
		for _, cancel := range f.cancels {
			cancel()
		}
		close(f.done)
		f.mutex.Lock()
		for client := range f.clients {
			client.Close()
			delete(f.clients, client)
		}
		f.mutex.Unlock()
	})
}

func (g *Gateway) serveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn("Failed to upgrade websocket", zap.Error(err))
		return
	}

	g.feed.add(conn)
	g.logger.Info("Feed client connected", zap.Int("clients", g.feed.count()))
	defer func() {
		g.feed.remove(conn)
		g.logger.Info("Feed client disconnected", zap.Int("clients", g.feed.count()))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Warn("Feed client error", zap.Error(err))
			}
			return
		}
	}
}
