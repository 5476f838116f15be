package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"deckroom-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans live leaderboard events out to everyone watching an
// assignment. One Redis subscription per assignment is shared by all of
// its websocket connections.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[uuid.UUID]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param; browsers cannot set headers
	// on websocket requests.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, ok := claims["user_id"].(string); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	assignmentID, err := uuid.Parse(r.URL.Query().Get("assignment_id"))
	if err != nil {
		http.Error(w, "assignment_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(assignmentID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(assignmentID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(assignmentID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[assignmentID] = append(h.connections[assignmentID], conn)

	// First watcher starts the pub/sub subscription
	if len(h.connections[assignmentID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[assignmentID] = cancel
		go h.subscribeToPubSub(ctx, assignmentID)
	}

	log.Printf("WebSocket connected: assignment %s (watchers: %d)", assignmentID, len(h.connections[assignmentID]))
}

func (h *Hub) unregisterConnection(assignmentID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[assignmentID]
	for i, c := range conns {
		if c == conn {
			h.connections[assignmentID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// Last watcher gone, cancel pub/sub
	if len(h.connections[assignmentID]) == 0 {
		delete(h.connections, assignmentID)
		if cancel, ok := h.cancelFuncs[assignmentID]; ok {
			cancel()
			delete(h.cancelFuncs, assignmentID)
		}
	}

	log.Printf("WebSocket disconnected: assignment %s", assignmentID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, assignmentID uuid.UUID) {
	channel := services.ResultChannelPrefix + assignmentID.String()
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(assignmentID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(assignmentID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[assignmentID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// Send delivers a message directly to an assignment's watchers,
// bypassing pub/sub.
func (h *Hub) Send(assignmentID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(assignmentID, data)
}
