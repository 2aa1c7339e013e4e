package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/betbook/pubsub"
)

const writeWait = 5 * time.Second

// client serializa as escritas; gorilla/websocket não aceita writers concorrentes
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func leagueTopic(leagueID string) string       { return "league:" + leagueID }
func userTopic(leagueID, userID string) string { return "user:" + leagueID + ":" + userID }

// Hub gerencia conexões WebSocket e assinaturas por liga e por participante
// subs: tópico -> conjunto de clientes inscritos
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) topics(msg ClientMsg) []string {
	if msg.LeagueID == "" {
		return nil
	}
	t := []string{leagueTopic(msg.LeagueID)}
	if msg.UserID != "" {
		t = append(t, userTopic(msg.LeagueID, msg.UserID))
	}
	return t
}

// ServeHTTP gerencia o ciclo de vida de uma conexão WebSocket
// subscribe com leagueId recebe o feed da liga; com userId também as atualizações do participante
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	c := &client{conn: conn}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			for _, t := range h.topics(msg) {
				if _, ok := h.subs[t]; !ok {
					h.subs[t] = make(map[*client]struct{})
				}
				h.subs[t][c] = struct{}{}
			}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			for _, t := range h.topics(msg) {
				h.remove(t, c)
			}
			h.mu.Unlock()
		case "ping":
			b, _ := json.Marshal(map[string]string{"type": "pong"})
			_ = c.write(b)
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for t := range h.subs {
		h.remove(t, c)
	}
	h.mu.Unlock()
}

// remove exige h.mu travado
func (h *Hub) remove(topic string, c *client) {
	if set, ok := h.subs[topic]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, topic)
		}
	}
}

// Broadcast entrega a atualização: carteira só para o dono; o resto para toda a liga
func (h *Hub) Broadcast(u pubsub.Update) {
	topic := leagueTopic(u.LeagueID)
	if u.Kind == pubsub.KindWalletUpdated {
		topic = userTopic(u.LeagueID, u.UserID)
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[topic]))
	for c := range h.subs[topic] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(u)
	if err != nil {
		return
	}
	for _, c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// Subscribers conta clientes inscritos no feed da liga
func (h *Hub) Subscribers(leagueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[leagueTopic(leagueID)])
}
