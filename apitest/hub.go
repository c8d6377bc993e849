package apitest

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"kiosk/models"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	room   string
	userID string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

// Hub fans chat messages out to every socket joined to a room.
type Hub struct {
	rooms      map[string]map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan broadcastMsg
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan broadcastMsg),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.room] == nil {
				h.rooms[c.room] = make(map[*client]bool)
			}
			h.rooms[c.room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.rooms[c.room]; conns != nil && conns[c] {
				delete(conns, c)
				close(c.send)
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.Room] {
				select {
				case c.send <- m.Data:
				default:
					close(c.send)
					delete(h.rooms[m.Room], c)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for _, conns := range h.rooms {
				for c := range conns {
					close(c.send)
				}
			}
			h.rooms = make(map[string]map[*client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every joined socket's send queue.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *Hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) publish(room string, data []byte) {
	select {
	case h.broadcast <- broadcastMsg{Room: room, Data: data}:
	case <-h.quit:
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type inboundPayload struct {
	Action  string `json:"action"`
	ID      string `json:"id,omitempty"`
	Content string `json:"content,omitempty"`
}

type outboundPayload struct {
	Action    string `json:"action"`
	ID        string `json:"id"`
	Room      string `json:"room,omitempty"`
	SenderID  string `json:"senderId,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (s *Server) chatSocket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room := ps.ByName("id")
	uid := userID(r)
	if !s.member(room, uid) {
		respondWithError(w, http.StatusForbidden, "Not a participant of this chat")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 256), room: room, userID: uid}
	if !s.hub.join(c) {
		conn.Close()
		return
	}
	go writePump(c)
	go s.readPump(c)
}

func writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.leave(c)
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var in inboundPayload
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Println("invalid payload:", err)
			continue
		}
		if in.Action != "chat" {
			log.Println("unknown action:", in.Action)
			continue
		}

		msg := s.appendMessage(c.room, c.userID, in.Content)
		out := outboundPayload{
			Action:    "chat",
			ID:        msg.ID,
			Room:      msg.ChatID,
			SenderID:  msg.SenderID,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
		if data, _ := json.Marshal(out); data != nil {
			s.hub.publish(c.room, data)
		}
	}
}

func (s *Server) member(chatID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.chats[chatID]
	return ok && (ch.CustomerID == userID || ch.SellerID == userID)
}

func (s *Server) appendMessage(chatID, senderID, content string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := models.Message{
		ID:        newID("m-"),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}
	s.messages[chatID] = append(s.messages[chatID], msg)
	if ch, ok := s.chats[chatID]; ok {
		ch.LastMessage = content
		ch.UpdatedAt = msg.Timestamp
	}
	return msg
}
