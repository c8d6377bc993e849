// Package chat is the customer-seller messaging client: REST for chat lists and
// history, a websocket for live messages.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Session is the part of session.Store chat needs.
type Session interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	apperr.Status

	api    *api.Client
	auth   Session
	wsBase string
	dialer *websocket.Dialer
	logger *zap.Logger
}

// New builds a chat client. wsBase is the websocket root including the API prefix;
// empty derives it from the REST base URL.
func New(client *api.Client, auth Session, wsBase string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if wsBase == "" {
		wsBase = websocketBase(client.BaseURL())
	}
	return &Client{
		api:    client,
		auth:   auth,
		wsBase: strings.TrimRight(wsBase, "/"),
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

func websocketBase(httpBase string) string {
	switch {
	case strings.HasPrefix(httpBase, "https://"):
		return "wss://" + strings.TrimPrefix(httpBase, "https://")
	case strings.HasPrefix(httpBase, "http://"):
		return "ws://" + strings.TrimPrefix(httpBase, "http://")
	}
	return httpBase
}

func (c *Client) authorize(ctx context.Context) (string, error) {
	c.Begin()
	return c.auth.Token(ctx)
}

// Chats lists the conversations of the logged-in user, most recent first.
func (c *Client) Chats(ctx context.Context) ([]models.Chat, error) {
	if _, err := c.authorize(ctx); err != nil {
		return nil, c.Finish(err)
	}
	var chats []models.Chat
	if err := c.api.Get(ctx, "chats", nil, &chats); err != nil {
		return nil, c.Finish(err)
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	return chats, c.Finish(nil)
}

// Open starts a chat with sellerID, or returns the existing one.
func (c *Client) Open(ctx context.Context, sellerID string) (*models.Chat, error) {
	if _, err := c.authorize(ctx); err != nil {
		return nil, c.Finish(err)
	}
	if sellerID == "" {
		return nil, c.Finish(apperr.Validation(map[string]string{"sellerId": "Seller id is required."}))
	}
	var ch models.Chat
	if err := c.api.Post(ctx, "chats", map[string]string{"sellerId": sellerID}, &ch); err != nil {
		return nil, c.Finish(err)
	}
	if ch.ID == "" {
		return nil, c.Finish(apperr.NotFoundf("The server did not return the chat."))
	}
	return &ch, c.Finish(nil)
}

func (c *Client) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	if _, err := c.authorize(ctx); err != nil {
		return nil, c.Finish(err)
	}
	var msgs []models.Message
	if err := c.api.Get(ctx, "chats/"+url.PathEscape(chatID)+"/messages", nil, &msgs); err != nil {
		return nil, c.Finish(err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, c.Finish(nil)
}

// Dial joins chatID's live room.
func (c *Client) Dial(ctx context.Context, chatID string) (*Conn, error) {
	token, err := c.authorize(ctx)
	if err != nil {
		return nil, c.Finish(err)
	}
	u := c.wsBase + "/ws/chats/" + url.PathEscape(chatID)
	header := http.Header{"Authorization": {"Bearer " + token}}

	ws, resp, err := c.dialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
		}
		return nil, c.Finish(dialError(resp, err))
	}
	conn := &Conn{
		ws:       ws,
		chatID:   chatID,
		incoming: make(chan models.Message, 64),
		done:     make(chan struct{}),
		logger:   c.logger.With(zap.String("chat", chatID)),
	}
	go conn.readLoop()
	c.logger.Debug("chat connected", zap.String("chat", chatID))
	return conn, c.Finish(nil)
}

func dialError(resp *http.Response, err error) error {
	if resp == nil || !errors.Is(err, websocket.ErrBadHandshake) {
		return apperr.Wrap(apperr.TransportFailure, "Could not connect to chat.", err)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Wrap(apperr.Unauthenticated, "You cannot join this chat.", err)
	case http.StatusNotFound:
		return apperr.Wrap(apperr.NotFound, "Chat not found.", err)
	}
	return apperr.Wrap(apperr.TransportFailure, "Could not connect to chat.", err)
}

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

// Conn is a live chat room connection.
type Conn struct {
	ws       *websocket.Conn
	chatID   string
	incoming chan models.Message
	done     chan struct{}
	logger   *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Incoming delivers messages broadcast to the room. It is closed when the connection ends.
func (c *Conn) Incoming() <-chan models.Message { return c.incoming }

// Send posts text to the room. The server echoes it back on Incoming.
func (c *Conn) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Validation(map[string]string{"content": "Message cannot be empty."})
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(inboundPayload{Action: "chat", Content: text}); err != nil {
		return apperr.Wrap(apperr.TransportFailure, "Message not sent.", err)
	}
	return nil
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) readLoop() {
	defer close(c.incoming)
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("chat read ended", zap.Error(err))
			}
			return
		}
		var out outboundPayload
		if err := json.Unmarshal(raw, &out); err != nil {
			c.logger.Warn("invalid chat payload", zap.Error(err))
			continue
		}
		if out.Action != "chat" {
			continue
		}
		room := out.Room
		if room == "" {
			room = c.chatID
		}
		msg := models.Message{ID: out.ID, ChatID: room, SenderID: out.SenderID, Content: out.Content, Timestamp: out.Timestamp}
		select {
		case c.incoming <- msg:
		case <-c.done:
			return
		}
	}
}
