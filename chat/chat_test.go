package chat

import (
	"context"
	"testing"
	"time"

	"kiosk/apitest"
	"kiosk/apperr"
	"kiosk/models"
	"kiosk/session"
	"kiosk/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func login(t *testing.T, srv *apitest.Server, email, password string) (*Client, *session.Store) {
	t.Helper()
	var sess *session.Store
	client := srv.Client(func(ctx context.Context) (string, error) { return sess.BearerToken(ctx) })
	sess = session.New(client, storage.NewMemoryStore(), nil)
	require.NoError(t, sess.Login(context.Background(), email, password))
	return New(client, sess, "", nil), sess
}

func receive(t *testing.T, conn *Conn) models.Message {
	t.Helper()
	select {
	case msg, ok := <-conn.Incoming():
		require.True(t, ok, "connection closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
	return models.Message{}
}

func TestOpenReusesChat(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	srv.AddCustomer(models.Customer{Name: "Ana", Email: "ana@example.com"}, "Secret123")
	shop := srv.AddSeller(models.Seller{Name: "Kamal", Email: "k@shop.lk", BusinessName: "Kamal Teas"}, "Shop12345")
	c, _ := login(t, srv, "ana@example.com", "Secret123")

	first, err := c.Open(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kamal Teas", first.SellerName)

	again, err := c.Open(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	chats, err := c.Chats(ctx)
	require.NoError(t, err)
	assert.Len(t, chats, 1)

	_, err = c.Open(ctx, "missing")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestLiveMessages(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	srv.AddCustomer(models.Customer{Name: "Ana", Email: "ana@example.com"}, "Secret123")
	shop := srv.AddSeller(models.Seller{Name: "Kamal", Email: "k@shop.lk", BusinessName: "Kamal Teas"}, "Shop12345")
	customer, custSess := login(t, srv, "ana@example.com", "Secret123")
	seller, _ := login(t, srv, "k@shop.lk", "Shop12345")

	ch, err := customer.Open(ctx, shop.ID)
	require.NoError(t, err)

	sellerConn, err := seller.Dial(ctx, ch.ID)
	require.NoError(t, err)
	defer sellerConn.Close()
	require.NoError(t, sellerConn.Send("Welcome!"))
	assert.Equal(t, "Welcome!", receive(t, sellerConn).Content)

	custConn, err := customer.Dial(ctx, ch.ID)
	require.NoError(t, err)
	defer custConn.Close()
	require.NoError(t, custConn.Send("Is the tea fresh?"))

	echo := receive(t, custConn)
	got := receive(t, sellerConn)
	assert.Equal(t, echo, got)
	assert.Equal(t, "Is the tea fresh?", got.Content)
	assert.Equal(t, ch.ID, got.ChatID)
	assert.Equal(t, custSess.State().SubjectID, got.SenderID)

	history, err := customer.Messages(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Welcome!", history[0].Content)

	chats, err := seller.Chats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "Is the tea fresh?", chats[0].LastMessage)
}

func TestSendRejectsEmpty(t *testing.T) {
	var c Conn
	assert.True(t, apperr.IsKind(c.Send("   "), apperr.ValidationFailure))
}

func TestDialOutsiderIsRejected(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	srv.AddCustomer(models.Customer{Name: "Ana", Email: "ana@example.com"}, "Secret123")
	srv.AddCustomer(models.Customer{Name: "Eve", Email: "eve@example.com"}, "Secret123")
	shop := srv.AddSeller(models.Seller{Name: "Kamal", Email: "k@shop.lk", BusinessName: "Kamal Teas"}, "Shop12345")
	ana, _ := login(t, srv, "ana@example.com", "Secret123")
	eve, _ := login(t, srv, "eve@example.com", "Secret123")

	ch, err := ana.Open(ctx, shop.ID)
	require.NoError(t, err)

	_, err = eve.Dial(ctx, ch.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
	assert.Equal(t, "You cannot join this chat.", eve.LastError())
}

func TestRequiresSession(t *testing.T) {
	srv := apitest.New(t)
	sess := session.New(srv.Client(nil), storage.NewMemoryStore(), nil)
	c := New(srv.Client(nil), sess, "", nil)

	_, err := c.Dial(context.Background(), "chat-1")
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
	_, err = c.Chats(context.Background())
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
}

func TestWebsocketBase(t *testing.T) {
	assert.Equal(t, "ws://api.test/api/v1", websocketBase("http://api.test/api/v1"))
	assert.Equal(t, "wss://api.test/api/v1", websocketBase("https://api.test/api/v1"))
}
