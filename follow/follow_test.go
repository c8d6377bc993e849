package follow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kiosk/api"
	"kiosk/apitest"
	"kiosk/apperr"
	"kiosk/models"
	"kiosk/session"
	"kiosk/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSession string

func (s staticSession) Token(context.Context) (string, error) {
	if s == "" {
		return "", apperr.Unauthenticatedf("Please log in to continue.")
	}
	return string(s), nil
}

func loggedIn(t *testing.T, srv *apitest.Server) (*Store, models.Seller, string) {
	t.Helper()
	var sess *session.Store
	client := srv.Client(func(ctx context.Context) (string, error) { return sess.BearerToken(ctx) })
	sess = session.New(client, storage.NewMemoryStore(), nil)
	c := srv.AddCustomer(models.Customer{Name: "Ana", Email: "ana@example.com"}, "Secret123")
	sl := srv.AddSeller(models.Seller{Name: "Kamal", Email: "k@shop.lk", BusinessName: "Kamal Teas", Followers: 41}, "Shop12345")
	require.NoError(t, sess.Login(context.Background(), "ana@example.com", "Secret123"))
	return New(client, sess, nil), sl, c.ID
}

func TestToggleReconcilesWithServer(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	s, shop, customer := loggedIn(t, srv)
	s.SeedCount(shop.ID, 40) // stale profile

	following, err := s.Toggle(ctx, shop.ID)
	require.NoError(t, err)
	assert.True(t, following)
	assert.True(t, s.IsFollowing(shop.ID))
	assert.Equal(t, 42, s.FollowerCount(shop.ID), "server count wins over the tentative 41")
	assert.Equal(t, []string{shop.ID}, srv.Following(customer))

	following, err = s.Toggle(ctx, shop.ID)
	require.NoError(t, err)
	assert.False(t, following)
	assert.False(t, s.IsFollowing(shop.ID))
	assert.Equal(t, 41, s.FollowerCount(shop.ID))
	assert.Empty(t, srv.Following(customer))
}

func TestToggleRevertsOnFailure(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	s, shop, _ := loggedIn(t, srv)
	s.SeedCount(shop.ID, 41)
	srv.Fail(http.MethodPost, "/follows/:id", http.StatusInternalServerError, "Could not follow right now")

	following, err := s.Toggle(ctx, shop.ID)
	require.Error(t, err)
	assert.False(t, following)
	assert.False(t, s.IsFollowing(shop.ID))
	assert.Equal(t, 41, s.FollowerCount(shop.ID))
	assert.Equal(t, "Could not follow right now", s.LastError())
	assert.Equal(t, 41, srv.Followers(shop.ID))
}

func TestToggleRevertsUnfollow(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	s, shop, _ := loggedIn(t, srv)
	_, err := s.Toggle(ctx, shop.ID)
	require.NoError(t, err)
	srv.Fail(http.MethodDelete, "/follows/:id", http.StatusBadGateway, "")

	_, err = s.Toggle(ctx, shop.ID)
	require.Error(t, err)
	assert.True(t, s.IsFollowing(shop.ID))
	assert.Equal(t, 42, s.FollowerCount(shop.ID))
}

func TestToggleIsTentativeWhileInFlight(t *testing.T) {
	var s *Store
	var during struct {
		following bool
		count     int
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during.following = s.IsFollowing("s1")
		during.count = s.FollowerCount("s1")
		n, on := 11, true
		json.NewEncoder(w).Encode(models.FollowState{SellerID: "s1", IsFollowing: &on, Followers: &n})
	}))
	defer srv.Close()
	s = New(api.New(srv.URL, ""), staticSession("t"), nil)
	s.SeedCount("s1", 9)

	_, err := s.Toggle(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, during.following)
	assert.Equal(t, 10, during.count)
	assert.Equal(t, 11, s.FollowerCount("s1"))
}

func TestToggleKeepsCountWhenServerOmitsIt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"isFollowing": false})
	}))
	defer srv.Close()
	s := New(api.New(srv.URL, ""), staticSession("t"), nil)

	_, err := s.Toggle(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, s.IsFollowing("s1"), "server membership wins")
	assert.Equal(t, 1, s.FollowerCount("s1"))
}

func TestToggleKeepsTentativeStateOnEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	s := New(api.New(srv.URL, ""), staticSession("t"), nil)
	s.SeedCount("s1", 4)

	on, err := s.Toggle(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.IsFollowing("s1"))
	assert.Equal(t, 5, s.FollowerCount("s1"))

	on, err = s.Toggle(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 4, s.FollowerCount("s1"))
}

func TestFetchReplacesSet(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	s, shop, _ := loggedIn(t, srv)
	other := srv.AddSeller(models.Seller{Name: "Nimal", Email: "n@shop.lk", BusinessName: "Nimal Spices"}, "Shop12345")

	_, err := s.Toggle(ctx, shop.ID)
	require.NoError(t, err)
	_, err = s.Toggle(ctx, other.ID)
	require.NoError(t, err)
	_, err = s.Toggle(ctx, shop.ID)
	require.NoError(t, err)

	fresh := New(s.api, s.auth, nil)
	fresh.following["stale"] = true
	require.NoError(t, fresh.Fetch(ctx))
	assert.Equal(t, []string{other.ID}, fresh.Following())
}

func TestRequiresSession(t *testing.T) {
	s := New(api.New("http://unused.invalid", ""), staticSession(""), nil)
	_, err := s.Toggle(context.Background(), "s1")
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
	assert.False(t, s.IsFollowing("s1"))
	assert.True(t, apperr.IsKind(s.Fetch(context.Background()), apperr.Unauthenticated))
}

func TestClear(t *testing.T) {
	s := New(api.New("http://unused.invalid", ""), staticSession("t"), nil)
	s.SeedCount("s1", 3)
	s.following["s1"] = true
	s.Clear()
	assert.False(t, s.IsFollowing("s1"))
	assert.Zero(t, s.FollowerCount("s1"))
}
