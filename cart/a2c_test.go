package cart

import (
	"encoding/json"
	"context"
	"net/http"
	"testing"

	"kiosk/apitest"
	"kiosk/apperr"
	"kiosk/globals"
	"kiosk/models"
	"kiosk/session"
	"kiosk/storage"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv    *apitest.Server
	sess   *session.Store
	cart   *Store
	userID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{srv: apitest.New(t)}
	client := f.srv.Client(func(ctx context.Context) (string, error) { return f.sess.BearerToken(ctx) })
	f.sess = session.New(client, storage.NewMemoryStore(), nil)
	c := f.srv.AddCustomer(models.Customer{Name: "Ana", Email: "ana@example.com"}, "Secret123")
	require.NoError(t, f.sess.Login(context.Background(), "ana@example.com", "Secret123"))
	f.userID = c.ID
	f.cart = New(client, f.sess, nil)
	return f
}

var (
	tea   = models.Product{ID: "p-tea", SellerID: "s1", Name: "Ceylon Tea", Price: 4.5}
	honey = models.Product{ID: "p-honey", SellerID: "s1", Name: "Honey", Price: 8, DiscountPrice: 6}
)

func TestAddSameProductBumpsQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cart.AddProduct(ctx, tea, 1))
	require.NoError(t, f.cart.AddProduct(ctx, tea, 2))
	require.NoError(t, f.cart.AddProduct(ctx, honey, 1))

	want := []models.CartItem{
		{ProductID: "p-tea", Quantity: 3, Snapshot: models.Snapshot{Name: "Ceylon Tea", Price: 4.5, SellerID: "s1"}},
		{ProductID: "p-honey", Quantity: 1, Snapshot: models.Snapshot{Name: "Honey", Price: 6, SellerID: "s1"}},
	}
	ignore := cmpopts.IgnoreFields(models.CartItem{}, "ID", "AddedAt")
	if diff := cmp.Diff(want, f.cart.Items(), ignore); diff != "" {
		t.Errorf("local cart mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, f.srv.Cart(f.userID), ignore); diff != "" {
		t.Errorf("server cart mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, f.srv.Calls(http.MethodPost, "/cart"))
	assert.Equal(t, 1, f.srv.Calls(http.MethodPut, "/cart/:id"))
	assert.Equal(t, 4, f.cart.Count())
	assert.InDelta(t, 19.5, f.cart.Total(), 1e-9)
}

func TestMysteryBoxesMatchByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	small := models.MysteryBox{ID: "mb-1", SellerID: "s1", Name: "Tea Lover's Mystery Box - Small", Price: 10}
	large := models.MysteryBox{ID: "mb-2", SellerID: "s1", Name: "Tea Lover's Mystery Box - Large", Price: 20}

	require.NoError(t, f.cart.AddMysteryBox(ctx, small, 1))
	require.NoError(t, f.cart.AddMysteryBox(ctx, large, 1))
	require.NoError(t, f.cart.AddMysteryBox(ctx, small, 1))

	items := f.cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, globals.MysteryBoxProductID, items[0].ProductID)
	assert.Equal(t, "mb-1", items[0].Snapshot.MysteryBoxID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "mb-2", items[1].Snapshot.MysteryBoxID)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestLegacyNameMatching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	snap := func(name string) models.Snapshot { return models.Snapshot{Name: name, Price: 10} }

	// Lines without a box id fall back to the name prefix rule.
	require.NoError(t, f.cart.Add(ctx, globals.MysteryBoxProductID, 1, snap("Spice Sampler")))
	require.NoError(t, f.cart.Add(ctx, globals.MysteryBoxProductID, 1, snap("Snack Crate")))
	assert.Len(t, f.cart.Items(), 2, "disjoint names stay distinct")

	require.NoError(t, f.cart.Add(ctx, globals.MysteryBoxProductID, 1, snap("Tea Lover's Mystery Box - Small")))
	require.NoError(t, f.cart.Add(ctx, globals.MysteryBoxProductID, 1, snap("Tea Lover's Mystery Box - Large")))
	items := f.cart.Items()
	require.Len(t, items, 3, "names sharing a 20 character prefix collapse into one line")
	assert.Equal(t, "Tea Lover's Mystery Box - Small", items[2].Snapshot.Name)
	assert.Equal(t, 2, items[2].Quantity)
}

func TestMatches(t *testing.T) {
	box := func(id, name string) models.CartItem {
		return models.CartItem{ProductID: globals.MysteryBoxProductID, Snapshot: models.Snapshot{Name: name, MysteryBoxID: id}}
	}
	cases := []struct {
		name      string
		line      models.CartItem
		productID string
		snap      models.Snapshot
		want      bool
	}{
		{"same product", models.CartItem{ProductID: "p1"}, "p1", models.Snapshot{}, true},
		{"other product", models.CartItem{ProductID: "p1"}, "p2", models.Snapshot{}, false},
		{"product vs box line", box("mb-1", "Box"), "p1", models.Snapshot{}, false},
		{"box vs product line", models.CartItem{ProductID: "p1", Snapshot: models.Snapshot{Name: "Box"}}, globals.MysteryBoxProductID, models.Snapshot{Name: "Box"}, false},
		{"same box id", box("mb-1", "A"), globals.MysteryBoxProductID, models.Snapshot{Name: "B", MysteryBoxID: "mb-1"}, true},
		{"different box id same name", box("mb-1", "Summer Box"), globals.MysteryBoxProductID, models.Snapshot{Name: "Summer Box", MysteryBoxID: "mb-2"}, false},
		{"stored line without id", box("", "Summer Box Deluxe"), globals.MysteryBoxProductID, models.Snapshot{Name: "Summer Box", MysteryBoxID: "mb-2"}, true},
		{"new name longer than stored", box("", "Summer"), globals.MysteryBoxProductID, models.Snapshot{Name: "Summer Box"}, false},
		{"empty name", box("", "Summer Box"), globals.MysteryBoxProductID, models.Snapshot{}, false},
		{"unicode prefix", box("", "ශ්‍රී ලංකා තේ පෙට්ටිය විශාල"), globals.MysteryBoxProductID, models.Snapshot{Name: "ශ්‍රී ලංකා තේ පෙට්ටිය විශාල"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.line, tc.productID, tc.snap))
		})
	}
}

func TestFetchReplacesCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := New(f.srv.Client(f.sess.BearerToken), f.sess, nil)

	require.NoError(t, f.cart.AddProduct(ctx, tea, 1))
	require.NoError(t, other.Fetch(ctx))
	require.Len(t, other.Items(), 1)

	require.NoError(t, f.cart.Clear(ctx))
	require.NoError(t, f.cart.AddProduct(ctx, honey, 2))
	require.NoError(t, other.Fetch(ctx))
	items := other.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p-honey", items[0].ProductID)

	require.NoError(t, f.cart.Clear(ctx))
	require.NoError(t, other.Fetch(ctx))
	assert.NotNil(t, other.Items())
	assert.Empty(t, other.Items())
	raw, err := json.Marshal(other.Items())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestSetQuantityAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddProduct(ctx, tea, 1))
	require.NoError(t, f.cart.AddProduct(ctx, honey, 1))
	line := f.cart.Items()[0]

	require.NoError(t, f.cart.SetQuantity(ctx, line.ID, 5))
	assert.Equal(t, 5, f.cart.Items()[0].Quantity)

	require.NoError(t, f.cart.SetQuantity(ctx, line.ID, 0))
	require.Len(t, f.cart.Items(), 1)
	assert.Equal(t, "p-honey", f.cart.Items()[0].ProductID)

	require.NoError(t, f.cart.Remove(ctx, f.cart.Items()[0].ID))
	assert.Empty(t, f.cart.Items())

	err := f.cart.Remove(ctx, "gone")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	assert.Equal(t, "Cart item not found", f.cart.LastError())
}

func TestServerFailureKeepsLocalLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddProduct(ctx, tea, 1))
	f.srv.Fail(http.MethodPost, "/cart", http.StatusConflict, "Out of stock")

	err := f.cart.AddProduct(ctx, honey, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.TransportFailure, apperr.KindOf(err))
	assert.Equal(t, "Out of stock", f.cart.LastError())
	assert.False(t, f.cart.Loading())
	assert.Len(t, f.cart.Items(), 1)

	f.srv.Recover(http.MethodPost, "/cart")
	require.NoError(t, f.cart.AddProduct(ctx, honey, 1))
	assert.Empty(t, f.cart.LastError())
}

func TestRequiresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sess.Logout(ctx))

	err := f.cart.AddProduct(ctx, tea, 1)
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
	assert.Zero(t, f.srv.Calls(http.MethodPost, "/cart"))

	assert.True(t, apperr.IsKind(f.cart.Fetch(ctx), apperr.Unauthenticated))
}

func TestAddRejectsBadQuantity(t *testing.T) {
	f := newFixture(t)
	err := f.cart.AddProduct(context.Background(), tea, 0)
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailure))
	assert.Zero(t, f.srv.Calls(http.MethodPost, "/cart"))
}
