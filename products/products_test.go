package products

import (
	"context"
	"net/http"
	"testing"

	"kiosk/apitest"
	"kiosk/apperr"
	"kiosk/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReplaces(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	s := New(srv.Client(nil), nil)

	srv.SetProducts("s1", []models.Product{{ID: "p1", Name: "Tea"}, {ID: "p2", Name: "Honey"}})
	require.NoError(t, s.Fetch(ctx, "s1"))
	assert.Len(t, s.Products(), 2)
	assert.Equal(t, "s1", s.SellerID())

	srv.SetProducts("s1", []models.Product{{ID: "p3", Name: "Cinnamon"}})
	require.NoError(t, s.Fetch(ctx, "s1"))
	want := []models.Product{{ID: "p3", SellerID: "s1", Name: "Cinnamon"}}
	if diff := cmp.Diff(want, s.Products()); diff != "" {
		t.Errorf("products mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, s.Fetch(ctx, "s2"))
	assert.NotNil(t, s.Products())
	assert.Empty(t, s.Products())
	assert.Equal(t, "s2", s.SellerID())
	_, ok := s.Find("p3")
	assert.False(t, ok)
}

func TestFetchFailureKeepsCache(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	s := New(srv.Client(nil), nil)
	srv.SetProducts("s1", []models.Product{{ID: "p1", Name: "Tea"}})
	require.NoError(t, s.Fetch(ctx, "s1"))

	srv.Fail(http.MethodGet, "/sellers/:id/products", http.StatusInternalServerError, "")
	err := s.Fetch(ctx, "s1")
	require.Error(t, err)
	assert.Equal(t, apperr.GenericMessage, s.LastError())
	assert.Len(t, s.Products(), 1)
}

func TestGet(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	s := New(srv.Client(nil), nil)
	srv.SetProducts("s1", []models.Product{{ID: "p1", Name: "Tea", Price: 5, DiscountPrice: 4}})

	p, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.EffectivePrice())
	assert.Empty(t, s.Products(), "Get does not populate the cache")

	_, err = s.Get(ctx, "nope")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestClear(t *testing.T) {
	srv := apitest.New(t)
	s := New(srv.Client(nil), nil)
	srv.SetProducts("s1", []models.Product{{ID: "p1"}})
	require.NoError(t, s.Fetch(context.Background(), "s1"))

	s.Clear()
	assert.Empty(t, s.Products())
	assert.Empty(t, s.SellerID())
}
