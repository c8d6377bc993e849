package receipt

import (
	"bytes"
	"testing"
	"time"

	"kiosk/apperr"
	"kiosk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	s := Summary{
		OrderID:  "ORD-1",
		Customer: "Ana",
		Currency: "LKR",
		Hash:     "71638FD6DFF55F8A44B8D853D7D68872",
		IssuedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Lines: []models.CartItem{
			{ProductID: "p1", Quantity: 2, Snapshot: models.Snapshot{Name: "Ceylon Tea", Price: 4.5}},
			{ProductID: "mystery-box", Quantity: 1, Snapshot: models.Snapshot{Name: "Spice Box", Price: 12, MysteryBoxID: "mb-1"}},
		},
	}
	assert.Equal(t, 21.0, s.Total())
	assert.Equal(t, "ORD-1|71638FD6DFF55F8A44B8D853D7D68872", s.QRPayload())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestRenderEmptyCart(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Summary{OrderID: "ORD-1"})
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailure))
	assert.Zero(t, buf.Len())
}
