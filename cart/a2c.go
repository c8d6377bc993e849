// Package cart mirrors the customer's server-side cart.
//
// Every mutation is sent to the API and the local lines are then replaced with the
// cart the server answers, so the local copy never drifts from the server's.
package cart

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/globals"
	"kiosk/models"

	"go.uber.org/zap"
)

// LegacyPrefixLen is how many leading characters of a bundled offer name are compared
// when a line carries no mystery box id.
const LegacyPrefixLen = 20

// Session is the part of session.Store the cart needs.
type Session interface {
	Token(ctx context.Context) (string, error)
}

type Store struct {
	apperr.Status

	api    *api.Client
	auth   Session
	logger *zap.Logger

	mu    sync.RWMutex
	items []models.CartItem
}

func New(client *api.Client, auth Session, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{api: client, auth: auth, logger: logger}
}

// Items returns a copy of the cart lines in server order.
func (s *Store) Items() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, it := range s.items {
		total += it.LineTotal()
	}
	return total
}

// Reset forgets the local lines without touching the server. Used on logout.
func (s *Store) Reset() {
	s.replace(nil)
}

func (s *Store) replace(items []models.CartItem) {
	if items == nil {
		items = []models.CartItem{}
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *Store) authorize(ctx context.Context) error {
	s.Begin()
	_, err := s.auth.Token(ctx)
	return err
}

// Fetch replaces the local lines with the server's cart.
func (s *Store) Fetch(ctx context.Context) error {
	if err := s.authorize(ctx); err != nil {
		return s.Finish(err)
	}
	var items []models.CartItem
	if err := s.api.Get(ctx, "cart", nil, &items); err != nil {
		return s.Finish(err)
	}
	s.replace(items)
	return s.Finish(nil)
}

// Add puts quantity units of productID in the cart. When a matching line already
// exists its quantity is raised instead of adding a second line.
func (s *Store) Add(ctx context.Context, productID string, quantity int, snap models.Snapshot) error {
	if err := s.authorize(ctx); err != nil {
		return s.Finish(err)
	}
	if productID == "" || quantity <= 0 {
		return s.Finish(apperr.Validation(map[string]string{"quantity": "Choose a product and a quantity of at least 1."}))
	}

	var items []models.CartItem
	if line, ok := s.find(productID, snap); ok {
		s.logger.Debug("cart line exists, bumping quantity",
			zap.String("line", line.ID), zap.Int("from", line.Quantity), zap.Int("by", quantity))
		body := models.QuantityUpdate{Quantity: line.Quantity + quantity}
		if err := s.api.Put(ctx, "cart/"+url.PathEscape(line.ID), body, &items); err != nil {
			return s.Finish(err)
		}
	} else {
		body := models.CartAdd{ProductID: productID, Quantity: quantity, Snapshot: snap}
		if err := s.api.Post(ctx, "cart", body, &items); err != nil {
			return s.Finish(err)
		}
	}
	s.replace(items)
	return s.Finish(nil)
}

func (s *Store) AddProduct(ctx context.Context, p models.Product, quantity int) error {
	return s.Add(ctx, p.ID, quantity, p.Snapshot())
}

// AddMysteryBox adds a bundled offer under the shared sentinel product id.
func (s *Store) AddMysteryBox(ctx context.Context, b models.MysteryBox, quantity int) error {
	return s.Add(ctx, globals.MysteryBoxProductID, quantity, b.Snapshot())
}

// SetQuantity sets a line's quantity. Zero or less removes the line.
func (s *Store) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, lineID)
	}
	if err := s.authorize(ctx); err != nil {
		return s.Finish(err)
	}
	var items []models.CartItem
	if err := s.api.Put(ctx, "cart/"+url.PathEscape(lineID), models.QuantityUpdate{Quantity: quantity}, &items); err != nil {
		return s.Finish(err)
	}
	s.replace(items)
	return s.Finish(nil)
}

func (s *Store) Remove(ctx context.Context, lineID string) error {
	if err := s.authorize(ctx); err != nil {
		return s.Finish(err)
	}
	var items []models.CartItem
	if err := s.api.Delete(ctx, "cart/"+url.PathEscape(lineID), &items); err != nil {
		return s.Finish(err)
	}
	s.replace(items)
	return s.Finish(nil)
}

// Clear empties the cart on the server and locally.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.authorize(ctx); err != nil {
		return s.Finish(err)
	}
	if err := s.api.Delete(ctx, "cart", nil); err != nil {
		return s.Finish(err)
	}
	s.replace(nil)
	return s.Finish(nil)
}

func (s *Store) find(productID string, snap models.Snapshot) (models.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if Matches(it, productID, snap) {
			return it, true
		}
	}
	return models.CartItem{}, false
}

// Matches reports whether line is the cart entry for productID/snap.
//
// Regular products match by product id. Bundled offers all share the sentinel id, so
// they match by mystery box id when both sides carry one. Lines without a box id fall
// back to comparing names: the first LegacyPrefixLen characters of the new name must
// appear in the stored name. Two offers whose names share that prefix are treated as
// the same line.
func Matches(line models.CartItem, productID string, snap models.Snapshot) bool {
	if productID != globals.MysteryBoxProductID {
		return line.ProductID == productID
	}
	if line.ProductID != globals.MysteryBoxProductID {
		return false
	}
	if line.Snapshot.MysteryBoxID != "" && snap.MysteryBoxID != "" {
		return line.Snapshot.MysteryBoxID == snap.MysteryBoxID
	}
	return legacyNameMatch(line.Snapshot.Name, snap.Name)
}

func legacyNameMatch(stored, name string) bool {
	prefix := name
	if utf8.RuneCountInString(name) > LegacyPrefixLen {
		prefix = string([]rune(name)[:LegacyPrefixLen])
	}
	return prefix != "" && strings.Contains(stored, prefix)
}
