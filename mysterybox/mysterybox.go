// Package mysterybox caches a seller's active bundled offers.
package mysterybox

import (
	"context"
	"net/url"
	"sync"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/models"

	"go.uber.org/zap"
)

// StatusActive is the only status the shop view asks for.
const StatusActive = "active"

type Store struct {
	apperr.Status

	api    *api.Client
	logger *zap.Logger

	mu    sync.RWMutex
	boxes []models.MysteryBox
}

func New(client *api.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{api: client, logger: logger}
}

// Fetch replaces the cache with sellerID's active boxes. Filtering is left to the server.
func (s *Store) Fetch(ctx context.Context, sellerID string) error {
	s.Begin()
	if sellerID == "" {
		return s.Finish(apperr.Validation(map[string]string{"sellerId": "Seller id is required."}))
	}
	var boxes []models.MysteryBox
	q := url.Values{"status": {StatusActive}}
	if err := s.api.Get(ctx, "sellers/"+url.PathEscape(sellerID)+"/mystery-boxes", q, &boxes); err != nil {
		return s.Finish(err)
	}
	if boxes == nil {
		boxes = []models.MysteryBox{}
	}
	s.mu.Lock()
	s.boxes = boxes
	s.mu.Unlock()
	s.logger.Debug("mystery boxes fetched", zap.String("seller", sellerID), zap.Int("count", len(boxes)))
	return s.Finish(nil)
}

func (s *Store) Boxes() []models.MysteryBox {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MysteryBox, len(s.boxes))
	copy(out, s.boxes)
	return out
}

func (s *Store) Find(id string) (models.MysteryBox, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.boxes {
		if b.ID == id {
			return b, true
		}
	}
	return models.MysteryBox{}, false
}

// Clear drops the cache when the shop view is left.
func (s *Store) Clear() {
	s.mu.Lock()
	s.boxes = nil
	s.mu.Unlock()
}
