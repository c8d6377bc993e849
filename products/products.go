// Package products caches the listings of the shop being viewed.
package products

import (
	"context"
	"net/url"
	"sync"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/models"

	"go.uber.org/zap"
)

type Store struct {
	apperr.Status

	api    *api.Client
	logger *zap.Logger

	mu       sync.RWMutex
	sellerID string
	products []models.Product
}

func New(client *api.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{api: client, logger: logger}
}

// Fetch replaces the cache with sellerID's listings. An empty answer leaves an empty
// collection, never the previous seller's products.
func (s *Store) Fetch(ctx context.Context, sellerID string) error {
	s.Begin()
	if sellerID == "" {
		return s.Finish(apperr.Validation(map[string]string{"sellerId": "Seller id is required."}))
	}
	var list []models.Product
	if err := s.api.Get(ctx, "sellers/"+url.PathEscape(sellerID)+"/products", nil, &list); err != nil {
		return s.Finish(err)
	}
	if list == nil {
		list = []models.Product{}
	}
	s.mu.Lock()
	s.sellerID = sellerID
	s.products = list
	s.mu.Unlock()
	s.logger.Debug("products fetched", zap.String("seller", sellerID), zap.Int("count", len(list)))
	return s.Finish(nil)
}

// Get loads one product's detail. The cache is not touched.
func (s *Store) Get(ctx context.Context, productID string) (*models.Product, error) {
	s.Begin()
	if productID == "" {
		return nil, s.Finish(apperr.Validation(map[string]string{"productId": "Product id is required."}))
	}
	var p models.Product
	if err := s.api.Get(ctx, "products/"+url.PathEscape(productID), nil, &p); err != nil {
		return nil, s.Finish(err)
	}
	if p.ID == "" {
		return nil, s.Finish(apperr.NotFoundf("Product not found."))
	}
	return &p, s.Finish(nil)
}

// Find looks productID up in the cache.
func (s *Store) Find(productID string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == productID {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// SellerID is the seller whose products are cached, "" when empty.
func (s *Store) SellerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sellerID
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.sellerID = ""
	s.products = nil
	s.mu.Unlock()
}
