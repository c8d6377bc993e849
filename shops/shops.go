// Package shops loads everything the shop view shows in one go.
package shops

import (
	"context"
	"net/url"
	"strings"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/follow"
	"kiosk/models"
	"kiosk/mysterybox"
	"kiosk/products"
	"kiosk/session"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShopView is a seller's public profile with its listings and follow state.
type ShopView struct {
	Seller    models.Seller
	Products  []models.Product
	Boxes     []models.MysteryBox
	Following bool
	Followers int
}

type Service struct {
	apperr.Status

	api      *api.Client
	sess     *session.Store
	products *products.Store
	boxes    *mysterybox.Store
	follows  *follow.Store
	logger   *zap.Logger
}

func New(client *api.Client, sess *session.Store, p *products.Store, b *mysterybox.Store, f *follow.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: client, sess: sess, products: p, boxes: b, follows: f, logger: logger}
}

// List returns the sellers whose shop name matches query. An empty query lists all.
func (s *Service) List(ctx context.Context, query string) ([]models.Seller, error) {
	s.Begin()
	var q url.Values
	if query = strings.TrimSpace(query); query != "" {
		q = url.Values{"q": {query}}
	}
	var sellers []models.Seller
	if err := s.api.Get(ctx, "sellers", q, &sellers); err != nil {
		return nil, s.Finish(err)
	}
	if sellers == nil {
		sellers = []models.Seller{}
	}
	return sellers, s.Finish(nil)
}

// Load fetches the seller profile, products, mystery boxes and, for customers, the
// follow set concurrently. Any failure is reported as one generic error.
func (s *Service) Load(ctx context.Context, sellerID string) (*ShopView, error) {
	s.Begin()
	if sellerID == "" {
		return nil, s.Finish(apperr.Validation(map[string]string{"sellerId": "Seller id is required."}))
	}

	var seller *models.Seller
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		seller, err = s.sess.FetchSellerByID(gctx, sellerID)
		return err
	})
	g.Go(func() error { return s.products.Fetch(gctx, sellerID) })
	g.Go(func() error { return s.boxes.Fetch(gctx, sellerID) })
	customer := s.sess.State().Kind == session.CustomerSession
	if customer {
		g.Go(func() error { return s.follows.Fetch(gctx) })
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("shop load failed", zap.String("seller", sellerID), zap.Error(err))
		return nil, s.Finish(apperr.Wrap(apperr.KindOf(err), apperr.GenericMessage, err))
	}

	s.follows.SeedCount(seller.ID, seller.Followers)
	view := &ShopView{
		Seller:    *seller,
		Products:  s.products.Products(),
		Boxes:     s.boxes.Boxes(),
		Followers: seller.Followers,
	}
	if customer {
		view.Following = s.follows.IsFollowing(seller.ID)
	}
	return view, s.Finish(nil)
}

// Leave drops the per-shop caches.
func (s *Service) Leave() {
	s.products.Clear()
	s.boxes.Clear()
}
