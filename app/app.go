// Package app wires the session and commerce stores into one client.
package app

import (
	"context"
	"fmt"
	"net/http"

	"kiosk/api"
	"kiosk/cart"
	"kiosk/chat"
	"kiosk/config"
	"kiosk/follow"
	"kiosk/maps"
	"kiosk/middleware"
	"kiosk/mysterybox"
	"kiosk/products"
	"kiosk/ratelim"
	"kiosk/session"
	"kiosk/shops"
	"kiosk/storage"

	"go.uber.org/zap"
)

// App owns one client session and every store built on it. Open constructs it and
// Close tears it down; nothing is shared between two Apps.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	API      *api.Client
	Session  *session.Store
	Cart     *cart.Store
	Products *products.Store
	Boxes    *mysterybox.Store
	Follows  *follow.Store
	Shops    *shops.Service
	Chat     *chat.Client
	Picker   *maps.Picker

	keys storage.Store
}

type Option func(*options)

type options struct {
	transport http.RoundTripper
	keys      storage.Store
	geocoder  maps.Geocoder
	session   []session.Option
}

// WithTransport replaces the base HTTP transport under the middleware chain.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithStorage uses keys instead of the configured backend. Close still closes it.
func WithStorage(keys storage.Store) Option {
	return func(o *options) { o.keys = keys }
}

// WithGeocoder replaces the Nominatim geocoder.
func WithGeocoder(g maps.Geocoder) Option {
	return func(o *options) { o.geocoder = g }
}

func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) { o.session = append(o.session, opts...) }
}

// OpenStorage builds the key store the configuration selects.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	case config.BackendFile:
		return storage.NewFileStore(cfg.Path)
	case config.BackendRedis:
		return storage.DialRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.Profile)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Open builds the client and restores any persisted session.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	keys := o.keys
	if keys == nil {
		var err error
		if keys, err = OpenStorage(ctx, cfg.Storage); err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	a := &App{Config: cfg, Logger: logger, keys: keys}

	limiter := ratelim.NewRateLimiter(cfg.API.RateLimit, cfg.API.Burst)
	transport := limiter.Transport(middleware.Chain(o.transport, func(ctx context.Context) (string, error) {
		return a.Session.BearerToken(ctx)
	}, logger.Named("http")))
	a.API = api.New(cfg.API.BaseURL, cfg.API.Prefix,
		api.WithHTTPClient(&http.Client{Transport: transport, Timeout: cfg.GetTimeout()}),
		api.WithLogger(logger),
	)

	a.Session = session.New(a.API, keys, logger.Named("session"), o.session...)
	a.Cart = cart.New(a.API, a.Session, logger.Named("cart"))
	a.Products = products.New(a.API, logger.Named("products"))
	a.Boxes = mysterybox.New(a.API, logger.Named("mysterybox"))
	a.Follows = follow.New(a.API, a.Session, logger.Named("follow"))
	a.Shops = shops.New(a.API, a.Session, a.Products, a.Boxes, a.Follows, logger.Named("shops"))
	a.Chat = chat.New(a.API, a.Session, cfg.Chat.URL, logger.Named("chat"))

	geo := o.geocoder
	if geo == nil {
		geo = maps.NewNominatim(cfg.Maps.BaseURL, cfg.Maps.UserAgent, logger.Named("maps"))
	}
	a.Picker = maps.NewPicker(geo)

	if err := a.Session.Restore(ctx); err != nil {
		keys.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return a, nil
}

// Logout ends the session and drops every cache tied to the old identity.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Session.Logout(ctx); err != nil {
		return err
	}
	a.reset()
	return nil
}

func (a *App) reset() {
	a.Cart.Reset()
	a.Follows.Clear()
	a.Shops.Leave()
}

// Close drops in-memory state and releases the key store. Persisted keys survive.
func (a *App) Close() error {
	a.reset()
	a.Session.Close()
	return a.keys.Close()
}
