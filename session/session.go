// Package session holds the client's belief about who is logged in.
//
// A Store is built explicitly, restored from persisted keys with Restore and torn down
// with Close. Whatever fetch or restore discovers an expired or malformed token purges
// the persisted keys before it reports the caller as not authenticated.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/globals"
	"kiosk/models"
	"kiosk/storage"
	"kiosk/tokens"
	"kiosk/validate"

	"go.uber.org/zap"
)

// Kind is the state of the session machine.
type Kind int

const (
	Anonymous Kind = iota
	CustomerSession
	SellerSession
	// AdminTransient keeps only the token and role marker; no admin record is held.
	AdminTransient
)

func (k Kind) String() string {
	switch k {
	case CustomerSession:
		return "customer"
	case SellerSession:
		return "seller"
	case AdminTransient:
		return "admin"
	default:
		return "anonymous"
	}
}

func kindFor(role globals.Role) (Kind, bool) {
	switch role {
	case globals.RoleCustomer:
		return CustomerSession, true
	case globals.RoleSeller:
		return SellerSession, true
	case globals.RoleAdmin:
		return AdminTransient, true
	}
	return Anonymous, false
}

// State is a snapshot of the session. At most one of Customer and Seller is set.
type State struct {
	Kind      Kind
	Role      globals.Role
	SubjectID string
	Customer  *models.Customer
	Seller    *models.Seller
	Loading   bool
	// Error is the message of the last failed operation, "" after a success.
	Error string
}

func (s State) Authenticated() bool { return s.Kind != Anonymous }

const notLoggedIn = "Please log in to continue."

// Store is the session state machine.
type Store struct {
	api    *api.Client
	keys   storage.Store
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
}

type Option func(*Store)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(client *api.Client, keys storage.Store, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{api: client, keys: keys, logger: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.Customer != nil {
		c := *st.Customer
		st.Customer = &c
	}
	if st.Seller != nil {
		sl := *st.Seller
		st.Seller = &sl
	}
	return st
}

// Restore rebuilds the state from persisted keys. A missing token leaves the session
// anonymous; a bad one is purged. Only storage failures are returned.
func (s *Store) Restore(ctx context.Context) error {
	token, claims, err := s.validToken(ctx)
	if err != nil {
		if apperr.IsKind(err, apperr.Unauthenticated) {
			return nil
		}
		return err
	}

	role := claims.PrimaryRole()
	if stored, ok, err := s.keys.Get(ctx, globals.RoleKey); err != nil {
		return fmt.Errorf("restore role: %w", err)
	} else if ok && globals.Role(stored).Valid() {
		role = globals.Role(stored)
	}
	kind, ok := kindFor(role)
	if !ok {
		s.logger.Warn("persisted session has no usable role; purging")
		return s.purge(ctx)
	}

	s.mu.Lock()
	s.state = State{Kind: kind, Role: role, SubjectID: claims.SubjectID()}
	s.mu.Unlock()
	s.logger.Info("session restored", zap.Stringer("state", kind), zap.Bool("token", token != ""))
	return nil
}

// Close drops in-memory state. Persisted keys are left for the next Restore.
func (s *Store) Close() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}

// BearerToken is the middleware.TokenSource for authenticated calls. It returns ""
// when there is no valid token, after purging a bad one.
func (s *Store) BearerToken(ctx context.Context) (string, error) {
	token, _, err := s.validToken(ctx)
	if apperr.IsKind(err, apperr.Unauthenticated) {
		return "", nil
	}
	return token, err
}

// Token returns the current token or an Unauthenticated error.
func (s *Store) Token(ctx context.Context) (string, error) {
	token, _, err := s.validToken(ctx)
	return token, err
}

// validToken is the single place that enforces the purge-on-bad-token rule.
func (s *Store) validToken(ctx context.Context) (string, *tokens.Claims, error) {
	token, ok, err := s.keys.Get(ctx, globals.TokenKey)
	if err != nil {
		return "", nil, fmt.Errorf("read token: %w", err)
	}
	if !ok || token == "" {
		return "", nil, apperr.Unauthenticatedf(notLoggedIn)
	}
	claims, err := tokens.Validate(token, s.now())
	if err != nil {
		reason := "malformed"
		if errors.Is(err, tokens.ErrExpired) {
			reason = "expired"
		}
		s.logger.Warn("purging persisted session", zap.String("reason", reason))
		if perr := s.purge(ctx); perr != nil {
			return "", nil, perr
		}
		msg := "Your session has expired. Please log in again."
		if reason == "malformed" {
			msg = notLoggedIn
		}
		return "", nil, &apperr.Error{Kind: apperr.Unauthenticated, Message: msg, Err: err}
	}
	return token, claims, nil
}

func (s *Store) purge(ctx context.Context) error {
	if err := s.keys.Delete(ctx, globals.SessionKeys...); err != nil {
		return fmt.Errorf("purge session keys: %w", err)
	}
	s.mu.Lock()
	s.state = State{Error: s.state.Error}
	s.mu.Unlock()
	return nil
}

// begin marks an operation in flight and clears the previous error.
func (s *Store) begin() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
}

// finish records the outcome of an operation and hands err back unchanged.
func (s *Store) finish(err error) error {
	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		s.state.Error = apperr.Message(err)
	}
	s.mu.Unlock()
	return err
}

// authResponse is what register and login answer.
type authResponse struct {
	Token    string           `json:"token"`
	Role     globals.Role     `json:"role"`
	Customer *models.Customer `json:"customer,omitempty"`
	Seller   *models.Seller   `json:"seller,omitempty"`
}

// Register creates a customer account and logs it in.
func (s *Store) Register(ctx context.Context, form validate.CustomerSignup) error {
	s.begin()
	if err := form.Validate(); err != nil {
		return s.finish(err)
	}
	var resp authResponse
	if err := s.api.Post(ctx, "auth/register", form, &resp); err != nil {
		return s.finish(err)
	}
	if resp.Role == "" {
		resp.Role = globals.RoleCustomer
	}
	return s.finish(s.establish(ctx, resp))
}

// SellerRegister creates a seller account, with optional logo/banner attachments.
func (s *Store) SellerRegister(ctx context.Context, form validate.SellerSignup, files ...api.File) error {
	s.begin()
	if err := form.Validate(); err != nil {
		return s.finish(err)
	}
	var resp authResponse
	if err := s.api.Multipart(ctx, http.MethodPost, "auth/seller/register", form.Fields(), files, &resp); err != nil {
		return s.finish(err)
	}
	if resp.Role == "" {
		resp.Role = globals.RoleSeller
	}
	return s.finish(s.establish(ctx, resp))
}

// Login authenticates and lets the server decide the role. On success State().Kind
// tells the caller where to go next.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.begin()
	if err := validate.Login(email, password); err != nil {
		return s.finish(err)
	}
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := s.api.Post(ctx, "auth/login", body, &resp); err != nil {
		return s.finish(err)
	}
	return s.finish(s.establish(ctx, resp))
}

// establish persists a fresh token and moves into the state its role names.
func (s *Store) establish(ctx context.Context, resp authResponse) error {
	if resp.Token == "" {
		return apperr.NotFoundf("The server did not return a session token.")
	}
	claims, err := tokens.Validate(resp.Token, s.now())
	if err != nil {
		return &apperr.Error{Kind: apperr.Unauthenticated, Message: "The server returned an unusable session token.", Err: err}
	}
	role := resp.Role
	if role == "" {
		role = claims.PrimaryRole()
	}
	kind, ok := kindFor(role)
	if !ok {
		return apperr.NotFoundf("The server did not say which kind of account this is.")
	}

	next := State{Kind: kind, Role: role, SubjectID: claims.SubjectID()}
	sellerID := ""
	switch kind {
	case CustomerSession:
		if resp.Customer == nil {
			return apperr.NotFoundf("The server did not return the customer profile.")
		}
		c := *resp.Customer
		next.Customer = &c
		if c.ID != "" {
			next.SubjectID = c.ID
		}
	case SellerSession:
		if resp.Seller == nil {
			return apperr.NotFoundf("The server did not return the seller profile.")
		}
		sl := *resp.Seller
		next.Seller = &sl
		sellerID = sl.ID
		if sellerID == "" {
			sellerID = next.SubjectID
		}
		next.SubjectID = sellerID
	}

	// Stale keys from a previous identity must not survive a new login.
	if err := s.keys.Delete(ctx, globals.SessionKeys...); err != nil {
		return fmt.Errorf("clear session keys: %w", err)
	}
	if err := s.keys.Set(ctx, globals.TokenKey, resp.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.keys.Set(ctx, globals.RoleKey, string(role)); err != nil {
		return fmt.Errorf("persist role: %w", err)
	}
	if sellerID != "" {
		if err := s.keys.Set(ctx, globals.SellerIDKey, sellerID); err != nil {
			return fmt.Errorf("persist seller id: %w", err)
		}
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	s.logger.Info("session established", zap.Stringer("state", kind), zap.String("subject", next.SubjectID))
	return nil
}

// Logout clears every persisted and in-memory trace of the session. Calling it when
// already logged out changes nothing.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	was := s.state.Kind
	s.state = State{}
	s.mu.Unlock()
	if was != Anonymous {
		s.logger.Info("logged out", zap.Stringer("from", was))
	}
	if err := s.keys.Delete(ctx, globals.SessionKeys...); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// SellerID is the persisted id of the logged-in seller.
func (s *Store) SellerID(ctx context.Context) (string, error) {
	id, _, err := s.keys.Get(ctx, globals.SellerIDKey)
	return id, err
}
