// Package apitest runs an in-memory marketplace API for tests.
//
// It speaks the same REST contract as the real server closely enough to drive the
// stores end to end: bcrypt passwords, HS256 tokens, JSON and multipart bodies and a
// websocket chat hub. Failures can be injected per route.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"kiosk/api"
	"kiosk/globals"
	"kiosk/middleware"
	"kiosk/models"
	"kiosk/tokens"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	ID           string
	Email        string
	Role         globals.Role
	PasswordHash []byte
}

type failure struct {
	status  int
	message string
}

// Server is a fake marketplace API.
type Server struct {
	*httptest.Server

	// TokenTTL is the lifetime of tokens minted by register and login.
	TokenTTL time.Duration

	secret []byte
	hub    *Hub

	mu        sync.Mutex
	accounts  map[string]*account // by email
	customers map[string]*models.Customer
	sellers   map[string]*models.Seller
	products  map[string][]models.Product
	boxes     map[string][]models.MysteryBox
	carts     map[string][]models.CartItem
	follows   map[string]map[string]bool
	chats     map[string]*models.Chat
	messages  map[string][]models.Message
	failures  map[string]failure
	calls     map[string]int
}

// New starts a server and closes it when t finishes.
func New(t testing.TB) *Server {
	s := &Server{
		TokenTTL:  time.Hour,
		secret:    []byte("apitest-secret"),
		hub:       NewHub(),
		accounts:  make(map[string]*account),
		customers: make(map[string]*models.Customer),
		sellers:   make(map[string]*models.Seller),
		products:  make(map[string][]models.Product),
		boxes:     make(map[string][]models.MysteryBox),
		carts:     make(map[string][]models.CartItem),
		follows:   make(map[string]map[string]bool),
		chats:     make(map[string]*models.Chat),
		messages:  make(map[string][]models.Message),
		failures:  make(map[string]failure),
		calls:     make(map[string]int),
	}
	go s.hub.Run()
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(func() {
		s.Server.Close()
		s.hub.Stop()
	})
	return s
}

func (s *Server) router() *httprouter.Router {
	router := httprouter.New()
	p := globals.APIPrefix

	s.handle(router, http.MethodPost, p+"/auth/register", s.register, false)
	s.handle(router, http.MethodPost, p+"/auth/seller/register", s.sellerRegister, false)
	s.handle(router, http.MethodPost, p+"/auth/login", s.login, false)

	s.handle(router, http.MethodGet, p+"/profile/customer", s.getCustomerProfile, true)
	s.handle(router, http.MethodPut, p+"/profile/customer", s.updateCustomerProfile, true)
	s.handle(router, http.MethodGet, p+"/profile/seller", s.getSellerProfile, true)
	s.handle(router, http.MethodPut, p+"/profile/seller", s.updateSellerProfile, true)

	s.handle(router, http.MethodGet, p+"/sellers", s.listSellers, false)
	s.handle(router, http.MethodGet, p+"/sellers/:id", s.getSeller, false)
	s.handle(router, http.MethodGet, p+"/sellers/:id/products", s.listProducts, false)
	s.handle(router, http.MethodGet, p+"/sellers/:id/mystery-boxes", s.listBoxes, false)
	s.handle(router, http.MethodGet, p+"/products/:id", s.getProduct, false)

	s.handle(router, http.MethodGet, p+"/cart", s.getCart, true)
	s.handle(router, http.MethodPost, p+"/cart", s.addToCart, true)
	s.handle(router, http.MethodDelete, p+"/cart", s.clearCart, true)
	s.handle(router, http.MethodPut, p+"/cart/:id", s.updateCartItem, true)
	s.handle(router, http.MethodDelete, p+"/cart/:id", s.removeCartItem, true)

	s.handle(router, http.MethodGet, p+"/follows", s.listFollows, true)
	s.handle(router, http.MethodPost, p+"/follows/:id", s.follow, true)
	s.handle(router, http.MethodDelete, p+"/follows/:id", s.unfollow, true)

	s.handle(router, http.MethodGet, p+"/chats", s.listChats, true)
	s.handle(router, http.MethodPost, p+"/chats", s.initChat, true)
	s.handle(router, http.MethodGet, p+"/chats/:id/messages", s.listMessages, true)
	s.handle(router, http.MethodGet, p+"/ws/chats/:id", s.chatSocket, true)

	return router
}

// Client is an api.Client for this server. source supplies the bearer token and
// may be nil for anonymous calls.
func (s *Server) Client(source middleware.TokenSource) *api.Client {
	transport := s.Server.Client().Transport
	if source != nil {
		transport = middleware.Bearer(source, transport)
	}
	return api.New(s.URL, "", api.WithHTTPClient(&http.Client{Transport: transport}))
}

// WebsocketURL is the ws:// form of the server root.
func (s *Server) WebsocketURL() string {
	return "ws" + s.URL[len("http"):]
}

func routeKey(method, pattern string) string {
	return method + " " + pattern
}

// handle registers h behind call counting, failure injection and, when auth is
// set, token authentication.
func (s *Server) handle(router *httprouter.Router, method, pattern string, h httprouter.Handle, auth bool) {
	key := routeKey(method, pattern[len(globals.APIPrefix):])
	if auth {
		h = s.authenticate(h)
	}
	router.Handle(method, pattern, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s.mu.Lock()
		s.calls[key]++
		f, failing := s.failures[key]
		s.mu.Unlock()
		if failing {
			respondWithError(w, f.status, f.message)
			return
		}
		h(w, r, ps)
	})
}

// Fail makes every call to the route answer status with message until Recover.
// pattern is the route without the API prefix, e.g. "/follows/:id".
func (s *Server) Fail(method, pattern string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[routeKey(method, pattern)] = failure{status: status, message: message}
}

func (s *Server) Recover(method, pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, routeKey(method, pattern))
}

// Calls counts requests to a route, failed ones included.
func (s *Server) Calls(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(method, pattern)]
}

// Mint signs a token the server will accept.
func (s *Server) Mint(userID string, role globals.Role, ttl time.Duration) string {
	claims := &tokens.Claims{
		Role:   tokens.Roles{role},
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

func newID(prefix string) string {
	return prefix + uuid.NewString()[:8]
}

func (s *Server) addAccount(id, email, password string, role globals.Role) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apitest: hash password: %v", err))
	}
	s.accounts[email] = &account{ID: id, Email: email, Role: role, PasswordHash: hash}
}

// AddCustomer seeds a customer account. An empty ID is generated.
func (s *Server) AddCustomer(c models.Customer, password string) models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID("c-")
	}
	s.addAccount(c.ID, c.Email, password, globals.RoleCustomer)
	s.customers[c.ID] = &c
	return c
}

// AddSeller seeds a seller account and its shop. An empty ID is generated.
func (s *Server) AddSeller(sl models.Seller, password string) models.Seller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl.ID == "" {
		sl.ID = newID("s-")
	}
	s.addAccount(sl.ID, sl.Email, password, globals.RoleSeller)
	s.sellers[sl.ID] = &sl
	return sl
}

// AddAdmin seeds an admin account and returns its id.
func (s *Server) AddAdmin(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID("a-")
	s.addAccount(id, email, password, globals.RoleAdmin)
	return id
}

// SetProducts replaces a seller's listings.
func (s *Server) SetProducts(sellerID string, products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.Product, len(products))
	for i, p := range products {
		p.SellerID = sellerID
		cp[i] = p
	}
	s.products[sellerID] = cp
}

// SetMysteryBoxes replaces a seller's bundled offers, inactive ones included.
func (s *Server) SetMysteryBoxes(sellerID string, boxes []models.MysteryBox) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.MysteryBox, len(boxes))
	for i, b := range boxes {
		b.SellerID = sellerID
		cp[i] = b
	}
	s.boxes[sellerID] = cp
}

// Cart returns a copy of a user's cart.
func (s *Server) Cart(userID string) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.carts[userID]...)
}

// Followers reports the server-side follower count of a seller.
func (s *Server) Followers(sellerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.sellers[sellerID]; ok {
		return sl.Followers
	}
	return 0
}

// Following lists the sellers a customer follows, sorted.
func (s *Server) Following(customerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.follows[customerID])
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
