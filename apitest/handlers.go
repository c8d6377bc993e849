package apitest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"kiosk/globals"
	"kiosk/models"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

func respondWithError(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, map[string]string{"error": msg})
}

func respondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func requireRole(w http.ResponseWriter, r *http.Request, want globals.Role) bool {
	if role(r) != want {
		respondWithError(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}

// --- profiles ---------------------------------------------

func formFloat(r *http.Request, key string, dst *float64) {
	if v := r.FormValue(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func formString(r *http.Request, key string, dst *string) {
	if _, ok := r.MultipartForm.Value[key]; ok {
		*dst = r.FormValue(key)
	}
}

func uploaded(r *http.Request, field string, dst *string) {
	if fhs := r.MultipartForm.File[field]; len(fhs) > 0 {
		*dst = "/uploads/" + fhs[0].Filename
	}
}

func applySellerFields(sl *models.Seller, r *http.Request) {
	formString(r, "name", &sl.Name)
	formString(r, "phone", &sl.Phone)
	formString(r, "businessName", &sl.BusinessName)
	formString(r, "businessType", &sl.BusinessType)
	formString(r, "description", &sl.Description)
	formString(r, "location", &sl.Location)
	formFloat(r, "latitude", &sl.Latitude)
	formFloat(r, "longitude", &sl.Longitude)
	uploaded(r, "logo", &sl.Logo)
	uploaded(r, "banner", &sl.Banner)
}

func (s *Server) getCustomerProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !requireRole(w, r, globals.RoleCustomer) {
		return
	}
	s.mu.Lock()
	c, ok := s.customers[userID(r)]
	var out models.Customer
	if ok {
		out = *c
	}
	s.mu.Unlock()
	if !ok {
		respondWithError(w, http.StatusNotFound, "Customer not found")
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) updateCustomerProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !requireRole(w, r, globals.RoleCustomer) {
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	s.mu.Lock()
	c, ok := s.customers[userID(r)]
	if !ok {
		s.mu.Unlock()
		respondWithError(w, http.StatusNotFound, "Customer not found")
		return
	}
	formString(r, "name", &c.Name)
	formString(r, "phone", &c.Phone)
	formString(r, "location", &c.Location)
	formFloat(r, "latitude", &c.Latitude)
	formFloat(r, "longitude", &c.Longitude)
	uploaded(r, "profileImage", &c.ProfileImage)
	out := *c
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) getSellerProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !requireRole(w, r, globals.RoleSeller) {
		return
	}
	s.mu.Lock()
	sl, ok := s.sellers[userID(r)]
	var out models.Seller
	if ok {
		out = *sl
	}
	s.mu.Unlock()
	if !ok {
		respondWithError(w, http.StatusNotFound, "Seller not found")
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) updateSellerProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !requireRole(w, r, globals.RoleSeller) {
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	s.mu.Lock()
	sl, ok := s.sellers[userID(r)]
	if !ok {
		s.mu.Unlock()
		respondWithError(w, http.StatusNotFound, "Seller not found")
		return
	}
	applySellerFields(sl, r)
	out := *sl
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, out)
}

// --- shops ------------------------------------------------

func (s *Server) listSellers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	s.mu.Lock()
	out := make([]models.Seller, 0, len(s.sellers))
	for _, sl := range s.sellers {
		if q == "" || strings.Contains(strings.ToLower(sl.DisplayName()), q) {
			out = append(out, *sl)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName() < out[j].DisplayName() })
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) getSeller(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	sl, ok := s.sellers[ps.ByName("id")]
	var out models.Seller
	if ok {
		out = *sl
	}
	s.mu.Unlock()
	if !ok {
		respondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	out := append([]models.Product{}, s.products[ps.ByName("id")]...)
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.products {
		for _, p := range list {
			if p.ID == id {
				respondWithJSON(w, http.StatusOK, p)
				return
			}
		}
	}
	respondWithError(w, http.StatusNotFound, "Product not found")
}

func (s *Server) listBoxes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status := r.URL.Query().Get("status")
	s.mu.Lock()
	out := []models.MysteryBox{}
	for _, b := range s.boxes[ps.ByName("id")] {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, out)
}

// --- cart -------------------------------------------------

func (s *Server) cartOf(uid string) []models.CartItem {
	return append([]models.CartItem{}, s.carts[uid]...)
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	out := s.cartOf(userID(r))
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in models.CartAdd
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.ProductID == "" || in.Quantity <= 0 {
		respondWithError(w, http.StatusBadRequest, "Product and a positive quantity are required")
		return
	}
	uid := userID(r)
	s.mu.Lock()
	s.carts[uid] = append(s.carts[uid], models.CartItem{
		ID:        uuid.NewString(),
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Snapshot:  in.Snapshot,
		AddedAt:   time.Now().UTC(),
	})
	out := s.cartOf(uid)
	s.mu.Unlock()
	respondWithJSON(w, http.StatusCreated, out)
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in models.QuantityUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	uid, id := userID(r), ps.ByName("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[uid]
	for i := range cart {
		if cart[i].ID != id {
			continue
		}
		if in.Quantity <= 0 {
			s.carts[uid] = append(cart[:i:i], cart[i+1:]...)
		} else {
			cart[i].Quantity = in.Quantity
		}
		respondWithJSON(w, http.StatusOK, s.cartOf(uid))
		return
	}
	respondWithError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	uid, id := userID(r), ps.ByName("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[uid]
	for i := range cart {
		if cart[i].ID == id {
			s.carts[uid] = append(cart[:i:i], cart[i+1:]...)
			respondWithJSON(w, http.StatusOK, s.cartOf(uid))
			return
		}
	}
	respondWithError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	delete(s.carts, userID(r))
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, []models.CartItem{})
}

// --- follows ----------------------------------------------

func (s *Server) listFollows(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	out := sortedKeys(s.follows[userID(r)])
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) follow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.setFollow(w, r, ps.ByName("id"), true)
}

func (s *Server) unfollow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.setFollow(w, r, ps.ByName("id"), false)
}

func (s *Server) setFollow(w http.ResponseWriter, r *http.Request, sellerID string, on bool) {
	if !requireRole(w, r, globals.RoleCustomer) {
		return
	}
	uid := userID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.sellers[sellerID]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}
	if s.follows[uid] == nil {
		s.follows[uid] = make(map[string]bool)
	}
	was := s.follows[uid][sellerID]
	switch {
	case on && !was:
		s.follows[uid][sellerID] = true
		sl.Followers++
	case !on && was:
		delete(s.follows[uid], sellerID)
		if sl.Followers > 0 {
			sl.Followers--
		}
	}
	n := sl.Followers
	respondWithJSON(w, http.StatusOK, models.FollowState{SellerID: sellerID, IsFollowing: &on, Followers: &n})
}

// --- chats ------------------------------------------------

func (s *Server) listChats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uid := userID(r)
	s.mu.Lock()
	out := []models.Chat{}
	for _, ch := range s.chats {
		if ch.CustomerID == uid || ch.SellerID == uid {
			out = append(out, *ch)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) initChat(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		SellerID string `json:"sellerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.SellerID == "" {
		respondWithError(w, http.StatusBadRequest, "Seller id is required")
		return
	}
	uid := userID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.sellers[in.SellerID]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}
	for _, ch := range s.chats {
		if ch.CustomerID == uid && ch.SellerID == in.SellerID {
			respondWithJSON(w, http.StatusOK, *ch)
			return
		}
	}
	ch := &models.Chat{
		ID:         newID("chat-"),
		CustomerID: uid,
		SellerID:   in.SellerID,
		SellerName: sl.DisplayName(),
		UpdatedAt:  time.Now().Unix(),
	}
	s.chats[ch.ID] = ch
	respondWithJSON(w, http.StatusCreated, *ch)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if !s.member(id, userID(r)) {
		respondWithError(w, http.StatusNotFound, "Chat not found")
		return
	}
	s.mu.Lock()
	out := append([]models.Message{}, s.messages[id]...)
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, out)
}
