package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"kiosk/globals"
	"kiosk/models"
	"kiosk/tokens"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		if len(tokenString) < 8 || tokenString[:7] != "Bearer " {
			respondWithError(w, http.StatusUnauthorized, "Invalid token format")
			return
		}

		claims := &tokens.Claims{}
		token, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.SubjectID())
		ctx = context.WithValue(ctx, globals.RoleCtxKey, claims.PrimaryRole())
		next(w, r.WithContext(ctx), ps)
	}
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(globals.UserIDKey).(string)
	return id
}

func role(r *http.Request) globals.Role {
	role, _ := r.Context().Value(globals.RoleCtxKey).(globals.Role)
	return role
}

type authResponse struct {
	Token    string           `json:"token"`
	Role     globals.Role     `json:"role"`
	Customer *models.Customer `json:"customer,omitempty"`
	Seller   *models.Seller   `json:"seller,omitempty"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[strings.ToLower(in.Email)]; exists {
		s.mu.Unlock()
		respondWithError(w, http.StatusConflict, "Email already registered")
		return
	}
	c := models.Customer{ID: newID("c-"), Name: in.Name, Email: strings.ToLower(in.Email), Phone: in.Phone, Location: in.Location}
	s.addAccount(c.ID, c.Email, in.Password, globals.RoleCustomer)
	s.customers[c.ID] = &c
	s.mu.Unlock()

	respondWithJSON(w, http.StatusCreated, authResponse{
		Token:    s.Mint(c.ID, globals.RoleCustomer, s.TokenTTL),
		Role:     globals.RoleCustomer,
		Customer: &c,
	})
}

func (s *Server) sellerRegister(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	email := strings.ToLower(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" || r.FormValue("businessName") == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.mu.Unlock()
		respondWithError(w, http.StatusConflict, "Email already registered")
		return
	}
	sl := models.Seller{ID: newID("s-"), Email: email}
	applySellerFields(&sl, r)
	s.addAccount(sl.ID, email, password, globals.RoleSeller)
	s.sellers[sl.ID] = &sl
	s.mu.Unlock()

	respondWithJSON(w, http.StatusCreated, authResponse{
		Token:  s.Mint(sl.ID, globals.RoleSeller, s.TokenTTL),
		Role:   globals.RoleSeller,
		Seller: &sl,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(in.Password)) != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	resp := authResponse{Token: s.Mint(acc.ID, acc.Role, s.TokenTTL), Role: acc.Role}
	s.mu.Lock()
	switch acc.Role {
	case globals.RoleCustomer:
		c := *s.customers[acc.ID]
		resp.Customer = &c
	case globals.RoleSeller:
		sl := *s.sellers[acc.ID]
		resp.Seller = &sl
	}
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, resp)
}
