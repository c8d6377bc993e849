package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/models"
)

// requireToken begins an authenticated operation.
func (s *Store) requireToken(ctx context.Context) error {
	s.begin()
	if _, _, err := s.validToken(ctx); err != nil {
		return err
	}
	return nil
}

// requireKind begins an operation on the logged-in user's own profile, which only
// the matching session kind may load or change.
func (s *Store) requireKind(ctx context.Context, kind Kind) error {
	if err := s.requireToken(ctx); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return kindMismatch(s.state.Kind, kind)
}

func kindMismatch(have, want Kind) error {
	if have == want {
		return nil
	}
	return &apperr.Error{
		Kind:    apperr.Unauthenticated,
		Message: fmt.Sprintf("You are not logged in as a %s.", want),
		Err:     fmt.Errorf("%s profile requested in %s session", want, have),
	}
}

// FetchCustomerDetails loads the logged-in customer's profile.
func (s *Store) FetchCustomerDetails(ctx context.Context) (*models.Customer, error) {
	if err := s.requireKind(ctx, CustomerSession); err != nil {
		return nil, s.finish(err)
	}
	var c models.Customer
	if err := s.api.Get(ctx, "profile/customer", nil, &c); err != nil {
		return nil, s.finish(err)
	}
	if c.ID == "" {
		return nil, s.finish(apperr.NotFoundf("Customer profile not found."))
	}
	if err := s.setCustomer(c); err != nil {
		return nil, s.finish(err)
	}
	return &c, s.finish(nil)
}

// FetchSellerDetails loads the logged-in seller's own profile.
func (s *Store) FetchSellerDetails(ctx context.Context) (*models.Seller, error) {
	if err := s.requireKind(ctx, SellerSession); err != nil {
		return nil, s.finish(err)
	}
	var sl models.Seller
	if err := s.api.Get(ctx, "profile/seller", nil, &sl); err != nil {
		return nil, s.finish(err)
	}
	if sl.ID == "" {
		return nil, s.finish(apperr.NotFoundf("Seller profile not found."))
	}
	if err := s.setSeller(sl); err != nil {
		return nil, s.finish(err)
	}
	return &sl, s.finish(nil)
}

// FetchSellerByID loads a shop's public profile. The session identity is untouched.
func (s *Store) FetchSellerByID(ctx context.Context, sellerID string) (*models.Seller, error) {
	if sellerID == "" {
		return nil, s.finish(apperr.Validation(map[string]string{"sellerId": "Seller id is required."}))
	}
	if err := s.requireToken(ctx); err != nil {
		return nil, s.finish(err)
	}
	var sl models.Seller
	if err := s.api.Get(ctx, "sellers/"+url.PathEscape(sellerID), nil, &sl); err != nil {
		return nil, s.finish(err)
	}
	if sl.ID == "" {
		return nil, s.finish(apperr.NotFoundf("Shop not found."))
	}
	return &sl, s.finish(nil)
}

// UpdateCustomerDetails submits changed fields and attachments in one multipart
// request. The server merges; its answer replaces the local record wholesale.
func (s *Store) UpdateCustomerDetails(ctx context.Context, fields map[string]string, files ...api.File) (*models.Customer, error) {
	if err := s.requireKind(ctx, CustomerSession); err != nil {
		return nil, s.finish(err)
	}
	var c models.Customer
	if err := s.api.Multipart(ctx, http.MethodPut, "profile/customer", fields, files, &c); err != nil {
		return nil, s.finish(err)
	}
	if c.ID == "" {
		return nil, s.finish(apperr.NotFoundf("The server did not return the updated profile."))
	}
	if err := s.setCustomer(c); err != nil {
		return nil, s.finish(err)
	}
	return &c, s.finish(nil)
}

// UpdateSellerDetails is UpdateCustomerDetails for the seller profile.
func (s *Store) UpdateSellerDetails(ctx context.Context, fields map[string]string, files ...api.File) (*models.Seller, error) {
	if err := s.requireKind(ctx, SellerSession); err != nil {
		return nil, s.finish(err)
	}
	var sl models.Seller
	if err := s.api.Multipart(ctx, http.MethodPut, "profile/seller", fields, files, &sl); err != nil {
		return nil, s.finish(err)
	}
	if sl.ID == "" {
		return nil, s.finish(apperr.NotFoundf("The server did not return the updated profile."))
	}
	if err := s.setSeller(sl); err != nil {
		return nil, s.finish(err)
	}
	return &sl, s.finish(nil)
}

// setCustomer stores the profile unless the session changed kind while the request
// was in flight.
func (s *Store) setCustomer(c models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := kindMismatch(s.state.Kind, CustomerSession); err != nil {
		return err
	}
	s.state.Customer = &c
	s.state.SubjectID = c.ID
	return nil
}

func (s *Store) setSeller(sl models.Seller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := kindMismatch(s.state.Kind, SellerSession); err != nil {
		return err
	}
	s.state.Seller = &sl
	s.state.SubjectID = sl.ID
	return nil
}
