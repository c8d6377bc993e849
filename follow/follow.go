// Package follow holds the set of sellers the logged-in customer follows and the
// follower counts shown next to them.
package follow

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"kiosk/api"
	"kiosk/apperr"
	"kiosk/models"

	"go.uber.org/zap"
)

// Session is the part of session.Store the follow set needs.
type Session interface {
	Token(ctx context.Context) (string, error)
}

type Store struct {
	apperr.Status

	api    *api.Client
	auth   Session
	logger *zap.Logger

	mu        sync.RWMutex
	following map[string]bool
	counts    map[string]int
}

func New(client *api.Client, auth Session, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:       client,
		auth:      auth,
		logger:    logger,
		following: make(map[string]bool),
		counts:    make(map[string]int),
	}
}

// Fetch replaces the followed set with the server's.
func (s *Store) Fetch(ctx context.Context) error {
	s.Begin()
	if _, err := s.auth.Token(ctx); err != nil {
		return s.Finish(err)
	}
	var ids []string
	if err := s.api.Get(ctx, "follows", nil, &ids); err != nil {
		return s.Finish(err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	s.mu.Lock()
	s.following = set
	s.mu.Unlock()
	return s.Finish(nil)
}

func (s *Store) IsFollowing(sellerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.following[sellerID]
}

// Following lists followed seller ids, sorted.
func (s *Store) Following() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.following))
	for id := range s.following {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) FollowerCount(sellerID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[sellerID]
}

// SeedCount records the follower count a seller profile reported.
func (s *Store) SeedCount(sellerID string, n int) {
	s.mu.Lock()
	s.counts[sellerID] = n
	s.mu.Unlock()
}

// Toggle follows or unfollows sellerID and returns the new membership.
//
// The local membership and count change before the request is sent. If the request
// fails both are put back to what they were; if it succeeds they are replaced by what
// the server reports.
func (s *Store) Toggle(ctx context.Context, sellerID string) (bool, error) {
	s.Begin()
	if sellerID == "" {
		return false, s.Finish(apperr.Validation(map[string]string{"sellerId": "Seller id is required."}))
	}
	if _, err := s.auth.Token(ctx); err != nil {
		return false, s.Finish(err)
	}

	s.mu.Lock()
	wasFollowing, hadCount := s.following[sellerID], s.counts[sellerID]
	nowFollowing := !wasFollowing
	s.setLocked(sellerID, nowFollowing, tentativeCount(hadCount, nowFollowing))
	s.mu.Unlock()

	method := http.MethodPost
	if !nowFollowing {
		method = http.MethodDelete
	}
	var resp models.FollowState
	err := s.send(ctx, method, sellerID, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setLocked(sellerID, wasFollowing, hadCount)
		s.logger.Warn("follow toggle failed, reverted",
			zap.String("seller", sellerID), zap.Bool("following", wasFollowing), zap.Error(err))
		return wasFollowing, s.Finish(err)
	}
	following, count := nowFollowing, s.counts[sellerID]
	if resp.IsFollowing != nil {
		following = *resp.IsFollowing
	}
	if resp.Followers != nil {
		count = *resp.Followers
	}
	s.setLocked(sellerID, following, count)
	return following, s.Finish(nil)
}

func (s *Store) send(ctx context.Context, method, sellerID string, out *models.FollowState) error {
	path := "follows/" + url.PathEscape(sellerID)
	if method == http.MethodDelete {
		return s.api.Delete(ctx, path, out)
	}
	return s.api.Post(ctx, path, nil, out)
}

func (s *Store) setLocked(sellerID string, following bool, count int) {
	if following {
		s.following[sellerID] = true
	} else {
		delete(s.following, sellerID)
	}
	s.counts[sellerID] = count
}

func tentativeCount(n int, following bool) int {
	if following {
		return n + 1
	}
	if n > 0 {
		return n - 1
	}
	return 0
}

// Clear forgets the set and counts. Used on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	s.following = make(map[string]bool)
	s.counts = make(map[string]int)
	s.mu.Unlock()
}
