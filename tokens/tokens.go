// Package tokens reads bearer token payloads without verifying their signature.
// The server checks the signature on every authenticated call; the client only needs
// the role, the subject and the expiry.
package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kiosk/globals"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidFormat = errors.New("invalid token format")
	ErrExpired       = errors.New("token expired")
)

// Roles accepts both "role": "seller" and "role": ["seller"].
type Roles []globals.Role

func (r *Roles) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*r = nil
		} else {
			*r = Roles{globals.Role(one)}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("role claim: %w", err)
	}
	out := make(Roles, 0, len(many))
	for _, m := range many {
		out = append(out, globals.Role(m))
	}
	*r = out
	return nil
}

// JWT claims
type Claims struct {
	Role   Roles  `json:"role"`
	UserID string `json:"userId,omitempty"`
	UID    string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// PrimaryRole is the first role claim, or "" when there is none.
func (c *Claims) PrimaryRole() globals.Role {
	if len(c.Role) == 0 {
		return ""
	}
	return c.Role[0]
}

// SubjectID resolves the subject from sub, then userId, then id.
func (c *Claims) SubjectID() string {
	switch {
	case c.Subject != "":
		return c.Subject
	case c.UserID != "":
		return c.UserID
	default:
		return c.UID
	}
}

// Expiry returns the exp claim and whether it was present.
func (c *Claims) Expiry() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

var parser = jwt.NewParser()

// Decode splits the token, decodes the payload segment and parses it as JSON claims.
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidFormat
	}
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return claims, nil
}

// IsExpired is true iff now >= expiry. Tokens without an exp claim never expire here.
func IsExpired(c *Claims, now time.Time) bool {
	exp, ok := c.Expiry()
	if !ok {
		return false
	}
	return !now.Before(exp)
}

// Validate decodes token and rejects it when expired.
func Validate(token string, now time.Time) (*Claims, error) {
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}
	if IsExpired(claims, now) {
		return claims, ErrExpired
	}
	return claims, nil
}
