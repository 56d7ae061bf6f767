// Package session carries the participant's gate between requests in a
// signed cookie, so the server keeps no per-visitor state.
package session

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/gate"
)

const (
	CookieName = "certify_flow"
	DefaultTTL = 2 * time.Hour
	issuer     = "certify"
)

// flowClaims is the token payload: the gate state and the verified email
type flowClaims struct {
	State      gate.State `json:"st"`
	Identifier string     `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies gate cookies
type Codec struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCodec creates a codec. An empty secret gets a random one, which means
// sessions do not survive a restart.
func NewCodec(secret string, ttl time.Duration) *Codec {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		rand.Read(key)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: key, ttl: ttl, now: time.Now}
}

// WithSecureCookies marks cookies Secure, for deployments behind HTTPS
func (c *Codec) WithSecureCookies(secure bool) *Codec {
	c.secure = secure
	return c
}

// Encode signs the gate into a token
func (c *Codec) Encode(g gate.Gate) (string, error) {
	now := c.now()
	claims := flowClaims{
		State:      g.State,
		Identifier: g.Identifier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return token, nil
}

// Decode verifies a token and returns the gate it carries
func (c *Codec) Decode(token string) (gate.Gate, error) {
	claims := &flowClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return gate.New(), errors.Wrap(err, errors.ErrInvalidInput, "invalid session")
	}
	if !claims.State.Valid() {
		return gate.New(), errors.InvalidInputf("invalid session state %q", claims.State)
	}
	if claims.State != gate.Unverified && claims.Identifier == "" {
		return gate.New(), errors.InvalidInput("session has no participant")
	}
	return gate.Gate{State: claims.State, Identifier: claims.Identifier}, nil
}

// Load reads the gate from the request cookie. A missing, expired or
// tampered cookie yields a fresh gate.
func (c *Codec) Load(r *http.Request) gate.Gate {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return gate.New()
	}
	g, err := c.Decode(cookie.Value)
	if err != nil {
		return gate.New()
	}
	return g
}

// Save writes the gate cookie, or clears it for a fresh gate
func (c *Codec) Save(w http.ResponseWriter, g gate.Gate) error {
	if g.State == gate.Unverified && g.Identifier == "" {
		c.Clear(w)
		return nil
	}
	token, err := c.Encode(g)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.ttl.Seconds()),
	})
	return nil
}

// Clear removes the gate cookie
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		MaxAge:   -1,
	})
}
