// Package session implements password login and bearer-token sessions for the
// HTTP API. Tokens live in process memory; a restart logs everyone out, which
// is acceptable for a household-scale deployment.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

var ErrBadCredentials = errors.New("bad credentials")

// singleUserName is the account recorded when the app runs with one shared
// password instead of per-user accounts.
const singleUserName = "me"

const defaultTTL = 12 * time.Hour

// Authenticator checks login credentials against either a single shared
// password or a per-user credential map.
type Authenticator struct {
	password string
	users    map[string]string
}

// NewAuthenticator builds an authenticator. When users is non-empty it wins;
// otherwise the single shared password applies.
func NewAuthenticator(password string, users map[string]string) *Authenticator {
	return &Authenticator{password: password, users: users}
}

// Login validates credentials and returns the resolved user name.
func (a *Authenticator) Login(user, password string) (string, error) {
	if len(a.users) > 0 {
		want, ok := a.users[user]
		if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
			return "", ErrBadCredentials
		}
		return user, nil
	}
	if a.password == "" || subtle.ConstantTimeCompare([]byte(a.password), []byte(password)) != 1 {
		return "", ErrBadCredentials
	}
	return singleUserName, nil
}

type session struct {
	user    string
	expires time.Time
}

// Registry holds active session tokens.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]session
	ttl      time.Duration
	now      func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Registry{
		sessions: make(map[string]session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create mints a random token bound to the user.
func (r *Registry) Create(user string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[token] = session{user: user, expires: r.now().Add(r.ttl)}
	return token, nil
}

// Resolve returns the user behind a token, or false when the token is unknown
// or expired. Expired tokens are dropped on the spot.
func (r *Registry) Resolve(token string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return "", false
	}
	if r.now().After(s.expires) {
		delete(r.sessions, token)
		return "", false
	}
	return s.user, true
}

// Revoke removes a token. Revoking an unknown token is a no-op.
func (r *Registry) Revoke(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
}
