// Package auth is the bundled identity provider: cookie sessions for
// browsers, bearer tokens for API clients, and middleware that puts the
// verified caller into the request context.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "taskhub-session"

	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userEmail = "user_email"
)

// Authenticator produces the verified caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*models.Identity, bool)
}

// IdentityFetcher confirms that a user still exists and returns its current
// identity. It returns nil when the user is gone or the lookup fails.
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, userID string) *models.Identity
}

// SessionManager owns the cookie store and, optionally, a token issuer and
// an identity fetcher.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	tokens  *Tokens
	fetcher IdentityFetcher
	logger  *zap.Logger
}

// NewSessionManager creates the cookie store. The session key must not be
// empty; use DevSessionKey to obtain a throwaway key for local runs.
//
// In production (secure=true) cookies are Secure + SameSite=None. Over
// http://localhost use secure=false so browsers accept them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// DevSessionKey returns a random 32-byte key encoded for use as a session
// key. Sessions signed with it do not survive a restart.
func DevSessionKey() string {
	return fmt.Sprintf("%x", securecookie.GenerateRandomKey(32))
}

// SetTokens enables bearer token authentication.
func (sm *SessionManager) SetTokens(t *Tokens) { sm.tokens = t }

// Tokens returns the configured token issuer, or nil.
func (sm *SessionManager) Tokens() *Tokens { return sm.tokens }

// SetIdentityFetcher makes Authenticate confirm every caller against the
// user store, so deleted accounts stop authenticating.
func (sm *SessionManager) SetIdentityFetcher(f IdentityFetcher) { sm.fetcher = f }

/*─────────────────────────────────────────────────────────────────────────────*
| Sign in / out                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SignIn writes id into the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, id models.Identity) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = id.ID.Hex()
	sess.Values[userName] = id.Name
	sess.Values[userEmail] = id.Email
	return sess.Save(r, w)
}

// SignOut clears the session and expires the cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Authentication                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// Authenticate resolves the caller from a bearer token or, failing that,
// the session cookie. An Authorization header that is present but invalid
// does not fall back to the cookie.
func (sm *SessionManager) Authenticate(r *http.Request) (*models.Identity, bool) {
	var id *models.Identity
	if raw, ok := bearerToken(r); ok {
		if sm.tokens == nil {
			return nil, false
		}
		claims, err := sm.tokens.Parse(raw)
		if err != nil {
			sm.logger.Debug("bearer token rejected", zap.Error(err))
			return nil, false
		}
		id = claims.Identity()
	} else {
		id = sm.fromSession(r)
	}
	if id == nil {
		return nil, false
	}

	if sm.fetcher != nil {
		fresh := sm.fetcher.FetchIdentity(r.Context(), id.ID.Hex())
		if fresh == nil {
			return nil, false
		}
		id = fresh
	}
	return id, true
}

func (sm *SessionManager) fromSession(r *http.Request) *models.Identity {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return nil
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(getString(sess, userIDKey))
	if err != nil {
		return nil
	}
	return &models.Identity{
		ID:    oid,
		Name:  getString(sess, userName),
		Email: getString(sess, userEmail),
	}
}

// LoadIdentity injects the caller into the context when authenticated.
func (sm *SessionManager) LoadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := sm.Authenticate(r); ok {
			r = WithIdentity(r, id)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without an identity in context (set by
// LoadIdentity) with a 401 JSON body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentIdentity(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized."})
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context helpers                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentIdentityKey ctxKey = "currentIdentity"

// CurrentIdentity returns the caller and a "found?" flag.
func CurrentIdentity(r *http.Request) (*models.Identity, bool) {
	id, ok := r.Context().Value(currentIdentityKey).(*models.Identity)
	return id, ok && id != nil
}

// WithIdentity returns r with id stored as the caller.
func WithIdentity(r *http.Request, id *models.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentIdentityKey, id))
}

// Caller is CurrentIdentity for handlers behind RequireSignedIn. A missing
// identity yields an Unauthorized error.
func Caller(r *http.Request) (models.Identity, error) {
	id, ok := CurrentIdentity(r)
	if !ok {
		return models.Identity{}, apperr.New(apperr.KindUnauthorized, "Unauthorized.")
	}
	return *id, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", true
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
