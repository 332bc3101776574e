package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"inkwell/common"
	"inkwell/models"
)

const (
	sessionTokenKey = "token"
	userContextKey  = "user"
)

// Result is the outcome of a login, signup or logout.
type Result struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	User    *models.Identity `json:"user,omitempty"`

	err error
}

// Err returns the underlying error of a failed Result.
func (r Result) Err() error {
	return r.err
}

func failed(err error) Result {
	return Result{Success: false, Error: err.Error(), err: err}
}

// Context is built once at startup and shared by every module. It listens
// to the provider's state stream for its whole lifetime so a sign-out is
// seen by all requests at once.
type Context struct {
	provider    Provider
	unsubscribe func()
	now         func() time.Time
	log         zerolog.Logger

	mu      sync.RWMutex
	revoked map[string]time.Time // session ID -> token expiry
	active  map[string]int       // user ID -> open sessions
}

func NewContext(provider Provider) *Context {
	a := &Context{
		provider: provider,
		now:      time.Now,
		log:      common.Logger("auth"),
		revoked:  make(map[string]time.Time),
		active:   make(map[string]int),
	}
	a.unsubscribe = provider.OnAuthStateChanged(a.onStateChanged)
	return a
}

func (a *Context) onStateChanged(state AuthState) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if state.SignedIn {
		a.active[state.Identity.ID]++
	} else {
		a.revoked[state.SessionID] = state.ExpiresAt
		if a.active[state.Identity.ID] > 1 {
			a.active[state.Identity.ID]--
		} else {
			delete(a.active, state.Identity.ID)
		}
		a.pruneLocked()
	}

	a.log.Debug().
		Str(common.USER, state.Identity.ID).
		Bool("signed_in", state.SignedIn).
		Msg("auth state changed")
}

// pruneLocked drops revocations whose tokens have expired anyway.
func (a *Context) pruneLocked() {
	now := a.now()
	for id, exp := range a.revoked {
		if !exp.IsZero() && now.After(exp) {
			delete(a.revoked, id)
		}
	}
}

func (a *Context) isRevoked(sessionID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.revoked[sessionID]
	return ok
}

// SignedInUsers reports how many distinct users signed in through this
// process still hold a session.
func (a *Context) SignedInUsers() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.active)
}

// Close stops listening to the provider.
func (a *Context) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a *Context) startSession(c *gin.Context, s *Session) error {
	session := sessions.Default(c)
	session.Set(sessionTokenKey, s.Token)
	if err := session.Save(); err != nil {
		return err
	}
	identity := s.Identity
	c.Set(userContextKey, &identity)
	return nil
}

func (a *Context) Login(c *gin.Context, email, password string) Result {
	s, err := a.provider.SignIn(c.Request.Context(), email, password)
	if err != nil {
		return failed(err)
	}
	if err := a.startSession(c, s); err != nil {
		return failed(err)
	}
	return Result{Success: true, User: &s.Identity}
}

func (a *Context) Signup(c *gin.Context, email, password string) Result {
	s, err := a.provider.SignUp(c.Request.Context(), email, password)
	if err != nil {
		return failed(err)
	}
	if err := a.startSession(c, s); err != nil {
		return failed(err)
	}
	return Result{Success: true, User: &s.Identity}
}

func (a *Context) Logout(c *gin.Context) Result {
	session := sessions.Default(c)
	token, _ := session.Get(sessionTokenKey).(string)

	session.Clear()
	if err := session.Save(); err != nil {
		return failed(err)
	}
	c.Set(userContextKey, (*models.Identity)(nil))

	if token == "" {
		return Result{Success: true}
	}
	if err := a.provider.SignOut(c.Request.Context(), token); err != nil {
		// The cookie is already gone; an expired token has nothing to revoke.
		a.log.Debug().Err(err).Msg("sign out with stale token")
	}
	return Result{Success: true}
}

// CurrentUser returns the signed-in identity or nil.
func (a *Context) CurrentUser(c *gin.Context) *models.Identity {
	if v, ok := c.Get(userContextKey); ok {
		identity, _ := v.(*models.Identity)
		return identity
	}

	var identity *models.Identity
	token, _ := sessions.Default(c).Get(sessionTokenKey).(string)
	if token != "" {
		if s, err := a.provider.Verify(token); err == nil && !a.isRevoked(s.ID) {
			identity = &s.Identity
		}
	}
	c.Set(userContextKey, identity)
	return identity
}

// RequireAuth redirects anonymous requests to the login page.
func (a *Context) RequireAuth(c *gin.Context) {
	if a.CurrentUser(c) == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

// PublicOnly keeps signed-in users away from login and signup.
func (a *Context) PublicOnly(c *gin.Context) {
	if a.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/admin")
		c.Abort()
		return
	}
	c.Next()
}

// MustUser returns the identity set by RequireAuth.
func (a *Context) MustUser(c *gin.Context) models.Identity {
	if u := a.CurrentUser(c); u != nil {
		return *u
	}
	return models.Identity{}
}
