// Package auth holds the identity provider and the auth context the HTTP
// modules use to gate routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/common"
	"inkwell/metrics"
	"inkwell/models"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", common.ErrUnauthenticated)
	ErrInvalidToken       = fmt.Errorf("invalid or expired session: %w", common.ErrUnauthenticated)
	ErrEmailInUse         = common.Invalid("email", "email already in use")
)

// Session is a signed-in identity and the token that proves it.
type Session struct {
	ID        string          `json:"-"`
	Identity  models.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// AuthState is published on every sign-in and sign-out.
type AuthState struct {
	Identity  models.Identity
	SessionID string
	SignedIn  bool
	ExpiresAt time.Time
}

// Provider is the identity boundary.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(token string) (*Session, error)
	OnAuthStateChanged(fn func(AuthState)) (unsubscribe func())
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LocalProvider keeps users in the store, hashes passwords with bcrypt and
// issues HS256 session tokens.
type LocalProvider struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	log    zerolog.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(AuthState)
}

func NewLocalProvider(db *gorm.DB, secret string, ttl time.Duration) *LocalProvider {
	return &LocalProvider{
		db:        db,
		secret:    []byte(secret),
		ttl:       ttl,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
		log:       common.Logger("auth"),
		listeners: make(map[int]func(AuthState)),
	}
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return common.Invalid("email", "email and password are required")
	}
	if !strings.Contains(email, "@") {
		return common.Invalid("email", "invalid email address")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (session *Session, err error) {
	defer func() { metrics.ObserveAuth("signup", err) }()

	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, common.Invalid("password", "password must be at least %d characters", MinPasswordLength)
	}
	email = normalizeEmail(email)

	var existing models.User
	err = p.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailInUse
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.StoreError("sign up", "user", err)
	}

	hash, err := hashPassword(password, p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.db.WithContext(ctx).Create(&user).Error; err != nil {
		// a concurrent signup took the address after the check above
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailInUse
		}
		return nil, common.StoreError("sign up", "user", err)
	}

	p.log.Info().Str(common.USER, user.ID).Msg("user signed up")
	return p.issue(models.Identity{ID: user.ID, Email: user.Email})
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (session *Session, err error) {
	defer func() { metrics.ObserveAuth("signin", err) }()

	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	var user models.User
	if err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, common.StoreError("sign in", "user", err)
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return p.issue(models.Identity{ID: user.ID, Email: user.Email})
}

func (p *LocalProvider) SignOut(ctx context.Context, token string) (err error) {
	defer func() { metrics.ObserveAuth("signout", err) }()

	session, err := p.Verify(token)
	if err != nil {
		return err
	}

	p.publish(AuthState{
		Identity:  session.Identity,
		SessionID: session.ID,
		SignedIn:  false,
		ExpiresAt: session.ExpiresAt,
	})
	p.log.Info().Str(common.USER, session.Identity.ID).Msg("user signed out")
	return nil
}

func (p *LocalProvider) issue(identity models.Identity) (*Session, error) {
	now := p.now()
	session := &Session{
		ID:        uuid.NewString(),
		Identity:  identity,
		ExpiresAt: now.Add(p.ttl).UTC(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	session.Token = signed

	p.publish(AuthState{
		Identity:  identity,
		SessionID: session.ID,
		SignedIn:  true,
		ExpiresAt: session.ExpiresAt,
	})
	return session, nil
}

// Verify checks the token signature and expiry. Revocation is tracked by
// the auth Context from the state stream.
func (p *LocalProvider) Verify(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || c.Subject == "" || c.ID == "" {
		return nil, ErrInvalidToken
	}

	session := &Session{
		ID:       c.ID,
		Identity: models.Identity{ID: c.Subject, Email: c.Email},
		Token:    token,
	}
	if c.ExpiresAt != nil {
		session.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return session, nil
}

// OnAuthStateChanged registers fn for every later state change. Listeners
// run synchronously on the goroutine that caused the change.
func (p *LocalProvider) OnAuthStateChanged(fn func(AuthState)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *LocalProvider) publish(state AuthState) {
	p.mu.Lock()
	listeners := make([]func(AuthState), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func hashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
