package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const issuer = "pathwise"

// Profile is the identity a LocalProvider signs in as.
type Profile struct {
	Name     string
	Email    string
	PhotoURL string
}

// LocalOptions configures a LocalProvider.
type LocalOptions struct {
	Profile Profile

	// TokenPath is where the session token is kept between runs.
	TokenPath string

	// Secret signs session tokens. When empty a random secret is created
	// next to the token file.
	Secret string

	// TTL bounds how long a session survives without signing in again.
	TTL time.Duration
}

// Claims is the session token payload.
type Claims struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
	JoinedAt int64  `json:"joined_at"`
	jwt.RegisteredClaims
}

// LocalProvider signs the configured profile in with an HS256 session
// token stored on disk, so sign-in survives restarts.
type LocalProvider struct {
	opts   LocalOptions
	secret []byte
	log    *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	user *User
	subs listeners
}

// NewLocalProvider loads the signing secret and restores the session from
// the token file when it is still valid.
func NewLocalProvider(opts LocalOptions, log *zap.Logger) (*LocalProvider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(opts.Profile.Name) == "" {
		return nil, errors.New("auth: profile name is required")
	}
	if opts.TokenPath == "" {
		return nil, errors.New("auth: token path is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}

	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		var err error
		if secret, err = loadOrCreateSecret(opts.TokenPath + ".key"); err != nil {
			return nil, err
		}
	}

	p := &LocalProvider{
		opts:   opts,
		secret: secret,
		log:    log.With(zap.String("component", "auth")),
		now:    time.Now,
	}
	p.restore()
	return p, nil
}

// UserID derives the stable user id for an email (or name, if no email
// is set). The same profile maps to the same library on every device.
func UserID(p Profile) string {
	key := strings.ToLower(strings.TrimSpace(p.Email))
	if key == "" {
		key = "name:" + strings.TrimSpace(p.Name)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("pathwise:"+key)).String()
}

func (p *LocalProvider) restore() {
	raw, err := os.ReadFile(p.opts.TokenPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.log.Warn("read session token failed", zap.Error(err))
		}
		return
	}
	claims, err := p.parse(strings.TrimSpace(string(raw)))
	if err != nil {
		p.log.Info("discarding session token", zap.Error(err))
		_ = os.Remove(p.opts.TokenPath)
		return
	}
	if claims.Subject != UserID(p.opts.Profile) {
		p.log.Info("session token belongs to another profile")
		_ = os.Remove(p.opts.TokenPath)
		return
	}
	p.user = claims.user()
}

func (p *LocalProvider) SignIn(ctx context.Context) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := p.now()
	p.mu.Lock()
	joined := now
	if p.user != nil {
		joined = p.user.JoinedAt
	}
	p.mu.Unlock()

	claims := &Claims{
		Name:     p.opts.Profile.Name,
		Email:    p.opts.Profile.Email,
		PhotoURL: p.opts.Profile.PhotoURL,
		JoinedAt: joined.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   UserID(p.opts.Profile),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.opts.TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := writePrivate(p.opts.TokenPath, []byte(token)); err != nil {
		return nil, fmt.Errorf("save session token: %w", err)
	}

	u := claims.user()
	p.mu.Lock()
	p.user = u
	p.mu.Unlock()

	p.log.Info("signed in", zap.String("user_id", u.ID))
	p.subs.notify(u)
	return copyUser(u), nil
}

func (p *LocalProvider) SignOut(context.Context) error {
	if err := os.Remove(p.opts.TokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session token: %w", err)
	}

	p.mu.Lock()
	p.user = nil
	p.mu.Unlock()

	p.log.Info("signed out")
	p.subs.notify(nil)
	return nil
}

func (p *LocalProvider) Current() *User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyUser(p.user)
}

func (p *LocalProvider) OnAuthStateChanged(fn func(*User)) func() {
	unsub := p.subs.add(fn)
	fn(p.Current())
	return unsub
}

func (p *LocalProvider) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

func (c *Claims) user() *User {
	return &User{
		ID:       c.Subject,
		Name:     c.Name,
		Email:    c.Email,
		PhotoURL: c.PhotoURL,
		JoinedAt: time.UnixMilli(c.JoinedAt),
	}
}

// SignOutFile removes a stored session token without constructing a
// provider. Used by the logout command.
func SignOutFile(tokenPath string) error {
	if err := os.Remove(tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session token: %w", err)
	}
	return nil
}

func loadOrCreateSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		secret, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err == nil && len(secret) >= 32 {
			return secret, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	if err := writePrivate(path, []byte(hex.EncodeToString(secret))); err != nil {
		return nil, fmt.Errorf("save signing key: %w", err)
	}
	return secret, nil
}

func writePrivate(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
