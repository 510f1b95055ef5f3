// Package auth identifies the learner. Providers report sign-in state
// changes to listeners so the session controller can reconcile.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotSignedIn is returned by operations that need a user.
var ErrNotSignedIn = errors.New("not signed in")

// User is an authenticated learner.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	PhotoURL string    `json:"photoURL,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Provider signs users in and out.
type Provider interface {
	SignIn(ctx context.Context) (*User, error)
	SignOut(ctx context.Context) error

	// Current returns the signed-in user or nil.
	Current() *User

	// OnAuthStateChanged registers fn and calls it once with the current
	// user, then again on every change. The returned func unregisters it.
	OnAuthStateChanged(fn func(*User)) func()
}

// Resumer is implemented by providers that can pick up a user restored
// from an earlier run without a fresh sign-in. Resume reports whether u
// is now the current user.
type Resumer interface {
	Resume(u *User) bool
}

// listeners is the subscription list shared by the providers.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(*User)
}

func (l *listeners) add(fn func(*User)) func() {
	l.mu.Lock()
	if l.fns == nil {
		l.fns = map[int]func(*User){}
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners) notify(u *User) {
	l.mu.Lock()
	fns := make([]func(*User), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(copyUser(u))
	}
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
