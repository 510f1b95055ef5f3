package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GuestName is the display name of the fabricated mock user.
const GuestName = "Guest Learner"

// GuestID is stable so a guest keeps the same library across restarts.
var GuestID = "guest-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("pathwise:guest")).String()

// MockProvider signs in a fabricated guest after a short delay. It is used
// when no profile is configured.
type MockProvider struct {
	Delay time.Duration

	mu   sync.Mutex
	user *User
	subs listeners
}

// NewMockProvider creates a MockProvider with the given sign-in delay.
func NewMockProvider(delay time.Duration) *MockProvider {
	return &MockProvider{Delay: delay}
}

func (m *MockProvider) SignIn(ctx context.Context) (*User, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	u := &User{
		ID:       GuestID,
		Name:     GuestName,
		JoinedAt: time.Now(),
	}
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()

	m.subs.notify(u)
	return copyUser(u), nil
}

// Resume signs the guest back in when u is the guest of an earlier run.
// Any other user still needs SignIn.
func (m *MockProvider) Resume(u *User) bool {
	if u == nil || u.ID != GuestID {
		return false
	}
	m.mu.Lock()
	if m.user != nil {
		m.mu.Unlock()
		return m.user.ID == u.ID
	}
	m.user = copyUser(u)
	m.mu.Unlock()

	m.subs.notify(u)
	return true
}

func (m *MockProvider) SignOut(context.Context) error {
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()

	m.subs.notify(nil)
	return nil
}

func (m *MockProvider) Current() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyUser(m.user)
}

func (m *MockProvider) OnAuthStateChanged(fn func(*User)) func() {
	unsub := m.subs.add(fn)
	fn(m.Current())
	return unsub
}
