package auth

import "sync"

// ChangeFunc is called with the identity id whose session changed.
type ChangeFunc func(identityID string)

// Notifier fans identity-session changes (sign-out) out to subscribers such
// as the profile cache.
type Notifier struct {
	mu        sync.RWMutex
	listeners []ChangeFunc
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// OnChange registers fn. Listeners run synchronously in registration order.
func (n *Notifier) OnChange(fn ChangeFunc) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

func (n *Notifier) Notify(identityID string) {
	n.mu.RLock()
	listeners := append([]ChangeFunc(nil), n.listeners...)
	n.mu.RUnlock()
	for _, fn := range listeners {
		fn(identityID)
	}
}
