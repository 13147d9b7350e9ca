package access

import (
	"context"
	"sync"
	"time"

	"github.com/healthhub/portal/internal/domain/identity"
)

// ActorResolver resolves an identity to a profile and its specialization.
type ActorResolver interface {
	ResolveActor(ctx context.Context, identityID string) (*identity.Actor, error)
}

// ChangeNotifier is told when a session ends so cached profile state for
// that identity can be dropped.
type ChangeNotifier interface {
	Notify(identityID string)
}

// Session holds the profile state of one caller. It starts Loading, moves
// to Ready or Failed on Init, and is cleared by Teardown.
type Session struct {
	identityID string
	resolver   ActorResolver
	notifier   ChangeNotifier
	timeout    time.Duration

	mu       sync.Mutex
	once     sync.Once
	state    ProfileState
	actor    *identity.Actor
	err      error
	tornDown bool
}

func NewSession(identityID string, resolver ActorResolver, notifier ChangeNotifier, timeout time.Duration) *Session {
	return &Session{
		identityID: identityID,
		resolver:   resolver,
		notifier:   notifier,
		timeout:    timeout,
		state:      ProfileLoading,
	}
}

func (s *Session) IdentityID() string { return s.identityID }

// Init resolves the profile once. Later calls return the first outcome.
// An anonymous session stays Loading; Decide never consults it.
func (s *Session) Init(ctx context.Context) error {
	if s.identityID == "" {
		return nil
	}
	s.once.Do(func() {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		actor, err := s.resolver.ResolveActor(ctx, s.identityID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.tornDown {
			return
		}
		if err != nil {
			s.state, s.err = ProfileFailed, err
			return
		}
		s.state, s.actor = ProfileReady, actor
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Status is the guard's view of this session.
func (s *Session) Status() ProfileStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := ProfileStatus{State: s.state, Err: s.err}
	if s.actor != nil {
		p := s.actor.Profile
		st.Profile = &p
	}
	return st
}

// Actor is nil until Init succeeds.
func (s *Session) Actor() *identity.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actor
}

// Decide applies the guard to this session.
func (s *Session) Decide(req *Requirement) Decision {
	s.mu.Lock()
	id := s.identityID
	if s.tornDown {
		id = ""
	}
	s.mu.Unlock()
	return Decide(id, s.Status(), req)
}

// Teardown ends the session. The session then behaves as anonymous and the
// notifier is told exactly once.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return
	}
	s.tornDown = true
	s.actor, s.err, s.state = nil, nil, ProfileLoading
	id := s.identityID
	s.mu.Unlock()

	if s.notifier != nil && id != "" {
		s.notifier.Notify(id)
	}
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
