// Package session holds the authenticated user state for one request or
// one realtime connection.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/cache"
	"oustaa/pkg/logger"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var (
	ErrClosed       = errors.New("session closed")
	ErrNotReady     = errors.New("session not ready")
	ErrAlreadyWatch = errors.New("session already watching")
)

// Manager opens sessions. It holds no per-user state.
type Manager struct {
	tokens   *utils.TokenIssuer
	profiles interfaces.ProfileRepository
	broker   cache.Broker
	logger   *logger.Logger
}

func NewManager(tokens *utils.TokenIssuer, profiles interfaces.ProfileRepository, broker cache.Broker, log *logger.Logger) *Manager {
	return &Manager{
		tokens:   tokens,
		profiles: profiles,
		broker:   broker,
		logger:   log,
	}
}

// Open validates token, loads the profile and returns a ready session.
func (m *Manager) Open(ctx context.Context, token string) (*Session, error) {
	s := &Session{state: StateLoading, broker: m.broker, logger: m.logger}

	claims, err := m.tokens.ValidateAccessToken(token)
	if err != nil {
		s.state = StateClosed
		return nil, utils.UnauthorizedError(utils.ErrInvalidToken).Wrap(err)
	}
	s.claims = claims

	profile, err := m.profiles.GetByID(ctx, claims.UserID)
	if err != nil {
		s.state = StateClosed
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.UnauthorizedError(utils.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to load session profile: %w", err)
	}

	s.mu.Lock()
	s.profile = profile
	s.state = StateReady
	s.mu.Unlock()

	return s, nil
}

type Session struct {
	mu      sync.RWMutex
	state   State
	claims  *utils.JWTClaims
	profile *models.Profile
	sub     cache.Subscription
	done    chan struct{}

	broker cache.Broker
	logger *logger.Logger
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Claims() *utils.JWTClaims {
	return s.claims
}

// Profile returns a copy of the latest known profile.
func (s *Session) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *Session) UserType() models.UserType {
	return s.Profile().UserType
}

// Watch follows the profile change feed and keeps Profile current until
// ctx is cancelled or the session is closed.
func (s *Session) Watch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StateClosed:
		return ErrClosed
	case s.state != StateReady:
		return ErrNotReady
	case s.sub != nil:
		return ErrAlreadyWatch
	}

	sub, err := s.broker.Subscribe(ctx, utils.ChannelProfileUpdates+s.profile.ID.Hex())
	if err != nil {
		return fmt.Errorf("failed to subscribe to profile updates: %w", err)
	}
	s.sub = sub
	s.done = make(chan struct{})

	go s.follow(ctx, sub, s.done)
	return nil
}

func (s *Session) follow(ctx context.Context, sub cache.Subscription, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}

			var updated models.Profile
			if err := json.Unmarshal(msg.Payload, &updated); err != nil {
				s.logger.WithError(err).Warn("Ignoring malformed profile update")
				continue
			}
			s.apply(&updated)
		}
	}
}

// apply keeps fields that never travel over the wire and ignores updates
// older than what the session already holds.
func (s *Session) apply(updated *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady || s.profile == nil || updated.ID != s.profile.ID {
		return
	}
	if updated.Version < s.profile.Version {
		return
	}
	updated.PasswordHash = s.profile.PasswordHash
	s.profile = updated
}

// Close stops watching. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	if s.sub == nil {
		return nil
	}
	close(s.done)
	err := s.sub.Close()
	s.sub = nil
	return err
}
