package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/taxbase/metricshub/internal/errors"
	"github.com/taxbase/metricshub/session/storage"
)

// Durable storage keys. They match the keys the web clients use in
// localStorage so a session written by one client is readable by another.
const (
	keyToken     = "taxbase_token"
	keyUser      = "taxbase_user"
	keyHubOrigin = "taxbase_hub_origin"
)

// Authenticator performs the credential exchange with the backend.
//
// Implementations must return apperrors.ErrInvalidCredentials (wrapped or
// not) when the backend rejects the credentials and apperrors.ErrTransport
// when it cannot be reached.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (token string, role string, err error)
}

// Deps holds the Store's dependencies.
type Deps struct {
	Storage storage.Storage // Durable client storage (required)
	Auth    Authenticator   // Credential exchange (optional, Login fails without it)
	HubURL  string          // Where external-origin sessions return to on logout
}

// Store owns the session lifecycle. All state transitions are serialized by
// an internal mutex; reads are synchronous and never touch storage except
// Restore.
type Store struct {
	deps Deps
	log  zerolog.Logger

	mu            sync.Mutex
	current       *Session
	adopted       bool // an externally issued token was adopted; restore must not displace it
	expireTripped bool // forced logout already fired; reset by the next login/adoption
	subscribers   []func(Session, bool)
}

// StoreOption modifies a Store instance.
type StoreOption func(*Store)

// WithLogger sets the logger used for non-fatal storage failures.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore creates a session Store.
func NewStore(deps Deps, options ...StoreOption) (*Store, error) {
	if deps.Storage == nil {
		return nil, errors.New("[NewStore] Storage is required")
	}

	store := &Store{
		deps: deps,
		log:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Restore loads a previously persisted session from durable storage.
//
// A session is restored only when both token and user are present and the
// user parses; anything else is treated as logged out and the partial state
// is cleared. Restore never fails: a broken store degrades to logged out.
// If a token was already adopted via SSO, the adopted session wins and the
// stored state is left alone.
func (s *Store) Restore() (Session, bool) {
	s.mu.Lock()

	if s.adopted && s.current != nil {
		restored := *s.current
		s.mu.Unlock()
		return restored, true
	}

	tokenBytes, tokenErr := s.deps.Storage.Get(keyToken)
	userBytes, userErr := s.deps.Storage.Get(keyUser)
	originBytes, _ := s.deps.Storage.Get(keyHubOrigin)

	var user User
	valid := tokenErr == nil && userErr == nil &&
		len(tokenBytes) > 0 && len(userBytes) > 0 &&
		json.Unmarshal(userBytes, &user) == nil && user.Username != ""

	if !valid {
		// Self-heal: a token without a user (or vice versa) is useless.
		if err := s.deps.Storage.Delete(keyToken, keyUser, keyHubOrigin); err != nil {
			s.log.Warn().Err(err).Msg("failed clearing partial session state")
		}
		s.current = nil
		s.mu.Unlock()
		return Session{}, false
	}

	origin := OriginInternal
	if len(originBytes) > 0 {
		origin = OriginExternal
	}

	restored := Session{Token: string(tokenBytes), User: user, Origin: origin}
	s.current = &restored
	s.mu.Unlock()

	s.notify(restored, true)
	return restored, true
}

// Login exchanges credentials with the backend and establishes an
// internal-origin session.
//
// Invalid credentials and transport failures are surfaced to the caller
// without mutating any existing session state. Token and user are persisted
// in a single transaction.
func (s *Store) Login(ctx context.Context, username, password string) (Session, error) {
	if s.deps.Auth == nil {
		return Session{}, errors.New("[Store.Login] no authenticator configured")
	}

	token, role, err := s.deps.Auth.Authenticate(ctx, username, password)
	if err != nil {
		return Session{}, errors.Wrap(err, "[Store.Login] Authenticate")
	}

	user := User{Username: username, Role: mapBackendRole(role)}
	if err := s.persist(token, user, OriginInternal); err != nil {
		return Session{}, errors.Wrap(err, "[Store.Login] persist")
	}

	established := Session{Token: token, User: user, Origin: OriginInternal}
	s.mu.Lock()
	s.current = &established
	s.adopted = false
	s.expireTripped = false
	s.mu.Unlock()

	s.notify(established, true)
	return established, nil
}

// AdoptExternalToken establishes a session from a hub-issued bearer token
// (SSO handoff). The operation is idempotent and takes precedence over a
// concurrent Restore. A structurally invalid token yields
// apperrors.ErrMalformedToken and leaves all state untouched.
func (s *Store) AdoptExternalToken(rawToken string) (Session, error) {
	user, err := DecodeExternalToken(rawToken)
	if err != nil {
		return Session{}, errors.Wrap(err, "[Store.AdoptExternalToken] DecodeExternalToken")
	}

	if err := s.persist(rawToken, user, OriginExternal); err != nil {
		return Session{}, errors.Wrap(err, "[Store.AdoptExternalToken] persist")
	}

	adopted := Session{Token: rawToken, User: user, Origin: OriginExternal}
	s.mu.Lock()
	s.current = &adopted
	s.adopted = true
	s.expireTripped = false
	s.mu.Unlock()

	s.notify(adopted, true)
	return adopted, nil
}

// Logout destroys the session atomically and reports where the user should
// land: back at the hub for externally adopted sessions, otherwise the
// interactive login screen.
func (s *Store) Logout() RedirectTarget {
	s.mu.Lock()

	// Read the origin before clearing anything.
	wasExternal := false
	if s.current != nil {
		wasExternal = s.current.Origin == OriginExternal
	} else if originBytes, err := s.deps.Storage.Get(keyHubOrigin); err == nil && len(originBytes) > 0 {
		wasExternal = true
	}

	s.clearLocked()
	s.mu.Unlock()

	s.notify(Session{}, false)

	if wasExternal {
		return RedirectTarget{Kind: RedirectExternalHub, HubURL: s.deps.HubURL}
	}
	return RedirectTarget{Kind: RedirectInternalLogin}
}

// ForceExpire runs the destruction sequence after the backend rejected the
// token. The redirect is always the internal login screen: an expired token
// is never bounced back to the hub. Repeated calls are a no-op until the
// guard is reset by a successful Login or AdoptExternalToken, so several
// in-flight 401s produce a single logout.
func (s *Store) ForceExpire() RedirectTarget {
	target := RedirectTarget{Kind: RedirectInternalLogin}

	s.mu.Lock()
	if s.expireTripped {
		s.mu.Unlock()
		return target
	}
	s.expireTripped = true
	s.clearLocked()
	s.mu.Unlock()

	s.notify(Session{}, false)
	return target
}

// Current returns the in-memory session without touching storage.
func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Token implements the bearer-token source consumed by the API client.
// It returns "" when logged out.
func (s *Store) Token() string {
	current, ok := s.Current()
	if !ok {
		return ""
	}
	return current.Token
}

// SessionExpired implements the API client's expiry hook.
func (s *Store) SessionExpired() {
	s.ForceExpire()
}

// Subscribe registers fn to be called after every session transition with
// the new session and whether the user is logged in.
func (s *Store) Subscribe(fn func(Session, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) persist(token string, user User, origin Origin) error {
	userBytes, err := json.Marshal(user)
	if err != nil {
		return apperrors.Wrapf(err, "marshal user")
	}

	values := map[string][]byte{
		keyToken: []byte(token),
		keyUser:  userBytes,
	}
	if origin == OriginExternal {
		values[keyHubOrigin] = []byte("true")
		return s.deps.Storage.SetMulti(values)
	}

	// Internal login: the origin flag from any prior external session must
	// not survive.
	if err := s.deps.Storage.Delete(keyHubOrigin); err != nil {
		return apperrors.Wrapf(err, "clear origin flag")
	}
	return s.deps.Storage.SetMulti(values)
}

func (s *Store) clearLocked() {
	if err := s.deps.Storage.Delete(keyToken, keyUser, keyHubOrigin); err != nil {
		s.log.Warn().Err(err).Msg("failed clearing stored session")
	}
	s.current = nil
	s.adopted = false
}

func (s *Store) notify(session Session, loggedIn bool) {
	s.mu.Lock()
	subscribers := make([]func(Session, bool), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(session, loggedIn)
	}
}

func mapBackendRole(role string) Role {
	if role == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleViewer
}
