package huddle

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Transport is the single bidirectional connection a Session drives.
// *Client implements it; tests substitute a fake.
type Transport interface {
	Connect(ctx context.Context, id Identity) error
	Identify(ctx context.Context, id Identity) error
	Join(ctx context.Context, channel string) error
	CreateChannel(ctx context.Context, name, correlationID string) error
	SendMessage(ctx context.Context, msg SendMessagePayload) error
	Close() error
	Dispatcher() *Dispatcher
}

// Session reconciles server-pushed events against locally held UI
// state: channel membership, the active channel's message log, per-user
// presence, and the session identity. A rename arriving from the server
// or from the local profile-edit flow converges to one canonical
// username across all of them.
type Session struct {
	transport Transport
	creds     CredentialStore
	lookup    IdentityLookup
	logger    Logger

	mu       sync.Mutex
	ctx      context.Context
	identity Identity
	channels *channelSet
	messages *messageLog
	presence *presenceMap
	ready    bool
	evicted  bool

	unsubscribe func()
	onChange    func()
	onMessage   func(Message)
	onEvicted   func(reason string)
	onError     func(error)
}

// NewSession wires a session core to its transport, credential store,
// and identity lookup.
func NewSession(transport Transport, creds CredentialStore, lookup IdentityLookup) *Session {
	return &Session{
		transport: transport,
		creds:     creds,
		lookup:    lookup,
		logger:    noopLogger{},
		ctx:       context.Background(),
		channels:  newChannelSet(),
		messages:  newMessageLog(),
		presence:  newPresenceMap(),
	}
}

// SetLogger overrides logger (optional).
func (s *Session) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.logger = l
}

// OnChange registers a callback fired after any state mutation so the
// rendering layer can repaint.
func (s *Session) OnChange(fn func()) { s.onChange = fn }

// OnMessage registers a callback fired for every message kept in the
// active channel's log.
func (s *Session) OnMessage(fn func(Message)) { s.onMessage = fn }

// OnEvicted registers a callback fired exactly once when the server
// force-logs-out this identity.
func (s *Session) OnEvicted(fn func(reason string)) { s.onEvicted = fn }

// OnError registers a callback for transport and protocol errors.
func (s *Session) OnError(fn func(error)) { s.onError = fn }

// Start seeds the identity from the credential store, registers all
// event handlers, and opens the transport. Ready flips to true only
// after both the identity lookup and the transport identify succeed.
func (s *Session) Start(ctx context.Context) error {
	token, ok := s.creds.Token()
	if !ok {
		s.creds.Clear()
		s.logger.Warn("no credential present, not connecting", nil)
		return NewError(ErrorAuthFailure, "no credential present")
	}
	if _, err := PeekToken(token); err != nil {
		s.creds.Clear()
		return err
	}

	id, err := s.lookup.Me(ctx, token)
	if err != nil {
		s.creds.Clear()
		return WrapError(ErrorIdentityLookup, "identity lookup failed", err)
	}

	s.mu.Lock()
	s.ctx = ctx
	s.identity = id
	s.evicted = false
	s.mu.Unlock()
	s.creds.SetProfile(id) // cache the full profile for the edit flow

	d := s.transport.Dispatcher()
	d.SetOnChannelList(s.handleChannelList)
	d.SetOnChannelMessages(s.handleChannelMessages)
	d.SetOnReceiveMessage(s.handleReceiveMessage)
	d.SetOnUserStatusList(s.handleUserStatusList)
	d.SetOnUserStatusUpdate(s.handleUserStatusUpdate)
	d.SetOnUsernameUpdated(s.handleUsernameUpdated)
	d.SetOnForceLogout(s.handleForceLogout)
	d.SetOnError(s.handleError)

	if err := s.transport.Connect(ctx, id); err != nil {
		return err
	}

	s.unsubscribe = s.creds.Subscribe(s.handleProfileChange)
	// A profile edit may have landed while we were connecting.
	if p, ok := s.creds.Profile(); ok {
		s.handleProfileChange(p)
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	s.notifyChange()
	return nil
}

// Stop releases the profile subscription and closes the transport.
// Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.ready = false
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	_ = s.transport.Close()
}

// JoinChannel switches the active channel: clears the message log and
// requests a join. A no-op when name is already active.
func (s *Session) JoinChannel(ctx context.Context, name string) error {
	s.mu.Lock()
	if !s.channels.selectChannel(name) {
		s.mu.Unlock()
		return nil
	}
	s.messages.clear()
	s.mu.Unlock()
	s.notifyChange()
	return s.transport.Join(ctx, name)
}

// CreateChannel optimistically adds the channel, makes it active with
// an empty log, and requests creation plus a join. A server rejection
// carrying the correlation id rolls the optimistic entry back.
func (s *Session) CreateChannel(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewError(ErrorBadRequest, "empty channel name")
	}
	correlationID := uuid.NewString()
	s.mu.Lock()
	s.channels.add(name, correlationID)
	s.messages.clear()
	s.mu.Unlock()
	s.notifyChange()

	if err := s.transport.CreateChannel(ctx, name, correlationID); err != nil {
		return err
	}
	return s.transport.Join(ctx, name)
}

// SendMessage publishes text to the active channel. The author is read
// from the credential store at send time so a rename that just landed
// cannot produce a stale author.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	id, ok := s.creds.Profile()
	if !ok {
		s.mu.Lock()
		id = s.identity
		s.mu.Unlock()
	}
	s.mu.Lock()
	channel := s.channels.activeName()
	s.mu.Unlock()
	if channel == "" {
		return NewError(ErrorBadRequest, "no active channel")
	}
	return s.transport.SendMessage(ctx, SendMessagePayload{
		Channel: channel,
		User:    id.Username,
		Avatar:  id.Avatar,
		Text:    text,
	})
}

// Messages returns the rendered log for the active channel.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.all()
}

// Presence returns a copy of the presence map.
func (s *Session) Presence() map[string]PresenceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.all()
}

// PresenceOf looks up one user's presence.
func (s *Session) PresenceOf(username string) (PresenceEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.get(username)
}

// Identity returns the current session identity.
func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Channels returns the channel list in display order.
func (s *Session) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels.list()
}

// ActiveChannel returns the currently joined channel, or "".
func (s *Session) ActiveChannel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels.activeName()
}

// Ready reports whether identity lookup and transport identify have
// both succeeded.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Session) handleChannelList(names []string) {
	s.mu.Lock()
	autoJoin := s.channels.applySnapshot(names)
	if autoJoin != "" {
		s.messages.clear()
	}
	s.mu.Unlock()

	if autoJoin != "" {
		if err := s.transport.Join(s.ctx, autoJoin); err != nil {
			s.logger.Warn("auto-join failed", map[string]any{"channel": autoJoin, "error": err.Error()})
		}
	}
	s.notifyChange()
}

func (s *Session) handleChannelMessages(msgs []Message) {
	s.mu.Lock()
	s.messages.replaceAll(msgs)
	s.mu.Unlock()
	s.notifyChange()
}

func (s *Session) handleReceiveMessage(m Message) {
	s.mu.Lock()
	kept := s.messages.append(m, s.channels.activeName())
	s.mu.Unlock()
	if !kept {
		s.logger.Debug("message dropped", map[string]any{"channel": m.Channel, "id": m.ID})
		return
	}
	if s.onMessage != nil {
		s.onMessage(m)
	}
	s.notifyChange()
}

func (s *Session) handleUserStatusList(statuses []UserStatus) {
	s.mu.Lock()
	s.presence.applySnapshot(statuses)
	s.mu.Unlock()
	s.notifyChange()
}

func (s *Session) handleUserStatusUpdate(status UserStatus) {
	s.mu.Lock()
	s.presence.upsert(status)
	s.mu.Unlock()
	s.notifyChange()
}

func (s *Session) handleUsernameUpdated(ev RenameEvent) {
	s.applyRename(ev.OldUsername, ev.NewUsername, "", true)
}

// handleProfileChange reconciles an out-of-band profile write (the
// HTTP edit flow finishing) against the in-memory identity.
func (s *Session) handleProfileChange(p Identity) {
	if p.Username == "" {
		return
	}
	s.mu.Lock()
	cur := s.identity
	s.mu.Unlock()

	if p.Username != cur.Username {
		s.applyRename(cur.Username, p.Username, p.Avatar, false)
		return
	}
	if p.Avatar != "" && p.Avatar != cur.Avatar {
		s.mu.Lock()
		s.identity.Avatar = p.Avatar
		s.messages.setAvatar(cur.Username, p.Avatar)
		s.mu.Unlock()
		s.notifyChange()
	}
}

// applyRename rewrites every in-memory reference to oldName so exactly
// one canonical username survives: message authors, the presence key,
// the session identity, the persisted profile, and the transport's
// identified name. Idempotent, and commutative with the profile-store
// path: the second application always finds nothing left to rewrite.
func (s *Session) applyRename(oldName, newName, avatar string, fromRemote bool) {
	if newName == "" || oldName == newName {
		return
	}
	s.mu.Lock()
	s.messages.renameAuthor(oldName, newName)
	if avatar != "" {
		s.messages.setAvatar(newName, avatar)
	}
	s.presence.rename(oldName, newName)
	selfRenamed := s.identity.Username == oldName
	var id Identity
	if selfRenamed {
		s.identity.Username = newName
		if avatar != "" {
			s.identity.Avatar = avatar
		}
		id = s.identity
	}
	s.mu.Unlock()

	if selfRenamed {
		if fromRemote {
			// The local path was triggered by a store write, so only
			// the remote path persists.
			s.creds.SetProfile(id)
		}
		if err := s.transport.Identify(s.ctx, id); err != nil {
			s.logger.Warn("re-identify after rename failed", map[string]any{"username": newName, "error": err.Error()})
		}
	}
	s.notifyChange()
}

func (s *Session) handleForceLogout(ev ForceLogoutEvent) {
	s.mu.Lock()
	if ev.Username != s.identity.Username {
		s.mu.Unlock()
		s.logger.Debug("forceLogout for other user dropped", map[string]any{"username": ev.Username})
		return
	}
	if s.evicted {
		s.mu.Unlock()
		return
	}
	s.evicted = true
	s.ready = false
	fn := s.onEvicted
	s.mu.Unlock()

	s.creds.Clear()
	_ = s.transport.Close()
	if fn != nil {
		fn(ev.Reason)
	}
	s.notifyChange()
}

// handleError rolls back a rejected optimistic channel create when the
// server echoes its correlation id; everything else is forwarded.
func (s *Session) handleError(err error) {
	var he *HuddleError
	if errors.As(err, &he) && he.CorrelationID != "" {
		s.mu.Lock()
		fallback, wasActive, rejected := s.channels.reject(he.CorrelationID)
		if wasActive {
			s.messages.clear()
		}
		s.mu.Unlock()
		if rejected {
			s.logger.Warn("channel create rejected", map[string]any{"error": he.Message})
			if fallback != "" {
				if joinErr := s.transport.Join(s.ctx, fallback); joinErr != nil {
					s.logger.Warn("rollback join failed", map[string]any{"channel": fallback, "error": joinErr.Error()})
				}
			}
			s.notifyChange()
		}
	}
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Session) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}
