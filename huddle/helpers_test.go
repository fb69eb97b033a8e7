package huddle

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// fakeTransport records every outbound call and lets tests push server
// events through the real dispatcher.
type fakeTransport struct {
	d          Dispatcher
	connects   []Identity
	identifies []Identity
	joins      []string
	creates    []CreateChannelPayload
	sent       []SendMessagePayload
	closed     int
}

func (f *fakeTransport) Connect(ctx context.Context, id Identity) error {
	f.connects = append(f.connects, id)
	return nil
}

func (f *fakeTransport) Identify(ctx context.Context, id Identity) error {
	f.identifies = append(f.identifies, id)
	return nil
}

func (f *fakeTransport) Join(ctx context.Context, channel string) error {
	f.joins = append(f.joins, channel)
	return nil
}

func (f *fakeTransport) CreateChannel(ctx context.Context, name, correlationID string) error {
	f.creates = append(f.creates, CreateChannelPayload{Name: name, CorrelationID: correlationID})
	return nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, msg SendMessagePayload) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func (f *fakeTransport) Dispatcher() *Dispatcher { return &f.d }

// push delivers a server event the way the read loop would.
func (f *fakeTransport) push(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", event, err)
	}
	f.d.Dispatch(Outbound{Type: envelopeEvent, Event: event, Data: raw})
}

func (f *fakeTransport) pushError(protoErr *Error) {
	f.d.Dispatch(Outbound{Type: envelopeError, Error: protoErr})
}

type fakeLookup struct {
	id  Identity
	err error
}

func (l fakeLookup) Me(ctx context.Context, token string) (Identity, error) {
	return l.id, l.err
}

func testToken(t *testing.T, userID, username string) string {
	t.Helper()
	claims := TokenClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return token
}

// startedSession spins up a session against a fake transport with the
// given identity and returns both plus the credential store.
func startedSession(t *testing.T, username string) (*Session, *fakeTransport, *MemoryCredentialStore) {
	t.Helper()
	id := Identity{UserID: "u1", Username: username}
	creds := NewMemoryCredentialStore(testToken(t, id.UserID, id.Username))
	ft := &fakeTransport{}
	s := NewSession(ft, creds, fakeLookup{id: id})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start session: %v", err)
	}
	return s, ft, creds
}

// testCtx returns a cancellable context for unit tests.
func testCtx() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
