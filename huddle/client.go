package huddle

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/huddlechat/huddle-sdk-go/huddle/internal"

	"github.com/coder/websocket"
)

// Client owns the single bidirectional transport connection for an
// authenticated user: dialing, identify, channel joins, teardown, and
// reconnection with exponential backoff. At most one physical
// connection exists at a time; a repeated Connect while already live
// reuses the existing connection.
type Client struct {
	cfg        Config
	logger     Logger
	writeCh    chan Inbound
	dispatcher Dispatcher

	mu       sync.Mutex
	conn     *internal.Conn
	state    ConnectionState
	identity Identity
	channel  string
	cancel   context.CancelFunc
	onState  func(StateEvent)
}

// NewClient constructs a client with provided config.
// Use DefaultConfig() as a starting point and modify as needed.
// Set timeout to 0 to disable it.
func NewClient(cfg *Config) *Client {
	c := &Client{
		logger:  noopLogger{},
		writeCh: make(chan Inbound, 16),
		state:   StateDisconnected,
	}
	if cfg != nil {
		c.cfg = *cfg
	} else {
		c.cfg = DefaultConfig()
	}
	return c
}

// SetLogger overrides logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// Dispatcher exposes the event dispatcher so a session core can
// register its handlers before Connect.
func (c *Client) Dispatcher() *Dispatcher { return &c.dispatcher }

// OnStateChanged registers callback for connection state transitions.
func (c *Client) OnStateChanged(fn func(StateEvent)) { c.onState = fn }

// OnError registers callback for errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveChannel returns the channel of the last join request, or "".
func (c *Client) ActiveChannel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// Connect dials the server, sends identify, and starts internal loops.
// Calling Connect while the connection is live is a no-op so duplicate
// connections and duplicate listeners can never appear.
func (c *Client) Connect(ctx context.Context, id Identity) error {
	c.mu.Lock()
	switch c.state {
	case StateConnecting, StateIdentified, StateJoined, StateReconnecting:
		c.identity = id
		c.mu.Unlock()
		c.logger.Debug("connect skipped, connection already live", map[string]any{"state": c.state.String()})
		return nil
	}
	c.mu.Unlock()

	if c.cfg.URL == "" {
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return WrapError(ErrorInvalidConfig, "invalid URL", err)
	}

	c.setState(StateConnecting, nil)

	conn, err := internal.Dial(ctx, u.String(), c.cfg.HandshakeTimeout, c.cfg.ReadTimeout, c.cfg.WriteTimeout)
	if err != nil {
		c.setState(StateDisconnected, err)
		return WrapError(ErrorConnection, "dial failed", err)
	}

	if err := conn.Write(ctx, identifyEnvelope(id, c.cfg.Token)); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "identify error")
		c.setState(StateDisconnected, err)
		return WrapError(ErrorConnection, "identify failed", err)
	}

	c.install(conn, id)
	return nil
}

// Identify re-binds the live connection to a (possibly renamed)
// identity. Used by rename propagation.
func (c *Client) Identify(ctx context.Context, id Identity) error {
	c.mu.Lock()
	c.identity = id
	c.mu.Unlock()
	return c.send(ctx, identifyEnvelope(id, c.cfg.Token))
}

// Join subscribes to a channel's message stream. Join is re-entrant:
// switching channels re-emits a join without tearing anything down.
func (c *Client) Join(ctx context.Context, channel string) error {
	if err := c.send(ctx, Inbound{Type: outJoin, Data: JoinPayload{Channel: channel}}); err != nil {
		return err
	}
	c.mu.Lock()
	c.channel = channel
	old := c.state
	c.state = StateJoined
	fn := c.onState
	c.mu.Unlock()
	if fn != nil && old != StateJoined {
		fn(StateEvent{OldState: old, NewState: StateJoined})
	}
	return nil
}

// CreateChannel requests a new channel. correlationID lets the caller
// match a server rejection back to the request.
func (c *Client) CreateChannel(ctx context.Context, name, correlationID string) error {
	return c.send(ctx, Inbound{Type: outCreateChannel, Data: CreateChannelPayload{Name: name, CorrelationID: correlationID}})
}

// SendMessage publishes a message.
func (c *Client) SendMessage(ctx context.Context, msg SendMessagePayload) error {
	return c.send(ctx, Inbound{Type: outSendMessage, Data: msg})
}

// Close shuts down the client and closes the transport. Idempotent:
// safe to call when already disconnected. No reconnect follows.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	old := c.state
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	c.channel = ""
	fn := c.onState
	c.mu.Unlock()

	if fn != nil {
		fn(StateEvent{OldState: old, NewState: StateClosed})
	}
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

func identifyEnvelope(id Identity, token string) Inbound {
	return Inbound{
		Type: outIdentify,
		Data: IdentifyPayload{
			UserID:   id.UserID,
			Username: id.Username,
			Protocol: ProtocolVersion,
			Token:    token,
		},
	}
}

// install publishes a freshly identified connection and starts its
// loops. The previous loops, if any, were cancelled by the caller.
func (c *Client) install(conn *internal.Conn, id Identity) {
	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	old := c.state
	c.conn = conn
	c.identity = id
	c.cancel = cancel
	c.state = StateIdentified
	fn := c.onState
	c.mu.Unlock()

	if fn != nil {
		fn(StateEvent{OldState: old, NewState: StateIdentified})
	}
	go c.readLoop(runCtx, conn)
	go c.writeLoop(runCtx, conn)
}

func (c *Client) send(ctx context.Context, in Inbound) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	switch state {
	case StateDisconnected, StateClosed:
		return NewError(ErrorNotConnected, "not connected")
	}

	select {
	case c.writeCh <- in:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) setState(state ConnectionState, err error) {
	c.mu.Lock()
	old := c.state
	c.state = state
	fn := c.onState
	c.mu.Unlock()
	if fn != nil && old != state {
		fn(StateEvent{OldState: old, NewState: state, Error: err})
	}
}

func (c *Client) readLoop(ctx context.Context, conn *internal.Conn) {
	for {
		var out Outbound
		if err := conn.Read(ctx, &out); err != nil {
			if isExpectedDisconnect(ctx, err) {
				return
			}
			c.dispatcher.Dispatch(Outbound{Type: envelopeError, Error: &Error{Code: "read_error", Msg: err.Error()}})
			c.logger.Warn("read loop exit", map[string]any{"error": err.Error()})
			c.handleDrop(err)
			return
		}
		c.dispatcher.Dispatch(out)
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *internal.Conn) {
	for {
		select {
		case in := <-c.writeCh:
			if err := conn.Write(ctx, in); err != nil {
				c.dispatcher.Dispatch(Outbound{Type: envelopeError, Error: &Error{Code: "write_error", Msg: err.Error()}})
				c.logger.Warn("write loop exit", map[string]any{"error": err.Error()})
				c.handleDrop(err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleDrop reacts to an unexpected transport loss. The read and
// write loop may both report the same drop; only the first one wins.
func (c *Client) handleDrop(cause error) {
	c.mu.Lock()
	switch c.state {
	case StateClosed, StateReconnecting, StateDisconnected:
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.conn = nil
	c.mu.Unlock()

	if !c.cfg.AutoReconnect {
		c.setState(StateDisconnected, cause)
		return
	}
	c.setState(StateReconnecting, cause)
	go c.reconnect()
}

// reconnect retries the dial with exponential backoff, re-identifies,
// and re-joins the previously active channel.
func (c *Client) reconnect() {
	delay := c.cfg.ReconnectInterval
	if delay <= 0 {
		delay = 2 * time.Second
	}
	tries := 0

	for {
		tries++
		if c.cfg.MaxReconnectTries > 0 && tries > c.cfg.MaxReconnectTries {
			c.logger.Error("reconnect gave up", map[string]any{"tries": tries - 1})
			c.setState(StateDisconnected, NewError(ErrorDisconnected, "reconnect attempts exhausted"))
			return
		}
		time.Sleep(delay)
		if delay *= 2; c.cfg.MaxReconnectDelay > 0 && delay > c.cfg.MaxReconnectDelay {
			delay = c.cfg.MaxReconnectDelay
		}

		c.mu.Lock()
		if c.state != StateReconnecting {
			c.mu.Unlock()
			return
		}
		id := c.identity
		channel := c.channel
		c.mu.Unlock()

		ctx := context.Background()
		conn, err := internal.Dial(ctx, c.cfg.URL, c.cfg.HandshakeTimeout, c.cfg.ReadTimeout, c.cfg.WriteTimeout)
		if err != nil {
			c.logger.Warn("reconnect dial failed", map[string]any{"try": tries, "error": err.Error()})
			continue
		}
		if err := conn.Write(ctx, identifyEnvelope(id, c.cfg.Token)); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "identify error")
			c.logger.Warn("reconnect identify failed", map[string]any{"try": tries, "error": err.Error()})
			continue
		}

		c.mu.Lock()
		if c.state != StateReconnecting {
			c.mu.Unlock()
			_ = conn.Close(websocket.StatusNormalClosure, "client close")
			return
		}
		c.mu.Unlock()

		c.install(conn, id)
		c.logger.Info("reconnected", map[string]any{"tries": tries})
		if channel != "" {
			if err := c.Join(ctx, channel); err != nil {
				c.logger.Warn("rejoin after reconnect failed", map[string]any{"channel": channel, "error": err.Error()})
			}
		}
		return
	}
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
