package huddle

// ConnectionState represents the current state of the transport
// connection. Joined is re-entrant: switching channels re-emits a join
// without leaving the joined state.
type ConnectionState int

const (
	// StateDisconnected means the client is not connected.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the client is establishing a connection.
	StateConnecting

	// StateIdentified means the connection is bound to an identity.
	StateIdentified

	// StateJoined means a channel join has been requested on an
	// identified connection.
	StateJoined

	// StateReconnecting means the client is attempting to reconnect
	// after an unexpected disconnect.
	StateReconnecting

	// StateClosed means the client has been explicitly closed, either
	// by the caller or by a forced logout. No reconnect follows.
	StateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateIdentified:
		return "identified"
	case StateJoined:
		return "joined"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateEvent represents a state change event.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Error    error // Optional error that caused the state change
}
