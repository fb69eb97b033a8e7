package huddle

// Message is one chat message as pushed by the server. ID is empty for
// transient entries that have not been echoed back yet.
type Message struct {
	ID        string `json:"_id,omitempty"`
	Channel   string `json:"channel"`
	User      string `json:"user"`
	Avatar    string `json:"avatar,omitempty"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

// UserStatus is one presence record for a user.
type UserStatus struct {
	Username string `json:"username"`
	IsOnline bool   `json:"isOnline"`
	LastSeen int64  `json:"lastSeen"`
}

// RenameEvent announces that a user changed their username.
type RenameEvent struct {
	OldUsername string `json:"oldUsername"`
	NewUsername string `json:"newUsername"`
}

// ForceLogoutEvent evicts the named user from the server.
type ForceLogoutEvent struct {
	Username string `json:"username"`
	Reason   string `json:"reason,omitempty"`
}
