package huddle

import "encoding/json"

const (
	ProtocolVersion = 1

	outIdentify      = "identify"
	outJoin          = "join"
	outCreateChannel = "createChannel"
	outSendMessage   = "sendMessage"

	inChannelList      = "channelList"
	inChannelMessages  = "channelMessages"
	inReceiveMessage   = "receiveMessage"
	inUserStatusList   = "userStatusList"
	inUserStatusUpdate = "userStatusUpdate"
	inUsernameUpdated  = "usernameUpdated"
	inForceLogout      = "forceLogout"

	envelopeEvent = "event"
	envelopeError = "error"
)

// Inbound represents the envelope from client to server.
type Inbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Outbound is the envelope server -> client.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// IdentifyPayload binds the connection to an authenticated identity.
type IdentifyPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Protocol int    `json:"protocol,omitempty"`
	Token    string `json:"token,omitempty"`
}

// JoinPayload subscribes to a channel's message stream.
type JoinPayload struct {
	Channel string `json:"channel"`
}

// CreateChannelPayload requests a new channel. CorrelationID ties a
// later rejection back to the optimistic local entry; servers that do
// not echo it simply never trigger a rollback.
type CreateChannelPayload struct {
	Name          string `json:"name"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// SendMessagePayload publishes a message to a channel.
type SendMessagePayload struct {
	Channel string `json:"channel"`
	User    string `json:"user"`
	Avatar  string `json:"avatar,omitempty"`
	Text    string `json:"text"`
}

// Error describes a protocol error.
type Error struct {
	Code          string `json:"code"`
	Msg           string `json:"msg"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Msg
}

// UnmarshalData decodes RawMessage into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
