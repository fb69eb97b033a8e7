package huddle

// Dispatcher routes server envelopes to registered callbacks.
type Dispatcher struct {
	onChannelList      func([]string)
	onChannelMessages  func([]Message)
	onReceiveMessage   func(Message)
	onUserStatusList   func([]UserStatus)
	onUserStatusUpdate func(UserStatus)
	onUsernameUpdated  func(RenameEvent)
	onForceLogout      func(ForceLogoutEvent)
	onError            func(error)
}

func (d *Dispatcher) SetOnChannelList(fn func([]string))         { d.onChannelList = fn }
func (d *Dispatcher) SetOnChannelMessages(fn func([]Message))    { d.onChannelMessages = fn }
func (d *Dispatcher) SetOnReceiveMessage(fn func(Message))       { d.onReceiveMessage = fn }
func (d *Dispatcher) SetOnUserStatusList(fn func([]UserStatus))  { d.onUserStatusList = fn }
func (d *Dispatcher) SetOnUserStatusUpdate(fn func(UserStatus))  { d.onUserStatusUpdate = fn }
func (d *Dispatcher) SetOnUsernameUpdated(fn func(RenameEvent))  { d.onUsernameUpdated = fn }
func (d *Dispatcher) SetOnForceLogout(fn func(ForceLogoutEvent)) { d.onForceLogout = fn }
func (d *Dispatcher) SetOnError(fn func(error))                  { d.onError = fn }

func (d *Dispatcher) Dispatch(out Outbound) {
	if out.Type == envelopeError && out.Error != nil && d.onError != nil {
		// Convert protocol error to HuddleError
		d.onError(FromProtocolError(out.Error))
		return
	}
	switch out.Event {
	case inChannelList:
		if d.onChannelList == nil {
			return
		}
		var channels []string
		if err := UnmarshalData(out.Data, &channels); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal channelList event", err))
			return
		}
		d.onChannelList(channels)
	case inChannelMessages:
		if d.onChannelMessages == nil {
			return
		}
		var msgs []Message
		if err := UnmarshalData(out.Data, &msgs); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal channelMessages event", err))
			return
		}
		d.onChannelMessages(msgs)
	case inReceiveMessage:
		if d.onReceiveMessage == nil {
			return
		}
		var msg Message
		if err := UnmarshalData(out.Data, &msg); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal receiveMessage event", err))
			return
		}
		d.onReceiveMessage(msg)
	case inUserStatusList:
		if d.onUserStatusList == nil {
			return
		}
		var statuses []UserStatus
		if err := UnmarshalData(out.Data, &statuses); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal userStatusList event", err))
			return
		}
		d.onUserStatusList(statuses)
	case inUserStatusUpdate:
		if d.onUserStatusUpdate == nil {
			return
		}
		var status UserStatus
		if err := UnmarshalData(out.Data, &status); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal userStatusUpdate event", err))
			return
		}
		d.onUserStatusUpdate(status)
	case inUsernameUpdated:
		if d.onUsernameUpdated == nil {
			return
		}
		var ev RenameEvent
		if err := UnmarshalData(out.Data, &ev); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal usernameUpdated event", err))
			return
		}
		d.onUsernameUpdated(ev)
	case inForceLogout:
		if d.onForceLogout == nil {
			return
		}
		var ev ForceLogoutEvent
		if err := UnmarshalData(out.Data, &ev); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal forceLogout event", err))
			return
		}
		d.onForceLogout(ev)
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
