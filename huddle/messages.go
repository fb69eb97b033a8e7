package huddle

// messageLog holds the ordered message history rendered for the active
// channel. Entries are immutable once appended except for the author
// and avatar fields, which rename propagation rewrites in place.
type messageLog struct {
	msgs []Message
	ids  map[string]bool
}

func newMessageLog() *messageLog {
	return &messageLog{ids: make(map[string]bool)}
}

// replaceAll installs the server's full message list for the channel
// just joined.
func (l *messageLog) replaceAll(msgs []Message) {
	l.msgs = append(l.msgs[:0:0], msgs...)
	l.ids = make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if m.ID != "" {
			l.ids[m.ID] = true
		}
	}
}

// append adds a message pushed for the active channel. Appends for any
// other channel are dropped, as are redeliveries of an id already in
// the log. Reports whether the message was kept.
func (l *messageLog) append(m Message, activeChannel string) bool {
	if m.Channel != activeChannel {
		return false
	}
	if m.ID != "" {
		if l.ids[m.ID] {
			return false
		}
		l.ids[m.ID] = true
	}
	l.msgs = append(l.msgs, m)
	return true
}

func (l *messageLog) clear() {
	l.msgs = nil
	l.ids = make(map[string]bool)
}

// renameAuthor rewrites the author of every message by oldName.
func (l *messageLog) renameAuthor(oldName, newName string) int {
	n := 0
	for i := range l.msgs {
		if l.msgs[i].User == oldName {
			l.msgs[i].User = newName
			n++
		}
	}
	return n
}

// setAvatar rewrites the avatar on every message authored by user.
func (l *messageLog) setAvatar(user, avatar string) int {
	n := 0
	for i := range l.msgs {
		if l.msgs[i].User == user {
			l.msgs[i].Avatar = avatar
			n++
		}
	}
	return n
}

func (l *messageLog) all() []Message {
	return append([]Message(nil), l.msgs...)
}
