package huddle

// channelSet tracks the ordered channel list, the active channel, and
// optimistically created channels awaiting server confirmation.
// Insertion order is display order.
type channelSet struct {
	names   []string
	index   map[string]bool
	active  string
	prev    string            // last confirmed active channel, rollback target
	pending map[string]string // optimistic creates: name -> correlation id
}

func newChannelSet() *channelSet {
	return &channelSet{
		index:   make(map[string]bool),
		pending: make(map[string]string),
	}
}

// applySnapshot replaces the channel list with the server's full set.
// Pending creates present in the snapshot become confirmed. Returns the
// channel to auto-join: the first entry when nothing is active yet, or
// a fallback when the active channel vanished from the server's list.
func (c *channelSet) applySnapshot(names []string) (autoJoin string) {
	c.names = append(c.names[:0:0], names...)
	c.index = make(map[string]bool, len(names))
	for _, name := range names {
		c.index[name] = true
	}
	for name := range c.pending {
		if c.index[name] {
			delete(c.pending, name)
			if name == c.active {
				c.prev = name
			}
		}
	}

	if c.active == "" {
		if len(c.names) > 0 {
			c.active = c.names[0]
			c.prev = c.active
			return c.active
		}
		return ""
	}
	// Active channel no longer exists and is not awaiting confirmation:
	// the snapshot is the source of truth, fall back to the first entry.
	if !c.index[c.active] {
		if _, ok := c.pending[c.active]; ok {
			return ""
		}
		if len(c.names) == 0 {
			c.active = ""
			c.prev = ""
			return ""
		}
		c.active = c.names[0]
		c.prev = c.active
		return c.active
	}
	return ""
}

// add registers an optimistic create and makes it the active channel.
// Returns the correlation id to attach to the create request.
func (c *channelSet) add(name, correlationID string) {
	if !c.index[name] {
		c.names = append(c.names, name)
		c.index[name] = true
		c.pending[name] = correlationID
	}
	if c.active != "" && c.pending[c.active] == "" {
		c.prev = c.active
	}
	c.active = name
}

// reject rolls back the pending create matching correlationID.
// wasActive reports that the rejected channel was the active one;
// fallback is then the channel to re-join, or "" when none is left.
func (c *channelSet) reject(correlationID string) (fallback string, wasActive, rejected bool) {
	var name string
	for n, id := range c.pending {
		if id == correlationID {
			name = n
			break
		}
	}
	if name == "" {
		return "", false, false
	}
	delete(c.pending, name)
	delete(c.index, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
	if c.active != name {
		return "", false, true
	}
	c.active = ""
	if c.index[c.prev] {
		c.active = c.prev
	} else if len(c.names) > 0 {
		c.active = c.names[0]
	}
	c.prev = c.active
	return c.active, true, true
}

// selectChannel switches the active channel. Returns false when name is
// already active (selection must be a no-op then).
func (c *channelSet) selectChannel(name string) bool {
	if name == c.active {
		return false
	}
	if c.active != "" && c.pending[c.active] == "" {
		c.prev = c.active
	}
	c.active = name
	return true
}

func (c *channelSet) activeName() string {
	return c.active
}

func (c *channelSet) list() []string {
	return append([]string(nil), c.names...)
}
