package huddle

// PresenceEntry is a user's online status as shown in the UI.
type PresenceEntry struct {
	IsOnline bool
	LastSeen int64
}

// presenceMap tracks per-username presence. A bulk snapshot fully
// replaces the map; incremental updates upsert one key. Entries have no
// expiry of their own.
type presenceMap struct {
	entries map[string]PresenceEntry
}

func newPresenceMap() *presenceMap {
	return &presenceMap{entries: make(map[string]PresenceEntry)}
}

func (p *presenceMap) applySnapshot(statuses []UserStatus) {
	p.entries = make(map[string]PresenceEntry, len(statuses))
	for _, s := range statuses {
		p.entries[s.Username] = PresenceEntry{IsOnline: s.IsOnline, LastSeen: s.LastSeen}
	}
}

func (p *presenceMap) upsert(s UserStatus) {
	p.entries[s.Username] = PresenceEntry{IsOnline: s.IsOnline, LastSeen: s.LastSeen}
}

// rename moves the entry keyed oldName to newName so the entry never
// becomes orphaned under a stale key. No entry under oldName is a
// no-op; an existing entry under newName is overwritten.
func (p *presenceMap) rename(oldName, newName string) bool {
	entry, ok := p.entries[oldName]
	if !ok {
		return false
	}
	delete(p.entries, oldName)
	p.entries[newName] = entry
	return true
}

func (p *presenceMap) get(username string) (PresenceEntry, bool) {
	entry, ok := p.entries[username]
	return entry, ok
}

func (p *presenceMap) all() map[string]PresenceEntry {
	out := make(map[string]PresenceEntry, len(p.entries))
	for k, v := range p.entries {
		out[k] = v
	}
	return out
}
