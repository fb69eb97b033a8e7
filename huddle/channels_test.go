package huddle

import "testing"

func TestChannelSetSnapshotAutoJoinsFirst(t *testing.T) {
	c := newChannelSet()
	autoJoin := c.applySnapshot([]string{"general", "random"})
	if autoJoin != "general" {
		t.Fatalf("expected auto-join of general, got %q", autoJoin)
	}
	if c.activeName() != "general" {
		t.Fatalf("expected active general, got %q", c.activeName())
	}

	// A later snapshot with the active channel still present changes nothing.
	if autoJoin := c.applySnapshot([]string{"general", "random", "dev"}); autoJoin != "" {
		t.Fatalf("unexpected auto-join %q", autoJoin)
	}
	if got := c.list(); len(got) != 3 || got[2] != "dev" {
		t.Fatalf("unexpected list: %v", got)
	}
}

func TestChannelSetSnapshotFallbackWhenActiveVanishes(t *testing.T) {
	c := newChannelSet()
	c.applySnapshot([]string{"general", "random"})
	c.selectChannel("random")

	autoJoin := c.applySnapshot([]string{"general"})
	if autoJoin != "general" {
		t.Fatalf("expected fallback join to general, got %q", autoJoin)
	}
	if c.activeName() != "general" {
		t.Fatalf("expected active general, got %q", c.activeName())
	}
}

func TestChannelSetEmptySnapshot(t *testing.T) {
	c := newChannelSet()
	if autoJoin := c.applySnapshot(nil); autoJoin != "" {
		t.Fatalf("unexpected auto-join %q", autoJoin)
	}
	if c.activeName() != "" {
		t.Fatalf("expected no active channel, got %q", c.activeName())
	}
}

func TestChannelSetOptimisticCreateConfirmed(t *testing.T) {
	c := newChannelSet()
	c.applySnapshot([]string{"general"})
	c.add("random", "corr-1")

	if c.activeName() != "random" {
		t.Fatalf("expected active random, got %q", c.activeName())
	}

	// Server confirms via the next snapshot; the pending entry is gone
	// and a later reject of the same id does nothing.
	c.applySnapshot([]string{"general", "random"})
	if _, _, rejected := c.reject("corr-1"); rejected {
		t.Fatalf("confirmed channel must not be rejectable")
	}
	if c.activeName() != "random" {
		t.Fatalf("expected active random after confirm, got %q", c.activeName())
	}
}

func TestChannelSetRejectRollsBackActive(t *testing.T) {
	c := newChannelSet()
	c.applySnapshot([]string{"general"})
	c.add("random", "corr-1")

	fallback, wasActive, rejected := c.reject("corr-1")
	if !rejected || !wasActive {
		t.Fatalf("expected active rejection, got rejected=%v wasActive=%v", rejected, wasActive)
	}
	if fallback != "general" || c.activeName() != "general" {
		t.Fatalf("expected rollback to general, got fallback=%q active=%q", fallback, c.activeName())
	}
	for _, name := range c.list() {
		if name == "random" {
			t.Fatalf("rejected channel still listed: %v", c.list())
		}
	}
}

func TestChannelSetRejectInactivePending(t *testing.T) {
	c := newChannelSet()
	c.applySnapshot([]string{"general"})
	c.add("random", "corr-1")
	c.selectChannel("general")

	fallback, wasActive, rejected := c.reject("corr-1")
	if !rejected || wasActive || fallback != "" {
		t.Fatalf("expected quiet rejection, got fallback=%q wasActive=%v rejected=%v", fallback, wasActive, rejected)
	}
	if c.activeName() != "general" {
		t.Fatalf("active changed unexpectedly to %q", c.activeName())
	}
}

func TestChannelSetSelectSameChannelNoOp(t *testing.T) {
	c := newChannelSet()
	c.applySnapshot([]string{"general"})
	if c.selectChannel("general") {
		t.Fatalf("selecting the active channel must be a no-op")
	}
	if !c.selectChannel("random") {
		t.Fatalf("selecting another channel must switch")
	}
}
