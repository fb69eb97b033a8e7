package huddle

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDispatcherReceiveMessage(t *testing.T) {
	var got Message
	var errCalled bool
	var d Dispatcher
	d.SetOnReceiveMessage(func(m Message) { got = m })
	d.SetOnError(func(err error) { errCalled = true })

	raw, _ := json.Marshal(Message{Channel: "general", User: "alice", Text: "hi"})
	d.Dispatch(Outbound{Type: envelopeEvent, Event: inReceiveMessage, Data: raw})

	if got.Channel != "general" || got.User != "alice" || got.Text != "hi" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if errCalled {
		t.Fatalf("unexpected error callback")
	}
}

func TestDispatcherChannelList(t *testing.T) {
	var got []string
	var d Dispatcher
	d.SetOnChannelList(func(channels []string) { got = channels })

	raw, _ := json.Marshal([]string{"general", "random"})
	d.Dispatch(Outbound{Type: envelopeEvent, Event: inChannelList, Data: raw})

	if len(got) != 2 || got[0] != "general" {
		t.Fatalf("unexpected channel list: %v", got)
	}
}

func TestDispatcherErrorCarriesCorrelationID(t *testing.T) {
	var errGot error
	var d Dispatcher
	d.SetOnError(func(err error) { errGot = err })

	d.Dispatch(Outbound{Type: envelopeError, Error: &Error{Code: "channel_exists", Msg: "name taken", CorrelationID: "corr-1"}})
	if errGot == nil {
		t.Fatalf("expected error callback")
	}
	var he *HuddleError
	if !errors.As(errGot, &he) {
		t.Fatalf("expected HuddleError, got %T", errGot)
	}
	if he.Code != ErrorChannelExists || he.CorrelationID != "corr-1" {
		t.Fatalf("unexpected error: %+v", he)
	}
}

func TestDispatcherBadPayload(t *testing.T) {
	var errGot error
	var d Dispatcher
	d.SetOnReceiveMessage(func(Message) { t.Fatal("callback fired for bad payload") })
	d.SetOnError(func(err error) { errGot = err })

	d.Dispatch(Outbound{Type: envelopeEvent, Event: inReceiveMessage, Data: json.RawMessage(`"not an object"`)})

	var he *HuddleError
	if !errors.As(errGot, &he) || he.Code != ErrorSerialization {
		t.Fatalf("expected serialization error, got %v", errGot)
	}
}

func TestDispatcherUnknownEventIgnored(t *testing.T) {
	var d Dispatcher
	d.SetOnError(func(err error) { t.Fatalf("unexpected error: %v", err) })
	d.Dispatch(Outbound{Type: envelopeEvent, Event: "somethingNew", Data: json.RawMessage(`{}`)})
}
