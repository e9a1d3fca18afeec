package delivery

import (
	"errors"
	"testing"

	"github.com/hybridz/tgstream/internal/telegram"
)

func taggedMessage(id int64) TaggedUpdate {
	return TaggedUpdate{ID: id, Kind: KindMessage, Payload: &telegram.Message{MessageID: id}}
}

func TestRouter_KindIsolation(t *testing.T) {
	r := NewRouter()

	var combined, callbacks []TaggedUpdate
	r.Subscribe(func(u TaggedUpdate) { combined = append(combined, u) }, nil)
	r.SubscribeKind(KindCallbackQuery, func(u TaggedUpdate) { callbacks = append(callbacks, u) })

	r.Emit(taggedMessage(1))
	r.Emit(TaggedUpdate{ID: 2, Kind: KindCallbackQuery, Payload: &telegram.CallbackQuery{ID: "c"}})

	if len(combined) != 2 {
		t.Fatalf("combined stream got %d updates, want 2", len(combined))
	}
	if len(callbacks) != 1 {
		t.Fatalf("callback_query stream got %d updates, want 1", len(callbacks))
	}
	if callbacks[0].ID != 2 {
		t.Errorf("callback_query stream got id %d, want 2", callbacks[0].ID)
	}
}

func TestRouter_UnsubscribeStopsDelivery(t *testing.T) {
	r := NewRouter()

	var first, second int
	sub := r.Subscribe(func(TaggedUpdate) { first++ }, nil)
	r.Subscribe(func(TaggedUpdate) { second++ }, nil)

	r.Emit(taggedMessage(1))
	sub.Unsubscribe()
	r.Emit(taggedMessage(2))

	if first != 1 {
		t.Errorf("unsubscribed listener got %d updates, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining listener got %d updates, want 2", second)
	}
}

func TestRouter_ConsecutiveDuplicateSuppressed(t *testing.T) {
	r := NewRouter()

	var got []int64
	r.Subscribe(func(u TaggedUpdate) { got = append(got, u.ID) }, nil)

	r.Emit(taggedMessage(1))
	r.Emit(taggedMessage(1)) // redelivery, dropped
	r.Emit(taggedMessage(2))
	r.Emit(taggedMessage(1)) // not consecutive, delivered

	want := []int64{1, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRouter_SameIDDifferentKindNotSuppressed(t *testing.T) {
	r := NewRouter()

	var count int
	r.Subscribe(func(TaggedUpdate) { count++ }, nil)

	r.Emit(taggedMessage(5))
	r.Emit(TaggedUpdate{ID: 5, Kind: KindEditedMessage, Payload: &telegram.Message{}})

	if count != 2 {
		t.Fatalf("got %d deliveries, want 2", count)
	}
}

func TestRouter_UnsubscribeDuringEmit(t *testing.T) {
	r := NewRouter()

	var sub *Subscription
	var calls int
	sub = r.Subscribe(func(TaggedUpdate) {
		calls++
		sub.Unsubscribe()
	}, nil)

	r.Emit(taggedMessage(1))
	r.Emit(taggedMessage(2))

	if calls != 1 {
		t.Fatalf("got %d calls, want 1", calls)
	}
}

func TestRouter_EmitError(t *testing.T) {
	r := NewRouter()

	var fromSubscribe, fromErrorOnly error
	r.Subscribe(nil, func(err error) { fromSubscribe = err })
	r.SubscribeError(func(err error) { fromErrorOnly = err })

	want := errors.New("fetch failed")
	r.EmitError(want)

	if fromSubscribe != want {
		t.Errorf("Subscribe onError got %v, want %v", fromSubscribe, want)
	}
	if fromErrorOnly != want {
		t.Errorf("SubscribeError got %v, want %v", fromErrorOnly, want)
	}
}
