// Package delivery turns raw Bot API updates into classified, routed events.
// Updates arrive either from the polling engine (Poller) or the webhook
// listener, are classified by kind, and fan out to subscribers through a
// Router.
package delivery

import "github.com/hybridz/tgstream/internal/telegram"

// Kind is the category of an update's single populated payload slot.
type Kind string

const (
	KindMessage            Kind = "message"
	KindEditedMessage      Kind = "edited_message"
	KindChannelPost        Kind = "channel_post"
	KindEditedChannelPost  Kind = "edited_channel_post"
	KindInlineQuery        Kind = "inline_query"
	KindChosenInlineResult Kind = "chosen_inline_result"
	KindCallbackQuery      Kind = "callback_query"
	KindShippingQuery      Kind = "shipping_query"
	KindPreCheckoutQuery   Kind = "pre_checkout_query"
)

// Kinds lists every kind in classification priority order. When a malformed
// update carries more than one populated slot, the earliest kind here wins.
var Kinds = []Kind{
	KindMessage,
	KindEditedMessage,
	KindChannelPost,
	KindEditedChannelPost,
	KindInlineQuery,
	KindChosenInlineResult,
	KindCallbackQuery,
	KindShippingQuery,
	KindPreCheckoutQuery,
}

// TaggedUpdate is a classified update: the update's id, the kind of its
// populated slot, and that slot's content. Payload holds *telegram.Message
// for the four message kinds, and *telegram.InlineQuery,
// *telegram.ChosenInlineResult, *telegram.CallbackQuery,
// *telegram.ShippingQuery or *telegram.PreCheckoutQuery for the rest.
type TaggedUpdate struct {
	ID      int64
	Kind    Kind
	Payload any
}

// Classify returns the tagged form of u, or ok=false if no payload slot is
// populated. Slots are checked in the order of Kinds; the first populated
// one wins.
func Classify(u telegram.Update) (TaggedUpdate, bool) {
	switch {
	case u.Message != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindMessage, Payload: u.Message}, true
	case u.EditedMessage != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindEditedMessage, Payload: u.EditedMessage}, true
	case u.ChannelPost != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindChannelPost, Payload: u.ChannelPost}, true
	case u.EditedChannelPost != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindEditedChannelPost, Payload: u.EditedChannelPost}, true
	case u.InlineQuery != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindInlineQuery, Payload: u.InlineQuery}, true
	case u.ChosenInlineResult != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindChosenInlineResult, Payload: u.ChosenInlineResult}, true
	case u.CallbackQuery != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindCallbackQuery, Payload: u.CallbackQuery}, true
	case u.ShippingQuery != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindShippingQuery, Payload: u.ShippingQuery}, true
	case u.PreCheckoutQuery != nil:
		return TaggedUpdate{ID: u.UpdateID, Kind: KindPreCheckoutQuery, Payload: u.PreCheckoutQuery}, true
	}
	return TaggedUpdate{}, false
}

// Valid reports whether u carries at least one populated payload slot.
// The webhook listener uses this to screen pushed updates with the same
// check that governs classification.
func Valid(u telegram.Update) bool {
	_, ok := Classify(u)
	return ok
}

// SenderID returns the user ID that originated the tagged update, or 0 when
// there is no sender (anonymous channel posts, service messages).
func SenderID(u TaggedUpdate) int64 {
	switch p := u.Payload.(type) {
	case *telegram.Message:
		if p.From != nil {
			return p.From.ID
		}
	case *telegram.InlineQuery:
		return p.From.ID
	case *telegram.ChosenInlineResult:
		return p.From.ID
	case *telegram.CallbackQuery:
		return p.From.ID
	case *telegram.ShippingQuery:
		return p.From.ID
	case *telegram.PreCheckoutQuery:
		return p.From.ID
	}
	return 0
}
