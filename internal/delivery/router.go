package delivery

import "sync"

// UpdateFunc receives a classified update.
type UpdateFunc func(TaggedUpdate)

// ErrorFunc receives a delivery failure (transport error, {ok:false}
// envelope, rejected webhook request).
type ErrorFunc func(error)

type subscriber struct {
	id       int
	kind     Kind // empty means the combined stream
	onUpdate UpdateFunc
	onError  ErrorFunc
}

// Router fans classified updates out to subscribers: every combined-stream
// subscriber sees every update, and each per-kind subscriber sees only
// updates of its kind. Delivery is synchronous and in emission order.
//
// Consecutive redeliveries of the same (id, kind) pair are suppressed. This
// is a best-effort guard against a misconfigured source re-emitting the last
// update, not an exactly-once guarantee.
type Router struct {
	mu     sync.Mutex
	nextID int
	subs   []*subscriber

	lastID   int64
	lastKind Kind
	primed   bool
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{}
}

// Subscription is the handle returned by the subscribe calls. Unsubscribe
// removes the callbacks; other subscriptions are unaffected.
type Subscription struct {
	router *Router
	id     int
}

// Unsubscribe removes this subscription's callbacks. Safe to call during an
// emission: delivery already in progress uses a snapshot, so removal takes
// effect from the next emission.
func (s *Subscription) Unsubscribe() {
	s.router.remove(s.id)
}

// Subscribe registers a combined-stream listener. onError may be nil.
func (r *Router) Subscribe(onUpdate UpdateFunc, onError ErrorFunc) *Subscription {
	return r.add(&subscriber{onUpdate: onUpdate, onError: onError})
}

// SubscribeKind registers a listener for a single update kind.
func (r *Router) SubscribeKind(kind Kind, onUpdate UpdateFunc) *Subscription {
	return r.add(&subscriber{kind: kind, onUpdate: onUpdate})
}

// SubscribeError registers an error-only listener.
func (r *Router) SubscribeError(onError ErrorFunc) *Subscription {
	return r.add(&subscriber{onError: onError})
}

func (r *Router) add(sub *subscriber) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub.id = r.nextID
	r.subs = append(r.subs, sub)
	return &Subscription{router: r, id: sub.id}
}

func (r *Router) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers t synchronously to all combined-stream subscribers and to
// the subscribers registered for t.Kind.
func (r *Router) Emit(t TaggedUpdate) {
	r.mu.Lock()
	if r.primed && r.lastID == t.ID && r.lastKind == t.Kind {
		r.mu.Unlock()
		return
	}
	r.lastID = t.ID
	r.lastKind = t.Kind
	r.primed = true

	// Snapshot so callbacks can unsubscribe (or subscribe) mid-emission.
	snapshot := make([]*subscriber, len(r.subs))
	copy(snapshot, r.subs)
	r.mu.Unlock()

	for _, sub := range snapshot {
		if sub.onUpdate == nil {
			continue
		}
		if sub.kind == "" || sub.kind == t.Kind {
			sub.onUpdate(t)
		}
	}
}

// EmitError delivers err synchronously to every registered error callback.
func (r *Router) EmitError(err error) {
	r.mu.Lock()
	snapshot := make([]*subscriber, len(r.subs))
	copy(snapshot, r.subs)
	r.mu.Unlock()

	for _, sub := range snapshot {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}
