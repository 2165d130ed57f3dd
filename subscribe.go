package annotate

// Listener reacts to store changes. It receives the store that changed.
type Listener func(*Store)

// Bus fans store notifications out to listeners in registration order.
// There is no batching; every notify reaches every listener.
type Bus struct {
	nextID    uint64
	listeners []listenerEntry
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Subscribe registers fn. A nil fn yields an inert subscription.
func (b *Bus) Subscribe(fn Listener) Subscription {
	if b == nil || fn == nil {
		return Subscription{}
	}
	b.nextID++
	b.listeners = append(b.listeners, listenerEntry{id: b.nextID, fn: fn})
	return Subscription{bus: b, id: b.nextID}
}

// Unsubscribe removes the listener. Calling it more than once is harmless.
func (s Subscription) Unsubscribe() {
	if s.bus == nil || s.id == 0 {
		return
	}
	s.bus.remove(s.id)
}

// Active reports whether the listener is still registered.
func (s Subscription) Active() bool {
	if s.bus == nil || s.id == 0 {
		return false
	}
	for _, entry := range s.bus.listeners {
		if entry.id == s.id {
			return true
		}
	}
	return false
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	return len(b.listeners)
}

// Notify invokes every listener with store. Listeners added or removed while
// notifying take effect on the next call.
func (b *Bus) Notify(store *Store) {
	if b == nil || len(b.listeners) == 0 {
		return
	}
	current := append([]listenerEntry(nil), b.listeners...)
	for _, entry := range current {
		entry.fn(store)
	}
}

func (b *Bus) remove(id uint64) {
	for i, entry := range b.listeners {
		if entry.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}
