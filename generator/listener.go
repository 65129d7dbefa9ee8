package generator

// Listener receives every non-null value emitted by the generator it is
// registered on. Notification is synchronous: a listener has observed the
// value before the emitting Next call returns.
type Listener interface {
	HandleEvent(v Value, vis *Visitor)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(v Value, vis *Visitor)

// HandleEvent calls f(v, vis).
func (f ListenerFunc) HandleEvent(v Value, vis *Visitor) { f(v, vis) }

// Listeners is an ordered, append-only listener list embedded by
// generators that can drive other generators.
type Listeners struct {
	list []Listener
}

// AddListener registers l. Listeners are notified in registration order
// and cannot be removed.
func (ls *Listeners) AddListener(l Listener) {
	if l != nil {
		ls.list = append(ls.list, l)
	}
}

// NotifyListeners delivers v to every registered listener.
func (ls *Listeners) NotifyListeners(v Value, vis *Visitor) {
	for _, l := range ls.list {
		l.HandleEvent(v, vis)
	}
}

// Len returns the number of registered listeners.
func (ls *Listeners) Len() int { return len(ls.list) }
