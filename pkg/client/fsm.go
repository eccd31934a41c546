package client

// Transition is the target of a state machine transition.
type Transition[S comparable] struct {
	To S

	// Guard, if set, must return true for the transition to happen.
	Guard func() bool

	// Action runs after the state has changed.
	Action func()
}

type edge[S, E comparable] struct {
	from  S
	event E
}

// Machine is a finite state machine driven by static transition tables.
// Wildcard transitions apply in every state and take precedence over
// transitions registered for a specific state.
type Machine[S, E comparable] struct {
	state     S
	table     map[edge[S, E]]Transition[S]
	wild      map[E]Transition[S]
	listeners []func(from, to S, event E)
}

// NewMachine returns a machine in the initial state.
func NewMachine[S, E comparable](initial S) *Machine[S, E] {
	return &Machine[S, E]{
		state: initial,
		table: make(map[edge[S, E]]Transition[S]),
		wild:  make(map[E]Transition[S]),
	}
}

// On registers the transition taken on event in state from.
func (m *Machine[S, E]) On(from S, event E, t Transition[S]) {
	m.table[edge[S, E]{from, event}] = t
}

// Wild registers the transition taken on event in any state.
func (m *Machine[S, E]) Wild(event E, t Transition[S]) {
	m.wild[event] = t
}

// OnChange registers fn to be called after every transition.
func (m *Machine[S, E]) OnChange(fn func(from, to S, event E)) {
	m.listeners = append(m.listeners, fn)
}

// State returns the current state.
func (m *Machine[S, E]) State() S {
	return m.state
}

// Feed advances the machine. It returns false, leaving the state
// unchanged, when no transition is registered for the current state and
// event or its guard rejects it.
func (m *Machine[S, E]) Feed(event E) bool {
	t, ok := m.wild[event]
	if !ok {
		t, ok = m.table[edge[S, E]{m.state, event}]
	}
	if !ok {
		return false
	}
	if t.Guard != nil && !t.Guard() {
		return false
	}

	from := m.state
	m.state = t.To
	if t.Action != nil {
		t.Action()
	}
	for _, fn := range m.listeners {
		fn(from, t.To, event)
	}
	return true
}
