package game

// roster is the ordered mapping of connection identity to display name.
// Insertion order decides host succession and vote-target order.
type roster struct {
	order []string
	names map[string]string
}

func newRoster() roster {
	return roster{names: make(map[string]string)}
}

// add enrolls id, or renames it in place when already present.
func (r *roster) add(id, name string) {
	if _, ok := r.names[id]; !ok {
		r.order = append(r.order, id)
	}
	r.names[id] = name
}

func (r *roster) remove(id string) bool {
	if _, ok := r.names[id]; !ok {
		return false
	}
	delete(r.names, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *roster) has(id string) bool {
	_, ok := r.names[id]
	return ok
}

func (r *roster) name(id string) string {
	return r.names[id]
}

func (r *roster) len() int {
	return len(r.order)
}

func (r *roster) first() (string, bool) {
	if len(r.order) == 0 {
		return "", false
	}
	return r.order[0], true
}

func (r *roster) ids() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *roster) namesByID() map[string]string {
	out := make(map[string]string, len(r.names))
	for id, name := range r.names {
		out[id] = name
	}
	return out
}
