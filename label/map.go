package label

import "fmt"

// Map is the id→label mapping of one evaluation run. Ids are positions in
// the label list it was built from. A Map is never modified after NewMap
// returns, so it can be shared between goroutines.
type Map struct {
	labels []string
	ids    map[string]int
}

// NewMap builds a Map from an ordered label list.
func NewMap(labels []string) (*Map, error) {
	m := &Map{
		labels: make([]string, len(labels)),
		ids:    make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		if _, dup := m.ids[l]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, l)
		}
		m.labels[i] = l
		m.ids[l] = i
	}
	return m, nil
}

// Lookup returns the label for id.
func (m *Map) Lookup(id int) (string, error) {
	if id < 0 || id >= len(m.labels) {
		return "", fmt.Errorf("%w: %d (map has %d labels)", ErrUnknownID, id, len(m.labels))
	}
	return m.labels[id], nil
}

// ID returns the id of a label.
func (m *Map) ID(label string) (int, bool) {
	id, ok := m.ids[label]
	return id, ok
}

// Resolve maps a sequence of ids to their labels. It fails on the first
// unknown id.
func (m *Map) Resolve(ids []int) ([]string, error) {
	tags := make([]string, len(ids))
	for i, id := range ids {
		l, err := m.Lookup(id)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		tags[i] = l
	}
	return tags, nil
}

// Len returns the number of labels.
func (m *Map) Len() int { return len(m.labels) }

// Labels returns a copy of the label list.
func (m *Map) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}
