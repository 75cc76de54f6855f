package model

import (
	"sort"
	"sync"

	"github.com/mheijden/fitfix/pkg/geometry"
)

// PipingModel is the reference in-memory accessor. It holds segments,
// fittings and their connector joins, serves snapshot reads, and realizes
// the atomic-unit primitives with an undo journal.
//
// A run mutates the model single-threaded through units; the mutex only
// guards concurrent readers outside a run (store saves, embedding hosts).
type PipingModel struct {
	mu       sync.RWMutex
	nextID   ElementID
	segments map[ElementID]*Segment
	fittings map[ElementID]*Fitting
	refs     map[ElementID][][]ElementID
	dead     map[ElementID]bool

	undo      []undoEntry
	groupOpen bool
	groupMark int
}

// undoEntry holds the pre-images of one committed unit (or one assimilated
// group of units).
type undoEntry struct {
	params  map[ElementID]map[string]*Param
	flipped map[ElementID]bool
}

// NewPipingModel creates an empty model.
func NewPipingModel() *PipingModel {
	return &PipingModel{
		nextID:   1,
		segments: make(map[ElementID]*Segment),
		fittings: make(map[ElementID]*Fitting),
		refs:     make(map[ElementID][][]ElementID),
		dead:     make(map[ElementID]bool),
	}
}

// AddSegment creates a segment with two endpoint connectors and returns it.
func (m *PipingModel) AddSegment(typeName string, diameterMM float64, start, end geometry.Vec3) *Segment {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Segment{
		ID:         m.nextID,
		TypeName:   typeName,
		DiameterMM: diameterMM,
		Start:      start,
		End:        end,
	}
	m.nextID++
	m.segments[s.ID] = s
	m.refs[s.ID] = make([][]ElementID, 2)
	return s
}

// AddFitting creates a fitting with the given number of connectors and
// returns it. The params map is taken over by the model, not copied.
func (m *PipingModel) AddFitting(family string, connectors int, flippable bool, params map[string]*Param) *Fitting {
	m.mu.Lock()
	defer m.mu.Unlock()

	if params == nil {
		params = make(map[string]*Param)
	}
	f := &Fitting{
		ID:        m.nextID,
		Family:    family,
		Params:    params,
		Flippable: flippable,
	}
	m.nextID++
	m.fittings[f.ID] = f
	m.refs[f.ID] = make([][]ElementID, connectors)
	return f
}

// Join connects connector ai of element a with connector bi of element b.
// Both connectors gain a reference to the other element's identity.
func (m *PipingModel) Join(a ElementID, ai int, b ElementID, bi int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ra, ok := m.refs[a]
	if !ok {
		return &ModelError{Op: "Join", ID: a, Cause: ErrNotFound}
	}
	rb, ok := m.refs[b]
	if !ok {
		return &ModelError{Op: "Join", ID: b, Cause: ErrNotFound}
	}
	if ai < 0 || ai >= len(ra) {
		return &ModelError{Op: "Join", ID: a, Cause: ErrConnectorRange}
	}
	if bi < 0 || bi >= len(rb) {
		return &ModelError{Op: "Join", ID: b, Cause: ErrConnectorRange}
	}

	ra[ai] = append(ra[ai], b)
	rb[bi] = append(rb[bi], a)
	return nil
}

// Invalidate marks an element dead, modeling an out-of-band deletion by
// host tooling. Dead elements fail liveness checks and resolve as absent.
func (m *PipingModel) Invalidate(id ElementID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.segments[id]; ok {
		m.dead[id] = true
		return
	}
	if _, ok := m.fittings[id]; ok {
		m.dead[id] = true
	}
}

// Segments lists every live segment, ordered by identity.
func (m *PipingModel) Segments() ([]*Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Segment, 0, len(m.segments))
	for id, s := range m.segments {
		if m.dead[id] {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Fittings lists every live fitting, ordered by identity.
func (m *PipingModel) Fittings() ([]*Fitting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Fitting, 0, len(m.fittings))
	for id, f := range m.fittings {
		if m.dead[id] {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Segment re-resolves a segment by identity; false when absent or dead.
func (m *PipingModel) Segment(id ElementID) (*Segment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dead[id] {
		return nil, false
	}
	s, ok := m.segments[id]
	return s, ok
}

// Fitting re-resolves a fitting by identity; false when absent or dead.
func (m *PipingModel) Fitting(id ElementID) (*Fitting, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dead[id] {
		return nil, false
	}
	f, ok := m.fittings[id]
	return f, ok
}

// OwnerKind tells whether an identity belongs to a segment or fitting.
func (m *PipingModel) OwnerKind(id ElementID) (OwnerKind, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.segments[id]; ok {
		return OwnerSegment, true
	}
	if _, ok := m.fittings[id]; ok {
		return OwnerFitting, true
	}
	return 0, false
}

// Live reports whether the element exists and has not been invalidated.
func (m *PipingModel) Live(id ElementID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live(id)
}

// live is the lock-free form for internal callers holding the mutex.
func (m *PipingModel) live(id ElementID) bool {
	if m.dead[id] {
		return false
	}
	if _, ok := m.segments[id]; ok {
		return true
	}
	_, ok := m.fittings[id]
	return ok
}

// ConnectorRefs returns, per connector of the element, the identities of
// the owners joined to it. References to dead elements are included; the
// caller is responsible for liveness checks.
func (m *PipingModel) ConnectorRefs(id ElementID) [][]ElementID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	refs, ok := m.refs[id]
	if !ok || m.dead[id] {
		return nil
	}
	out := make([][]ElementID, len(refs))
	for i, r := range refs {
		out[i] = append([]ElementID(nil), r...)
	}
	return out
}

// UndoDepth returns the number of entries in the undo journal.
func (m *PipingModel) UndoDepth() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.undo)
}

// Undo pops the newest journal entry and restores its pre-images. It
// cannot run while a group is open.
func (m *PipingModel) Undo() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.groupOpen {
		return &ModelError{Op: "Undo", Cause: ErrGroupOpen}
	}
	if len(m.undo) == 0 {
		return &ModelError{Op: "Undo", Cause: ErrNotFound}
	}

	entry := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.restore(entry)
	return nil
}

// restore applies an undo entry's pre-images. Caller holds the mutex.
func (m *PipingModel) restore(entry undoEntry) {
	for fid, params := range entry.params {
		f, ok := m.fittings[fid]
		if !ok {
			continue
		}
		for name, pre := range params {
			f.Params[name] = pre.Clone()
		}
	}
	for fid, wasFlipped := range entry.flipped {
		if f, ok := m.fittings[fid]; ok {
			f.Flipped = wasFlipped
		}
	}
}
