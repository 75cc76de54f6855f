package model

// paramWrite is one buffered yes/no assignment.
type paramWrite struct {
	fitting ElementID
	name    string
	value   bool
}

// modelUnit buffers parameter writes and flips for one fitting update.
// Nothing is visible to readers until Commit publishes the whole set.
type modelUnit struct {
	m          *PipingModel
	writes     []paramWrite
	flips      []ElementID
	committed  bool
	rolledBack bool
}

// BeginUnit opens an atomic unit for one fitting update.
func (m *PipingModel) BeginUnit() (Unit, error) {
	return &modelUnit{m: m}, nil
}

// SetParam buffers a yes/no assignment after validating the target against
// the live model. ErrParamNotFound and ErrParamMismatch mark assignments
// the caller may drop; ErrNotFound and ErrNotLive are faults.
func (u *modelUnit) SetParam(fitting ElementID, name string, value bool) error {
	if u.committed || u.rolledBack {
		return &ModelError{Op: "SetParam", Kind: "fitting", ID: fitting, Param: name, Cause: ErrUnitClosed}
	}

	u.m.mu.RLock()
	defer u.m.mu.RUnlock()

	f, ok := u.m.fittings[fitting]
	if !ok {
		return &ModelError{Op: "SetParam", Kind: "fitting", ID: fitting, Param: name, Cause: ErrNotFound}
	}
	if u.m.dead[fitting] {
		return &ModelError{Op: "SetParam", Kind: "fitting", ID: fitting, Param: name, Cause: ErrNotLive}
	}
	p := f.Params[name]
	if p == nil {
		return &ModelError{Op: "SetParam", Kind: "fitting", ID: fitting, Param: name, Cause: ErrParamNotFound}
	}
	if p.Storage != StorageBool && p.Storage != StorageInteger {
		return &ModelError{Op: "SetParam", Kind: "fitting", ID: fitting, Param: name, Cause: ErrParamMismatch}
	}

	u.writes = append(u.writes, paramWrite{fitting: fitting, name: name, value: value})
	return nil
}

// Flip buffers an orientation flip for a flippable fitting.
func (u *modelUnit) Flip(fitting ElementID) error {
	if u.committed || u.rolledBack {
		return &ModelError{Op: "Flip", Kind: "fitting", ID: fitting, Cause: ErrUnitClosed}
	}

	u.m.mu.RLock()
	defer u.m.mu.RUnlock()

	f, ok := u.m.fittings[fitting]
	if !ok {
		return &ModelError{Op: "Flip", Kind: "fitting", ID: fitting, Cause: ErrNotFound}
	}
	if u.m.dead[fitting] {
		return &ModelError{Op: "Flip", Kind: "fitting", ID: fitting, Cause: ErrNotLive}
	}
	if !f.Flippable {
		return &ModelError{Op: "Flip", Kind: "fitting", ID: fitting, Cause: ErrCannotFlip}
	}

	u.flips = append(u.flips, fitting)
	return nil
}

// Commit publishes every buffered write atomically and records one undo
// journal entry holding the pre-images. Liveness is re-checked first; a
// fitting invalidated since buffering fails the whole unit with nothing
// published.
func (u *modelUnit) Commit() error {
	if u.committed || u.rolledBack {
		return &ModelError{Op: "Commit", Cause: ErrUnitClosed}
	}

	u.m.mu.Lock()
	defer u.m.mu.Unlock()

	for _, w := range u.writes {
		if !u.m.live(w.fitting) {
			return &ModelError{Op: "Commit", Kind: "fitting", ID: w.fitting, Cause: ErrNotLive}
		}
	}
	for _, fid := range u.flips {
		if !u.m.live(fid) {
			return &ModelError{Op: "Commit", Kind: "fitting", ID: fid, Cause: ErrNotLive}
		}
	}

	entry := undoEntry{
		params:  make(map[ElementID]map[string]*Param),
		flipped: make(map[ElementID]bool),
	}

	for _, w := range u.writes {
		f := u.m.fittings[w.fitting]
		p := f.Params[w.name]
		if p == nil {
			// Parameter disappeared since buffering; drop the assignment,
			// mirroring the absent-parameter rule
			continue
		}
		if entry.params[w.fitting] == nil {
			entry.params[w.fitting] = make(map[string]*Param)
		}
		if _, recorded := entry.params[w.fitting][w.name]; !recorded {
			entry.params[w.fitting][w.name] = p.Clone()
		}
		if err := p.setBool(w.value); err != nil {
			// Storage kind changed since buffering; treat as a dropped
			// assignment as well
			continue
		}
	}

	for _, fid := range u.flips {
		f := u.m.fittings[fid]
		if _, recorded := entry.flipped[fid]; !recorded {
			entry.flipped[fid] = f.Flipped
		}
		f.Flipped = !f.Flipped
	}

	if len(entry.params) > 0 || len(entry.flipped) > 0 {
		u.m.undo = append(u.m.undo, entry)
	}

	u.committed = true
	return nil
}

// Rollback discards the buffered writes. It is idempotent and a no-op
// after Commit.
func (u *modelUnit) Rollback() {
	if u.committed || u.rolledBack {
		return
	}
	u.writes = nil
	u.flips = nil
	u.rolledBack = true
}

// modelGroup squashes or discards the undo entries of units committed
// while it was open.
type modelGroup struct {
	m      *PipingModel
	closed bool
}

// BeginGroup opens the run-level grouping unit. At most one group may be
// open at a time.
func (m *PipingModel) BeginGroup() (Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.groupOpen {
		return nil, &ModelError{Op: "BeginGroup", Cause: ErrGroupOpen}
	}
	m.groupOpen = true
	m.groupMark = len(m.undo)
	return &modelGroup{m: m}, nil
}

// Assimilate merges every undo entry recorded under the group into a
// single journal entry, leaving one undo step for the whole run.
func (g *modelGroup) Assimilate() error {
	if g.closed {
		return &ModelError{Op: "Assimilate", Cause: ErrGroupClosed}
	}
	g.closed = true

	g.m.mu.Lock()
	defer g.m.mu.Unlock()

	mark := g.m.groupMark
	grouped := g.m.undo[mark:]
	g.m.groupOpen = false

	if len(grouped) == 0 {
		return nil
	}

	merged := undoEntry{
		params:  make(map[ElementID]map[string]*Param),
		flipped: make(map[ElementID]bool),
	}

	// Oldest pre-image wins: walk entries in commit order and keep the
	// first recording per key
	for _, e := range grouped {
		for fid, params := range e.params {
			if merged.params[fid] == nil {
				merged.params[fid] = make(map[string]*Param)
			}
			for name, pre := range params {
				if _, recorded := merged.params[fid][name]; !recorded {
					merged.params[fid][name] = pre
				}
			}
		}
		for fid, wasFlipped := range e.flipped {
			if _, recorded := merged.flipped[fid]; !recorded {
				merged.flipped[fid] = wasFlipped
			}
		}
	}

	g.m.undo = append(g.m.undo[:mark], merged)
	return nil
}

// Discard rolls back every unit committed under the group, newest first,
// and removes their journal entries.
func (g *modelGroup) Discard() error {
	if g.closed {
		return &ModelError{Op: "Discard", Cause: ErrGroupClosed}
	}
	g.closed = true

	g.m.mu.Lock()
	defer g.m.mu.Unlock()

	mark := g.m.groupMark
	grouped := g.m.undo[mark:]
	g.m.groupOpen = false

	for i := len(grouped) - 1; i >= 0; i-- {
		g.m.restore(grouped[i])
	}
	g.m.undo = g.m.undo[:mark]
	return nil
}
