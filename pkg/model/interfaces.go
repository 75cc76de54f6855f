package model

// Reader is the read side of the accessor contract: full snapshot queries
// and identity re-resolution. Listing can fail (a host model may be
// unreachable); per-element lookups report absence or invalidation through
// the bool arm, never through an error.
type Reader interface {
	// Segments lists every segment in the model, ordered by identity.
	Segments() ([]*Segment, error)
	// Fittings lists every fitting in the model, ordered by identity.
	Fittings() ([]*Fitting, error)
	// Segment re-resolves a segment by identity; false when absent or dead.
	Segment(id ElementID) (*Segment, bool)
	// Fitting re-resolves a fitting by identity; false when absent or dead.
	Fitting(id ElementID) (*Fitting, bool)
	// OwnerKind tells whether an identity belongs to a segment or fitting.
	OwnerKind(id ElementID) (OwnerKind, bool)
	// Live reports whether the element exists and has not been invalidated.
	Live(id ElementID) bool
	// ConnectorRefs returns, per connector of the element, the identities
	// of the owners joined to it.
	ConnectorRefs(id ElementID) [][]ElementID
}

// Unit is one atomic set of parameter writes and orientation flips against
// a single fitting update. Writes buffer until Commit publishes them all at
// once; Rollback discards the buffer. Rollback is idempotent and a no-op
// after Commit, so it is safe to defer.
type Unit interface {
	// SetParam buffers a yes/no assignment. ErrParamNotFound and
	// ErrParamMismatch identify assignments the caller may drop without
	// failing the unit; any other error is a fault.
	SetParam(fitting ElementID, name string, value bool) error
	// Flip buffers an orientation flip.
	Flip(fitting ElementID) error
	// Commit publishes every buffered write atomically and records one
	// undo journal entry.
	Commit() error
	// Rollback discards the buffered writes.
	Rollback()
}

// Group is the optional run-level unit. Assimilate squashes the undo
// entries of every unit committed under the group into a single journal
// entry; Discard rolls those units back instead.
type Group interface {
	Assimilate() error
	Discard() error
}

// Accessor is the full contract the engine runs against: snapshot reads
// plus the atomic-unit primitives.
type Accessor interface {
	Reader
	// BeginUnit opens an atomic unit for one fitting update.
	BeginUnit() (Unit, error)
	// BeginGroup opens the run-level grouping unit. At most one group may
	// be open at a time.
	BeginGroup() (Group, error)
}
