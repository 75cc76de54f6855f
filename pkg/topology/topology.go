// Package topology derives connectivity facts from a piping model: which
// owners a segment's connectors reach, which segment is the branch of a
// tee, and how many live neighbors a fitting has. Every miss resolves to
// "no match"; the package has no error returns.
package topology

import (
	"github.com/mheijden/fitfix/pkg/model"
)

// Builder answers connectivity queries against one model snapshot.
type Builder struct {
	reader model.Reader
}

// NewBuilder creates a builder over the given reader.
func NewBuilder(reader model.Reader) *Builder {
	return &Builder{reader: reader}
}

// ConnectedOwners returns the identities referenced by the element's
// connectors, in connector order, self excluded. Duplicates are kept;
// deduplication is the caller's visited-set concern. Dead references are
// included, liveness is checked at resolution time.
func (b *Builder) ConnectedOwners(id model.ElementID) []model.ElementID {
	refs := b.reader.ConnectorRefs(id)
	var out []model.ElementID
	for _, conn := range refs {
		for _, owner := range conn {
			if owner == id {
				continue
			}
			out = append(out, owner)
		}
	}
	return out
}

// BranchSegment returns the first live segment attached to the fitting
// that is not the main segment. The bool is false when no such segment
// exists; that is an expected outcome, not an error.
func (b *Builder) BranchSegment(fitting, main model.ElementID) (*model.Segment, bool) {
	for _, owner := range b.ConnectedOwners(fitting) {
		if owner == main {
			continue
		}
		kind, ok := b.reader.OwnerKind(owner)
		if !ok || kind != model.OwnerSegment {
			continue
		}
		if seg, ok := b.reader.Segment(owner); ok {
			return seg, true
		}
	}
	return nil, false
}

// LiveOwnerCount counts the distinct live owners joined to the fitting
// across all its connectors, excluding the fitting itself. This is the
// reducer connectivity guard input; it is evaluated fresh on every call
// because connectivity can change within a run.
func (b *Builder) LiveOwnerCount(fitting model.ElementID) int {
	seen := model.NewIDSet()
	count := 0
	for _, owner := range b.ConnectedOwners(fitting) {
		if !seen.Add(owner) {
			continue
		}
		if b.reader.Live(owner) {
			count++
		}
	}
	return count
}
